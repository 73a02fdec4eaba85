package ingest

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/corinthian/sw-catcher/internal/actions"
	"github.com/corinthian/sw-catcher/internal/clipboard"
	"github.com/corinthian/sw-catcher/internal/keyphrase"
	"github.com/corinthian/sw-catcher/internal/textclean"
)

func strp(s string) *string { return &s }

func TestArtifactSelect(t *testing.T) {
	full := Artifact{
		LLMResult: strp("This is the LLM result"),
		Result:    strp("This is the intermediate result"),
		RawResult: strp("This is the raw result"),
	}
	partial := Artifact{Result: strp("This is the intermediate result"), RawResult: strp("This is the raw result")}
	rawOnly := Artifact{LLMResult: strp(""), RawResult: strp("This is the raw result")}

	tests := []struct {
		name      string
		a         Artifact
		pref      FieldPreference
		want      string
		wantField string
		wantErr   bool
	}{
		{"llm", full, PreferLLM, "This is the LLM result", "llmResult", false},
		{"raw", full, PreferRaw, "This is the raw result", "rawResult", false},
		{"intermediate", full, PreferIntermediate, "This is the intermediate result", "result", false},
		{"auto full", full, PreferAuto, "This is the LLM result", "llmResult", false},
		{"llm missing", partial, PreferLLM, "", "", true},
		{"auto partial", partial, PreferAuto, "This is the intermediate result", "result", false},
		{"auto skips empty", rawOnly, PreferAuto, "This is the raw result", "rawResult", false},
		{"auto nothing", Artifact{}, PreferAuto, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, field, err := tt.a.Select(tt.pref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Select() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrNoText) {
				t.Errorf("Expected ErrNoText, got %v", err)
			}
			if got != tt.want || field != tt.wantField {
				t.Errorf("Select() = (%q, %q), want (%q, %q)", got, field, tt.want, tt.wantField)
			}
		})
	}
}

func TestParseFieldPreference(t *testing.T) {
	tests := []struct {
		in   string
		want FieldPreference
		ok   bool
	}{
		{"llm", PreferLLM, true},
		{"LLM", PreferLLM, true},
		{"raw", PreferRaw, true},
		{"intermediate", PreferIntermediate, true},
		{"auto", PreferAuto, true},
		{"invalid", PreferAuto, false},
	}
	for _, tt := range tests {
		got, ok := ParseFieldPreference(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseFieldPreference(%q) = (%s, %v), want (%s, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtract(t *testing.T) {
	text, field, err := Extract([]byte(`{"llmResult":"hello","other":1}`), PreferAuto)
	if err != nil || text != "hello" || field != "llmResult" {
		t.Errorf("Extract() = (%q, %q, %v)", text, field, err)
	}

	if _, _, err := Extract([]byte(`{"llmResult":"hel`), PreferAuto); err == nil {
		t.Error("Expected decode error for truncated document")
	}

	if _, _, err := Extract([]byte(`{"segments":[]}`), PreferAuto); !errors.Is(err, ErrNoText) {
		t.Errorf("Expected ErrNoText, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	keys, sample, invalid := Describe([]byte(`{"b":"` + strings.Repeat("x", 40) + `","a":3}`))
	if invalid != "" {
		t.Fatalf("unexpected invalid %q", invalid)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("keys = %v", keys)
	}
	if sample["a"] != "3" || sample["b"] != strings.Repeat("x", 30)+"..." {
		t.Errorf("sample = %v", sample)
	}

	keys, _, invalid = Describe([]byte("not json"))
	if keys != nil || invalid != "not json" {
		t.Errorf("Describe(invalid) = (%v, %q)", keys, invalid)
	}
}

// fakeClock is advanced by hand.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDebouncer() (*Debouncer, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	d := NewDebouncer(nil)
	d.now = clock.Now
	return d, clock
}

func TestDebouncer_Allow(t *testing.T) {
	d, clock := newTestDebouncer()

	if !d.Allow("/a/meta.json") {
		t.Fatal("first event should be allowed")
	}
	clock.Advance(500 * time.Millisecond)
	if d.Allow("/a/meta.json") {
		t.Error("event within the window should be suppressed")
	}
	if !d.Allow("/b/meta.json") {
		t.Error("other paths are independent")
	}
	clock.Advance(600 * time.Millisecond)
	if !d.Allow("/a/meta.json") {
		t.Error("event after the window should be allowed")
	}
}

func TestDebouncer_Sweep(t *testing.T) {
	d, clock := newTestDebouncer()

	d.Allow("/old/meta.json")
	clock.Advance(9 * time.Minute)
	d.Allow("/new/meta.json")
	clock.Advance(2 * time.Minute)

	if n := d.Sweep(); n != 1 {
		t.Errorf("Sweep() removed %d, want 1", n)
	}
	if d.Len() != 1 {
		t.Errorf("Len() = %d, want 1", d.Len())
	}
	if !d.Allow("/old/meta.json") {
		t.Error("swept path should be allowed again")
	}
}

func TestDebouncer_RunStopsOnCancel(t *testing.T) {
	d, _ := newTestDebouncer()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// recordingDeliverer records delivered text.
type recordingDeliverer struct {
	texts []string
	err   error
}

func (d *recordingDeliverer) Deliver(ctx context.Context, text string) (clipboard.Report, error) {
	d.texts = append(d.texts, text)
	if d.err != nil {
		return clipboard.Report{Writes: 3, Failed: 3}, d.err
	}
	return clipboard.Report{Writes: 1, Verified: true}, nil
}

type eventLog struct{ events []Event }

func (l *eventLog) Observe(e Event) { l.events = append(l.events, e) }

func (l *eventLog) stages() []Stage {
	var out []Stage
	for _, e := range l.events {
		out = append(out, e.Stage)
	}
	return out
}

type testPipeline struct {
	*Pipeline
	deliverer *recordingDeliverer
	events    *eventLog
	reads     int
	sleeps    int
	logs      *bytes.Buffer
}

func newTestPipeline(t *testing.T, kas []keyphrase.Action) *testPipeline {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tp := &testPipeline{deliverer: &recordingDeliverer{}, events: &eventLog{}, logs: &logs}
	tp.Pipeline = New(Config{
		Matcher:   keyphrase.NewMatcher(kas, keyphrase.Simple),
		Processor: &keyphrase.Processor{DryRun: true, Logger: logger},
		Cleaner:   textclean.New(textclean.Options{TrimWhitespace: true}, logger),
		Deliverer: tp.deliverer,
		Observer:  tp.events,
		Logger:    logger,
	})
	tp.sleep = func(ctx context.Context, d time.Duration) error {
		tp.sleeps++
		return ctx.Err()
	}
	return tp
}

// scriptReads makes successive reads return contents in order, repeating the
// last one.
func (tp *testPipeline) scriptReads(contents ...string) {
	tp.readFile = func(string) ([]byte, error) {
		i := tp.reads
		tp.reads++
		if i >= len(contents) {
			i = len(contents) - 1
		}
		if contents[i] == "" {
			return nil, fs.ErrNotExist
		}
		return []byte(contents[i]), nil
	}
}

func TestProcessFile_EndToEnd(t *testing.T) {
	tp := newTestPipeline(t, []keyphrase.Action{
		{Keyphrase: "open notes", Action: actions.Parse("")},
		{Keyphrase: "create reminder", Action: actions.Parse("")},
	})
	tp.scriptReads(`{"llmResult":"My meeting went well. Open notes I need to follow up with Sarah. Create reminder Call John."}`)

	out, err := tp.ProcessFile(context.Background(), "/dict/meta.json")
	if err != nil {
		t.Fatalf("ProcessFile() error = %v", err)
	}

	want := "My meeting went well. I need to follow up with Sarah. Call John."
	if out.Text != want {
		t.Errorf("Text = %q, want %q", out.Text, want)
	}
	if len(tp.deliverer.texts) != 1 || tp.deliverer.texts[0] != want {
		t.Errorf("delivered %q", tp.deliverer.texts)
	}
	if !out.Copied || out.ID == "" || out.Field != "llmResult" {
		t.Errorf("unexpected outcome %+v", out)
	}
	if len(out.Result.Executions) != 2 || out.Result.Executions[0].Keyphrase != "open notes" {
		t.Errorf("unexpected executions %+v", out.Result.Executions)
	}

	stages := tp.events.stages()
	wantStages := []Stage{StageReceived, StageProcessed, StageCopied}
	if len(stages) != len(wantStages) {
		t.Fatalf("stages = %v, want %v", stages, wantStages)
	}
	for i := range wantStages {
		if stages[i] != wantStages[i] {
			t.Errorf("stage %d = %s, want %s", i, stages[i], wantStages[i])
		}
	}
	for _, e := range tp.events.events {
		if e.ID != out.ID {
			t.Errorf("event %s has id %q, want %q", e.Stage, e.ID, out.ID)
		}
	}
}

func TestProcessFile_RetriesIncompleteArtifact(t *testing.T) {
	tp := newTestPipeline(t, nil)
	tp.scriptReads(
		"",
		`{"llmResult":"Hel`,
		`{"rawResult":"x"}`,
		`{"rawResult":"x","llmResult":"Hello there"}`,
	)

	out, err := tp.ProcessFile(context.Background(), "/dict/meta.json")
	if err != nil {
		t.Fatalf("ProcessFile() error = %v", err)
	}
	if out.Text != "x" {
		// auto prefers llmResult but the third read already has text.
		t.Errorf("Text = %q, want %q", out.Text, "x")
	}
	if tp.reads != 3 || tp.sleeps != 2 {
		t.Errorf("reads = %d, sleeps = %d, want 3 and 2", tp.reads, tp.sleeps)
	}
}

func TestProcessFile_GivesUpAfterAttempts(t *testing.T) {
	tp := newTestPipeline(t, nil)
	tp.scriptReads(`{"segments":[1,2],"title":"draft"}`)

	_, err := tp.ProcessFile(context.Background(), "/dict/meta.json")
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("Expected ErrNoText, got %v", err)
	}
	if tp.reads != DefaultAttempts || tp.sleeps != DefaultAttempts-1 {
		t.Errorf("reads = %d, sleeps = %d", tp.reads, tp.sleeps)
	}
	if len(tp.deliverer.texts) != 0 {
		t.Errorf("nothing should be delivered, got %q", tp.deliverer.texts)
	}
	logs := tp.logs.String()
	if !strings.Contains(logs, "unknown artifact structure") || !strings.Contains(logs, "key=title") {
		t.Errorf("Expected structure dump in logs:\n%s", logs)
	}
	stages := tp.events.stages()
	if stages[len(stages)-1] != StageFailed {
		t.Errorf("last stage = %s, want failed", stages[len(stages)-1])
	}
}

func TestProcessFile_CancelledDuringRetry(t *testing.T) {
	tp := newTestPipeline(t, nil)
	tp.scriptReads("")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tp.ProcessFile(ctx, "/dict/meta.json"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if tp.reads != 1 {
		t.Errorf("reads = %d, want 1", tp.reads)
	}
}

func TestProcessFile_DeliveryFailure(t *testing.T) {
	tp := newTestPipeline(t, nil)
	tp.deliverer.err = clipboard.ErrUnavailable
	tp.scriptReads(`{"result":"hi"}`)

	out, err := tp.ProcessFile(context.Background(), "/dict/meta.json")
	if !errors.Is(err, clipboard.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
	if out == nil || out.Copied {
		t.Errorf("unexpected outcome %+v", out)
	}
}

func TestProcessFile_NoDeliverer(t *testing.T) {
	tp := newTestPipeline(t, nil)
	tp.deliverer = nil
	tp.Pipeline.deliverer = nil
	tp.scriptReads(`{"result":"  hi  "}`)

	out, err := tp.ProcessFile(context.Background(), "/dict/meta.json")
	if err != nil {
		t.Fatalf("ProcessFile() error = %v", err)
	}
	if out.Text != "hi" || out.Copied {
		t.Errorf("unexpected outcome %+v", out)
	}
}

func TestHandleFile_Debounces(t *testing.T) {
	tp := newTestPipeline(t, nil)
	d, clock := newTestDebouncer()
	tp.debouncer = d
	tp.scriptReads(`{"result":"hello"}`)

	ctx := context.Background()
	tp.HandleFile(ctx, "/dict/meta.json")
	clock.Advance(300 * time.Millisecond)
	tp.HandleFile(ctx, "/dict/meta.json")

	if tp.reads != 1 {
		t.Errorf("reads = %d, want exactly one ingestion attempt", tp.reads)
	}
	if len(tp.deliverer.texts) != 1 {
		t.Errorf("deliveries = %d, want 1", len(tp.deliverer.texts))
	}

	clock.Advance(time.Second)
	tp.HandleFile(ctx, "/dict/meta.json")
	if tp.reads != 2 {
		t.Errorf("reads = %d, want 2 after the window", tp.reads)
	}
}

func TestHandleFile_RealFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.json")
	if err := os.WriteFile(path, []byte(`{"llmResult":"search google for cats"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tp := newTestPipeline(t, []keyphrase.Action{
		{Keyphrase: "search google", Action: actions.Parse("https://www.google.com/search?q=")},
	})
	tp.readFile = os.ReadFile

	tp.HandleFile(context.Background(), path)

	if len(tp.deliverer.texts) != 1 || tp.deliverer.texts[0] != "for cats" {
		t.Errorf("delivered %q, want [\"for cats\"]", tp.deliverer.texts)
	}
}

func TestTransform(t *testing.T) {
	tp := newTestPipeline(t, []keyphrase.Action{{Keyphrase: "open browser", Action: actions.Parse("firefox")}})

	out := tp.Transform(context.Background(), "  Open browser, then read.  ")
	if out.Text != "then read." {
		t.Errorf("Transform() = %q", out.Text)
	}
	if len(tp.deliverer.texts) != 0 {
		t.Error("Transform must not touch the clipboard")
	}
}

func TestProcessText(t *testing.T) {
	tp := newTestPipeline(t, []keyphrase.Action{{Keyphrase: "open notes", Action: actions.Parse("")}})

	out, err := tp.ProcessText(context.Background(), "Open notes buy milk.")
	if err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}
	if out.Text != "buy milk." || !out.Copied {
		t.Errorf("unexpected outcome %+v", out)
	}
	if len(tp.deliverer.texts) != 1 {
		t.Errorf("deliveries = %d, want 1", len(tp.deliverer.texts))
	}
	if tp.reads != 0 {
		t.Error("ProcessText must not read files")
	}
}
