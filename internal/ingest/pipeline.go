package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/corinthian/sw-catcher/internal/clipboard"
	"github.com/corinthian/sw-catcher/internal/keyphrase"
	"github.com/corinthian/sw-catcher/internal/textclean"
)

const (
	// DefaultAttempts bounds the read+decode+extract loop.
	DefaultAttempts = 5
	// DefaultRetryDelay separates attempts.
	DefaultRetryDelay = 500 * time.Millisecond
)

// Deliverer places text on the clipboard.
type Deliverer interface {
	Deliver(ctx context.Context, text string) (clipboard.Report, error)
}

// Config wires a Pipeline. Matcher and Deliverer may be nil: without a
// matcher no keyphrases are processed, without a deliverer nothing is copied.
type Config struct {
	Matcher    *keyphrase.Matcher
	Processor  *keyphrase.Processor
	Cleaner    *textclean.Cleaner
	Deliverer  Deliverer
	Debouncer  *Debouncer
	Preference FieldPreference
	Observer   Observer
	Logger     *slog.Logger

	// Attempts and RetryDelay default to DefaultAttempts and DefaultRetryDelay.
	Attempts   int
	RetryDelay time.Duration
}

// Outcome is the result of processing one artifact.
type Outcome struct {
	ID     string
	Field  string
	Input  string
	Text   string
	Result keyphrase.Result
	Report clipboard.Report
	Copied bool
}

// Pipeline processes artifacts end to end.
type Pipeline struct {
	matcher    *keyphrase.Matcher
	processor  *keyphrase.Processor
	cleaner    *textclean.Cleaner
	deliverer  Deliverer
	debouncer  *Debouncer
	preference FieldPreference
	observer   Observer
	logger     *slog.Logger
	attempts   int
	retryDelay time.Duration

	readFile func(string) ([]byte, error)
	sleep    func(context.Context, time.Duration) error
	now      func() time.Time
}

// New creates a pipeline from cfg.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		matcher:    cfg.Matcher,
		processor:  cfg.Processor,
		cleaner:    cfg.Cleaner,
		deliverer:  cfg.Deliverer,
		debouncer:  cfg.Debouncer,
		preference: cfg.Preference,
		observer:   cfg.Observer,
		logger:     logger.With("component", "ingest"),
		attempts:   cfg.Attempts,
		retryDelay: cfg.RetryDelay,
		readFile:   os.ReadFile,
		sleep:      clipboard.Sleep,
		now:        time.Now,
	}
	if p.attempts <= 0 {
		p.attempts = DefaultAttempts
	}
	if p.retryDelay <= 0 {
		p.retryDelay = DefaultRetryDelay
	}
	if p.processor == nil {
		p.processor = &keyphrase.Processor{DryRun: true, Logger: logger}
	}
	if p.cleaner == nil {
		p.cleaner = textclean.New(textclean.Options{}, logger)
	}
	if p.debouncer == nil {
		p.debouncer = NewDebouncer(logger)
	}
	return p
}

// Debouncer returns the pipeline's debouncer so callers can run its sweep.
func (p *Pipeline) Debouncer() *Debouncer {
	return p.debouncer
}

// HandleFile is the watcher entry point. Events for a path accepted less than
// a second ago are discarded; failures are logged and never returned.
func (p *Pipeline) HandleFile(ctx context.Context, path string) {
	if !p.debouncer.Allow(path) {
		p.logger.Debug("skipping recently processed file", "path", path)
		p.emit(Event{Path: path, Stage: StageSkipped})
		return
	}
	if _, err := p.ProcessFile(ctx, path); err != nil {
		p.logger.Error("artifact not copied", "path", path, "error", err)
	}
}

// ProcessFile reads path, retrying while the artifact is incomplete, and runs
// its text through keyphrase processing, cleaning and clipboard delivery.
// It does not consult the debouncer.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*Outcome, error) {
	id := uuid.New().String()
	logger := p.logger.With("event_id", id, "path", path)
	logger.Info("found new artifact")
	p.emit(Event{ID: id, Path: path, Stage: StageReceived})

	text, field, err := p.load(ctx, id, path, logger)
	if err != nil {
		p.emit(Event{ID: id, Path: path, Stage: StageFailed, Err: err})
		return nil, err
	}
	logger.Debug("using result field", "preference", p.preference.String(), "field", field)

	out := p.transform(ctx, text, logger)
	out.ID = id
	out.Field = field
	return p.deliver(ctx, path, out, logger)
}

// ProcessText runs text that did not come from an artifact through the same
// chain as ProcessFile.
func (p *Pipeline) ProcessText(ctx context.Context, text string) (*Outcome, error) {
	id := uuid.New().String()
	logger := p.logger.With("event_id", id)
	out := p.transform(ctx, text, logger)
	out.ID = id
	return p.deliver(ctx, "", out, logger)
}

func (p *Pipeline) deliver(ctx context.Context, path string, out *Outcome, logger *slog.Logger) (*Outcome, error) {
	id := out.ID
	p.emit(Event{ID: id, Path: path, Stage: StageProcessed, Text: out.Text, Actions: executed(out.Result)})

	if p.deliverer == nil {
		logger.Info("clipboard disabled, not copying", "text", truncate(out.Text, 60))
		return out, nil
	}
	var err error
	out.Report, err = p.deliverer.Deliver(ctx, out.Text)
	if err != nil {
		logger.Error("clipboard error", "error", err)
		p.emit(Event{ID: id, Path: path, Stage: StageFailed, Text: out.Text, Err: err})
		return out, fmt.Errorf("deliver to clipboard: %w", err)
	}
	out.Copied = true
	logger.Info("copied to clipboard", "text", truncate(out.Text, 60), "writes", out.Report.Writes)
	p.emit(Event{ID: id, Path: path, Stage: StageCopied, Text: out.Text})
	return out, nil
}

// Transform runs text through keyphrase processing and cleaning only.
func (p *Pipeline) Transform(ctx context.Context, text string) *Outcome {
	return p.transform(ctx, text, p.logger)
}

func (p *Pipeline) transform(ctx context.Context, text string, logger *slog.Logger) *Outcome {
	out := &Outcome{Input: text}
	res := keyphrase.Result{Text: text}
	if p.matcher != nil && p.matcher.Len() > 0 {
		matches := p.matcher.DetectAll(text)
		logger.Debug("detected keyphrases", "matches", len(matches), "strategy", p.matcher.Strategy().String())
		res = p.processor.Process(ctx, text, matches)
	}
	out.Result = res
	out.Text = p.cleaner.Clean(res.Text)
	return out
}

// load runs the bounded read+decode+extract loop.
func (p *Pipeline) load(ctx context.Context, id, path string, logger *slog.Logger) (text, field string, err error) {
	var data []byte
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if attempt > 1 {
			logger.Debug("retrying", "delay", p.retryDelay, "attempt", attempt, "max", p.attempts)
			p.emit(Event{ID: id, Path: path, Stage: StageRetrying, Attempt: attempt, Err: err})
			if serr := p.sleep(ctx, p.retryDelay); serr != nil {
				return "", "", serr
			}
		}

		b, rerr := p.readFile(path)
		if rerr != nil {
			err = fmt.Errorf("read artifact: %w", rerr)
			logger.Debug("couldn't read artifact", "attempt", attempt, "max", p.attempts, "error", rerr)
			continue
		}
		data = b

		text, field, err = Extract(data, p.preference)
		if err == nil {
			return text, field, nil
		}
		logger.Debug("artifact not ready", "attempt", attempt, "max", p.attempts, "error", err)
	}

	logger.Error("giving up on artifact", "attempts", p.attempts, "preference", p.preference.String(), "error", err)
	if data != nil {
		p.logStructure(logger, data)
	}
	return "", "", fmt.Errorf("%s after %d attempts: %w", path, p.attempts, err)
}

func (p *Pipeline) logStructure(logger *slog.Logger, data []byte) {
	keys, sample, invalid := Describe(data)
	if keys == nil && invalid != "" {
		logger.Error("artifact is not a JSON object", "content", invalid)
		return
	}
	logger.Error("unknown artifact structure", "keys", keys)
	for _, k := range keys {
		logger.Info("artifact field", "key", k, "value", sample[k])
	}
}

func (p *Pipeline) emit(e Event) {
	if p.observer == nil {
		return
	}
	e.At = p.now()
	p.observer.Observe(e)
}

func executed(res keyphrase.Result) []string {
	var out []string
	for _, e := range res.Executions {
		out = append(out, e.Keyphrase)
	}
	return out
}
