package textclean

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestClean_Passes(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		input string
		want  string
	}{
		{"no passes", Options{}, "  hello  \r\n", "  hello  \r\n"},
		{"trim", Options{TrimWhitespace: true}, "\n\thello\n\t", "hello"},
		{"newlines", Options{NormalizeNewlines: true}, "hello\r\nworld", "hello\nworld"},
		{"lone carriage return", Options{NormalizeNewlines: true}, "a\r\r\nb\rc", "a\n\nb\nc"},
		{"extra spaces", Options{RemoveExtraSpaces: true}, "hello  \t\nworld", "hello world"},
		{"unicode spaces", Options{RemoveExtraSpaces: true}, "hello\u00a0\u00a0\u2003world\vx", "hello world x"},
		{"line separator", Options{RemoveExtraSpaces: true}, "a\u2028\u0085b", "a b"},
		{"capitalize after no-break space", Options{CapitalizeSentences: true}, "done.\u00a0next", "Done.\u00a0Next"},
		{"capitalize", Options{CapitalizeSentences: true}, "hello. this is a test. another sentence!", "Hello. This is a test. Another sentence!"},
		{"capitalize after question", Options{CapitalizeSentences: true}, "really? yes!  ok", "Really? Yes!  Ok"},
		{"capitalize needs whitespace", Options{CapitalizeSentences: true}, "version 1.two", "Version 1.two"},
		{
			"all passes",
			Options{TrimWhitespace: true, NormalizeNewlines: true, RemoveExtraSpaces: true, CapitalizeSentences: true},
			"  hello  world.\r\n  this is a test.  ",
			"Hello world. This is a test.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input, tt.opts); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"  a  b\r\nc \r\n\r\n d  ",
		"one.\r\ntwo!   three?\tfour",
		"",
		"\r\n\r\n",
		"x\r\r\n\ny",
		"dictated\u00a0\u00a0text\u2003\v with\u202fgaps",
	}
	optsList := []Options{
		{RemoveExtraSpaces: true},
		{NormalizeNewlines: true},
		{NormalizeNewlines: true, RemoveExtraSpaces: true},
		{TrimWhitespace: true, NormalizeNewlines: true, RemoveExtraSpaces: true, CapitalizeSentences: true},
	}

	for _, opts := range optsList {
		for _, in := range inputs {
			once := Clean(in, opts)
			twice := Clean(once, opts)
			if once != twice {
				t.Errorf("Clean not idempotent for %+v on %q: %q then %q", opts, in, once, twice)
			}
		}
	}
}

func TestClean_BrokenPatternPassesThrough(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	c := New(Options{RemoveExtraSpaces: true, CapitalizeSentences: true}, logger)
	c.extraSpaces = nil
	c.sentence = nil

	in := "keep   these. spaces"
	if got := c.Clean(in); got != in {
		t.Errorf("Clean() = %q, want input unchanged", got)
	}
	if !strings.Contains(logs.String(), "level=WARN") {
		t.Errorf("Expected a warning to be logged, got %q", logs.String())
	}
}

func TestOptionsEnabled(t *testing.T) {
	if (Options{}).Enabled() {
		t.Error("zero Options should be disabled")
	}
	if !(Options{CapitalizeSentences: true}).Enabled() {
		t.Error("Options with one pass should be enabled")
	}
}
