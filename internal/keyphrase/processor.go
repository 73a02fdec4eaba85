package keyphrase

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/corinthian/sw-catcher/internal/actions"
)

// PunctuationPolicy is the configured treatment of punctuation next to a
// removed keyphrase.
type PunctuationPolicy int

const (
	IgnorePunctuation PunctuationPolicy = iota
	RemoveSentenceEnding
	RemoveAllPunctuation
)

func (p PunctuationPolicy) String() string {
	switch p {
	case IgnorePunctuation:
		return "ignore"
	case RemoveAllPunctuation:
		return "all"
	default:
		return "sentence"
	}
}

// ParsePunctuationPolicy maps a configuration value to a policy. ok is false
// for unrecognised values, which fall back to RemoveSentenceEnding.
func ParsePunctuationPolicy(s string) (policy PunctuationPolicy, ok bool) {
	switch strings.ToLower(s) {
	case "ignore":
		return IgnorePunctuation, true
	case "sentence":
		return RemoveSentenceEnding, true
	case "all", "allpunctuation", "all_punctuation":
		return RemoveAllPunctuation, true
	default:
		return RemoveSentenceEnding, false
	}
}

// Execution records what happened to one matched keyphrase's action.
type Execution struct {
	Keyphrase string
	Action    actions.Spec
	DryRun    bool
	Err       error
}

// Result is the outcome of processing one text.
type Result struct {
	Text       string
	Executions []Execution
	// Dropped holds matches discarded because they overlapped an earlier match.
	Dropped []Match
}

// Processor executes matched actions and strips the keyphrases from text.
type Processor struct {
	Launcher actions.Launcher
	DryRun   bool
	// Punctuation is reported but does not change stripping: exactly one
	// character from the fixed set is removed on each side of a span.
	Punctuation PunctuationPolicy
	Logger      *slog.Logger
}

// Process runs the actions of matches in order of Start and returns the text
// with every kept span removed. matches must be sorted by Start. With no
// matches the text is returned unchanged.
func (p *Processor) Process(ctx context.Context, text string, matches []Match) Result {
	if len(matches) == 0 {
		return Result{Text: text}
	}
	logger := p.logger()

	kept, dropped := ResolveOverlaps(matches)
	for _, m := range dropped {
		logger.Debug("dropping overlapping keyphrase match",
			"keyphrase", m.Keyphrase, "start", m.Start, "end", m.End)
	}

	logger.Info("executing keyphrase actions in sequence",
		"count", len(kept), "dry_run", p.DryRun, "punctuation", p.Punctuation.String())

	res := Result{Dropped: dropped}
	for i, m := range kept {
		exec := Execution{Keyphrase: m.Keyphrase, Action: m.Action, DryRun: p.DryRun}
		if p.DryRun {
			logger.Info("DRY-RUN: would execute action",
				"n", i+1, "keyphrase", m.Keyphrase, "action", m.Action.String())
		} else {
			logger.Info("executing action", "n", i+1, "keyphrase", m.Keyphrase, "action", m.Action.String())
			if err := actions.Execute(ctx, p.Launcher, m.Action); err != nil {
				exec.Err = err
				logger.Warn("failed to execute action", "keyphrase", m.Keyphrase, "error", err)
			} else {
				logger.Info("executed action", "keyphrase", m.Keyphrase)
			}
		}
		res.Executions = append(res.Executions, exec)
	}

	res.Text = Reconstruct(text, kept)
	return res
}

func (p *Processor) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// ResolveOverlaps keeps, in order, every match that starts at or after the
// end of the previously kept one. The rest are returned as dropped.
func ResolveOverlaps(matches []Match) (kept, dropped []Match) {
	end := 0
	for _, m := range matches {
		if len(kept) > 0 && m.Start < end {
			dropped = append(dropped, m)
			continue
		}
		kept = append(kept, m)
		end = m.End
	}
	return kept, dropped
}

// isStripped reports whether r is punctuation removed next to a keyphrase.
func isStripped(r rune) bool {
	switch r {
	case ',', ';', ':', '.', '!', '?', '\'', '"', ')', '}', ']':
		return true
	}
	return false
}

// Reconstruct removes every span in matches from text together with one
// adjacent punctuation character on each side, then strips leading
// punctuation and normalizes whitespace. Spans must be sorted and must not
// overlap; a span starting before the previous end is clamped.
func Reconstruct(text string, matches []Match) string {
	var b strings.Builder
	b.Grow(len(text))

	cursor := 0
	for _, m := range matches {
		if m.Start > cursor {
			gap := text[cursor:m.Start]
			if r, size := utf8.DecodeLastRuneInString(gap); isStripped(r) {
				gap = gap[:len(gap)-size]
			}
			b.WriteString(gap)
		}
		if m.End > cursor {
			cursor = m.End
		}
		if cursor < len(text) {
			if r, size := utf8.DecodeRuneInString(text[cursor:]); isStripped(r) {
				cursor += size
			}
		}
	}
	if cursor < len(text) {
		b.WriteString(text[cursor:])
	}

	out := strings.TrimLeftFunc(b.String(), isStripped)
	return strings.Join(strings.FieldsFunc(out, unicode.IsSpace), " ")
}
