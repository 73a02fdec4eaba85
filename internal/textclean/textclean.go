// Package textclean applies the optional post-processing passes to text
// before it is copied to the clipboard.
package textclean

import (
	"log/slog"
	"regexp"
	"strings"
)

// Options toggles the individual cleaning passes.
type Options struct {
	TrimWhitespace      bool `mapstructure:"trim_whitespace" yaml:"trim_whitespace"`
	NormalizeNewlines   bool `mapstructure:"normalize_newlines" yaml:"normalize_newlines"`
	RemoveExtraSpaces   bool `mapstructure:"remove_extra_spaces" yaml:"remove_extra_spaces"`
	CapitalizeSentences bool `mapstructure:"capitalize_sentences" yaml:"capitalize_sentences"`
}

// Enabled reports whether any pass is switched on.
func (o Options) Enabled() bool {
	return o.TrimWhitespace || o.NormalizeNewlines || o.RemoveExtraSpaces || o.CapitalizeSentences
}

// space matches the same runes as unicode.IsSpace; RE2's \s is ASCII only.
const space = `[\s\p{Z}\v\x{85}]`

const (
	extraSpacesPattern   = space + `+`
	sentenceStartPattern = `(^|[.!?]` + space + `+)([a-z])`
)

// newlines maps CRLF and lone CR to LF so that a second pass is a no-op.
var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Cleaner runs the enabled passes. Patterns are compiled once; a pattern
// that fails to compile disables its pass with a warning.
type Cleaner struct {
	opts        Options
	logger      *slog.Logger
	extraSpaces *regexp.Regexp
	sentence    *regexp.Regexp
}

// New creates a Cleaner for opts.
func New(opts Options, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cleaner{opts: opts, logger: logger.With("component", "textclean")}
	c.extraSpaces = c.compile(extraSpacesPattern, "removing extra spaces")
	c.sentence = c.compile(sentenceStartPattern, "capitalizing sentences")
	return c
}

func (c *Cleaner) compile(expr, purpose string) *regexp.Regexp {
	re, err := regexp.Compile(expr)
	if err != nil {
		c.logger.Warn("failed to compile regex, pass disabled", "purpose", purpose, "error", err)
		return nil
	}
	return re
}

// Options returns the configured passes.
func (c *Cleaner) Options() Options {
	return c.opts
}

// Clean applies, in order: trim, CRLF normalization, whitespace collapse,
// sentence capitalization.
func (c *Cleaner) Clean(text string) string {
	s := text

	if c.opts.TrimWhitespace {
		s = strings.TrimSpace(s)
	}

	if c.opts.NormalizeNewlines {
		s = newlines.Replace(s)
	}

	if c.opts.RemoveExtraSpaces {
		if c.extraSpaces != nil {
			s = c.extraSpaces.ReplaceAllString(s, " ")
		} else {
			c.logger.Warn("skipping extra space removal")
		}
	}

	if c.opts.CapitalizeSentences {
		s = c.capitalize(s)
	}

	return s
}

// capitalize uppercases the first lowercase letter of each sentence.
func (c *Cleaner) capitalize(s string) string {
	if c.sentence == nil {
		c.logger.Warn("skipping sentence capitalization")
		return s
	}
	return c.sentence.ReplaceAllStringFunc(s, func(m string) string {
		return m[:len(m)-1] + strings.ToUpper(m[len(m)-1:])
	})
}

// Clean is a convenience wrapper for one-off use.
func Clean(text string, opts Options) string {
	return New(opts, nil).Clean(text)
}
