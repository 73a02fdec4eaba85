// Package clipboard delivers processed text to the system clipboard and
// re-asserts it when another writer replaces it shortly afterwards.
package clipboard

import (
	"errors"
	"fmt"
	"html"
	"strings"

	sysclip "github.com/atotto/clipboard"
)

// ErrUnavailable is returned when no clipboard mechanism is usable.
var ErrUnavailable = errors.New("clipboard unavailable")

// Format selects how text is adapted before it is written.
type Format int

const (
	PlainText Format = iota
	RichText
	Markdown
)

func (f Format) String() string {
	switch f {
	case RichText:
		return "richtext"
	case Markdown:
		return "markdown"
	default:
		return "plaintext"
	}
}

// ParseFormat maps a configuration value to a Format. ok is false for
// unrecognised values, which fall back to PlainText.
func ParseFormat(s string) (format Format, ok bool) {
	switch strings.ToLower(s) {
	case "plaintext":
		return PlainText, true
	case "richtext":
		return RichText, true
	case "markdown":
		return Markdown, true
	default:
		return PlainText, false
	}
}

// Provider reads and writes a single text buffer.
type Provider interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// HTMLWriter is implemented by providers that can place an HTML flavour
// alongside the plain text.
type HTMLWriter interface {
	WriteHTML(html, plain string) error
}

// System is the platform clipboard.
type System struct{}

// ReadAll returns the clipboard text.
func (System) ReadAll() (string, error) {
	if sysclip.Unsupported {
		return "", ErrUnavailable
	}
	s, err := sysclip.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return s, nil
}

// WriteAll replaces the clipboard text.
func (System) WriteAll(text string) error {
	if sysclip.Unsupported {
		return ErrUnavailable
	}
	if err := sysclip.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// RenderHTML wraps text in the light markup used for rich text.
func RenderHTML(text string) string {
	body := strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
	return `<div style="font-family: system-ui;">` + body + `</div>`
}

// Normalize prepares text for comparison: outer whitespace trimmed, CRLF and
// CR unified to LF.
func Normalize(text string) string {
	s := strings.ReplaceAll(text, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
