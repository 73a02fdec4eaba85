package clipboard

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultSettleDelay gives a competing writer time to act after the first write.
	DefaultSettleDelay = 200 * time.Millisecond
	// DefaultRecheckDelay precedes the second and last comparison.
	DefaultRecheckDelay = 100 * time.Millisecond
)

// Report describes one delivery.
type Report struct {
	Writes   int
	Failed   int
	Verified bool
}

// Guard writes text and defends it against one competing writer.
type Guard struct {
	provider     Provider
	format       Format
	logger       *slog.Logger
	settleDelay  time.Duration
	recheckDelay time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewGuard creates a guard writing through p in the given format.
func NewGuard(p Provider, format Format, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		provider:     p,
		format:       format,
		logger:       logger.With("component", "clipboard"),
		settleDelay:  DefaultSettleDelay,
		recheckDelay: DefaultRecheckDelay,
		sleep:        Sleep,
	}
}

// Format returns the configured format.
func (g *Guard) Format() Format {
	return g.format
}

// Deliver writes text, waits, and compares the clipboard with what was
// written. On a mismatch (or an unreadable clipboard) it writes again, waits
// a shorter time and compares once more; a second mismatch gets one final
// write. At most three writes happen. The returned error is non-nil only when
// no write succeeded.
func (g *Guard) Deliver(ctx context.Context, text string) (Report, error) {
	var rep Report
	var lastErr error
	want := Normalize(text)

	write := func() {
		rep.Writes++
		if err := g.write(text); err != nil {
			rep.Failed++
			lastErr = err
			g.logger.Warn("clipboard write failed", "attempt", rep.Writes, "error", err)
		}
	}
	matches := func() bool {
		got, err := g.provider.ReadAll()
		if err != nil {
			g.logger.Warn("failed to read clipboard, setting content again", "error", err)
			return false
		}
		return Normalize(got) == want
	}
	result := func() (Report, error) {
		if rep.Failed == rep.Writes {
			return rep, lastErr
		}
		return rep, nil
	}

	write()
	g.logger.Debug("initial clipboard set with processed content")

	if err := g.sleep(ctx, g.settleDelay); err != nil {
		return result()
	}
	if matches() {
		g.logger.Debug("clipboard content unchanged")
		rep.Verified = true
		return result()
	}

	g.logger.Debug("detected clipboard change, setting content again")
	write()
	if err := g.sleep(ctx, g.recheckDelay); err != nil {
		return result()
	}
	if matches() {
		rep.Verified = true
		return result()
	}

	g.logger.Debug("clipboard changed again, final set of content")
	write()
	return result()
}

func (g *Guard) write(text string) error {
	switch g.format {
	case RichText:
		markup := RenderHTML(text)
		if hw, ok := g.provider.(HTMLWriter); ok {
			return hw.WriteHTML(markup, text)
		}
		g.logger.Debug("rich text not supported by clipboard, using plain text", "html", Truncate(markup, 50))
		return g.provider.WriteAll(text)
	case Markdown:
		// Markdown-aware applications interpret the plain text themselves.
		return g.provider.WriteAll(text)
	default:
		return g.provider.WriteAll(text)
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
