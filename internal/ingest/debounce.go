package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultDebounceWindow suppresses repeated events for one path.
	DefaultDebounceWindow = time.Second
	// DefaultDebounceTTL is how long an entry survives a sweep.
	DefaultDebounceTTL = 10 * time.Minute
	// DefaultSweepInterval is the period of Run.
	DefaultSweepInterval = 60 * time.Second
)

// Debouncer remembers when each path was last accepted.
type Debouncer struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	window time.Duration
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewDebouncer creates a debouncer with the default window and TTL.
func NewDebouncer(logger *slog.Logger) *Debouncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Debouncer{
		seen:   make(map[string]time.Time),
		window: DefaultDebounceWindow,
		ttl:    DefaultDebounceTTL,
		now:    time.Now,
		logger: logger.With("component", "debounce"),
	}
}

// Allow reports whether path may be processed now and, if so, records the
// time. The timestamp is taken before processing starts.
func (d *Debouncer) Allow(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.seen[path]; ok && now.Sub(last) < d.window {
		return false
	}
	d.seen[path] = now
	return true
}

// Sweep removes entries older than the TTL and returns how many it removed.
func (d *Debouncer) Sweep() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	removed := 0
	for path, last := range d.seen {
		if now.Sub(last) > d.ttl {
			delete(d.seen, path)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked paths.
func (d *Debouncer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Run sweeps every interval until ctx is done.
func (d *Debouncer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := d.Sweep(); n > 0 {
				d.logger.Debug("purged stale debounce entries", "removed", n, "remaining", d.Len())
			}
		}
	}
}
