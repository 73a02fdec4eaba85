package ingest

import "time"

// Stage identifies a point in an artifact's processing.
type Stage int

const (
	StageReceived Stage = iota
	StageSkipped
	StageRetrying
	StageProcessed
	StageCopied
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageSkipped:
		return "skipped"
	case StageRetrying:
		return "retrying"
	case StageProcessed:
		return "processed"
	case StageCopied:
		return "copied"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is emitted to an Observer as an artifact moves through the pipeline.
type Event struct {
	ID      string
	Path    string
	Stage   Stage
	Attempt int
	Text    string
	Actions []string
	Err     error
	At      time.Time
}

// Observer receives pipeline events. Observe runs on the pipeline's goroutine
// and should return promptly; a slow observer delays processing.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }
