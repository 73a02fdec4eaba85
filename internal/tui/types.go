package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/corinthian/sw-catcher/internal/ingest"
)

// EventMsg carries a pipeline event into the monitor.
type EventMsg ingest.Event

// Observer forwards pipeline events to a running program.
type Observer struct {
	program *tea.Program
}

// NewObserver creates an observer sending to p. Observe waits until the
// program's event loop accepts the message; once the program has exited it
// returns immediately.
func NewObserver(p *tea.Program) *Observer {
	return &Observer{program: p}
}

// Observe implements ingest.Observer.
func (o *Observer) Observe(e ingest.Event) {
	o.program.Send(EventMsg(e))
}
