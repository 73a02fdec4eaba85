// Package watcher delivers artifact files created or written anywhere under a
// root directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Handler is called synchronously for every matching event.
type Handler func(ctx context.Context, path string)

// Watcher watches Root recursively for files named Name.
type Watcher struct {
	root    string
	name    string
	handler Handler
	logger  *slog.Logger
	fsw     *fsnotify.Watcher
}

// New subscribes to root and every directory below it.
func New(root, name string, handler Handler, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		root:    root,
		name:    name,
		handler: handler,
		logger:  logger.With("component", "watcher"),
		fsw:     fsw,
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree adds dir and its subdirectories. Unreadable subdirectories are
// logged and skipped; only a failure on dir itself is returned.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			w.logger.Warn("skipping unreadable directory", "path", path, "error", err)
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			if path == dir {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
			return fs.SkipDir
		}
		w.logger.Debug("watching directory", "path", path)
		return nil
	})
}

// Run dispatches events until ctx is done or the watcher is closed. Handlers
// run on this goroutine, so events are processed one at a time.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	w.logger.Info("watching for artifacts", "root", w.root, "name", w.name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("event queue overflowed, some artifacts may be missed")
				continue
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", ev.Name, "error", err)
			}
			w.scan(ctx, ev.Name)
			return
		}
	}

	if filepath.Base(ev.Name) != w.name {
		return
	}
	w.logger.Debug("artifact event", "path", ev.Name, "op", ev.Op.String())
	w.handler(ctx, ev.Name)
}

// scan reports artifacts already present in a directory that appeared after
// the subscription, since their own create events were never seen.
func (w *Watcher) scan(ctx context.Context, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && d.Name() == w.name {
			w.handler(ctx, path)
		}
		return nil
	})
}

// Close stops the subscription.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
