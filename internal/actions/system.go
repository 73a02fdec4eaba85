package actions

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// SystemLauncher launches through the platform's native commands. Children
// are started without waiting and reaped in the background.
type SystemLauncher struct {
	logger *slog.Logger
}

// NewSystemLauncher creates a launcher for the current platform.
func NewSystemLauncher(logger *slog.Logger) *SystemLauncher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemLauncher{logger: logger.With("component", "launcher")}
}

// OpenApplication starts the named application. Nothing is started once ctx
// is done; a started application outlives ctx.
func (l *SystemLauncher) OpenApplication(ctx context.Context, name string) error {
	l.logger.Info("opening application", "app", name)
	return l.start(ctx, appCommand(name))
}

// OpenURL opens uri with the default handler.
func (l *SystemLauncher) OpenURL(ctx context.Context, uri string) error {
	l.logger.Info("opening url", "url", uri)
	return l.start(ctx, urlCommand(uri))
}

func (l *SystemLauncher) start(ctx context.Context, argv []string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("launch %s: %w", argv[0], err)
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("exec %s: %w", argv[0], err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			l.logger.Debug("launched process exited with error", "cmd", argv[0], "error", err)
		}
	}()
	return nil
}
