package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/corinthian/sw-catcher/internal/ingest"
	"github.com/corinthian/sw-catcher/internal/tui"
	"github.com/corinthian/sw-catcher/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the dictation directory (default command)",
	Long:  `Watches the configured directory recursively and processes every meta.json that is created or written.`,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&useTUI, "tui", false, "Show the live monitor instead of echoing logs")
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return &startupError{err}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var observer ingest.Observer
	var runMonitor func() error
	if useTUI {
		program := tui.NewProgram(tui.NewMonitor(tui.Options{
			WatchDir:  s.WatchDir,
			DryRun:    s.DryRun,
			Clipboard: !s.DisableClipboard,
			Cancel:    cancel,
		}))
		observer = tui.NewObserver(program)
		runMonitor = func() error {
			go func() {
				<-ctx.Done()
				program.Quit()
			}()
			_, err := program.Run()
			return err
		}
	}

	a, err := newApp(s, appOptions{quiet: useTUI, observer: observer})
	if err != nil {
		return err
	}
	defer a.Close()

	if !useTUI {
		fmt.Println(banner(s.WatchDir, s.DryRun))
	}
	a.logStartup()

	w, err := watcher.New(s.WatchDir, s.ArtifactName, a.pipeline.HandleFile, a.logger)
	if err != nil {
		return &startupError{err}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.pipeline.Debouncer().Run(ctx, ingest.DefaultSweepInterval)
	}()
	watchErr := make(chan error, 1)
	go func() {
		defer wg.Done()
		watchErr <- w.Run(ctx)
	}()

	if runMonitor != nil {
		if err := runMonitor(); err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("TUI error: %w", err)
		}
		cancel()
	} else {
		<-ctx.Done()
		a.logger.Info("received shutdown signal")
	}

	wg.Wait()
	a.logger.Info("shutdown complete")
	if err := <-watchErr; err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	return nil
}
