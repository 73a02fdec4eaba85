package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/corinthian/sw-catcher/internal/actions"
	"github.com/corinthian/sw-catcher/internal/clipboard"
	"github.com/corinthian/sw-catcher/internal/config"
	"github.com/corinthian/sw-catcher/internal/ingest"
	"github.com/corinthian/sw-catcher/internal/keyphrase"
	"github.com/corinthian/sw-catcher/internal/logging"
	"github.com/corinthian/sw-catcher/internal/textclean"
)

// startupError marks failures that the usage guide can help with.
type startupError struct{ err error }

func (e *startupError) Error() string { return e.err.Error() }
func (e *startupError) Unwrap() error { return e.err }

func isStartupError(err error) bool {
	var se *startupError
	return errors.As(err, &se)
}

// loadSettings resolves file, environment and flag values for cmd.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	v := config.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	s, err := config.Load(v, configPath)
	if err != nil {
		return nil, &startupError{err}
	}
	return s, nil
}

// app holds the wired components for one run.
type app struct {
	settings *config.Settings
	resolved config.Resolved
	logger   *slog.Logger
	pipeline *ingest.Pipeline
	closeLog func() error
}

type appOptions struct {
	// quiet disables the stdout echo, e.g. while the monitor owns the screen.
	quiet    bool
	observer ingest.Observer
}

func newApp(s *config.Settings, opts appOptions) (*app, error) {
	logger, closeLog, err := logging.Setup(logging.Options{
		File:         s.LogFile,
		Level:        s.LogLevel,
		EchoToStdout: s.EchoToStdout && !opts.quiet,
		Disabled:     s.DisableLogs,
	})
	if err != nil {
		return nil, &startupError{err}
	}

	r := s.Resolve(logger)

	var matcher *keyphrase.Matcher
	if s.DetectKeyphrases && len(r.Keyphrases) > 0 {
		matcher = keyphrase.NewMatcher(r.Keyphrases, r.Strategy)
	}

	var deliverer ingest.Deliverer
	if !s.DisableClipboard {
		deliverer = clipboard.NewGuard(clipboard.System{}, r.Format, logger)
	}

	p := ingest.New(ingest.Config{
		Matcher: matcher,
		Processor: &keyphrase.Processor{
			Launcher:    actions.NewSystemLauncher(logger),
			DryRun:      s.DryRun,
			Punctuation: r.Punctuation,
			Logger:      logger.With("component", "keyphrase"),
		},
		Cleaner:    textclean.New(s.TextCleaning, logger),
		Deliverer:  deliverer,
		Debouncer:  ingest.NewDebouncer(logger),
		Preference: r.Preference,
		Observer:   opts.observer,
		Logger:     logger,
	})

	return &app{
		settings: s,
		resolved: r,
		logger:   logger,
		pipeline: p,
		closeLog: closeLog,
	}, nil
}

func (a *app) logStartup() {
	a.logger.Info("sw-catcher starting",
		"version", version,
		"watch_dir", a.settings.WatchDir,
		"artifact", a.settings.ArtifactName,
		"config", orDefault(a.settings.File, "built-in defaults"),
	)
	a.logger.Info("settings",
		"result_field", a.resolved.Preference.String(),
		"clipboard_format", a.resolved.Format.String(),
		"clipboard", !a.settings.DisableClipboard,
		"dry_run", a.settings.DryRun,
	)
	if a.settings.DetectKeyphrases {
		a.logger.Info("keyphrase detection enabled",
			"keyphrases", len(a.resolved.Keyphrases),
			"strategy", a.resolved.Strategy.String(),
			"punctuation", a.resolved.Punctuation.String(),
		)
		for _, ka := range a.resolved.Keyphrases {
			a.logger.Debug("keyphrase", "phrase", ka.Keyphrase, "action", ka.Action.String())
		}
	} else {
		a.logger.Info("keyphrase detection disabled")
	}
	if opts := a.settings.TextCleaning; opts.Enabled() {
		a.logger.Debug("text cleaning", "options", fmt.Sprintf("%+v", opts))
	}
}

func (a *app) Close() {
	if err := a.closeLog(); err != nil {
		slog.Default().Warn("closing log file", "error", err)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
