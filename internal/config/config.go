// Package config resolves sw-catcher settings from the TOML config file,
// SW_CATCHER_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/corinthian/sw-catcher/internal/actions"
	"github.com/corinthian/sw-catcher/internal/clipboard"
	"github.com/corinthian/sw-catcher/internal/ingest"
	"github.com/corinthian/sw-catcher/internal/keyphrase"
	"github.com/corinthian/sw-catcher/internal/textclean"
)

const (
	// DefaultFile is read from the working directory when no path is given.
	DefaultFile = "config.toml"
	// EnvPrefix prefixes environment overrides, e.g. SW_CATCHER_WATCH_DIR.
	EnvPrefix = "SW_CATCHER"
	// DefaultArtifactName is the file the dictation tool writes per session.
	DefaultArtifactName = "meta.json"
)

// ErrNoWatchDir is returned when neither flags nor config name a directory.
var ErrNoWatchDir = errors.New("no watch directory specified in command line or config file")

// KeyphraseSettings holds the [keyphrase_settings] table.
type KeyphraseSettings struct {
	MatchingStrategy    string `mapstructure:"matching_strategy" yaml:"matching_strategy"`
	PunctuationHandling string `mapstructure:"punctuation_handling" yaml:"punctuation_handling"`
}

// Settings is the resolved configuration.
type Settings struct {
	WatchDir              string            `mapstructure:"watch_dir" yaml:"watch_dir"`
	ArtifactName          string            `mapstructure:"artifact_name" yaml:"artifact_name"`
	LogFile               string            `mapstructure:"log_file" yaml:"log_file"`
	LogLevel              string            `mapstructure:"log_level" yaml:"log_level"`
	EchoToStdout          bool              `mapstructure:"echo_to_stdout" yaml:"echo_to_stdout"`
	DetectKeyphrases      bool              `mapstructure:"detect_keyphrases" yaml:"detect_keyphrases"`
	DryRun                bool              `mapstructure:"dry_run" yaml:"dry_run"`
	DisableLogs           bool              `mapstructure:"disable_logs" yaml:"disable_logs"`
	DisableClipboard      bool              `mapstructure:"disable_clipboard" yaml:"disable_clipboard"`
	ClipboardFormat       string            `mapstructure:"clipboard_format" yaml:"clipboard_format"`
	ResultFieldPreference string            `mapstructure:"result_field_preference" yaml:"result_field_preference"`
	KeyphraseSettings     KeyphraseSettings `mapstructure:"keyphrase_settings" yaml:"keyphrase_settings"`
	TextCleaning          textclean.Options `mapstructure:"text_cleaning" yaml:"text_cleaning"`

	// Keyphrases is decoded separately so that phrases keep case and dots.
	Keyphrases map[string]string `mapstructure:"-" yaml:"keyphrases"`
	// File is the config file that was read, empty when defaults were used.
	File string `mapstructure:"-" yaml:"config_file,omitempty"`
}

// DefaultKeyphrases apply when no config file exists.
func DefaultKeyphrases() map[string]string {
	return map[string]string{
		"open browser":  "firefox",
		"search google": "https://www.google.com/search?q=",
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"watch-dir":        "watch_dir",
	"log-file":         "log_file",
	"log-level":        "log_level",
	"echo-to-stdout":   "echo_to_stdout",
	"dry-run":          "dry_run",
	"clipboard-format": "clipboard_format",
	"result-field":     "result_field_preference",
	"disable-logs":     "disable_logs",
	"no-clipboard":     "disable_clipboard",
}

// New returns a viper instance with defaults and environment overrides set.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("watch_dir", "")
	v.SetDefault("artifact_name", DefaultArtifactName)
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("echo_to_stdout", false)
	v.SetDefault("detect_keyphrases", true)
	v.SetDefault("dry_run", false)
	v.SetDefault("disable_logs", false)
	v.SetDefault("disable_clipboard", false)
	v.SetDefault("clipboard_format", "plaintext")
	v.SetDefault("result_field_preference", "auto")
	v.SetDefault("keyphrase_settings.matching_strategy", "simple")
	v.SetDefault("keyphrase_settings.punctuation_handling", "sentence")
	v.SetDefault("text_cleaning.trim_whitespace", false)
	v.SetDefault("text_cleaning.normalize_newlines", false)
	v.SetDefault("text_cleaning.remove_extra_spaces", false)
	v.SetDefault("text_cleaning.capitalize_sentences", false)
	return v
}

// BindFlags binds the known flags present in fs so that, when set, they
// override file and environment values.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads path (DefaultFile when empty) into v and returns the settings.
// A missing DefaultFile is not an error: defaults and DefaultKeyphrases are
// used. A missing explicit path is. A config file that omits
// detect_keyphrases turns detection off.
func Load(v *viper.Viper, path string) (*Settings, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("invalid TOML in %s: %w", path, err)
		}
		// Detection is on by default only when there is no config file.
		if !v.InConfig("detect_keyphrases") {
			v.SetDefault("detect_keyphrases", false)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		data = nil
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if data == nil {
		s.Keyphrases = DefaultKeyphrases()
		return s, nil
	}
	s.File = path
	if s.Keyphrases, err = decodeKeyphrases(data); err != nil {
		return nil, fmt.Errorf("invalid [keyphrases] in %s: %w", path, err)
	}
	return s, nil
}

func decodeKeyphrases(data []byte) (map[string]string, error) {
	var doc struct {
		Keyphrases map[string]string `toml:"keyphrases"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Keyphrases == nil {
		return map[string]string{}, nil
	}
	return doc.Keyphrases, nil
}

// Validate checks that the watch directory exists, is a directory and can be
// listed.
func (s *Settings) Validate() error {
	if s.WatchDir == "" {
		return ErrNoWatchDir
	}
	info, err := os.Stat(s.WatchDir)
	if err != nil {
		return fmt.Errorf("watch directory does not exist: %s: %w", s.WatchDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch directory is not a directory: %s", s.WatchDir)
	}
	if _, err := os.ReadDir(s.WatchDir); err != nil {
		return fmt.Errorf("watch directory exists but cannot be read: %s: %w", s.WatchDir, err)
	}
	return nil
}

// Resolved holds the typed forms of the enum-like settings.
type Resolved struct {
	Strategy    keyphrase.Strategy
	Punctuation keyphrase.PunctuationPolicy
	Format      clipboard.Format
	Preference  ingest.FieldPreference
	Keyphrases  []keyphrase.Action
}

// Resolve parses the enum-like settings. Unknown values fall back to their
// defaults and are logged at debug level.
func (s *Settings) Resolve(logger *slog.Logger) Resolved {
	if logger == nil {
		logger = slog.Default()
	}
	var r Resolved
	var ok bool

	if r.Strategy, ok = keyphrase.ParseStrategy(s.KeyphraseSettings.MatchingStrategy); !ok {
		logger.Debug("invalid matching strategy, defaulting", "value", s.KeyphraseSettings.MatchingStrategy, "default", r.Strategy.String())
	}
	if r.Punctuation, ok = keyphrase.ParsePunctuationPolicy(s.KeyphraseSettings.PunctuationHandling); !ok {
		logger.Debug("invalid punctuation handling, defaulting", "value", s.KeyphraseSettings.PunctuationHandling, "default", r.Punctuation.String())
	}
	if r.Format, ok = clipboard.ParseFormat(s.ClipboardFormat); !ok {
		logger.Debug("invalid clipboard format, defaulting", "value", s.ClipboardFormat, "default", r.Format.String())
	}
	if r.Preference, ok = ingest.ParseFieldPreference(s.ResultFieldPreference); !ok {
		logger.Debug("invalid result field preference, defaulting", "value", s.ResultFieldPreference, "default", r.Preference.String())
	}
	if s.DetectKeyphrases {
		r.Keyphrases = KeyphraseActions(s.Keyphrases)
	}
	return r
}

// KeyphraseActions parses a phrase → action table. The result is ordered by
// phrase so that equal-start matches resolve the same way on every run.
func KeyphraseActions(table map[string]string) []keyphrase.Action {
	phrases := make([]string, 0, len(table))
	for p := range table {
		phrases = append(phrases, p)
	}
	sort.Strings(phrases)

	out := make([]keyphrase.Action, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, keyphrase.Action{Keyphrase: p, Action: actions.Parse(table[p])})
	}
	return out
}
