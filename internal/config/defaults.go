package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultTOML is written by WriteDefault.
const DefaultTOML = `# sw-catcher configuration
# Uncomment and modify the options you want to change

# watch_dir = "/path/to/directory"
# artifact_name = "meta.json"
# log_file = "sw-catcher.log"
log_level = "info"                # error, warn, info, debug, trace
echo_to_stdout = true
detect_keyphrases = true          # enable keyphrase detection
# dry_run = false
# disable_logs = false            # disable logging completely
clipboard_format = "plaintext"    # plaintext, richtext, markdown
result_field_preference = "auto"  # llm, raw, intermediate, auto
# disable_clipboard = false       # disable copying to clipboard

[keyphrases]
# Application examples
# "open browser" = "Firefox"
# "start notepad" = "notepad"

# Web service examples
# "search google" = "https://www.google.com/search?q="
# "search wikipedia" = "https://en.wikipedia.org/wiki/Special:Search?search="

[keyphrase_settings]
matching_strategy = "simple"      # simple, wholeword, exact
punctuation_handling = "sentence" # ignore, sentence, all

[text_cleaning]
trim_whitespace = true
normalize_newlines = true
remove_extra_spaces = true
capitalize_sentences = false
`

// WriteDefault creates path with DefaultTOML, creating parent directories if
// needed. An existing file is left untouched and created is false.
func WriteDefault(path string) (created bool, err error) {
	if path == "" {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(DefaultTOML), 0o644); err != nil {
		return false, fmt.Errorf("writing config file: %w", err)
	}
	return true, nil
}
