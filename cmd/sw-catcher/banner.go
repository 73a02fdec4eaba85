package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/corinthian/sw-catcher/internal/config"
)

var (
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")

	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	successStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
)

// banner is printed once when watching starts.
func banner(watchDir string, dryRun bool) string {
	mode := successStyle.Render("● live")
	if dryRun {
		mode = warningStyle.Render("◐ dry-run")
	}
	lines := []string{
		titleStyle.Render("sw-catcher "+version) + "  " + mode,
		"Watching for dictation results in " + watchDir,
		mutedStyle.Render("Keyphrase actions run in spoken order; cleaned text goes to your clipboard."),
	}
	return bannerStyle.Render(strings.Join(lines, "\n"))
}

// usageGuide explains how to point sw-catcher at a directory.
func usageGuide() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Usage Guide") + "\n")
	b.WriteString("  1. Specify a watch directory with --watch-dir\n")
	b.WriteString("  2. OR create a " + config.DefaultFile + " (sw-catcher config init) with options such as:\n\n")
	for _, line := range strings.Split(strings.TrimRight(exampleConfig, "\n"), "\n") {
		b.WriteString("     " + mutedStyle.Render(line) + "\n")
	}
	b.WriteString("\nRun with --help for more information.")
	return b.String()
}

const exampleConfig = `watch_dir = "/path/to/directory"
log_level = "info"                  # error, warn, info, debug, trace
clipboard_format = "plaintext"      # plaintext, richtext, markdown
result_field_preference = "auto"    # llm, raw, intermediate, auto

[keyphrases]
"open browser" = "https://www.example.com"
"send email" = "mailto:user@example.com"
"start notepad" = "notepad"
"important reminder" = ""           # empty action, just detect

[keyphrase_settings]
matching_strategy = "simple"        # simple, wholeword, exact
punctuation_handling = "sentence"   # ignore, sentence, all

[text_cleaning]
trim_whitespace = true
remove_extra_spaces = true
`
