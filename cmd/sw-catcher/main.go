package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sw-catcher",
	Short: "sw-catcher - dictation keyphrase catcher",
	Long: `sw-catcher watches a directory for meta.json files written by a dictation tool,
runs the actions of any keyphrases it hears and copies the cleaned text to the clipboard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runWatch,
}

var (
	configPath string
	useTUI     bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default ./config.toml)")
	pf.StringP("watch-dir", "w", "", "Directory to watch for new meta.json files")
	pf.StringP("log-file", "f", "", "Log file path")
	pf.StringP("log-level", "l", "", "Log level (error, warn, info, debug, trace)")
	pf.BoolP("echo-to-stdout", "e", false, "Echo logs to standard output")
	pf.BoolP("dry-run", "d", false, "Log actions instead of executing them")
	pf.StringP("clipboard-format", "c", "", "Clipboard format (plaintext, richtext, markdown)")
	pf.StringP("result-field", "r", "", "Result field to use (llm, raw, intermediate, auto)")
	pf.Bool("disable-logs", false, "Disable logging completely")
	pf.Bool("no-clipboard", false, "Do not copy results to the clipboard")

	rootCmd.Flags().BoolVar(&useTUI, "tui", false, "Show the live monitor instead of echoing logs")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		if isStartupError(err) {
			fmt.Fprintln(os.Stderr, usageGuide())
		}
		os.Exit(1)
	}
}
