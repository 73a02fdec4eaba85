package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/corinthian/sw-catcher/internal/ingest"
)

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Process one artifact or text once",
	Long: `Runs a single meta.json (or the text given with --text) through keyphrase detection,
cleaning and clipboard delivery, then prints the resulting text.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

var (
	processText    string
	processVerbose bool
)

func init() {
	processCmd.Flags().StringVar(&processText, "text", "", "Process this text instead of a file")
	processCmd.Flags().BoolVarP(&processVerbose, "verbose", "v", false, "Show detected keyphrases and their actions")
}

func runProcess(cmd *cobra.Command, args []string) error {
	if (len(args) == 0) == (processText == "") {
		return errors.New("provide either a file or --text")
	}

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(s, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	var out *ingest.Outcome
	if processText != "" {
		out, err = a.pipeline.ProcessText(cmd.Context(), processText)
	} else {
		out, err = a.pipeline.ProcessFile(cmd.Context(), args[0])
	}
	if out == nil {
		return err
	}

	if processVerbose {
		printExecutions(out)
	}
	fmt.Println(out.Text)
	return err
}

func printExecutions(out *ingest.Outcome) {
	if len(out.Result.Executions) == 0 {
		fmt.Fprintln(os.Stderr, "No keyphrases detected.")
		return
	}
	w := tabwriter.NewWriter(os.Stderr, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tKEYPHRASE\tACTION\tRESULT")
	for i, e := range out.Result.Executions {
		result := "ok"
		switch {
		case e.DryRun:
			result = "dry-run"
		case e.Err != nil:
			result = e.Err.Error()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, e.Keyphrase, e.Action.String(), result)
	}
	for _, m := range out.Result.Dropped {
		fmt.Fprintf(w, "-\t%s\t%s\toverlapped, skipped\n", m.Keyphrase, m.Action.String())
	}
	w.Flush()
}
