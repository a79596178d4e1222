package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/JonMunkholm/glee/internal/core"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <kind> <file>",
		Short: "Check a CSV file without importing it",
		Long: "Runs the file through the same validation as an import and prints\n" +
			"every issue. Exits 2 when the file cannot be read as the kind at all,\n" +
			"or with --strict when any row has an error.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := core.Lookup(args[0])
			if err != nil {
				return withCode(exitUsage, err)
			}

			f, err := os.Open(args[1])
			if err != nil {
				return withCode(exitUsage, err)
			}
			defer f.Close()

			v, err := core.ValidateCSV(core.NewSizeLimitReader(f, core.DefaultMaxFileSize), def.Schema)
			if err != nil {
				return withCode(exitValidation, fmt.Errorf("%s: %w", args[1], err))
			}

			sum := core.Summarize(v.Records)
			if err := printReport(cmd.OutOrStdout(), def, sum, v.Malformed, core.Issues(v.Records)); err != nil {
				return err
			}
			if strict && sum.Errors > 0 {
				return withCode(exitValidation, fmt.Errorf("%s: %d rows have errors", args[1], sum.Rows-sum.Valid))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any row has an error")
	return cmd
}

// printReport writes the summary line followed by an issue table.
func printReport(w io.Writer, def core.TableDefinition, sum core.Summary, malformed int, issues []core.Issue) error {
	fmt.Fprintf(w, "%s: %d rows, %d valid, %d warnings, %d errors, %d malformed\n",
		def.Info.Key, sum.Rows, sum.Valid, sum.Warnings, sum.Errors, malformed)
	if len(issues) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tLEVEL\tFIELD\tMESSAGE")
	for _, is := range issues {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", is.Row, is.Level, is.Field, is.Message)
	}
	return tw.Flush()
}
