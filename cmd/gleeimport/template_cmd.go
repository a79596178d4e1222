package main

import (
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/glee/internal/core"
	"github.com/JonMunkholm/glee/internal/export"
	"github.com/spf13/cobra"
)

func newTemplateCmd() *cobra.Command {
	var (
		xlsx   bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "template <kind>",
		Short: "Write the starter file of an import kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := core.Lookup(args[0])
			if err != nil {
				return withCode(exitUsage, err)
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return writeTemplate(w, def, xlsx)
		},
	}

	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "Write an Excel workbook instead of CSV")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func writeTemplate(w io.Writer, def core.TableDefinition, xlsx bool) error {
	if !xlsx {
		return core.WriteTemplateCSV(w, def)
	}
	header, rows := core.TemplateRows(def)
	return export.WriteXLSX(w, def.Info.Key, header, rows)
}
