package core

import (
	"encoding/csv"
	"io"
)

// TemplateRows returns the canonical header and the sample row of a kind.
func TemplateRows(def TableDefinition) (header []string, rows [][]string) {
	header = def.Schema.Headers()
	if len(def.Sample) > 0 {
		rows = [][]string{def.Sample}
	}
	return header, rows
}

// WriteTemplateCSV writes a starter file for def: the canonical header
// followed by one sample row.
func WriteTemplateCSV(w io.Writer, def TableDefinition) error {
	header, rows := TemplateRows(def)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
