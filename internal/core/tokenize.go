package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RawRow is one record of the source file before any interpretation.
type RawRow struct {
	Line  int      // 1-based physical line the record starts on
	Cells []string // cell text with surrounding quotes removed
}

// Tokenize splits CSV input into rows.
//
// Quoted cells may contain commas, doubled quotes and line breaks. Blank and
// whitespace-only lines are dropped. A leading BOM and invalid UTF-8 are
// handled by the streaming wrappers. Input with fewer than two non-blank rows
// (a header and at least one data row) yields *EmptyInputError.
func Tokenize(r io.Reader) ([]RawRow, error) {
	cr := csv.NewReader(WrapForStreaming(r))
	cr.FieldsPerRecord = -1 // row width is checked by the validator
	cr.LazyQuotes = true

	var rows []RawRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if isBlankRecord(record) {
			continue
		}

		line, _ := cr.FieldPos(0)
		rows = append(rows, RawRow{Line: line, Cells: record})
	}

	if len(rows) < 2 {
		return nil, &EmptyInputError{Rows: len(rows)}
	}
	return rows, nil
}

// isBlankRecord reports whether a record came from a whitespace-only line.
// encoding/csv already drops truly empty lines.
func isBlankRecord(record []string) bool {
	return len(record) == 1 && strings.TrimSpace(record[0]) == ""
}
