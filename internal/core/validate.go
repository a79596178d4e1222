package core

// validate.go turns raw rows into parsed records.
//
// Validation happens at two levels:
//  1. Header validation: Bind ensures required columns are present
//  2. Row validation: every cell is coerced against its FieldSpec and all
//     problems are collected (validation never stops at the first one)
//
// Rows whose cell count differs from the header are skipped without an issue
// and only counted, so a stray trailing comma cannot shift values into the
// wrong fields.

import (
	"fmt"
	"io"
)

// RowValidator validates rows against a schema and a bound header.
// It is stateful: it remembers natural keys to flag duplicates within a file.
type RowValidator struct {
	schema    Schema
	binding   Binding
	seen      map[string]int // natural key -> first row
	malformed int
}

// NewRowValidator creates a validator for the given schema and header binding.
func NewRowValidator(schema Schema, binding Binding) *RowValidator {
	return &RowValidator{
		schema:  schema,
		binding: binding,
		seen:    make(map[string]int),
	}
}

// Validate coerces one data row. ok is false when the row was skipped
// because its width does not match the header.
func (v *RowValidator) Validate(row RawRow) (rec ParsedRecord, ok bool) {
	if len(row.Cells) != v.binding.Width {
		v.malformed++
		return ParsedRecord{}, false
	}

	rec = ParsedRecord{
		Row:    row.Line,
		Values: make(Values, len(v.schema.Fields)),
	}

	keyBroken := false
	for _, spec := range v.schema.Fields {
		raw := ""
		if idx := v.binding.Index(spec.Name); idx >= 0 {
			raw = row.Cells[idx]
		}

		val, problem := spec.Coerce(raw)
		rec.Values[spec.Name] = val
		if problem.IsZero() {
			continue
		}

		rec.Issues = append(rec.Issues, Issue{
			Row:     row.Line,
			Field:   spec.Name,
			Message: problem.Message,
			Level:   problem.Level,
		})
		if problem.Level == LevelError && v.schema.isKeyField(spec.Name) {
			keyBroken = true
		}
	}

	if v.schema.Refine != nil {
		for _, is := range v.schema.Refine(rec.Values) {
			is.Row = row.Line
			rec.Issues = append(rec.Issues, is)
		}
	}

	if !keyBroken && len(v.schema.KeyFields) > 0 {
		rec.Key = v.naturalKey(rec.Values)
		if first, dup := v.seen[rec.Key]; dup {
			rec.Issues = append(rec.Issues, Issue{
				Row:   row.Line,
				Field: v.schema.KeyFields[0],
				Message: fmt.Sprintf("Duplicate %s in file (first seen at row %d); last instance will be kept",
					v.schema.KeyLabel, first),
				Level: LevelWarning,
			})
		} else {
			v.seen[rec.Key] = row.Line
		}
	}

	return rec, true
}

// Malformed returns how many rows were skipped for having the wrong width.
func (v *RowValidator) Malformed() int {
	return v.malformed
}

func (v *RowValidator) naturalKey(vals Values) string {
	parts := make([]string, len(v.schema.KeyFields))
	for i, name := range v.schema.KeyFields {
		parts[i] = vals[name].String()
	}
	return NormalizeKey(parts...)
}

// Validation is the outcome of running a whole file through the validator.
type Validation struct {
	Header    []string       `json:"header"`
	Records   []ParsedRecord `json:"records"`
	Malformed int            `json:"malformed"`
}

// ValidateRows binds the header row and validates every data row.
// A missing required column fails the whole file before any row is read.
func ValidateRows(rows []RawRow, schema Schema) (Validation, error) {
	if len(rows) < 2 {
		return Validation{}, &EmptyInputError{Rows: len(rows)}
	}

	binding, err := Bind(rows[0], schema)
	if err != nil {
		return Validation{}, err
	}

	v := NewRowValidator(schema, binding)
	out := Validation{
		Header:  rows[0].Cells,
		Records: make([]ParsedRecord, 0, len(rows)-1),
	}
	for _, row := range rows[1:] {
		if rec, ok := v.Validate(row); ok {
			out.Records = append(out.Records, rec)
		}
	}
	out.Malformed = v.Malformed()

	return out, nil
}

// ValidateCSV tokenizes r and validates it against schema.
func ValidateCSV(r io.Reader, schema Schema) (Validation, error) {
	rows, err := Tokenize(r)
	if err != nil {
		return Validation{}, err
	}
	return ValidateRows(rows, schema)
}
