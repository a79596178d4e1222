package core

import "strings"

// Binding maps source column positions to canonical field names.
type Binding struct {
	Columns map[int]string // column index -> field name
	Width   int            // number of header cells
}

// Index returns the column bound to field, or -1.
func (b Binding) Index(field string) int {
	for i, name := range b.Columns {
		if name == field {
			return i
		}
	}
	return -1
}

// Bind matches a header row against a schema.
//
// Matching is exact and case-sensitive; only surrounding whitespace is
// ignored. Column order does not matter and unknown columns are skipped.
// When a header repeats a name the first occurrence is bound. If any required
// field is absent the result is a *SchemaMismatchError naming every missing
// field in schema order.
func Bind(header RawRow, schema Schema) (Binding, error) {
	b := Binding{
		Columns: make(map[int]string, len(schema.Fields)),
		Width:   len(header.Cells),
	}

	bound := make(map[string]bool, len(schema.Fields))
	for i, cell := range header.Cells {
		name := strings.TrimSpace(cell)
		if bound[name] {
			continue
		}
		if _, ok := schema.Field(name); !ok {
			continue
		}
		b.Columns[i] = name
		bound[name] = true
	}

	var missing []string
	for _, f := range schema.Fields {
		if f.Required && !bound[f.Name] {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return Binding{}, &SchemaMismatchError{Missing: missing}
	}

	return b, nil
}
