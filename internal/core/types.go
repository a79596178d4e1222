package core

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// FieldType represents the expected data type for a CSV field.
type FieldType int

const (
	FieldString FieldType = iota
	FieldEmail
	FieldDate
	FieldInteger
	FieldBool
	FieldList
	FieldEnum
)

func (t FieldType) String() string {
	switch t {
	case FieldEmail:
		return "email"
	case FieldDate:
		return "date"
	case FieldInteger:
		return "integer"
	case FieldBool:
		return "boolean"
	case FieldList:
		return "list"
	case FieldEnum:
		return "enum"
	default:
		return "string"
	}
}

// FieldSpec defines validation rules for a single CSV column.
type FieldSpec struct {
	Name       string    // Canonical header name (must match CSV exactly)
	Type       FieldType // Expected data type
	Required   bool      // Column must exist in CSV header
	NotEmpty   bool      // Cell must carry a value (strings only)
	EnumValues []string  // Valid values for FieldEnum
	Fallback   string    // Replacement for an invalid enum value
	Default    int64     // Replacement for a missing or non-numeric integer
}

// Schema describes the canonical columns of one import kind.
type Schema struct {
	Fields []FieldSpec

	// KeyFields are combined into the natural key, in order.
	KeyFields []string

	// KeyLabel names the key in duplicate warnings and the audit log ("Email", "Item").
	KeyLabel string

	// Refine applies cross-field rules after every field has been coerced.
	// It may rewrite values in place and returns any extra issues.
	Refine func(Values) []Issue
}

// Field returns the spec for a canonical field name.
func (s Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Headers returns the canonical header row in schema order.
func (s Schema) Headers() []string {
	headers := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		headers[i] = f.Name
	}
	return headers
}

// RequiredFields returns the names of every column that must be present.
func (s Schema) RequiredFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

func (s Schema) isKeyField(name string) bool {
	for _, k := range s.KeyFields {
		if k == name {
			return true
		}
	}
	return false
}

// CommitMode selects how admitted records reach the store.
type CommitMode int

const (
	// ModeInsert always creates a new record.
	ModeInsert CommitMode = iota
	// ModeUpsert overwrites any record stored under the same key.
	ModeUpsert
	// ModeFreshUpsert overwrites only when the incoming timestamp is strictly newer.
	ModeFreshUpsert
)

func (m CommitMode) String() string {
	switch m {
	case ModeUpsert:
		return "upsert"
	case ModeFreshUpsert:
		return "fresh-upsert"
	default:
		return "insert"
	}
}

// TableInfo contains display information about an import kind.
type TableInfo struct {
	Key         string `json:"key"`       // Unique identifier: "contacts"
	Label       string `json:"label"`     // Display name: "Contacts"
	KeyLabel    string `json:"key_label"` // Header of the key column in logs: "Email"
	Description string `json:"description"`
}

// DecodeFunc turns the coerced values of an admitted row into its entity.
type DecodeFunc func(Values) Entity

// TableDefinition contains everything needed to import one kind.
type TableDefinition struct {
	Info   TableInfo
	Schema Schema
	Mode   CommitMode

	// FreshnessField names the timestamp compared by ModeFreshUpsert.
	FreshnessField string

	// Sample is the example data row written under the template header.
	Sample []string

	Decode DecodeFunc
}

// KeyLabel returns the label used for the key column of the audit log.
func (d TableDefinition) KeyLabel() string {
	if d.Info.KeyLabel != "" {
		return d.Info.KeyLabel
	}
	if d.Schema.KeyLabel != "" {
		return d.Schema.KeyLabel
	}
	return strings.Join(d.Schema.KeyFields, "|")
}
