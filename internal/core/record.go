package core

import (
	"strconv"
	"strings"
	"time"
)

// ValueKind tags which member of a Value is populated.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueString
	ValueTime
	ValueInt
	ValueBool
	ValueList
)

// Value is a coerced cell.
type Value struct {
	Kind ValueKind `json:"kind"`
	Str  string    `json:"str,omitempty"`
	Time time.Time `json:"time,omitempty"`
	Int  int64     `json:"int,omitempty"`
	Bool bool      `json:"bool,omitempty"`
	List []string  `json:"list,omitempty"`
}

func NullValue() Value { return Value{Kind: ValueNull} }
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }
func TimeValue(t time.Time) Value { return Value{Kind: ValueTime, Time: t} }
func IntValue(i int64) Value { return Value{Kind: ValueInt, Int: i} }
func BoolValue(b bool) Value { return Value{Kind: ValueBool, Bool: b} }
func ListValue(items []string) Value { return Value{Kind: ValueList, List: items} }

// String renders the value the way it would be written back to a CSV cell.
func (v Value) String() string {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueTime:
		return v.Time.UTC().Format(time.RFC3339)
	case ValueInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValueList:
		return strings.Join(v.List, ",")
	default:
		return ""
	}
}

// Values holds the coerced cells of one row keyed by canonical field name.
type Values map[string]Value

// Str returns a string field, or "" when absent or not a string.
func (v Values) Str(name string) string {
	if val, ok := v[name]; ok && val.Kind == ValueString {
		return val.Str
	}
	return ""
}

// Time returns a parsed timestamp, or nil when the cell was empty or unparsed.
func (v Values) Time(name string) *time.Time {
	if val, ok := v[name]; ok && val.Kind == ValueTime {
		t := val.Time
		return &t
	}
	return nil
}

// Int returns an integer field, or 0.
func (v Values) Int(name string) int64 {
	if val, ok := v[name]; ok && val.Kind == ValueInt {
		return val.Int
	}
	return 0
}

// Bool returns a tri-state boolean: nil means unknown.
func (v Values) Bool(name string) *bool {
	if val, ok := v[name]; ok && val.Kind == ValueBool {
		b := val.Bool
		return &b
	}
	return nil
}

// List returns a list field; never nil.
func (v Values) List(name string) []string {
	if val, ok := v[name]; ok && val.Kind == ValueList {
		return val.List
	}
	return []string{}
}

// Level is the severity of an issue.
type Level string

const (
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Problem is what a coercer reports about a single cell.
// The zero value means the cell was accepted as-is.
type Problem struct {
	Level   Level
	Message string
}

// IsZero reports whether the coercer had nothing to say.
func (p Problem) IsZero() bool {
	return p.Message == ""
}

func warn(msg string) Problem { return Problem{Level: LevelWarning, Message: msg} }
func failed(msg string) Problem { return Problem{Level: LevelError, Message: msg} }

// Issue is a problem attached to a row and optionally a field.
type Issue struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Level   Level  `json:"level"`
}

// ParsedRecord is one validated data row.
type ParsedRecord struct {
	Row    int     `json:"row"`
	Key    string  `json:"key,omitempty"`
	Values Values  `json:"values"`
	Issues []Issue `json:"issues,omitempty"`
}

// HasErrors reports whether any issue blocks the record.
func (r ParsedRecord) HasErrors() bool {
	for _, is := range r.Issues {
		if is.Level == LevelError {
			return true
		}
	}
	return false
}

// ErrorMessages returns the messages of error-level issues in order.
func (r ParsedRecord) ErrorMessages() []string {
	var msgs []string
	for _, is := range r.Issues {
		if is.Level == LevelError {
			msgs = append(msgs, is.Message)
		}
	}
	return msgs
}

// Summary counts issues across a validated file.
type Summary struct {
	Rows     int `json:"rows"`
	Valid    int `json:"valid"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// Summarize tallies records the way the review screen shows them:
// Valid counts rows without errors, Warnings and Errors count issues.
func Summarize(records []ParsedRecord) Summary {
	s := Summary{Rows: len(records)}
	for _, rec := range records {
		if !rec.HasErrors() {
			s.Valid++
		}
		for _, is := range rec.Issues {
			switch is.Level {
			case LevelError:
				s.Errors++
			case LevelWarning:
				s.Warnings++
			}
		}
	}
	return s
}

// Issues flattens every issue of every record in row order.
func Issues(records []ParsedRecord) []Issue {
	var all []Issue
	for _, rec := range records {
		all = append(all, rec.Issues...)
	}
	return all
}
