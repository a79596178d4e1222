package core

// coerce.go converts raw cell text into typed values.
//
// Every coercer is a pure function of the cell text. They handle the messy
// reality of hand-edited spreadsheets:
//   - Multiple date formats (ISO, US, EU, written months)
//   - Thousands separators in counts
//   - Various boolean representations (yes/no, true/false, 1/0)
//   - Excel formula wrappers (="00123")
//
// A coercer never fails outright. It returns the best value it can and a
// Problem describing what it had to do; the row validator decides what the
// problem means for the row.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// emailPattern is deliberately permissive: something@something.tld.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling.
// ISO layouts come first so a full timestamp keeps its time of day.
var (
	isoLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006/01/02", "2006.01.02",
		"1/2/2006 15:04", "1/2/2006 3:04 PM",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006",
		"20060102",
	}
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
)

// Coerce converts one cell according to the field's type.
func (f FieldSpec) Coerce(raw string) (Value, Problem) {
	raw = CleanCell(raw)

	switch f.Type {
	case FieldEmail:
		return CoerceEmail(f.Name, raw)
	case FieldDate:
		return CoerceDate(raw)
	case FieldInteger:
		return CoerceInteger(raw, f.Default)
	case FieldBool:
		return CoerceBool(raw), Problem{}
	case FieldList:
		return CoerceList(raw), Problem{}
	case FieldEnum:
		if raw == "" && !f.NotEmpty && f.Fallback == "" {
			return NullValue(), Problem{}
		}
		return CoerceEnum(f.Name, raw, f.EnumValues, f.Fallback)
	default:
		return CoerceString(f.Name, raw, f.NotEmpty)
	}
}

// CoerceEmail lowercases and trims an address and checks its shape.
// Applying it to its own output returns the same value.
func CoerceEmail(field, raw string) (Value, Problem) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return NullValue(), failed(field + " is required")
	}
	if !emailPattern.MatchString(email) {
		return StringValue(email), failed("Invalid " + field + " format")
	}
	return StringValue(email), Problem{}
}

// CoerceDate parses a date or timestamp into a UTC instant.
// Unparsable text is kept as a string value with a warning.
func CoerceDate(raw string) (Value, Problem) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return NullValue(), Problem{}
	}
	if t, ok := ParseDate(s); ok {
		return TimeValue(t), Problem{}
	}
	return StringValue(s), warn("Unparsed date format")
}

// ParseDate tries every supported layout in turn.
// Values without a zone are taken as UTC.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	// Try 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

// CoerceInteger parses a non-negative count.
// Negative numbers clamp to zero; anything non-numeric becomes def with a warning.
func CoerceInteger(raw string, def int64) (Value, Problem) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return IntValue(def), Problem{}
	}

	n, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil {
		return IntValue(def), warn(fmt.Sprintf("Non-numeric value set to %d", def))
	}
	if n < 0 {
		n = 0
	}
	return IntValue(n), Problem{}
}

// CoerceBool maps a cell to a tri-state boolean. It never reports a problem:
// anything unrecognized, including an empty cell, is unknown (null).
func CoerceBool(raw string) Value {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return BoolValue(true)
	case "false", "0", "no":
		return BoolValue(false)
	default:
		return NullValue()
	}
}

// CoerceList splits a comma-delimited cell, dropping empty items.
func CoerceList(raw string) Value {
	items := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return ListValue(items)
}

// CoerceString trims a text cell. An empty value is an error when required.
func CoerceString(field, raw string, required bool) (Value, Problem) {
	s := strings.TrimSpace(raw)
	if s == "" {
		if required {
			return NullValue(), failed(field + " is required")
		}
		return NullValue(), Problem{}
	}
	return StringValue(s), Problem{}
}

// CoerceEnum checks a cell against its allowed values (exact match).
// An invalid value is replaced by fallback and reported as a warning. With
// no fallback the invalid value is an error.
func CoerceEnum(field, raw string, allowed []string, fallback string) (Value, Problem) {
	s := strings.TrimSpace(raw)
	if s == "" {
		if fallback != "" {
			return StringValue(fallback), Problem{}
		}
		return NullValue(), failed(field + " is required")
	}
	for _, a := range allowed {
		if s == a {
			return StringValue(s), Problem{}
		}
	}

	msg := fmt.Sprintf("Invalid %s. Must be one of: %s", field, strings.Join(allowed, ", "))
	if fallback == "" {
		return StringValue(s), failed(msg)
	}
	return StringValue(fallback), warn(msg)
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes the Excel text-formula wrapper (="...")
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return s
}

// NormalizeKey builds a natural key from its parts: trimmed, lowercased and
// joined with "|".
func NormalizeKey(parts ...string) string {
	norm := make([]string, len(parts))
	for i, p := range parts {
		norm[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(norm, "|")
}
