package core

import (
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// CoerceEmail Tests
// ----------------------------------------------------------------------------

func TestCoerceEmail(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValue string
		wantLevel Level
		wantMsg   string
	}{
		{name: "plain address", input: "jane@example.com", wantValue: "jane@example.com"},
		{name: "mixed case and spaces", input: "  Jane.Doe@Example.COM ", wantValue: "jane.doe@example.com"},
		{name: "subdomain", input: "a@mail.example.co.uk", wantValue: "a@mail.example.co.uk"},
		{name: "empty", input: "", wantLevel: LevelError, wantMsg: "email is required"},
		{name: "whitespace only", input: "   ", wantLevel: LevelError, wantMsg: "email is required"},
		{name: "missing at", input: "jane.example.com", wantValue: "jane.example.com", wantLevel: LevelError, wantMsg: "Invalid email format"},
		{name: "missing tld", input: "jane@example", wantValue: "jane@example", wantLevel: LevelError, wantMsg: "Invalid email format"},
		{name: "embedded space", input: "ja ne@example.com", wantValue: "ja ne@example.com", wantLevel: LevelError, wantMsg: "Invalid email format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, p := CoerceEmail("email", tt.input)
			if got.Str != tt.wantValue {
				t.Errorf("CoerceEmail(%q) = %q, want %q", tt.input, got.Str, tt.wantValue)
			}
			if p.Level != tt.wantLevel || p.Message != tt.wantMsg {
				t.Errorf("CoerceEmail(%q) problem = %+v, want %s %q", tt.input, p, tt.wantLevel, tt.wantMsg)
			}
		})
	}
}

func TestCoerceEmail_Idempotent(t *testing.T) {
	inputs := []string{"  Foo@Bar.COM", "x@y.z", "UPPER@CASE.ORG "}
	for _, in := range inputs {
		once, _ := CoerceEmail("email", in)
		twice, _ := CoerceEmail("email", once.Str)
		if once.Str != twice.Str {
			t.Errorf("CoerceEmail not idempotent for %q: %q then %q", in, once.Str, twice.Str)
		}
	}
}

// ----------------------------------------------------------------------------
// CoerceDate Tests
// ----------------------------------------------------------------------------

func TestCoerceDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind ValueKind
		wantTime time.Time
		wantWarn bool
	}{
		{name: "empty", input: "", wantKind: ValueNull},
		{name: "ISO date", input: "2024-01-15", wantKind: ValueTime, wantTime: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "RFC3339 with offset", input: "2024-01-15T10:30:00-05:00", wantKind: ValueTime, wantTime: time.Date(2024, 1, 15, 15, 30, 0, 0, time.UTC)},
		{name: "ISO without zone", input: "2024-01-15T10:30:00", wantKind: ValueTime, wantTime: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{name: "US slash", input: "1/15/2024", wantKind: ValueTime, wantTime: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "US padded", input: "01/05/2024", wantKind: ValueTime, wantTime: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{name: "written month", input: "Jan 15, 2024", wantKind: ValueTime, wantTime: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "compact", input: "20240115", wantKind: ValueTime, wantTime: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "two digit year", input: "1/15/24", wantKind: ValueTime, wantTime: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "excel wrapper", input: `="2024-01-15"`, wantKind: ValueTime, wantTime: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", input: "next tuesday", wantKind: ValueString, wantWarn: true},
		{name: "invalid month", input: "2024-13-45", wantKind: ValueString, wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := FieldSpec{Name: "date", Type: FieldDate}
			got, p := spec.Coerce(tt.input)
			if got.Kind != tt.wantKind {
				t.Fatalf("Coerce(%q).Kind = %v, want %v", tt.input, got.Kind, tt.wantKind)
			}
			if tt.wantKind == ValueTime && !got.Time.Equal(tt.wantTime) {
				t.Errorf("Coerce(%q) = %v, want %v", tt.input, got.Time, tt.wantTime)
			}
			if tt.wantWarn {
				if p.Level != LevelWarning || p.Message != "Unparsed date format" {
					t.Errorf("Coerce(%q) problem = %+v, want unparsed warning", tt.input, p)
				}
				if got.Str != tt.input {
					t.Errorf("Coerce(%q) kept %q, want original text", tt.input, got.Str)
				}
			} else if !p.IsZero() {
				t.Errorf("Coerce(%q) unexpected problem %+v", tt.input, p)
			}
		})
	}
}

func TestParseDate_ReturnsUTC(t *testing.T) {
	got, ok := ParseDate("2024-06-01T12:00:00+02:00")
	if !ok {
		t.Fatal("ParseDate failed")
	}
	if got.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got.Location())
	}
	if got.Hour() != 10 {
		t.Errorf("hour = %d, want 10", got.Hour())
	}
}

// ----------------------------------------------------------------------------
// CoerceInteger Tests
// ----------------------------------------------------------------------------

func TestCoerceInteger(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		def      int64
		want     int64
		wantWarn string
	}{
		{name: "plain", input: "42", want: 42},
		{name: "thousands separator", input: "1,234", want: 1234},
		{name: "negative clamps", input: "-5", want: 0},
		{name: "empty uses default", input: "", def: 5, want: 5},
		{name: "whitespace uses default", input: "  ", def: 3, want: 3},
		{name: "non numeric", input: "abc", want: 0, wantWarn: "Non-numeric value set to 0"},
		{name: "non numeric custom default", input: "lots", def: 5, want: 5, wantWarn: "Non-numeric value set to 5"},
		{name: "decimal rejected", input: "1.5", want: 0, wantWarn: "Non-numeric value set to 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, p := CoerceInteger(tt.input, tt.def)
			if got.Kind != ValueInt || got.Int != tt.want {
				t.Errorf("CoerceInteger(%q) = %+v, want %d", tt.input, got, tt.want)
			}
			if p.Message != tt.wantWarn {
				t.Errorf("CoerceInteger(%q) message = %q, want %q", tt.input, p.Message, tt.wantWarn)
			}
			if tt.wantWarn != "" && p.Level != LevelWarning {
				t.Errorf("CoerceInteger(%q) level = %q, want warning", tt.input, p.Level)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// CoerceBool Tests
// ----------------------------------------------------------------------------

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		input    string
		wantKind ValueKind
		want     bool
	}{
		{"true", ValueBool, true},
		{"TRUE", ValueBool, true},
		{"Yes", ValueBool, true},
		{"1", ValueBool, true},
		{"false", ValueBool, false},
		{"No", ValueBool, false},
		{"0", ValueBool, false},
		{"", ValueNull, false},
		{"maybe", ValueNull, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := CoerceBool(tt.input)
			if got.Kind != tt.wantKind || got.Bool != tt.want {
				t.Errorf("CoerceBool(%q) = %+v, want kind %v value %v", tt.input, got, tt.wantKind, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// CoerceList Tests
// ----------------------------------------------------------------------------

func TestCoerceList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{}},
		{"S", []string{"S"}},
		{"S, M ,L", []string{"S", "M", "L"}},
		{"a,,b, ,", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := CoerceList(tt.input)
			if len(got.List) != len(tt.want) {
				t.Fatalf("CoerceList(%q) = %v, want %v", tt.input, got.List, tt.want)
			}
			for i := range tt.want {
				if got.List[i] != tt.want[i] {
					t.Errorf("CoerceList(%q)[%d] = %q, want %q", tt.input, i, got.List[i], tt.want[i])
				}
			}
		})
	}
}

// ----------------------------------------------------------------------------
// CoerceString / CoerceEnum Tests
// ----------------------------------------------------------------------------

func TestCoerceString(t *testing.T) {
	got, p := CoerceString("item_name", "  Robe  ", true)
	if got.Str != "Robe" || !p.IsZero() {
		t.Errorf("CoerceString = %+v %+v, want Robe", got, p)
	}

	got, p = CoerceString("item_name", "", true)
	if got.Kind != ValueNull || p.Level != LevelError || p.Message != "item_name is required" {
		t.Errorf("required empty = %+v %+v", got, p)
	}

	got, p = CoerceString("notes", "", false)
	if got.Kind != ValueNull || !p.IsZero() {
		t.Errorf("optional empty = %+v %+v", got, p)
	}
}

func TestCoerceEnum(t *testing.T) {
	allowed := []string{"good", "fair", "poor"}

	tests := []struct {
		name      string
		input     string
		fallback  string
		want      string
		wantLevel Level
	}{
		{name: "valid", input: "fair", fallback: "good", want: "fair"},
		{name: "invalid with fallback", input: "mint", fallback: "good", want: "good", wantLevel: LevelWarning},
		{name: "invalid without fallback", input: "mint", want: "mint", wantLevel: LevelError},
		{name: "case sensitive", input: "Good", want: "Good", wantLevel: LevelError},
		{name: "empty with fallback", input: "", fallback: "good", want: "good"},
		{name: "empty without fallback", input: "", want: "", wantLevel: LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, p := CoerceEnum("condition", tt.input, allowed, tt.fallback)
			if got.Str != tt.want {
				t.Errorf("CoerceEnum(%q) = %q, want %q", tt.input, got.Str, tt.want)
			}
			if p.Level != tt.wantLevel {
				t.Errorf("CoerceEnum(%q) level = %q, want %q", tt.input, p.Level, tt.wantLevel)
			}
		})
	}

	_, p := CoerceEnum("condition", "mint", allowed, "good")
	if want := "Invalid condition. Must be one of: good, fair, poor"; p.Message != want {
		t.Errorf("message = %q, want %q", p.Message, want)
	}
}

// ----------------------------------------------------------------------------
// CleanCell / NormalizeKey Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"hello", "hello"},
		{"  hello  ", "hello"},
		{`="00123"`, "00123"},
		{`=""`, ""},
		{`="`, `="`},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	if got := NormalizeKey(" Jane@Example.com "); got != "jane@example.com" {
		t.Errorf("NormalizeKey single = %q", got)
	}
	if got := NormalizeKey("Costume", " Blue Robe"); got != "costume|blue robe" {
		t.Errorf("NormalizeKey pair = %q", got)
	}
}
