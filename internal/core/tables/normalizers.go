package tables

import (
	"strings"

	"github.com/JonMunkholm/glee/internal/core"
)

// usStates maps lowercased US state names to their postal codes.
var usStates = map[string]string{
	"alabama":              "AL",
	"alaska":               "AK",
	"arizona":              "AZ",
	"arkansas":             "AR",
	"california":           "CA",
	"colorado":             "CO",
	"connecticut":          "CT",
	"delaware":             "DE",
	"florida":              "FL",
	"georgia":              "GA",
	"hawaii":               "HI",
	"idaho":                "ID",
	"illinois":             "IL",
	"indiana":              "IN",
	"iowa":                 "IA",
	"kansas":               "KS",
	"kentucky":             "KY",
	"louisiana":            "LA",
	"maine":                "ME",
	"maryland":             "MD",
	"massachusetts":        "MA",
	"michigan":             "MI",
	"minnesota":            "MN",
	"mississippi":          "MS",
	"missouri":             "MO",
	"montana":              "MT",
	"nebraska":             "NE",
	"nevada":               "NV",
	"new hampshire":        "NH",
	"new jersey":           "NJ",
	"new mexico":           "NM",
	"new york":             "NY",
	"north carolina":       "NC",
	"north dakota":         "ND",
	"ohio":                 "OH",
	"oklahoma":             "OK",
	"oregon":               "OR",
	"pennsylvania":         "PA",
	"rhode island":         "RI",
	"south carolina":       "SC",
	"south dakota":         "SD",
	"tennessee":            "TN",
	"texas":                "TX",
	"utah":                 "UT",
	"vermont":              "VT",
	"virginia":             "VA",
	"washington":           "WA",
	"west virginia":        "WV",
	"wisconsin":            "WI",
	"wyoming":              "WY",
	"district of columbia": "DC",
}

// NormalizeState converts a US state name to its postal code. Codes pass
// through upper-cased; anything unrecognized is returned trimmed.
func NormalizeState(s string) string {
	s = strings.TrimSpace(s)
	if code, ok := usStates[strings.ToLower(s)]; ok {
		return code
	}
	upper := strings.ToUpper(s)
	for _, code := range usStates {
		if upper == code {
			return code
		}
	}
	return s
}

// normalizeZip restores the leading zeros spreadsheets strip from
// five-digit ZIP codes.
func normalizeZip(s string) string {
	if len(s) > 0 && len(s) < 5 && strings.Trim(s, "0123456789") == "" {
		return strings.Repeat("0", 5-len(s)) + s
	}
	return s
}

// normalizeAddress rewrites the state and zip cells of a row in place.
func normalizeAddress(v core.Values) {
	if st := v.Str("state"); st != "" {
		v["state"] = core.StringValue(NormalizeState(st))
	}
	if zip := v.Str("zip"); zip != "" {
		v["zip"] = core.StringValue(normalizeZip(zip))
	}
}
