package tables

import "github.com/JonMunkholm/glee/internal/core"

func init() {
	registerAlumnae()
}

var voiceParts = []string{"S1", "S2", "A1", "A2"}

func registerAlumnae() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:         "alumnae",
			Label:       "Alumnae",
			KeyLabel:    "Email",
			Description: "Alumnae directory; a row replaces the stored alumna with the same email",
		},
		Schema: core.Schema{
			Fields: []core.FieldSpec{
				{Name: "email", Type: core.FieldEmail, Required: true},
				{Name: "full_name", Type: core.FieldString, Required: true, NotEmpty: true},
				{Name: "first_name", Type: core.FieldString},
				{Name: "last_name", Type: core.FieldString},
				{Name: "graduation_year", Type: core.FieldInteger},
				{Name: "voice_part", Type: core.FieldEnum, EnumValues: voiceParts},
				{Name: "verified", Type: core.FieldBool},
				{Name: "phone", Type: core.FieldString},
				{Name: "interests", Type: core.FieldList},
				{Name: "last_update", Type: core.FieldDate},
			},
			KeyFields: []string{"email"},
			KeyLabel:  "Email",
			Refine:    splitFullName,
		},
		Mode: core.ModeUpsert,
		Sample: []string{
			"jane.doe@example.com", "Jane Doe", "Jane", "Doe", "2015", "S2", "yes",
			"404-555-0100", "mentoring, reunion planning", "2024-06-01",
		},
		Decode: decodeAlumna,
	})
}

// splitFullName fills empty first/last name cells from full_name.
func splitFullName(v core.Values) []core.Issue {
	full := v.Str("full_name")
	if full == "" || (v.Str("first_name") != "" && v.Str("last_name") != "") {
		return nil
	}

	first, last := full, ""
	for i := len(full) - 1; i >= 0; i-- {
		if full[i] == ' ' {
			first, last = full[:i], full[i+1:]
			break
		}
	}
	if v.Str("first_name") == "" {
		v["first_name"] = core.StringValue(first)
	}
	if v.Str("last_name") == "" && last != "" {
		v["last_name"] = core.StringValue(last)
	}
	return nil
}

func decodeAlumna(v core.Values) core.Entity {
	return &core.Alumna{
		Email:          v.Str("email"),
		FullName:       v.Str("full_name"),
		FirstName:      v.Str("first_name"),
		LastName:       v.Str("last_name"),
		GraduationYear: v.Int("graduation_year"),
		VoicePart:      v.Str("voice_part"),
		Verified:       v.Bool("verified"),
		Phone:          v.Str("phone"),
		Interests:      v.List("interests"),
		LastUpdate:     v.Time("last_update"),
	}
}
