package tables

import "github.com/JonMunkholm/glee/internal/core"

func init() {
	registerContacts()
}

var contactStatuses = []string{"Active", "Unsubscribed", "Bounced", "Unknown"}

func registerContacts() {
	text := func(name string) core.FieldSpec {
		return core.FieldSpec{Name: name, Type: core.FieldString, Required: true}
	}
	date := func(name string) core.FieldSpec {
		return core.FieldSpec{Name: name, Type: core.FieldDate, Required: true}
	}
	count := func(name string) core.FieldSpec {
		return core.FieldSpec{Name: name, Type: core.FieldInteger, Required: true}
	}

	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:         "contacts",
			Label:       "Contacts",
			KeyLabel:    "Email",
			Description: "Mailing list export; rows update existing contacts when DateUpdated is newer",
		},
		Schema: core.Schema{
			Fields: []core.FieldSpec{
				{Name: "Email", Type: core.FieldEmail, Required: true},
				{Name: "Status", Type: core.FieldEnum, Required: true, EnumValues: contactStatuses, Fallback: "Active"},
				date("StatusChangeDate"),
				date("DateUpdated"),
				date("DateAdded"),
				text("Source"),
				text("CreatedFromIP"),
				count("TotalSent"),
				count("TotalFailed"),
				count("TotalOpened"),
				count("TotalClicked"),
				date("LastSent"),
				date("LastFailed"),
				date("LastOpened"),
				date("LastClicked"),
				text("ErrorCode"),
				text("FriendlyErrorMessage"),
				date("ConsentDate"),
				text("ConsentIP"),
				{Name: "ConsentTracking", Type: core.FieldBool, Required: true},
				text("FirstName"),
				text("LastName"),
				text("UnsubscribeReason"),
				text("UnsubscribeReasonNotes"),
				text("display_name"),
				date("last_update"),
				text("phone"),
				text("address"),
				text("city"),
				text("state"),
				text("zip"),
				text("class"),
			},
			KeyFields: []string{"Email"},
			KeyLabel:  "Email",
			Refine: func(v core.Values) []core.Issue {
				normalizeAddress(v)
				return nil
			},
		},
		Mode:           core.ModeFreshUpsert,
		FreshnessField: "DateUpdated",
		Sample: []string{
			"jane.doe@example.com", "Active", "2024-01-15", "2024-06-01", "2023-09-01", "manual",
			"192.168.1.1", "100", "2", "45", "12", "2024-05-30", "2024-04-15", "2024-05-29", "2024-05-28",
			"", "", "2023-09-01", "", "true", "Jane", "Doe", "", "", "Jane Doe", "2024-06-01",
			"404-555-0100", "123 Main St", "Atlanta", "GA", "30303", "2015",
		},
		Decode: decodeContact,
	})
}

func decodeContact(v core.Values) core.Entity {
	return &core.Contact{
		Email:                  v.Str("Email"),
		Status:                 v.Str("Status"),
		StatusChangeDate:       v.Time("StatusChangeDate"),
		DateUpdated:            v.Time("DateUpdated"),
		DateAdded:              v.Time("DateAdded"),
		Source:                 v.Str("Source"),
		CreatedFromIP:          v.Str("CreatedFromIP"),
		TotalSent:              v.Int("TotalSent"),
		TotalFailed:            v.Int("TotalFailed"),
		TotalOpened:            v.Int("TotalOpened"),
		TotalClicked:           v.Int("TotalClicked"),
		LastSent:               v.Time("LastSent"),
		LastFailed:             v.Time("LastFailed"),
		LastOpened:             v.Time("LastOpened"),
		LastClicked:            v.Time("LastClicked"),
		ErrorCode:              v.Str("ErrorCode"),
		FriendlyErrorMessage:   v.Str("FriendlyErrorMessage"),
		ConsentDate:            v.Time("ConsentDate"),
		ConsentIP:              v.Str("ConsentIP"),
		ConsentTracking:        v.Bool("ConsentTracking"),
		FirstName:              v.Str("FirstName"),
		LastName:               v.Str("LastName"),
		UnsubscribeReason:      v.Str("UnsubscribeReason"),
		UnsubscribeReasonNotes: v.Str("UnsubscribeReasonNotes"),
		DisplayName:            v.Str("display_name"),
		LastUpdate:             v.Time("last_update"),
		Phone:                  v.Str("phone"),
		Address:                v.Str("address"),
		City:                   v.Str("city"),
		State:                  v.Str("state"),
		Zip:                    v.Str("zip"),
		Class:                  v.Str("class"),
	}
}
