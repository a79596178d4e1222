package core

import "time"

// Entity is a typed record ready to be written to the store.
// The set of implementations is closed: Contact, Alumna and WardrobeItem.
type Entity interface {
	// Kind returns the registry key of the import kind.
	Kind() string
	// NaturalKey returns the normalized key the store looks records up by.
	NaturalKey() string

	isEntity()
}

// Contact is a mailing-list subscriber.
type Contact struct {
	Email                  string     `json:"email"`
	Status                 string     `json:"status"`
	StatusChangeDate       *time.Time `json:"status_change_date,omitempty"`
	DateUpdated            *time.Time `json:"date_updated,omitempty"`
	DateAdded              *time.Time `json:"date_added,omitempty"`
	Source                 string     `json:"source,omitempty"`
	CreatedFromIP          string     `json:"created_from_ip,omitempty"`
	TotalSent              int64      `json:"total_sent"`
	TotalFailed            int64      `json:"total_failed"`
	TotalOpened            int64      `json:"total_opened"`
	TotalClicked           int64      `json:"total_clicked"`
	LastSent               *time.Time `json:"last_sent,omitempty"`
	LastFailed             *time.Time `json:"last_failed,omitempty"`
	LastOpened             *time.Time `json:"last_opened,omitempty"`
	LastClicked            *time.Time `json:"last_clicked,omitempty"`
	ErrorCode              string     `json:"error_code,omitempty"`
	FriendlyErrorMessage   string     `json:"friendly_error_message,omitempty"`
	ConsentDate            *time.Time `json:"consent_date,omitempty"`
	ConsentIP              string     `json:"consent_ip,omitempty"`
	ConsentTracking        *bool      `json:"consent_tracking,omitempty"`
	FirstName              string     `json:"first_name,omitempty"`
	LastName               string     `json:"last_name,omitempty"`
	UnsubscribeReason      string     `json:"unsubscribe_reason,omitempty"`
	UnsubscribeReasonNotes string     `json:"unsubscribe_reason_notes,omitempty"`
	DisplayName            string     `json:"display_name,omitempty"`
	LastUpdate             *time.Time `json:"last_update,omitempty"`
	Phone                  string     `json:"phone,omitempty"`
	Address                string     `json:"address,omitempty"`
	City                   string     `json:"city,omitempty"`
	State                  string     `json:"state,omitempty"`
	Zip                    string     `json:"zip,omitempty"`
	Class                  string     `json:"class,omitempty"`
}

func (c *Contact) Kind() string { return "contacts" }
func (c *Contact) NaturalKey() string { return NormalizeKey(c.Email) }
func (*Contact) isEntity() {}

// Alumna is a former member of the club.
type Alumna struct {
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	FirstName      string     `json:"first_name,omitempty"`
	LastName       string     `json:"last_name,omitempty"`
	GraduationYear int64      `json:"graduation_year,omitempty"`
	VoicePart      string     `json:"voice_part,omitempty"`
	Verified       *bool      `json:"verified,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Interests      []string   `json:"interests,omitempty"`
	LastUpdate     *time.Time `json:"last_update,omitempty"`
}

func (a *Alumna) Kind() string { return "alumnae" }
func (a *Alumna) NaturalKey() string { return NormalizeKey(a.Email) }
func (*Alumna) isEntity() {}

// WardrobeItem is a stock line in the wardrobe inventory.
type WardrobeItem struct {
	Category          string   `json:"category"`
	ItemName          string   `json:"item_name"`
	Sizes             []string `json:"sizes,omitempty"`
	Colors            []string `json:"colors,omitempty"`
	QuantityTotal     int64    `json:"quantity_total"`
	QuantityAvailable int64    `json:"quantity_available"`
	Condition         string   `json:"condition"`
	LowStockThreshold int64    `json:"low_stock_threshold"`
	Notes             string   `json:"notes,omitempty"`
}

func (w *WardrobeItem) Kind() string { return "wardrobe" }
func (w *WardrobeItem) NaturalKey() string { return NormalizeKey(w.Category, w.ItemName) }
func (*WardrobeItem) isEntity() {}
