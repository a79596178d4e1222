package core

import (
	"strings"
	"time"
)

// Rejection is a record left out of the commit because of blocking errors.
type Rejection struct {
	Record ParsedRecord `json:"record"`
	Reason string       `json:"reason"`
}

// ImportPlan partitions parsed records for the commit executor.
//
// Every record lands in exactly one of Admitted or Rejected. A natural key
// that appears more than once among admitted records is written from its last
// physical occurrence: SupersededBy maps each earlier row to the row that
// replaces it, and the committer skips those rows.
type ImportPlan struct {
	Admitted     []ParsedRecord `json:"admitted"`
	Rejected     []Rejection    `json:"rejected"`
	SupersededBy map[int]int    `json:"superseded_by,omitempty"`
}

// NewPlan partitions records by the presence of error-level issues.
func NewPlan(records []ParsedRecord) ImportPlan {
	plan := ImportPlan{
		Admitted:     make([]ParsedRecord, 0, len(records)),
		SupersededBy: make(map[int]int),
	}

	lastRow := make(map[string]int)
	for _, rec := range records {
		if rec.HasErrors() {
			plan.Rejected = append(plan.Rejected, Rejection{
				Record: rec,
				Reason: strings.Join(rec.ErrorMessages(), "; "),
			})
			continue
		}
		plan.Admitted = append(plan.Admitted, rec)
		if rec.Key != "" {
			lastRow[rec.Key] = rec.Row
		}
	}

	for _, rec := range plan.Admitted {
		if rec.Key == "" {
			continue
		}
		if last := lastRow[rec.Key]; last != rec.Row {
			plan.SupersededBy[rec.Row] = last
		}
	}

	return plan
}

// Existing describes what the store holds under a natural key.
type Existing struct {
	Found     bool
	UpdatedAt *time.Time
}

// ShouldApply is the freshness rule for ModeFreshUpsert:
//   - nothing stored: apply
//   - stored, incoming has no timestamp: skip
//   - stored without a timestamp: apply
//   - otherwise apply only when incoming is strictly newer; ties skip
func ShouldApply(existing Existing, incoming *time.Time) bool {
	if !existing.Found {
		return true
	}
	if incoming == nil {
		return false
	}
	if existing.UpdatedAt == nil {
		return true
	}
	return incoming.After(*existing.UpdatedAt)
}
