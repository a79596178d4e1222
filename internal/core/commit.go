package core

// commit.go writes an import plan to the store.
//
// Records are written strictly one at a time. For freshness-gated kinds the
// lookup and the write for a key must not interleave with another write to
// the same key, and a plain loop is the simplest way to guarantee that. A
// failing record is logged and counted; the loop always moves on. There is no
// retry and no rollback of records already written.

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/JonMunkholm/glee/internal/logging"
)

// LogEntry is one line of the import audit log.
type LogEntry struct {
	Row     int    `json:"row"`
	Key     string `json:"key"`
	Message string `json:"message"`
}

// CommitResult summarizes a commit. Log holds every record that was not
// written successfully, in row order.
type CommitResult struct {
	Successful int        `json:"successful"`
	Skipped    int        `json:"skipped"`
	Failed     int        `json:"failed"`
	Log        []LogEntry `json:"log"`
}

// Committer executes import plans against a store.
type Committer struct {
	store Store
	now   func() time.Time
}

// NewCommitter creates a committer writing to store.
func NewCommitter(store Store) *Committer {
	return &Committer{store: store, now: time.Now}
}

// Commit writes every admitted record of plan and reports the outcome.
// Rejected and superseded records are counted as skipped. The context is
// handed to the store only; a cancelled context surfaces as per-record
// failures rather than stopping the loop.
func (c *Committer) Commit(ctx context.Context, actor Actor, def TableDefinition, plan ImportPlan) CommitResult {
	logger := logging.WithFields(ctx, "kind", def.Info.Key, "actor", actor.ID)
	start := c.now()

	var res CommitResult
	for _, rej := range plan.Rejected {
		res.Skipped++
		res.Log = append(res.Log, LogEntry{
			Row:     rej.Record.Row,
			Key:     displayKey(def.Schema, rej.Record),
			Message: rej.Reason,
		})
	}

	for _, rec := range plan.Admitted {
		key := displayKey(def.Schema, rec)

		if by, ok := plan.SupersededBy[rec.Row]; ok {
			res.Skipped++
			res.Log = append(res.Log, LogEntry{
				Row:     rec.Row,
				Key:     key,
				Message: fmt.Sprintf("Skipped: superseded by row %d", by),
			})
			continue
		}

		skip, err := c.commitOne(ctx, actor, def, rec)
		switch {
		case err != nil:
			res.Failed++
			res.Log = append(res.Log, LogEntry{Row: rec.Row, Key: key, Message: err.Error()})
			logger.Warn("record failed", "row", rec.Row, "key", key, "error", err)
		case skip:
			res.Skipped++
			res.Log = append(res.Log, LogEntry{
				Row:     rec.Row,
				Key:     key,
				Message: "Skipped: existing record has newer " + def.FreshnessField,
			})
		default:
			res.Successful++
		}
	}

	sort.SliceStable(res.Log, func(i, j int) bool {
		return res.Log[i].Row < res.Log[j].Row
	})

	elapsed := c.now().Sub(start)
	recordCommit(def.Info.Key, res, elapsed)
	logger.Info("commit finished",
		"successful", res.Successful,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"duration_ms", elapsed.Milliseconds(),
	)

	return res
}

// commitOne writes a single record. skip is true when the freshness rule
// kept the stored record.
func (c *Committer) commitOne(ctx context.Context, actor Actor, def TableDefinition, rec ParsedRecord) (skip bool, err error) {
	if def.Decode == nil {
		return false, fmt.Errorf("%w: %s has no decoder", ErrUnknownKind, def.Info.Key)
	}
	entity := def.Decode(rec.Values)

	if def.Mode == ModeFreshUpsert {
		existing, err := c.store.Lookup(ctx, def.Info.Key, entity.NaturalKey())
		if err != nil {
			return false, err
		}
		if !ShouldApply(existing, rec.Values.Time(def.FreshnessField)) {
			return true, nil
		}
	}

	return false, c.store.Save(ctx, actor, entity)
}

// displayKey returns the natural key, falling back to the raw first key field
// when no key could be derived.
func displayKey(schema Schema, rec ParsedRecord) string {
	if rec.Key != "" {
		return rec.Key
	}
	if len(schema.KeyFields) == 0 {
		return ""
	}
	return rec.Values[schema.KeyFields[0]].String()
}

// LogRows returns the audit log as a header and string rows.
func LogRows(keyLabel string, res CommitResult) (header []string, rows [][]string) {
	header = []string{"Row", keyLabel, "Message"}
	rows = make([][]string, len(res.Log))
	for i, e := range res.Log {
		rows[i] = []string{strconv.Itoa(e.Row), e.Key, e.Message}
	}
	return header, rows
}

// WriteLogCSV writes the audit log as "Row,<keyLabel>,Message".
func WriteLogCSV(w io.Writer, keyLabel string, res CommitResult) error {
	header, rows := LogRows(keyLabel, res)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
