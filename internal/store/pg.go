// Package store implements core.Store against PostgreSQL and in memory.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/glee/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// schemaDDL creates the tables written by imports. Every statement is
// idempotent so it can run on each startup.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
		email                    TEXT PRIMARY KEY,
		status                   TEXT NOT NULL,
		status_change_date       TIMESTAMPTZ,
		date_updated             TIMESTAMPTZ,
		date_added               TIMESTAMPTZ,
		source                   TEXT,
		created_from_ip          TEXT,
		total_sent               BIGINT NOT NULL DEFAULT 0,
		total_failed             BIGINT NOT NULL DEFAULT 0,
		total_opened             BIGINT NOT NULL DEFAULT 0,
		total_clicked            BIGINT NOT NULL DEFAULT 0,
		last_sent                TIMESTAMPTZ,
		last_failed              TIMESTAMPTZ,
		last_opened              TIMESTAMPTZ,
		last_clicked             TIMESTAMPTZ,
		error_code               TEXT,
		friendly_error_message   TEXT,
		consent_date             TIMESTAMPTZ,
		consent_ip               TEXT,
		consent_tracking         BOOLEAN,
		first_name               TEXT,
		last_name                TEXT,
		unsubscribe_reason       TEXT,
		unsubscribe_reason_notes TEXT,
		display_name             TEXT,
		last_update              TIMESTAMPTZ,
		phone                    TEXT,
		address                  TEXT,
		city                     TEXT,
		state                    TEXT,
		zip                      TEXT,
		class                    TEXT,
		created_by               TEXT NOT NULL,
		updated_by               TEXT NOT NULL,
		created_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS alumnae (
		email           TEXT PRIMARY KEY,
		full_name       TEXT NOT NULL,
		first_name      TEXT,
		last_name       TEXT,
		graduation_year BIGINT,
		voice_part      TEXT,
		verified        BOOLEAN,
		phone           TEXT,
		interests       TEXT[] NOT NULL DEFAULT '{}',
		last_update     TIMESTAMPTZ,
		created_by      TEXT NOT NULL,
		updated_by      TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS wardrobe_items (
		id                  BIGSERIAL PRIMARY KEY,
		item_key            TEXT NOT NULL,
		category            TEXT NOT NULL,
		item_name           TEXT NOT NULL,
		sizes               TEXT[] NOT NULL DEFAULT '{}',
		colors              TEXT[] NOT NULL DEFAULT '{}',
		quantity_total      BIGINT NOT NULL DEFAULT 0,
		quantity_available  BIGINT NOT NULL DEFAULT 0,
		quantity_checked_out BIGINT NOT NULL DEFAULT 0,
		condition           TEXT NOT NULL,
		low_stock_threshold BIGINT NOT NULL DEFAULT 5,
		notes               TEXT,
		created_by          TEXT NOT NULL,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS wardrobe_items_item_key_idx ON wardrobe_items (item_key)`,
	`CREATE TABLE IF NOT EXISTS import_audit (
		id          BIGSERIAL PRIMARY KEY,
		action      TEXT NOT NULL,
		severity    TEXT NOT NULL,
		kind        TEXT NOT NULL,
		session_id  TEXT NOT NULL,
		user_id     TEXT NOT NULL,
		user_email  TEXT,
		ip_address  TEXT,
		user_agent  TEXT,
		file_name   TEXT,
		rows        INT NOT NULL DEFAULT 0,
		errors      INT NOT NULL DEFAULT 0,
		warnings    INT NOT NULL DEFAULT 0,
		successful  INT NOT NULL DEFAULT 0,
		skipped     INT NOT NULL DEFAULT 0,
		failed      INT NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
}

// lookupQueries read the freshness timestamp (or just existence) per kind.
var lookupQueries = map[string]string{
	"contacts": `SELECT date_updated FROM contacts WHERE email = $1`,
	"alumnae":  `SELECT last_update FROM alumnae WHERE email = $1`,
	"wardrobe": `SELECT NULL::timestamptz FROM wardrobe_items WHERE item_key = $1 LIMIT 1`,
}

const upsertContact = `
INSERT INTO contacts (
	email, status, status_change_date, date_updated, date_added, source, created_from_ip,
	total_sent, total_failed, total_opened, total_clicked,
	last_sent, last_failed, last_opened, last_clicked,
	error_code, friendly_error_message, consent_date, consent_ip, consent_tracking,
	first_name, last_name, unsubscribe_reason, unsubscribe_reason_notes, display_name,
	last_update, phone, address, city, state, zip, class,
	created_by, updated_by
) VALUES (
	$1, $2, $3, $4, $5, $6, $7,
	$8, $9, $10, $11,
	$12, $13, $14, $15,
	$16, $17, $18, $19, $20,
	$21, $22, $23, $24, $25,
	$26, $27, $28, $29, $30, $31, $32,
	$33, $33
)
ON CONFLICT (email) DO UPDATE SET
	status = EXCLUDED.status,
	status_change_date = EXCLUDED.status_change_date,
	date_updated = EXCLUDED.date_updated,
	date_added = EXCLUDED.date_added,
	source = EXCLUDED.source,
	created_from_ip = EXCLUDED.created_from_ip,
	total_sent = EXCLUDED.total_sent,
	total_failed = EXCLUDED.total_failed,
	total_opened = EXCLUDED.total_opened,
	total_clicked = EXCLUDED.total_clicked,
	last_sent = EXCLUDED.last_sent,
	last_failed = EXCLUDED.last_failed,
	last_opened = EXCLUDED.last_opened,
	last_clicked = EXCLUDED.last_clicked,
	error_code = EXCLUDED.error_code,
	friendly_error_message = EXCLUDED.friendly_error_message,
	consent_date = EXCLUDED.consent_date,
	consent_ip = EXCLUDED.consent_ip,
	consent_tracking = EXCLUDED.consent_tracking,
	first_name = EXCLUDED.first_name,
	last_name = EXCLUDED.last_name,
	unsubscribe_reason = EXCLUDED.unsubscribe_reason,
	unsubscribe_reason_notes = EXCLUDED.unsubscribe_reason_notes,
	display_name = EXCLUDED.display_name,
	last_update = EXCLUDED.last_update,
	phone = EXCLUDED.phone,
	address = EXCLUDED.address,
	city = EXCLUDED.city,
	state = EXCLUDED.state,
	zip = EXCLUDED.zip,
	class = EXCLUDED.class,
	updated_by = EXCLUDED.updated_by,
	updated_at = now()`

const upsertAlumna = `
INSERT INTO alumnae (
	email, full_name, first_name, last_name, graduation_year, voice_part,
	verified, phone, interests, last_update, created_by, updated_by
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
ON CONFLICT (email) DO UPDATE SET
	full_name = EXCLUDED.full_name,
	first_name = EXCLUDED.first_name,
	last_name = EXCLUDED.last_name,
	graduation_year = EXCLUDED.graduation_year,
	voice_part = EXCLUDED.voice_part,
	verified = EXCLUDED.verified,
	phone = EXCLUDED.phone,
	interests = EXCLUDED.interests,
	last_update = EXCLUDED.last_update,
	updated_by = EXCLUDED.updated_by,
	updated_at = now()`

const insertWardrobeItem = `
INSERT INTO wardrobe_items (
	item_key, category, item_name, sizes, colors, quantity_total, quantity_available,
	quantity_checked_out, condition, low_stock_threshold, notes, created_by
) VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9, $10, $11)`

const insertAudit = `
INSERT INTO import_audit (
	action, severity, kind, session_id, user_id, user_email, ip_address, user_agent,
	file_name, rows, errors, warnings, successful, skipped, failed, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

// PGStore writes imported entities to PostgreSQL.
type PGStore struct {
	db core.DBTX
}

// NewPGStore creates a store over a pool or transaction.
func NewPGStore(db core.DBTX) *PGStore {
	return &PGStore{db: db}
}

// EnsureSchema creates the import tables if they do not exist.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaDDL {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Lookup implements core.Store.
func (s *PGStore) Lookup(ctx context.Context, kind, key string) (core.Existing, error) {
	q, ok := lookupQueries[kind]
	if !ok {
		return core.Existing{}, fmt.Errorf("%w: %q", core.ErrUnknownKind, kind)
	}

	var ts pgtype.Timestamptz
	err := s.db.QueryRow(ctx, q, key).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Existing{}, nil
	}
	if err != nil {
		return core.Existing{}, fmt.Errorf("lookup %s %q: %w", kind, key, err)
	}

	existing := core.Existing{Found: true}
	if ts.Valid {
		t := ts.Time.UTC()
		existing.UpdatedAt = &t
	}
	return existing, nil
}

// Save implements core.Store.
func (s *PGStore) Save(ctx context.Context, actor core.Actor, e core.Entity) error {
	var err error
	switch v := e.(type) {
	case *core.Contact:
		_, err = s.db.Exec(ctx, upsertContact,
			v.Email, v.Status, pgTime(v.StatusChangeDate), pgTime(v.DateUpdated), pgTime(v.DateAdded),
			pgText(v.Source), pgText(v.CreatedFromIP),
			v.TotalSent, v.TotalFailed, v.TotalOpened, v.TotalClicked,
			pgTime(v.LastSent), pgTime(v.LastFailed), pgTime(v.LastOpened), pgTime(v.LastClicked),
			pgText(v.ErrorCode), pgText(v.FriendlyErrorMessage), pgTime(v.ConsentDate), pgText(v.ConsentIP), pgBool(v.ConsentTracking),
			pgText(v.FirstName), pgText(v.LastName), pgText(v.UnsubscribeReason), pgText(v.UnsubscribeReasonNotes), pgText(v.DisplayName),
			pgTime(v.LastUpdate), pgText(v.Phone), pgText(v.Address), pgText(v.City), pgText(v.State), pgText(v.Zip), pgText(v.Class),
			actor.ID,
		)
	case *core.Alumna:
		_, err = s.db.Exec(ctx, upsertAlumna,
			v.Email, v.FullName, pgText(v.FirstName), pgText(v.LastName), pgInt8(v.GraduationYear), pgText(v.VoicePart),
			pgBool(v.Verified), pgText(v.Phone), list(v.Interests), pgTime(v.LastUpdate),
			actor.ID,
		)
	case *core.WardrobeItem:
		_, err = s.db.Exec(ctx, insertWardrobeItem,
			v.NaturalKey(), v.Category, v.ItemName, list(v.Sizes), list(v.Colors), v.QuantityTotal, v.QuantityAvailable,
			v.Condition, v.LowStockThreshold, pgText(v.Notes),
			actor.ID,
		)
	default:
		return fmt.Errorf("%w: %T", core.ErrUnknownKind, e)
	}
	if err != nil {
		return fmt.Errorf("save %s %q: %w", e.Kind(), e.NaturalKey(), err)
	}
	return nil
}

// RecordAudit implements core.AuditRecorder.
func (s *PGStore) RecordAudit(ctx context.Context, a core.AuditEntry) error {
	_, err := s.db.Exec(ctx, insertAudit,
		string(a.Action), string(a.Severity), a.Kind, a.SessionID, a.UserID,
		pgText(a.UserEmail), pgText(a.IPAddress), pgText(a.UserAgent), pgText(a.FileName),
		a.Rows, a.Errors, a.Warnings, a.Successful, a.Skipped, a.Failed, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

func pgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func pgTime(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func pgBool(b *bool) pgtype.Bool {
	if b == nil {
		return pgtype.Bool{}
	}
	return pgtype.Bool{Bool: *b, Valid: true}
}

func pgInt8(n int64) pgtype.Int8 {
	return pgtype.Int8{Int64: n, Valid: n != 0}
}

// list keeps NOT NULL array columns from receiving NULL.
func list(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
