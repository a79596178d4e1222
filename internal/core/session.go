package core

// session.go tracks one interactive import from upload to commit.
//
// The phases form a strictly forward cycle:
//
//	upload -> validate -> confirm -> importing -> upload
//
// A session can be reset to upload from any phase except importing. Confirm
// is refused while any record carries an error, and BeginImport is one-shot:
// a second call while importing fails with ErrImportInProgress.

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Phase is the stage of an import session.
type Phase string

const (
	PhaseUpload    Phase = "upload"
	PhaseValidate  Phase = "validate"
	PhaseConfirm   Phase = "confirm"
	PhaseImporting Phase = "importing"
)

// Session is the server-side state of one import.
type Session struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Phase     Phase          `json:"phase"`
	FileName  string         `json:"file_name,omitempty"`
	Actor     Actor          `json:"actor"`
	Header    []string       `json:"header,omitempty"`
	Records   []ParsedRecord `json:"records,omitempty"`
	Malformed int            `json:"malformed"`
	Result    *CommitResult  `json:"result,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewSession starts a session in the upload phase.
func NewSession(id, kind string, actor Actor, now time.Time) *Session {
	return &Session{
		ID:        id,
		Kind:      kind,
		Phase:     PhaseUpload,
		Actor:     actor,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validated stores the validation outcome and moves upload -> validate.
func (s *Session) Validated(fileName string, v Validation, now time.Time) error {
	if s.Phase != PhaseUpload {
		return s.invalid(PhaseValidate)
	}
	s.FileName = fileName
	s.Header = v.Header
	s.Records = v.Records
	s.Malformed = v.Malformed
	s.Result = nil
	s.touch(PhaseValidate, now)
	return nil
}

// Confirm moves validate -> confirm when no record carries an error.
func (s *Session) Confirm(now time.Time) error {
	if s.Phase != PhaseValidate {
		return s.invalid(PhaseConfirm)
	}
	if s.Summary().Errors > 0 {
		return ErrBlockingErrors
	}
	s.touch(PhaseConfirm, now)
	return nil
}

// BeginImport moves confirm -> importing.
func (s *Session) BeginImport(now time.Time) error {
	switch s.Phase {
	case PhaseImporting:
		return ErrImportInProgress
	case PhaseConfirm:
		s.touch(PhaseImporting, now)
		return nil
	default:
		return s.invalid(PhaseImporting)
	}
}

// Finish records the commit result and returns the session to upload.
// The parsed records are dropped; the result is kept for the audit log.
func (s *Session) Finish(res CommitResult, now time.Time) error {
	if s.Phase != PhaseImporting {
		return s.invalid(PhaseUpload)
	}
	s.Result = &res
	s.Records = nil
	s.Header = nil
	s.Malformed = 0
	s.touch(PhaseUpload, now)
	return nil
}

// Reset discards any uploaded file and returns to upload.
func (s *Session) Reset(now time.Time) error {
	if s.Phase == PhaseImporting {
		return ErrImportInProgress
	}
	s.FileName = ""
	s.Header = nil
	s.Records = nil
	s.Malformed = 0
	s.Result = nil
	s.touch(PhaseUpload, now)
	return nil
}

// Summary counts valid rows and issues of the uploaded file.
func (s *Session) Summary() Summary {
	return Summarize(s.Records)
}

func (s *Session) touch(p Phase, now time.Time) {
	s.Phase = p
	s.UpdatedAt = now
}

func (s *Session) invalid(to Phase) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Phase, to)
}

// SessionStore persists sessions between requests.
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	// Get returns ErrSessionNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error

	// AcquireImport takes the per-session commit guard. It reports false
	// when another commit already holds it.
	AcquireImport(ctx context.Context, id string) (bool, error)
	ReleaseImport(ctx context.Context, id string) error
}

// MemorySessionStore keeps sessions in process memory. Expired sessions are
// hidden from Get immediately and removed by Sweep.
type MemorySessionStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]memoryEntry
	locks    map[string]bool
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 2 * time.Hour

// NewMemorySessionStore creates an in-memory store. ttl <= 0 uses DefaultSessionTTL.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]memoryEntry),
		locks:    make(map[string]bool),
	}
}

// Save stores a copy of s and refreshes its expiry.
func (m *MemorySessionStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = memoryEntry{session: *s, expiresAt: m.now().Add(m.ttl)}
	return nil
}

// Get returns a copy of the stored session.
func (m *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok || m.now().After(e.expiresAt) {
		return nil, ErrSessionNotFound
	}
	s := e.session
	return &s, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.locks, id)
	return nil
}

func (m *MemorySessionStore) AcquireImport(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[id] {
		return false, nil
	}
	m.locks[id] = true
	return true, nil
}

func (m *MemorySessionStore) ReleaseImport(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, id)
	return nil
}

// Sweep removes expired sessions and returns how many were dropped.
// Sessions holding the import guard are kept.
func (m *MemorySessionStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, e := range m.sessions {
		if now.After(e.expiresAt) && !m.locks[id] {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
