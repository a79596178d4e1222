package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/glee/internal/logging"
	"github.com/google/uuid"
)

// DefaultMaxFileSize is the upload size cap used when none is configured.
const DefaultMaxFileSize int64 = 50 << 20

// Archiver stores a finished audit log somewhere durable.
type Archiver interface {
	Archive(ctx context.Context, name string, body []byte, contentType string) error
}

// ServiceConfig holds the tunables of a Service.
type ServiceConfig struct {
	MaxConcurrentUploads int
	UploadWait           time.Duration
	MaxFileSize          int64
}

// Service provides the import workflow: validate a file into a session,
// confirm it, commit it, and reset it.
type Service struct {
	store       Store
	sessions    SessionStore
	limiter     *UploadLimiter
	committer   *Committer
	archiver    Archiver
	auditor     AuditRecorder
	maxFileSize int64

	now   func() time.Time
	newID func() string
}

// NewService creates a Service writing records to store and keeping
// sessions in sessions.
func NewService(store Store, sessions SessionStore, cfg ServiceConfig) *Service {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	return &Service{
		store:       store,
		sessions:    sessions,
		limiter:     NewUploadLimiter(cfg.MaxConcurrentUploads, cfg.UploadWait),
		committer:   NewCommitter(store),
		maxFileSize: cfg.MaxFileSize,
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}
}

// SetArchiver enables archiving of audit logs after each commit.
func (s *Service) SetArchiver(a Archiver) {
	s.archiver = a
}

// ListKinds returns information about all registered import kinds.
func (s *Service) ListKinds() []TableInfo {
	defs := All()
	infos := make([]TableInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// Validate runs a file through the tokenizer, binder and row validator
// without creating a session.
func (s *Service) Validate(ctx context.Context, kind string, r io.Reader) (Validation, error) {
	def, err := Lookup(kind)
	if err != nil {
		return Validation{}, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return Validation{}, err
	}
	defer s.limiter.Release()

	v, err := ValidateCSV(NewSizeLimitReader(r, s.maxFileSize), def.Schema)
	if err != nil {
		if IsFatal(err) {
			recordFatal(kind)
		}
		logging.FromContext(ctx).Warn("file rejected", "kind", kind, "error", err)
		return Validation{}, err
	}

	recordValidation(kind, v)
	return v, nil
}

// StartImport validates a file and opens a session holding the result.
// A fatal error creates no session.
func (s *Service) StartImport(ctx context.Context, actor Actor, kind, fileName string, r io.Reader) (*Session, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	v, err := s.Validate(ctx, kind, r)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := NewSession(s.newID(), kind, actor, now)
	if err := sess.Validated(fileName, v, now); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	sum := sess.Summary()
	logging.WithFields(ctx, "session_id", sess.ID, "kind", kind, "actor", actor.ID).Info("import validated",
		"file", fileName,
		"rows", sum.Rows,
		"valid", sum.Valid,
		"warnings", sum.Warnings,
		"errors", sum.Errors,
		"malformed", v.Malformed,
		"ip", GetIPAddressFromContext(ctx),
	)
	s.audit(ctx, ActionImportValidated, actor, sess)
	return sess, nil
}

// Session returns the current state of a session.
func (s *Service) Session(ctx context.Context, id string) (*Session, error) {
	return s.sessions.Get(ctx, id)
}

// Confirm moves a validated session to confirm.
func (s *Service) Confirm(ctx context.Context, id string) (*Session, error) {
	return s.transition(ctx, id, func(sess *Session, now time.Time) error {
		return sess.Confirm(now)
	})
}

// Reset discards the session's file and returns it to upload.
func (s *Service) Reset(ctx context.Context, id string) (*Session, error) {
	sess, err := s.transition(ctx, id, func(sess *Session, now time.Time) error {
		return sess.Reset(now)
	})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, ActionImportReset, sess.Actor, sess)
	return sess, nil
}

func (s *Service) transition(ctx context.Context, id string, step func(*Session, time.Time) error) (*Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := step(sess, s.now()); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Commit writes a confirmed session to the store. Only one commit per
// session can run at a time; the commit itself is not cancelled when ctx is.
func (s *Service) Commit(ctx context.Context, actor Actor, id string) (*Session, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	ok, err := s.sessions.AcquireImport(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("acquire import: %w", err)
	}
	if !ok {
		return nil, ErrImportInProgress
	}
	defer func() {
		if err := s.sessions.ReleaseImport(context.WithoutCancel(ctx), id); err != nil {
			logging.FromContext(ctx).Error("release import guard", "session_id", id, "error", err)
		}
	}()

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	def, err := Lookup(sess.Kind)
	if err != nil {
		return nil, err
	}

	if err := sess.BeginImport(s.now()); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	commitCtx := context.WithoutCancel(ctx)
	res := s.committer.Commit(commitCtx, actor, def, NewPlan(sess.Records))

	if err := sess.Finish(res, s.now()); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(commitCtx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.audit(commitCtx, ActionImportCommitted, actor, sess)
	s.archiveLog(commitCtx, def, sess)
	return sess, nil
}

// WriteLog writes the audit log of the session's last commit as CSV.
func (s *Service) WriteLog(ctx context.Context, id string, w io.Writer) error {
	sess, def, err := s.finished(ctx, id)
	if err != nil {
		return err
	}
	return WriteLogCSV(w, def.KeyLabel(), *sess.Result)
}

// LastResult returns the session's last commit result and its kind.
func (s *Service) LastResult(ctx context.Context, id string) (CommitResult, TableDefinition, error) {
	sess, def, err := s.finished(ctx, id)
	if err != nil {
		return CommitResult{}, TableDefinition{}, err
	}
	return *sess.Result, def, nil
}

func (s *Service) finished(ctx context.Context, id string) (*Session, TableDefinition, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, TableDefinition{}, err
	}
	if sess.Result == nil {
		return nil, TableDefinition{}, fmt.Errorf("%w: session %s has not been committed", ErrInvalidTransition, id)
	}
	def, err := Lookup(sess.Kind)
	if err != nil {
		return nil, TableDefinition{}, err
	}
	return sess, def, nil
}

// archiveLog hands the audit log to the archiver. Failures are logged only:
// the records are already written.
func (s *Service) archiveLog(ctx context.Context, def TableDefinition, sess *Session) {
	if s.archiver == nil || sess.Result == nil {
		return
	}
	logger := logging.WithFields(ctx, "session_id", sess.ID, "kind", sess.Kind)

	var buf bytes.Buffer
	if err := WriteLogCSV(&buf, def.KeyLabel(), *sess.Result); err != nil {
		logger.Warn("render import log", "error", err)
		return
	}

	name := fmt.Sprintf("%s/%s_%s.csv", sess.Kind, s.now().UTC().Format("20060102T150405Z"), sess.ID)
	if err := s.archiver.Archive(ctx, name, buf.Bytes(), "text/csv"); err != nil {
		logger.Warn("archive import log", "name", name, "error", err)
		return
	}
	logger.Info("import log archived", "name", name)
}

// WaitForUploads blocks until in-flight validations finish or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// UploadStatus returns the upload limiter state.
func (s *Service) UploadStatus() UploadLimiterStatus {
	return s.limiter.Status()
}
