package core

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

type fakeArchiver struct {
	mu    sync.Mutex
	names []string
	body  []byte
	err   error
}

func (a *fakeArchiver) Archive(_ context.Context, name string, body []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.names = append(a.names, name)
	a.body = body
	return a.err
}

func newTestService(t *testing.T) (*Service, *fakeStore, *MemorySessionStore) {
	t.Helper()
	registerMembers()
	store := newFakeStore()
	sessions := NewMemorySessionStore(0)
	svc := NewService(store, sessions, ServiceConfig{MaxConcurrentUploads: 2})
	return svc, store, sessions
}

func TestService_ImportFlow(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	arch := &fakeArchiver{}
	svc.SetArchiver(arch)

	sess, err := svc.StartImport(ctx, testActor, "members", "members.csv", strings.NewReader(memberCSV(
		memberLine("a@example.com", "A", "2024-01-01"),
		memberLine("b@example.com", "B", "2024-01-01"),
		memberLine("a@example.com", "A2", "2024-02-01"),
	)))
	if err != nil {
		t.Fatalf("StartImport() error = %v", err)
	}
	if sess.Phase != PhaseValidate || sess.FileName != "members.csv" {
		t.Errorf("session = %+v", sess)
	}
	if sum := sess.Summary(); sum.Rows != 3 || sum.Warnings != 1 || sum.Errors != 0 {
		t.Errorf("Summary() = %+v", sum)
	}

	if _, err := svc.Confirm(ctx, sess.ID); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	done, err := svc.Commit(ctx, testActor, sess.ID)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if done.Phase != PhaseUpload || done.Result == nil {
		t.Fatalf("after commit = %+v", done)
	}
	if r := done.Result; r.Successful != 2 || r.Skipped != 1 || r.Failed != 0 {
		t.Errorf("Result = %+v, want 2 successful 1 skipped", r)
	}
	if got := len(store.savedKeys()); got != 2 {
		t.Errorf("saved %d records, want 2", got)
	}

	if len(arch.names) != 1 || !strings.HasPrefix(arch.names[0], "members/") {
		t.Errorf("archived names = %v", arch.names)
	}
	if !bytes.HasPrefix(arch.body, []byte("Row,Email,Message\n")) {
		t.Errorf("archived body = %q", arch.body)
	}

	var buf bytes.Buffer
	if err := svc.WriteLog(ctx, sess.ID, &buf); err != nil {
		t.Fatalf("WriteLog() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Skipped: superseded by row 4") {
		t.Errorf("log = %q", buf.String())
	}
}

func TestService_StartImportErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, sessions := newTestService(t)

	tests := []struct {
		name  string
		actor Actor
		kind  string
		body  string
		check func(error) bool
	}{
		{
			name:  "unknown kind",
			actor: testActor,
			kind:  "nope",
			body:  memberCSV(memberLine("a@example.com", "A", "")),
			check: func(err error) bool { return errors.Is(err, ErrUnknownKind) },
		},
		{
			name:  "missing actor",
			actor: Actor{},
			kind:  "members",
			body:  memberCSV(memberLine("a@example.com", "A", "")),
			check: func(err error) bool { return errors.Is(err, ErrInvalidActor) },
		},
		{
			name:  "empty file",
			actor: testActor,
			kind:  "members",
			body:  "",
			check: IsFatal,
		},
		{
			name:  "missing column",
			actor: testActor,
			kind:  "members",
			body:  "name\nAda\n",
			check: IsFatal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := svc.StartImport(ctx, tt.actor, tt.kind, "f.csv", strings.NewReader(tt.body))
			if sess != nil {
				t.Errorf("session created: %+v", sess)
			}
			if !tt.check(err) {
				t.Errorf("StartImport() error = %v", err)
			}
		})
	}

	if sessions.Len() != 0 {
		t.Errorf("sessions stored = %d, want 0", sessions.Len())
	}
}

func TestService_FileTooLarge(t *testing.T) {
	registerMembers()
	svc := NewService(newFakeStore(), NewMemorySessionStore(0), ServiceConfig{MaxFileSize: 64})

	body := memberCSV(strings.Repeat(memberLine("a@example.com", "A", "")+"\n", 20))
	_, err := svc.StartImport(context.Background(), testActor, "members", "big.csv", strings.NewReader(body))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("StartImport() error = %v, want ErrFileTooLarge", err)
	}
	if MapError(err).Code != "FILE001" {
		t.Errorf("MapError code = %q, want FILE001", MapError(err).Code)
	}
}

func TestService_CommitGuards(t *testing.T) {
	ctx := context.Background()
	svc, store, sessions := newTestService(t)

	sess, err := svc.StartImport(ctx, testActor, "members", "m.csv", strings.NewReader(memberCSV(
		memberLine("a@example.com", "A", ""),
		"bad,,,,,,",
	)))
	if err != nil {
		t.Fatalf("StartImport() error = %v", err)
	}

	if _, err := svc.Confirm(ctx, sess.ID); !errors.Is(err, ErrBlockingErrors) {
		t.Errorf("Confirm() error = %v, want ErrBlockingErrors", err)
	}
	if _, err := svc.Commit(ctx, testActor, sess.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Commit() before confirm error = %v, want ErrInvalidTransition", err)
	}

	if ok, _ := sessions.AcquireImport(ctx, sess.ID); !ok {
		t.Fatal("AcquireImport() = false")
	}
	if _, err := svc.Commit(ctx, testActor, sess.ID); !errors.Is(err, ErrImportInProgress) {
		t.Errorf("Commit() while locked error = %v, want ErrImportInProgress", err)
	}
	_ = sessions.ReleaseImport(ctx, sess.ID)

	if _, err := svc.Commit(ctx, testActor, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Commit(missing) error = %v, want ErrSessionNotFound", err)
	}
	if err := svc.WriteLog(ctx, sess.ID, &bytes.Buffer{}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("WriteLog() before commit error = %v, want ErrInvalidTransition", err)
	}

	reset, err := svc.Reset(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if reset.Phase != PhaseUpload {
		t.Errorf("Phase = %s, want upload", reset.Phase)
	}
	if len(store.savedKeys()) != 0 {
		t.Error("nothing should be written")
	}
}

func TestService_ArchiveFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	svc.SetArchiver(&fakeArchiver{err: errors.New("bucket unavailable")})

	sess, err := svc.StartImport(ctx, testActor, "members", "m.csv", strings.NewReader(memberCSV(
		memberLine("a@example.com", "A", ""),
	)))
	if err != nil {
		t.Fatalf("StartImport() error = %v", err)
	}
	if _, err := svc.Confirm(ctx, sess.ID); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	done, err := svc.Commit(ctx, testActor, sess.ID)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if done.Result.Successful != 1 {
		t.Errorf("Result = %+v", done.Result)
	}
}

func TestService_ListKinds(t *testing.T) {
	svc, _, _ := newTestService(t)
	var found bool
	for _, info := range svc.ListKinds() {
		if info.Key == "members" {
			found = true
		}
	}
	if !found {
		t.Error("ListKinds() missing members")
	}
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (a *fakeAuditor) RecordAudit(_ context.Context, e AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

func TestService_AuditTrail(t *testing.T) {
	svc, _, _ := newTestService(t)
	aud := &fakeAuditor{}
	svc.SetAuditRecorder(aud)

	ctx := ContextWithIPAddress(context.Background(), "10.0.0.7")
	sess, err := svc.StartImport(ctx, testActor, "members", "m.csv", strings.NewReader(memberCSV(
		memberLine("a@example.com", "A", ""),
		memberLine("b@example.com", "B", ""),
	)))
	if err != nil {
		t.Fatalf("StartImport() error = %v", err)
	}
	if _, err := svc.Confirm(ctx, sess.ID); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if _, err := svc.Commit(ctx, testActor, sess.ID); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if _, err := svc.Reset(ctx, sess.ID); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	want := []AuditAction{ActionImportValidated, ActionImportCommitted, ActionImportReset}
	if len(aud.entries) != len(want) {
		t.Fatalf("got %d audit entries, want %d", len(aud.entries), len(want))
	}
	for i, a := range want {
		if aud.entries[i].Action != a {
			t.Errorf("entry %d action = %s, want %s", i, aud.entries[i].Action, a)
		}
	}

	committed := aud.entries[1]
	if committed.Successful != 2 || committed.Severity != SeverityHigh || committed.IPAddress != "10.0.0.7" {
		t.Errorf("committed entry = %+v", committed)
	}
	if aud.entries[0].Rows != 2 || aud.entries[0].UserID != testActor.ID {
		t.Errorf("validated entry = %+v", aud.entries[0])
	}
}
