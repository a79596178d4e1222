package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/glee/internal/logging"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionImportValidated AuditAction = "import_validated"
	ActionImportCommitted AuditAction = "import_committed"
	ActionImportReset     AuditAction = "import_reset"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// AuditEntry records one step of an import session.
type AuditEntry struct {
	Action    AuditAction   `json:"action"`
	Severity  AuditSeverity `json:"severity"`
	Kind      string        `json:"kind"`
	SessionID string        `json:"sessionId"`
	UserID    string        `json:"userId"`
	UserEmail string        `json:"userEmail,omitempty"`
	IPAddress string        `json:"ipAddress,omitempty"`
	UserAgent string        `json:"userAgent,omitempty"`
	FileName  string        `json:"fileName,omitempty"`

	Rows       int `json:"rows"`
	Errors     int `json:"errors"`
	Warnings   int `json:"warnings"`
	Successful int `json:"successful"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`

	CreatedAt time.Time `json:"createdAt"`
}

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	RecordAudit(ctx context.Context, entry AuditEntry) error
}

// auditSeverity returns the appropriate severity for an action.
func auditSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionImportCommitted:
		return SeverityHigh
	case ActionImportReset:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// SetAuditRecorder enables the audit trail.
func (s *Service) SetAuditRecorder(r AuditRecorder) {
	s.auditor = r
}

// audit records a session step. Audit failures never fail the import.
func (s *Service) audit(ctx context.Context, action AuditAction, actor Actor, sess *Session) {
	if s.auditor == nil {
		return
	}

	entry := AuditEntry{
		Action:    action,
		Severity:  auditSeverity(action),
		Kind:      sess.Kind,
		SessionID: sess.ID,
		UserID:    actor.ID,
		UserEmail: actor.Email,
		IPAddress: GetIPAddressFromContext(ctx),
		UserAgent: GetUserAgentFromContext(ctx),
		FileName:  sess.FileName,
		CreatedAt: s.now().UTC(),
	}
	if sum := sess.Summary(); sum.Rows > 0 {
		entry.Rows, entry.Errors, entry.Warnings = sum.Rows, sum.Errors, sum.Warnings
	}
	if res := sess.Result; res != nil && action == ActionImportCommitted {
		entry.Successful, entry.Skipped, entry.Failed = res.Successful, res.Skipped, res.Failed
		entry.Rows = res.Successful + res.Skipped + res.Failed
	}

	if err := s.auditor.RecordAudit(ctx, entry); err != nil {
		logging.FromContext(ctx).Warn("audit log write failed", "action", action, "session_id", sess.ID, "error", err)
	}
}
