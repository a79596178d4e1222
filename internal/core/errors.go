package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCSV wraps parse failures the CSV reader cannot recover from.
	ErrInvalidCSV = errors.New("invalid csv")

	// ErrUnknownKind is returned for an import kind that is not registered.
	ErrUnknownKind = errors.New("unknown import kind")

	// ErrSessionNotFound is returned when a session id is unknown or expired.
	ErrSessionNotFound = errors.New("import session not found")

	// ErrInvalidTransition is returned when a session is asked to move to a
	// phase that does not follow its current one.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrBlockingErrors is returned by Confirm while any record carries an error.
	ErrBlockingErrors = errors.New("import blocked by validation errors")

	// ErrImportInProgress is returned when a commit is already running for the session.
	ErrImportInProgress = errors.New("import already in progress")
)

// EmptyInputError reports a file with no header or no data rows.
type EmptyInputError struct {
	Rows int // non-blank rows found
}

func (e *EmptyInputError) Error() string {
	if e.Rows == 0 {
		return "empty file: no header row found"
	}
	return "empty file: header row has no data rows"
}

// SchemaMismatchError reports required columns missing from the header row.
type SchemaMismatchError struct {
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// IsFatal reports whether err stops an import before any row is processed.
func IsFatal(err error) bool {
	var empty *EmptyInputError
	var mismatch *SchemaMismatchError
	return errors.As(err, &empty) || errors.As(err, &mismatch) || errors.Is(err, ErrInvalidCSV)
}
