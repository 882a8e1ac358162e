package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error taxonomy. Backend-specific failures are translated to these at the
// storage boundary; callers match with errors.Is.
var (
	// ErrValidation marks malformed or missing required input.
	ErrValidation = errors.New("validation error")
	// ErrConflict marks a uniqueness or concurrent-modification violation.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks an absent id or workspace.
	ErrNotFound = errors.New("not found")
	// ErrConnection marks an unreachable or unwritable backend.
	ErrConnection = errors.New("connection error")
	// ErrSchemaMismatch marks a workspace schema incompatible with this build.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrBusy marks embedded-backend write contention.
	ErrBusy = errors.New("database busy")
)

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// translateDBError maps driver errors onto the taxonomy. Errors already in
// the taxonomy pass through unchanged.
func translateDBError(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{ErrValidation, ErrConflict, ErrNotFound, ErrConnection, ErrSchemaMismatch, ErrBusy} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %v", ErrConflict, err)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %v", ErrValidation, err)
		case "55P03", "40P01": // lock_not_available, deadlock_detected
			return fmt.Errorf("%w: %v", ErrBusy, err)
		}
		if strings.HasPrefix(pgErr.Code, "08") { // connection exceptions
			return fmt.Errorf("%w: %v", ErrConnection, err)
		}
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	case strings.Contains(msg, "SQLITE_BUSY"), strings.Contains(msg, "database is locked"):
		return fmt.Errorf("%w: %v", ErrBusy, err)
	case strings.Contains(msg, "unable to open database"):
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return err
}
