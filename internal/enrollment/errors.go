package enrollment

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Lifecycle errors. All of them match ErrInvalidState:
//
//	if errors.Is(err, enrollment.ErrInvalidState) {
//	    // the call was made at the wrong point in the lifecycle
//	}
var (
	// ErrInvalidState is returned when an operation is called while the
	// Database or Session is in the wrong state.
	ErrInvalidState = errors.New("enrollment: invalid state")

	// ErrAlreadyConnected is returned by Connect on a connected Database.
	ErrAlreadyConnected = fmt.Errorf("%w: already connected", ErrInvalidState)

	// ErrNotConnected is returned by every operation on a disconnected Database.
	ErrNotConnected = fmt.Errorf("%w: not connected", ErrInvalidState)

	// ErrSessionActive is returned by Begin while another session is open.
	ErrSessionActive = fmt.Errorf("%w: session already active", ErrInvalidState)

	// ErrSessionDone is returned by a Session that has been committed or rolled back.
	ErrSessionDone = fmt.Errorf("%w: session already finished", ErrInvalidState)
)

// Store constraint errors. The underlying sqlite3.Error stays in the chain.
var (
	// ErrConstraint is returned when the store rejects a write.
	ErrConstraint = errors.New("enrollment: constraint violation")

	// ErrDuplicate is returned when a write collides with an existing row.
	ErrDuplicate = fmt.Errorf("%w: duplicate", ErrConstraint)

	// ErrPrimaryKeyViolation is returned for a duplicate StudentId or Crn.
	ErrPrimaryKeyViolation = fmt.Errorf("%w: primary key", ErrDuplicate)

	// ErrUniqueViolation is returned for a duplicate ComputingID, course
	// triple or enrollment pair.
	ErrUniqueViolation = fmt.Errorf("%w: unique", ErrDuplicate)

	// ErrForeignKeyViolation is returned when an enrollment names a missing
	// student or course.
	ErrForeignKeyViolation = fmt.Errorf("%w: foreign key", ErrConstraint)

	// ErrNotNullViolation is returned when a required column is missing.
	ErrNotNullViolation = fmt.Errorf("%w: not null", ErrConstraint)
)

// constraintKind maps a driver error to one of the constraint sentinels, or
// nil when err is not a constraint failure.
func constraintKind(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return nil
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintPrimaryKey:
		return ErrPrimaryKeyViolation
	case sqlite3.ErrConstraintUnique:
		return ErrUniqueViolation
	case sqlite3.ErrConstraintForeignKey:
		return ErrForeignKeyViolation
	case sqlite3.ErrConstraintNotNull:
		return ErrNotNullViolation
	default:
		return ErrConstraint
	}
}

// storeError wraps err with the operation that failed and, for constraint
// failures, the matching sentinel.
func storeError(op string, err error) error {
	if kind := constraintKind(err); kind != nil {
		return fmt.Errorf("%s: %w: %w", op, kind, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
