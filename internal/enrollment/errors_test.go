package enrollment

import (
	"errors"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHierarchy(t *testing.T) {
	for _, err := range []error{ErrAlreadyConnected, ErrNotConnected, ErrSessionActive, ErrSessionDone} {
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.NotErrorIs(t, err, ErrConstraint)
	}

	assert.ErrorIs(t, ErrPrimaryKeyViolation, ErrDuplicate)
	assert.ErrorIs(t, ErrUniqueViolation, ErrDuplicate)
	assert.ErrorIs(t, ErrDuplicate, ErrConstraint)
	assert.ErrorIs(t, ErrForeignKeyViolation, ErrConstraint)
	assert.NotErrorIs(t, ErrForeignKeyViolation, ErrDuplicate)
	assert.ErrorIs(t, ErrNotNullViolation, ErrConstraint)
}

func TestConstraintKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "primary key",
			err:  sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey},
			want: ErrPrimaryKeyViolation,
		},
		{
			name: "unique",
			err:  sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique},
			want: ErrUniqueViolation,
		},
		{
			name: "foreign key",
			err:  sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey},
			want: ErrForeignKeyViolation,
		},
		{
			name: "not null",
			err:  sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull},
			want: ErrNotNullViolation,
		},
		{
			name: "other constraint",
			err:  sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintCheck},
			want: ErrConstraint,
		},
		{
			name: "busy",
			err:  sqlite3.Error{Code: sqlite3.ErrBusy},
			want: nil,
		},
		{
			name: "not a driver error",
			err:  errors.New("boom"),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, constraintKind(tt.err))
		})
	}
}

func TestStoreError_KeepsDriverError(t *testing.T) {
	driverErr := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}

	err := storeError("inserting student 1", driverErr)

	require.ErrorIs(t, err, ErrUniqueViolation)
	assert.ErrorIs(t, err, ErrDuplicate)

	var sqliteErr sqlite3.Error
	require.ErrorAs(t, err, &sqliteErr)
	assert.Equal(t, sqlite3.ErrConstraintUnique, sqliteErr.ExtendedCode)
	assert.Contains(t, err.Error(), "inserting student 1")
}

func TestStoreError_PlainError(t *testing.T) {
	base := errors.New("disk I/O error")

	err := storeError("clearing tables", base)

	assert.ErrorIs(t, err, base)
	assert.NotErrorIs(t, err, ErrConstraint)
	assert.Equal(t, "clearing tables: disk I/O error", err.Error())
}
