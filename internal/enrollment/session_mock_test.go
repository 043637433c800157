package enrollment

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/coursedb/internal/infrastructure/database"
)

// newMockDatabase returns a Database connected to a sqlmock handle.
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := New("mock.db")
	db.db = &database.DB{DB: sqlDB}
	return db, mock
}

var insertEnrollment = regexp.QuoteMeta(`INSERT INTO Enrollments (StudentID, CRN) VALUES (?, ?)`)

func TestAddEnrollment_FailureRollsBack(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDatabase(t)

	mock.ExpectBegin()
	mock.ExpectExec(insertEnrollment).
		WithArgs(1, 12345).
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey})
	mock.ExpectRollback()

	err := db.AddEnrollment(ctx, john, softEng)
	require.ErrorIs(t, err, ErrForeignKeyViolation)

	var sqliteErr sqlite3.Error
	assert.ErrorAs(t, err, &sqliteErr)
	assert.Nil(t, db.pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddEnrollment_RollbackErrorJoined(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDatabase(t)

	rollbackFailure := errors.New("disk I/O error")
	mock.ExpectBegin()
	mock.ExpectExec(insertEnrollment).
		WithArgs(1, 12345).
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})
	mock.ExpectRollback().WillReturnError(rollbackFailure)

	err := db.AddEnrollment(ctx, john, softEng)
	assert.ErrorIs(t, err, ErrUniqueViolation)
	assert.ErrorIs(t, err, rollbackFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddNewStudent_FailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDatabase(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO Students`)).
		WithArgs(1, "John", "Doe", "abc2def").
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey})

	err := db.AddNewStudent(ctx, john)
	require.ErrorIs(t, err, ErrPrimaryKeyViolation)
	assert.NotNil(t, db.pending(), "no rollback for student inserts")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommit_NotifiesAfterCommit(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDatabase(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO Courses`)).
		WithArgs(12345, "CS", 3140, 1, "MWF 10:00-10:50").
		WillReturnResult(sqlmock.NewResult(12345, 1))
	mock.ExpectCommit()

	var got []Change
	db.SetNotifier(ChangeNotifierFunc(func(_ context.Context, changes []Change) error {
		assert.NoError(t, mock.ExpectationsWereMet(), "commit happens before notification")
		got = changes
		return nil
	}))

	require.NoError(t, db.AddNewCourse(ctx, softEng))
	require.NoError(t, db.Commit(ctx))

	require.Len(t, got, 1)
	assert.Equal(t, ChangeCourseAdded, got[0].Kind)
	assert.Equal(t, 12345, got[0].CRN)
}

func TestCommit_FailureSkipsNotifier(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDatabase(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO Students`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	called := false
	db.SetNotifier(ChangeNotifierFunc(func(context.Context, []Change) error {
		called = true
		return nil
	}))

	require.NoError(t, db.AddNewStudent(ctx, john))
	err := db.Commit(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "committing session")
	assert.False(t, called)
	assert.Nil(t, db.pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithSession_BeginFailure(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectBegin().WillReturnError(errors.New("begin failed"))

	called := false
	err := db.WithSession(context.Background(), func(*Session) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting transaction")
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}
