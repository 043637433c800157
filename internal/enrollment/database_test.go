package enrollment

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefault(t *testing.T) {
	db := NewDefault()
	assert.Equal(t, DefaultPath, db.Path())
	assert.False(t, db.IsConnected())
}

func TestConnectLifecycle(t *testing.T) {
	ctx := context.Background()
	db := New(MemoryPath)

	require.ErrorIs(t, db.Disconnect(), ErrNotConnected)

	require.NoError(t, db.Connect(ctx))
	assert.True(t, db.IsConnected())
	assert.ErrorIs(t, db.Connect(ctx), ErrAlreadyConnected)
	assert.ErrorIs(t, db.Connect(ctx), ErrInvalidState)

	require.NoError(t, db.Disconnect())
	assert.False(t, db.IsConnected())
	assert.ErrorIs(t, db.Disconnect(), ErrNotConnected)

	require.NoError(t, db.Connect(ctx), "reconnecting after disconnect is allowed")
	require.NoError(t, db.Disconnect())
}

func TestConnect_ForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	db := New(MemoryPath)
	require.NoError(t, db.Connect(ctx))
	t.Cleanup(func() { _ = db.Disconnect() })

	var fk int
	require.NoError(t, db.db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
	assert.NoError(t, db.db.HealthCheck(ctx))
}

func TestConnect_FailureLeavesDisconnected(t *testing.T) {
	db := New("")
	require.Error(t, db.Connect(context.Background()))
	assert.False(t, db.IsConnected())
}

func TestOperationsRequireConnection(t *testing.T) {
	ctx := context.Background()
	db := New(MemoryPath)

	checks := map[string]error{
		"CreateTablesIfNeeded": db.CreateTablesIfNeeded(ctx),
		"ClearTables":          db.ClearTables(ctx),
		"DropTables":           db.DropTables(ctx),
		"Commit":               db.Commit(ctx),
		"Rollback":             db.Rollback(),
		"AddNewStudent":        db.AddNewStudent(ctx, john),
		"AddEnrollment":        db.AddEnrollment(ctx, john, softEng),
	}
	for name, err := range checks {
		assert.ErrorIs(t, err, ErrNotConnected, name)
	}

	_, err := db.Begin(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)
	_, _, err = db.Student(ctx, 1)
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = db.NextStudentID(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestCommitRollback_NoSession(t *testing.T) {
	db := newTestDatabase(t)

	assert.NoError(t, db.Commit(context.Background()))
	assert.NoError(t, db.Rollback())
}

func TestRollback_DiscardsWrites(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)

	require.NoError(t, db.AddNewStudent(ctx, john))
	require.NoError(t, db.Rollback())

	students, err := db.Students(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestBegin(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)

	sess, err := db.Begin(ctx)
	require.NoError(t, err)

	_, err = db.Begin(ctx)
	assert.ErrorIs(t, err, ErrSessionActive)

	require.NoError(t, db.AddNewStudent(ctx, john), "ambient calls join the open session")
	_, ok, err := sess.Student(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, sess.Rollback())

	_, ok, err = db.Student(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, db.Rollback())

	next, err := db.Begin(ctx)
	require.NoError(t, err, "a new session can begin once the last one ended")
	require.NoError(t, next.Rollback())
}

func TestSession_SingleUse(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)

	sess, err := db.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.AddNewStudent(ctx, john))
	require.NoError(t, sess.Commit(ctx))

	assert.ErrorIs(t, sess.Commit(ctx), ErrSessionDone)
	assert.NoError(t, sess.Rollback(), "rollback after commit is a no-op")
	assert.ErrorIs(t, sess.AddNewStudent(ctx, jane), ErrSessionDone)
	_, err = sess.Students(ctx)
	assert.ErrorIs(t, err, ErrSessionDone)
	_, _, err = sess.Course(ctx, 1)
	assert.ErrorIs(t, err, ErrSessionDone)

	students, err := db.Students(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Student{john}, students)
}

func TestAddEnrollment_EndsExplicitSession(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	seed(t, db)

	sess, err := db.Begin(ctx)
	require.NoError(t, err)
	defer sess.Rollback() //nolint:errcheck // No-op once ended

	require.NoError(t, sess.AddEnrollment(ctx, john, softEng))
	require.ErrorIs(t, sess.AddEnrollment(ctx, john, softEng), ErrUniqueViolation)

	assert.ErrorIs(t, sess.AddEnrollment(ctx, jane, softEng), ErrSessionDone)
	assert.Nil(t, db.pending())
}

func TestWithSession(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)

	t.Run("commits on success", func(t *testing.T) {
		err := db.WithSession(ctx, func(s *Session) error {
			return s.AddNewStudent(ctx, john)
		})
		require.NoError(t, err)

		_, ok, err := db.Student(ctx, 1)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, db.Rollback())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		failure := errors.New("validation failed")
		err := db.WithSession(ctx, func(s *Session) error {
			if err := s.AddNewStudent(ctx, jane); err != nil {
				return err
			}
			return failure
		})
		require.ErrorIs(t, err, failure)

		_, ok, err := db.Student(ctx, 2)
		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, db.Rollback())
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = db.WithSession(ctx, func(s *Session) error {
				_ = s.AddNewStudent(ctx, jane)
				panic("boom")
			})
		})
		assert.Nil(t, db.pending())

		_, ok, err := db.Student(ctx, 2)
		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, db.Rollback())
	})

	t.Run("refuses while a session is open", func(t *testing.T) {
		_, err := db.NextStudentID(ctx)
		require.NoError(t, err)

		err = db.WithSession(ctx, func(*Session) error { return nil })
		assert.ErrorIs(t, err, ErrSessionActive)
		require.NoError(t, db.Rollback())
	})
}

func TestDisconnect_RollsBackPending(t *testing.T) {
	ctx := context.Background()
	db := New(filepath.Join(t.TempDir(), "courses.db"))

	require.NoError(t, db.Connect(ctx))
	require.NoError(t, db.CreateTablesIfNeeded(ctx))
	require.NoError(t, db.AddNewStudent(ctx, john))
	require.NoError(t, db.Commit(ctx))

	require.NoError(t, db.AddNewStudent(ctx, jane))
	require.NoError(t, db.Disconnect())

	require.NoError(t, db.Connect(ctx))
	defer db.Disconnect() //nolint:errcheck // Test cleanup

	students, err := db.Students(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Student{john}, students, "only committed writes survive a reconnect")
}

type recordingNotifier struct {
	batches [][]Change
	err     error
}

func (r *recordingNotifier) NotifyChanges(_ context.Context, changes []Change) error {
	r.batches = append(r.batches, changes)
	return r.err
}

func TestNotifier(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	seed(t, db)

	at := time.Date(2026, 1, 18, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return at }

	notifier := &recordingNotifier{}
	db.SetNotifier(notifier)

	require.NoError(t, db.UpsertStudent(ctx, NewStudent(3, "Sam", "Lee", "sl3m")))
	require.NoError(t, db.AddEnrollment(ctx, jane, algebra))
	assert.Empty(t, notifier.batches, "nothing is published before commit")

	require.NoError(t, db.Commit(ctx))
	require.Len(t, notifier.batches, 1)

	batch := notifier.batches[0]
	require.Len(t, batch, 2)
	assert.NotEmpty(t, batch[0].ID)
	assert.NotEqual(t, batch[0].ID, batch[1].ID)
	for i := range batch {
		batch[i].ID = ""
	}
	assert.Equal(t, []Change{
		{Kind: ChangeStudentUpserted, StudentID: 3, At: at},
		{Kind: ChangeEnrollmentAdded, StudentID: 2, CRN: 23456, At: at},
	}, batch)

	t.Run("rollback discards changes", func(t *testing.T) {
		require.NoError(t, db.UpsertCourse(ctx, softEng))
		require.NoError(t, db.Rollback())
		assert.Len(t, notifier.batches, 1)
	})

	t.Run("read-only sessions publish nothing", func(t *testing.T) {
		_, err := db.Students(ctx)
		require.NoError(t, err)
		require.NoError(t, db.Commit(ctx))
		assert.Len(t, notifier.batches, 1)
	})

	t.Run("failed enrollment discards changes", func(t *testing.T) {
		require.NoError(t, db.AddNewCourse(ctx, NewCourse(34567, "PHYS", 1425, 1, "")))
		require.Error(t, db.AddEnrollment(ctx, jane, algebra))
		require.NoError(t, db.Commit(ctx))
		assert.Len(t, notifier.batches, 1)
	})

	t.Run("notifier failure does not fail the commit", func(t *testing.T) {
		notifier.err = errors.New("broker unreachable")
		require.NoError(t, db.ClearTables(ctx))
		require.NoError(t, db.Commit(ctx))
		require.Len(t, notifier.batches, 2)
		assert.Equal(t, ChangeTablesCleared, notifier.batches[1][0].Kind)

		students, err := db.Students(ctx)
		require.NoError(t, err)
		assert.Empty(t, students)
	})
}
