package enrollment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/coursedb/internal/infrastructure/database"
	_ "github.com/nerrad567/coursedb/migrations" // registers the schema files
)

const (
	// DefaultPath is the store used by NewDefault.
	DefaultPath = "courses_inclass.db"

	// MemoryPath selects an ephemeral in-memory store.
	MemoryPath = database.MemoryPath

	// defaultBusyTimeout is the lock wait, in seconds, used by New.
	defaultBusyTimeout = 5
)

// Logger defines the logging interface used by the Database.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Database owns the connection to one course store.
//
// Auto-commit is off. Every operation called on the Database joins the
// current session, beginning one if none is open, and nothing is durable
// until Commit. Begin hands out the same kind of session explicitly.
//
// A Database is not safe for concurrent use.
type Database struct {
	cfg      database.Config
	db       *database.DB
	logger   Logger
	notifier ChangeNotifier
	now      func() time.Time

	mu      sync.Mutex // guards current
	current *Session
}

// New creates a disconnected Database for the store at path.
// Pass MemoryPath for a throwaway store.
func New(path string) *Database {
	return NewWithConfig(database.Config{Path: path, BusyTimeout: defaultBusyTimeout})
}

// NewDefault creates a disconnected Database for DefaultPath.
func NewDefault() *Database {
	return New(DefaultPath)
}

// NewWithConfig creates a disconnected Database from a full store config.
func NewWithConfig(cfg database.Config) *Database {
	return &Database{
		cfg:    cfg,
		logger: noopLogger{},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetLogger sets the logger for the database.
func (d *Database) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	d.logger = logger
}

// SetNotifier registers n to receive the changes of every committed
// session. Pass nil to stop notifications.
func (d *Database) SetNotifier(n ChangeNotifier) {
	d.notifier = n
}

// Path returns the store path.
func (d *Database) Path() string {
	return d.cfg.Path
}

// IsConnected reports whether Connect has succeeded and Disconnect has not
// been called since.
func (d *Database) IsConnected() bool {
	return d.db != nil
}

// Connect opens the store and checks that foreign keys are enforced.
func (d *Database) Connect(ctx context.Context) error {
	if d.db != nil {
		return ErrAlreadyConnected
	}

	db, err := database.Open(ctx, d.cfg)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", d.cfg.Path, err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		return errors.Join(fmt.Errorf("connecting to %s: %w", d.cfg.Path, err), db.Close())
	}
	d.db = db

	d.logger.Info("database connected", "path", db.Path())
	return nil
}

// Disconnect closes the store. A session that is still open is rolled back
// first and its changes are lost.
func (d *Database) Disconnect() error {
	if d.db == nil {
		return ErrNotConnected
	}

	var rollbackErr error
	if s := d.pending(); s != nil {
		d.logger.Warn("discarding uncommitted session on disconnect", "changes", len(s.changes))
		rollbackErr = s.Rollback()
	}

	closeErr := d.db.Close()
	d.db = nil

	d.logger.Info("database disconnected", "path", d.cfg.Path)
	return errors.Join(rollbackErr, closeErr)
}

// Begin starts an explicit session. Operations called on the Database join
// it until it is committed or rolled back.
//
// Example:
//
//	sess, err := db.Begin(ctx)
//	if err != nil {
//	    return err
//	}
//	defer sess.Rollback() // No-op after Commit
//
//	// ... operations on sess ...
//
//	return sess.Commit(ctx)
func (d *Database) Begin(ctx context.Context) (*Session, error) {
	if d.db == nil {
		return nil, ErrNotConnected
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current != nil {
		return nil, ErrSessionActive
	}
	return d.beginLocked(ctx)
}

// WithSession runs fn inside a new session. The session is committed when
// fn returns nil and rolled back when it returns an error or panics.
func (d *Database) WithSession(ctx context.Context, fn func(*Session) error) error {
	sess, err := d.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := sess.Rollback(); rbErr != nil {
				d.logger.Error("rollback after panic failed", "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(sess); err != nil {
		if rbErr := sess.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return sess.Commit(ctx)
}

// Commit commits the current session. It is a no-op when none is open.
func (d *Database) Commit(ctx context.Context) error {
	if d.db == nil {
		return ErrNotConnected
	}
	if s := d.pending(); s != nil {
		return s.Commit(ctx)
	}
	return nil
}

// Rollback discards the current session. It is a no-op when none is open.
func (d *Database) Rollback() error {
	if d.db == nil {
		return ErrNotConnected
	}
	if s := d.pending(); s != nil {
		return s.Rollback()
	}
	return nil
}

// pending returns the open session, if any.
func (d *Database) pending() *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// session returns the open session, beginning one if needed.
func (d *Database) session(ctx context.Context) (*Session, error) {
	if d.db == nil {
		return nil, ErrNotConnected
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current != nil {
		return d.current, nil
	}
	return d.beginLocked(ctx)
}

// beginLocked starts a transaction and makes it current. The caller holds mu.
//
// The transaction is detached from ctx cancellation: it lives until Commit
// or Rollback, not until the call that happened to open it returns.
func (d *Database) beginLocked(ctx context.Context) (*Session, error) {
	tx, err := d.db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return nil, err
	}
	s := &Session{tx: tx, owner: d}
	d.current = s
	d.logger.Debug("session started")
	return s, nil
}

// release forgets s if it is still the current session.
func (d *Database) release(s *Session) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == s {
		d.current = nil
	}
}

// notify hands committed changes to the notifier. Failures are logged only;
// the commit has already happened.
func (d *Database) notify(ctx context.Context, changes []Change) {
	if d.notifier == nil || len(changes) == 0 {
		return
	}
	if err := d.notifier.NotifyChanges(ctx, changes); err != nil {
		d.logger.Warn("change notification failed", "changes", len(changes), "error", err)
	}
}

// CreateTablesIfNeeded creates any missing tables in the current session.
func (d *Database) CreateTablesIfNeeded(ctx context.Context) error {
	s, err := d.session(ctx)
	if err != nil {
		return err
	}
	return s.CreateTablesIfNeeded(ctx)
}

// ClearTables deletes every row in the current session.
func (d *Database) ClearTables(ctx context.Context) error {
	s, err := d.session(ctx)
	if err != nil {
		return err
	}
	return s.ClearTables(ctx)
}

// DropTables drops every table in the current session.
func (d *Database) DropTables(ctx context.Context) error {
	s, err := d.session(ctx)
	if err != nil {
		return err
	}
	return s.DropTables(ctx)
}

// NextStudentID returns one past the highest stored student ID.
func (d *Database) NextStudentID(ctx context.Context) (int, error) {
	s, err := d.session(ctx)
	if err != nil {
		return 0, err
	}
	return s.NextStudentID(ctx)
}

// AddNewStudent inserts st in the current session.
func (d *Database) AddNewStudent(ctx context.Context, st Student) error {
	s, err := d.session(ctx)
	if err != nil {
		return err
	}
	return s.AddNewStudent(ctx, st)
}

// UpsertStudent inserts st or updates its names in the current session.
func (d *Database) UpsertStudent(ctx context.Context, st Student) error {
	s, err := d.session(ctx)
	if err != nil {
		return err
	}
	return s.UpsertStudent(ctx, st)
}

// Students returns every student ordered by ID.
func (d *Database) Students(ctx context.Context) ([]Student, error) {
	s, err := d.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.Students(ctx)
}

// Student returns the student with the given ID.
func (d *Database) Student(ctx context.Context, id int) (Student, bool, error) {
	s, err := d.session(ctx)
	if err != nil {
		return Student{}, false, err
	}
	return s.Student(ctx, id)
}

// StudentsByCourse returns the students enrolled in c ordered by ID.
func (d *Database) StudentsByCourse(ctx context.Context, c Course) ([]Student, error) {
	s, err := d.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.StudentsByCourse(ctx, c)
}

// AddNewCourse inserts c in the current session.
func (d *Database) AddNewCourse(ctx context.Context, c Course) error {
	s, err := d.session(ctx)
	if err != nil {
		return err
	}
	return s.AddNewCourse(ctx, c)
}

// UpsertCourse inserts c or updates its meeting time in the current session.
func (d *Database) UpsertCourse(ctx context.Context, c Course) error {
	s, err := d.session(ctx)
	if err != nil {
		return err
	}
	return s.UpsertCourse(ctx, c)
}

// Courses returns every course ordered by CRN.
func (d *Database) Courses(ctx context.Context) ([]Course, error) {
	s, err := d.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.Courses(ctx)
}

// Course returns the course with the given CRN.
func (d *Database) Course(ctx context.Context, crn int) (Course, bool, error) {
	s, err := d.session(ctx)
	if err != nil {
		return Course{}, false, err
	}
	return s.Course(ctx, crn)
}

// CoursesByStudent returns the courses st is enrolled in ordered by CRN.
func (d *Database) CoursesByStudent(ctx context.Context, st Student) ([]Course, error) {
	s, err := d.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.CoursesByStudent(ctx, st)
}

// AddEnrollment enrolls st in c. On failure the current session is rolled
// back before the error is returned.
func (d *Database) AddEnrollment(ctx context.Context, st Student, c Course) error {
	s, err := d.session(ctx)
	if err != nil {
		return err
	}
	return s.AddEnrollment(ctx, st, c)
}

// Schedule returns st with the courses they are enrolled in.
func (d *Database) Schedule(ctx context.Context, st Student) (StudentSchedule, error) {
	s, err := d.session(ctx)
	if err != nil {
		return StudentSchedule{}, err
	}
	return s.Schedule(ctx, st)
}

// Roster returns c with the students enrolled in it.
func (d *Database) Roster(ctx context.Context, c Course) (CourseRoster, error) {
	s, err := d.session(ctx)
	if err != nil {
		return CourseRoster{}, err
	}
	return s.Roster(ctx, c)
}
