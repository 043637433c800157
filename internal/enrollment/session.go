package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nerrad567/coursedb/internal/infrastructure/database"
)

// Session is one transaction on the store. It is single-use: after Commit
// or Rollback every operation returns ErrSessionDone, except Rollback
// itself, which becomes a no-op.
type Session struct {
	tx      *sql.Tx
	owner   *Database
	done    bool
	changes []Change
}

// stmtContext strips cancellation and deadlines from ctx for a statement.
// Interrupting a write makes SQLite roll back the whole transaction on its
// own, after which the Session would keep writing in autocommit mode.
func stmtContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Commit makes the session's writes durable and then passes its changes to
// the notifier.
func (s *Session) Commit(ctx context.Context) error {
	if s.done {
		return ErrSessionDone
	}
	changes := s.finish()

	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("committing session: %w", err)
	}
	s.owner.logger.Debug("session committed", "changes", len(changes))

	s.owner.notify(ctx, changes)
	return nil
}

// Rollback discards the session's writes and changes.
func (s *Session) Rollback() error {
	if s.done {
		return nil
	}
	changes := s.finish()

	if err := s.tx.Rollback(); err != nil {
		return fmt.Errorf("rolling back session: %w", err)
	}
	s.owner.logger.Debug("session rolled back", "discarded", len(changes))
	return nil
}

// finish marks the session done, detaches it from its Database and returns
// the buffered changes.
func (s *Session) finish() []Change {
	s.done = true
	s.owner.release(s)
	changes := s.changes
	s.changes = nil
	return changes
}

func (s *Session) record(kind ChangeKind, studentID, crn int) {
	s.changes = append(s.changes, Change{
		ID:        uuid.NewString(),
		Kind:      kind,
		StudentID: studentID,
		CRN:       crn,
		At:        s.owner.now(),
	})
}

func (s *Session) check() error {
	if s.done {
		return ErrSessionDone
	}
	return nil
}

// CreateTablesIfNeeded creates the Students, Courses and Enrollments tables
// unless they already exist.
func (s *Session) CreateTablesIfNeeded(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := database.ApplySchema(stmtContext(ctx), s.tx); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// ClearTables deletes every row from every table. The tables stay.
func (s *Session) ClearTables(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	const query = `DELETE FROM Enrollments; DELETE FROM Students; DELETE FROM Courses;`
	if _, err := s.tx.ExecContext(stmtContext(ctx), query); err != nil {
		return storeError("clearing tables", err)
	}
	s.record(ChangeTablesCleared, 0, 0)
	return nil
}

// DropTables drops every table if present.
func (s *Session) DropTables(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := database.DropSchema(stmtContext(ctx), s.tx); err != nil {
		return fmt.Errorf("dropping tables: %w", err)
	}
	s.record(ChangeTablesDropped, 0, 0)
	return nil
}

// NextStudentID returns one past the highest stored student ID, or 1 for an
// empty table.
func (s *Session) NextStudentID(ctx context.Context) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	const query = `SELECT COALESCE(MAX(StudentId), 0) + 1 FROM Students`
	var next int
	if err := s.tx.QueryRowContext(stmtContext(ctx), query).Scan(&next); err != nil {
		return 0, fmt.Errorf("querying next student id: %w", err)
	}
	return next, nil
}

// AddNewStudent inserts st. A duplicate ID fails with
// ErrPrimaryKeyViolation and a duplicate computing ID with
// ErrUniqueViolation. The session stays open either way.
func (s *Session) AddNewStudent(ctx context.Context, st Student) error {
	if err := s.check(); err != nil {
		return err
	}
	const query = `INSERT INTO Students (StudentId, FirstName, LastName, ComputingID)
		VALUES (?, ?, ?, ?)`
	_, err := s.tx.ExecContext(stmtContext(ctx), query, st.ID(), st.FirstName, st.LastName, st.ComputingID())
	if err != nil {
		return storeError(fmt.Sprintf("inserting student %d", st.ID()), err)
	}
	s.record(ChangeStudentAdded, st.ID(), 0)
	return nil
}

// UpsertStudent inserts st, or updates only the names of the student with
// the same ID. The computing ID of an existing row is never changed.
func (s *Session) UpsertStudent(ctx context.Context, st Student) error {
	if err := s.check(); err != nil {
		return err
	}
	const query = `INSERT INTO Students (StudentId, FirstName, LastName, ComputingID)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (StudentId) DO UPDATE SET
			FirstName = excluded.FirstName,
			LastName = excluded.LastName`
	_, err := s.tx.ExecContext(stmtContext(ctx), query, st.ID(), st.FirstName, st.LastName, st.ComputingID())
	if err != nil {
		return storeError(fmt.Sprintf("upserting student %d", st.ID()), err)
	}
	s.record(ChangeStudentUpserted, st.ID(), 0)
	return nil
}

// Students returns every student ordered by ID.
func (s *Session) Students(ctx context.Context) ([]Student, error) {
	const query = `SELECT StudentId, FirstName, LastName, ComputingID
		FROM Students ORDER BY StudentId`
	return s.queryStudents(ctx, query)
}

// Student returns the student with the given ID. ok is false when there is
// no such student.
func (s *Session) Student(ctx context.Context, id int) (st Student, ok bool, err error) {
	if err := s.check(); err != nil {
		return Student{}, false, err
	}
	const query = `SELECT StudentId, FirstName, LastName, ComputingID
		FROM Students WHERE StudentId = ?`
	st, err = scanStudent(s.tx.QueryRowContext(stmtContext(ctx), query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, false, nil
	}
	if err != nil {
		return Student{}, false, fmt.Errorf("querying student %d: %w", id, err)
	}
	return st, true, nil
}

// StudentsByCourse returns the students enrolled in c ordered by ID.
func (s *Session) StudentsByCourse(ctx context.Context, c Course) ([]Student, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	const query = `SELECT StudentID FROM Enrollments WHERE CRN = ? ORDER BY StudentID`
	ids, err := s.queryIDs(ctx, query, c.CRN())
	if err != nil {
		return nil, fmt.Errorf("listing students in course %d: %w", c.CRN(), err)
	}

	// The ID cursor is closed by now; the single connection is free again.
	students := make([]Student, 0, len(ids))
	for _, id := range ids {
		st, ok, err := s.Student(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			students = append(students, st)
		}
	}
	return students, nil
}

// AddNewCourse inserts c. A duplicate CRN fails with ErrPrimaryKeyViolation
// and a duplicate subject, number and section with ErrUniqueViolation.
func (s *Session) AddNewCourse(ctx context.Context, c Course) error {
	if err := s.check(); err != nil {
		return err
	}
	const query = `INSERT INTO Courses (Crn, Subject, CourseNumber, Section, MeetingTime)
		VALUES (?, ?, ?, ?, ?)`
	_, err := s.tx.ExecContext(stmtContext(ctx), query,
		c.CRN(), c.Subject(), c.CourseNumber(), c.Section(), c.MeetingTime)
	if err != nil {
		return storeError(fmt.Sprintf("inserting course %d", c.CRN()), err)
	}
	s.record(ChangeCourseAdded, 0, c.CRN())
	return nil
}

// UpsertCourse inserts c, or updates only the meeting time of the course
// with the same CRN. Enrollments are left alone.
func (s *Session) UpsertCourse(ctx context.Context, c Course) error {
	if err := s.check(); err != nil {
		return err
	}
	const query = `INSERT INTO Courses (Crn, Subject, CourseNumber, Section, MeetingTime)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (Crn) DO UPDATE SET MeetingTime = excluded.MeetingTime`
	_, err := s.tx.ExecContext(stmtContext(ctx), query,
		c.CRN(), c.Subject(), c.CourseNumber(), c.Section(), c.MeetingTime)
	if err != nil {
		return storeError(fmt.Sprintf("upserting course %d", c.CRN()), err)
	}
	s.record(ChangeCourseUpserted, 0, c.CRN())
	return nil
}

// Courses returns every course ordered by CRN.
func (s *Session) Courses(ctx context.Context) ([]Course, error) {
	const query = `SELECT Crn, Subject, CourseNumber, Section, MeetingTime
		FROM Courses ORDER BY Crn`
	return s.queryCourses(ctx, query)
}

// Course returns the course with the given CRN. ok is false when there is
// no such course.
func (s *Session) Course(ctx context.Context, crn int) (c Course, ok bool, err error) {
	if err := s.check(); err != nil {
		return Course{}, false, err
	}
	const query = `SELECT Crn, Subject, CourseNumber, Section, MeetingTime
		FROM Courses WHERE Crn = ?`
	c, err = scanCourse(s.tx.QueryRowContext(stmtContext(ctx), query, crn))
	if errors.Is(err, sql.ErrNoRows) {
		return Course{}, false, nil
	}
	if err != nil {
		return Course{}, false, fmt.Errorf("querying course %d: %w", crn, err)
	}
	return c, true, nil
}

// CoursesByStudent returns the courses st is enrolled in ordered by CRN.
func (s *Session) CoursesByStudent(ctx context.Context, st Student) ([]Course, error) {
	const query = `SELECT c.Crn, c.Subject, c.CourseNumber, c.Section, c.MeetingTime
		FROM Courses c
		JOIN Enrollments e ON e.CRN = c.Crn
		WHERE e.StudentID = ?
		ORDER BY c.Crn`
	return s.queryCourses(ctx, query, st.ID())
}

// AddEnrollment enrolls st in c.
//
// Unlike the other writes, a failure here rolls back the whole session
// before the error is returned: a duplicate pair fails with
// ErrUniqueViolation and a missing student or course with
// ErrForeignKeyViolation.
func (s *Session) AddEnrollment(ctx context.Context, st Student, c Course) error {
	if err := s.check(); err != nil {
		return err
	}
	const query = `INSERT INTO Enrollments (StudentID, CRN) VALUES (?, ?)`
	if _, err := s.tx.ExecContext(stmtContext(ctx), query, st.ID(), c.CRN()); err != nil {
		err = storeError(fmt.Sprintf("enrolling student %d in course %d", st.ID(), c.CRN()), err)
		s.owner.logger.Warn("enrollment failed, rolling back session",
			"student_id", st.ID(), "crn", c.CRN(), "error", err)
		if rbErr := s.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	s.record(ChangeEnrollmentAdded, st.ID(), c.CRN())
	return nil
}

// Schedule returns st with the courses they are enrolled in.
func (s *Session) Schedule(ctx context.Context, st Student) (StudentSchedule, error) {
	courses, err := s.CoursesByStudent(ctx, st)
	if err != nil {
		return StudentSchedule{}, err
	}
	return StudentSchedule{Student: st, Courses: courses}, nil
}

// Roster returns c with the students enrolled in it.
func (s *Session) Roster(ctx context.Context, c Course) (CourseRoster, error) {
	students, err := s.StudentsByCourse(ctx, c)
	if err != nil {
		return CourseRoster{}, err
	}
	return CourseRoster{Course: c, Students: students}, nil
}

func (s *Session) queryStudents(ctx context.Context, query string, args ...any) ([]Student, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	rows, err := s.tx.QueryContext(stmtContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying students: %w", err)
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning student: %w", err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating students: %w", err)
	}
	return students, nil
}

func (s *Session) queryCourses(ctx context.Context, query string, args ...any) ([]Course, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	rows, err := s.tx.QueryContext(stmtContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying courses: %w", err)
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating courses: %w", err)
	}
	return courses, nil
}

// queryIDs reads a single integer column to completion and closes the cursor.
func (s *Session) queryIDs(ctx context.Context, query string, args ...any) ([]int, error) {
	rows, err := s.tx.QueryContext(stmtContext(ctx), query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// scanStudent reads one Students row. FirstName may be NULL in rows
// written by other tools.
func scanStudent(sc scanner) (Student, error) {
	var (
		id          int
		firstName   sql.NullString
		lastName    string
		computingID string
	)
	if err := sc.Scan(&id, &firstName, &lastName, &computingID); err != nil {
		return Student{}, err
	}
	return NewStudent(id, firstName.String, lastName, computingID), nil
}

// scanCourse reads one Courses row. Everything but Crn is nullable.
func scanCourse(sc scanner) (Course, error) {
	var (
		crn          int
		subject      sql.NullString
		courseNumber sql.NullInt64
		section      sql.NullInt64
		meetingTime  sql.NullString
	)
	if err := sc.Scan(&crn, &subject, &courseNumber, &section, &meetingTime); err != nil {
		return Course{}, err
	}
	return NewCourse(crn, subject.String, int(courseNumber.Int64), int(section.Int64), meetingTime.String), nil
}
