package enrollment

import "fmt"

// Student is a detached copy of a Students row.
//
// ID and ComputingID identify the student and cannot change after
// construction. Names are plain fields; changing them does nothing to the
// store until the student is passed to UpsertStudent.
type Student struct {
	id          int
	computingID string

	FirstName string
	LastName  string
}

// StudentKey is the immutable identity of a Student.
type StudentKey struct {
	ID          int
	ComputingID string
}

// NewStudent builds a Student. The ID is assigned by the caller, typically
// from NextStudentID.
func NewStudent(id int, firstName, lastName, computingID string) Student {
	return Student{
		id:          id,
		computingID: computingID,
		FirstName:   firstName,
		LastName:    lastName,
	}
}

// ID returns the student's numeric identifier.
func (s Student) ID() int { return s.id }

// ComputingID returns the student's external computing identifier.
func (s Student) ComputingID() string { return s.computingID }

// Key returns the identity fields.
func (s Student) Key() StudentKey {
	return StudentKey{ID: s.id, ComputingID: s.computingID}
}

// SameIdentity reports whether both values refer to the same student,
// regardless of name changes.
func (s Student) SameIdentity(other Student) bool {
	return s.Key() == other.Key()
}

// SameDetails reports whether every field matches.
func (s Student) SameDetails(other Student) bool {
	return s == other
}

func (s Student) String() string {
	return fmt.Sprintf("Student %d: %s %s (%s)", s.id, s.FirstName, s.LastName, s.computingID)
}

// Course is a detached copy of a Courses row.
//
// Only MeetingTime is mutable; everything else is fixed at construction.
type Course struct {
	crn          int
	subject      string
	courseNumber int
	section      int

	MeetingTime string
}

// CourseKey is the immutable identity of a Course.
type CourseKey struct {
	CRN int
}

// NewCourse builds a Course.
func NewCourse(crn int, subject string, courseNumber, section int, meetingTime string) Course {
	return Course{
		crn:          crn,
		subject:      subject,
		courseNumber: courseNumber,
		section:      section,
		MeetingTime:  meetingTime,
	}
}

// CRN returns the course reference number.
func (c Course) CRN() int { return c.crn }

// Subject returns the subject code, e.g. "CS".
func (c Course) Subject() string { return c.subject }

// CourseNumber returns the catalogue number, e.g. 3140.
func (c Course) CourseNumber() int { return c.courseNumber }

// Section returns the section number.
func (c Course) Section() int { return c.section }

// Key returns the identity fields.
func (c Course) Key() CourseKey {
	return CourseKey{CRN: c.crn}
}

// SameIdentity reports whether both values refer to the same course.
func (c Course) SameIdentity(other Course) bool {
	return c.Key() == other.Key()
}

// SameDetails reports whether every field matches.
func (c Course) SameDetails(other Course) bool {
	return c == other
}

func (c Course) String() string {
	return fmt.Sprintf("Course %d: %s %d-%03d %s", c.crn, c.subject, c.courseNumber, c.section, c.MeetingTime)
}
