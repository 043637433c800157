package enrollment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStudentSchedule(t *testing.T) {
	cs := NewCourse(12345, "CS", 3140, 1, "MWF 10:00")
	math := NewCourse(23456, "MATH", 1310, 2, "TR 09:30")

	sched := StudentSchedule{Student: NewStudent(1, "John", "Doe", "abc2def")}
	sched.Add(cs)
	sched.Add(math)

	moved := cs
	moved.MeetingTime = "MWF 11:00"
	sched.Add(moved)

	assert.Len(t, sched.Courses, 2, "same CRN is not listed twice")
	assert.True(t, sched.Contains(moved))

	assert.True(t, sched.Remove(cs))
	assert.False(t, sched.Remove(cs))
	assert.False(t, sched.Contains(cs))
	assert.Equal(t, []Course{math}, sched.Courses)
}

func TestCourseRoster(t *testing.T) {
	john := NewStudent(1, "John", "Doe", "abc2def")
	jane := NewStudent(2, "Jane", "Roe", "ghi3jkl")

	roster := CourseRoster{Course: NewCourse(12345, "CS", 3140, 1, "MWF 10:00")}
	roster.Add(john)
	roster.Add(jane)

	renamed := john
	renamed.LastName = "Smith"
	roster.Add(renamed)

	assert.Len(t, roster.Students, 2)
	assert.True(t, roster.Contains(renamed))

	assert.True(t, roster.Remove(jane))
	assert.False(t, roster.Contains(jane))
	assert.Equal(t, []Student{john}, roster.Students)
}
