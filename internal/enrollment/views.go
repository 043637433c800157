package enrollment

// StudentSchedule pairs a student with the courses they were enrolled in
// when the schedule was read. It is a snapshot: Add and Remove edit the
// local copy only and are never written back.
type StudentSchedule struct {
	Student Student
	Courses []Course
}

// Contains reports whether the schedule lists a course with the same CRN.
func (s StudentSchedule) Contains(c Course) bool {
	return indexCourse(s.Courses, c) >= 0
}

// Add appends c unless a course with the same CRN is already listed.
func (s *StudentSchedule) Add(c Course) {
	if s.Contains(c) {
		return
	}
	s.Courses = append(s.Courses, c)
}

// Remove drops the course with c's CRN and reports whether one was found.
func (s *StudentSchedule) Remove(c Course) bool {
	i := indexCourse(s.Courses, c)
	if i < 0 {
		return false
	}
	s.Courses = append(s.Courses[:i], s.Courses[i+1:]...)
	return true
}

// CourseRoster pairs a course with the students enrolled in it when the
// roster was read. Like StudentSchedule it is local bookkeeping only.
type CourseRoster struct {
	Course   Course
	Students []Student
}

// Contains reports whether the roster lists a student with the same identity.
func (r CourseRoster) Contains(s Student) bool {
	return indexStudent(r.Students, s) >= 0
}

// Add appends s unless the same student is already listed.
func (r *CourseRoster) Add(s Student) {
	if r.Contains(s) {
		return
	}
	r.Students = append(r.Students, s)
}

// Remove drops the student with s's identity and reports whether one was found.
func (r *CourseRoster) Remove(s Student) bool {
	i := indexStudent(r.Students, s)
	if i < 0 {
		return false
	}
	r.Students = append(r.Students[:i], r.Students[i+1:]...)
	return true
}

func indexCourse(courses []Course, c Course) int {
	for i := range courses {
		if courses[i].SameIdentity(c) {
			return i
		}
	}
	return -1
}

func indexStudent(students []Student, s Student) int {
	for i := range students {
		if students[i].SameIdentity(s) {
			return i
		}
	}
	return -1
}
