package enrollment

import (
	"context"
	"time"
)

// ChangeKind names a committed write.
type ChangeKind string

// Change kinds. The values double as MQTT topic suffixes.
const (
	ChangeStudentAdded    ChangeKind = "student.added"
	ChangeStudentUpserted ChangeKind = "student.upserted"
	ChangeCourseAdded     ChangeKind = "course.added"
	ChangeCourseUpserted  ChangeKind = "course.upserted"
	ChangeEnrollmentAdded ChangeKind = "enrollment.added"
	ChangeTablesCleared   ChangeKind = "tables.cleared"
	ChangeTablesDropped   ChangeKind = "tables.dropped"
)

// Change describes one write made inside a session. StudentID and CRN are
// zero when the kind does not concern them. ID is unique per change so
// feed consumers can drop redeliveries.
type Change struct {
	ID        string     `json:"id"`
	Kind      ChangeKind `json:"kind"`
	StudentID int        `json:"student_id,omitempty"`
	CRN       int        `json:"crn,omitempty"`
	At        time.Time  `json:"at"`
}

// ChangeNotifier receives the changes of a session after it commits.
// Changes arrive in the order they were made.
type ChangeNotifier interface {
	NotifyChanges(ctx context.Context, changes []Change) error
}

// ChangeNotifierFunc adapts a function to ChangeNotifier.
type ChangeNotifierFunc func(ctx context.Context, changes []Change) error

// NotifyChanges calls f.
func (f ChangeNotifierFunc) NotifyChanges(ctx context.Context, changes []Change) error {
	return f(ctx, changes)
}
