// Package enrollment is the data-access layer for students, courses and the
// enrollments that link them.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                          Database                             │
//	│   Connect / Disconnect, Begin / Commit / Rollback             │
//	│   ambient methods ──┐                                         │
//	│                     ▼                                         │
//	│   ┌──────────────────────────────┐    ┌───────────────────┐   │
//	│   │ Session (one *sql.Tx)        │───▶│ ChangeNotifier    │   │
//	│   │ • student / course / enroll  │    │ (after commit)    │   │
//	│   │ • buffered Change log        │    └───────────────────┘   │
//	│   └──────────────────────────────┘                            │
//	└──────────────────────────────│───────────────────────────────┘
//	                               ▼
//	                 ┌──────────────────────────┐
//	                 │ SQLite (one connection)  │
//	                 │ Students Courses         │
//	                 │ Enrollments              │
//	                 └──────────────────────────┘
//
// # Sessions
//
// Auto-commit is off. Methods called on Database join the open session,
// beginning one on first use, and nothing is durable until Commit:
//
//	db := enrollment.New(enrollment.DefaultPath)
//	if err := db.Connect(ctx); err != nil {
//	    return err
//	}
//	defer db.Disconnect()
//
//	if err := db.AddNewStudent(ctx, s); err != nil && !errors.Is(err, enrollment.ErrDuplicate) {
//	    return err
//	}
//	return db.Commit(ctx)
//
// Begin returns the same session explicitly, and WithSession scopes one to
// a function. A failed AddEnrollment is the only operation that rolls the
// session back by itself.
//
// # Values
//
// Student and Course are detached copies of rows. Identity is the key
// (ID and computing ID; CRN), see Key and SameIdentity. StudentSchedule and
// CourseRoster are snapshots built by Schedule and Roster and are never
// written back.
package enrollment
