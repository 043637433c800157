package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/coursedb/internal/enrollment"
)

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Populate the store with sample data and print it",
		Long: `Populate the store with two students and one course, enroll both
students, then print the students, two lookups by ID and the next free ID.

The demo can be run repeatedly: rows that already exist are left alone.

Example:
  coursedb demo
  coursedb demo --db :memory:`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, cleanup, err := a.openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			return runDemo(cmd.Context(), db, a)
		},
	}
}

// ignore returns nil when err matches kind.
func ignore(err, kind error) error {
	if errors.Is(err, kind) {
		return nil
	}
	return err
}

func runDemo(ctx context.Context, db *enrollment.Database, a *app) error {
	if err := db.CreateTablesIfNeeded(ctx); err != nil {
		return err
	}

	// On a re-run John already exists and keeps the name from the upsert below.
	johnDoe := enrollment.NewStudent(1, "John", "Doe", "abc2def")
	if err := ignore(db.AddNewStudent(ctx, johnDoe), enrollment.ErrPrimaryKeyViolation); err != nil {
		return err
	}

	janeSmith := enrollment.NewStudent(2, "Jane", "Smith", "ghi3jkl")
	if err := db.UpsertStudent(ctx, janeSmith); err != nil {
		return err
	}

	johnDoe.FirstName = "Jonathan"
	if err := db.UpsertStudent(ctx, johnDoe); err != nil {
		return err
	}
	if err := db.Commit(ctx); err != nil {
		return err
	}

	sde := enrollment.NewCourse(12345, "CS", 3140, 1, "TR 14:00-15:15")
	if err := db.UpsertCourse(ctx, sde); err != nil {
		return err
	}
	if err := db.Commit(ctx); err != nil {
		return err
	}

	for _, s := range []enrollment.Student{johnDoe, janeSmith} {
		if err := ignore(db.AddEnrollment(ctx, s, sde), enrollment.ErrUniqueViolation); err != nil {
			return err
		}
	}
	if err := db.Commit(ctx); err != nil {
		return err
	}

	students, err := db.Students(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Printing all students:")
	for _, s := range students {
		fmt.Fprintln(a.out, s)
	}
	fmt.Fprintln(a.out)

	student1, ok, err := db.Student(ctx, 1)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("student 1 missing after demo inserts")
	}
	fmt.Fprintf(a.out, "Student ID - 1 -> %s\n", student1)

	_, ok, err = db.Student(ctx, 3)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Student ID - 3 -> found=%t\n", ok)

	roster, err := db.Roster(ctx, sde)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Enrolled in %d -> %d students\n", sde.CRN(), len(roster.Students))

	next, err := db.NextStudentID(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Next available ID -> %d\n", next)

	return db.Commit(ctx)
}
