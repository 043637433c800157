package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nerrad567/coursedb/internal/enrollment"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the Students, Courses and Enrollments tables if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, cleanup, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := db.CreateTablesIfNeeded(ctx); err != nil {
				return err
			}
			if err := db.Commit(ctx); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Tables ready in %s\n", db.Path())
			return nil
		},
	}
}

func newStudentsCmd(a *app) *cobra.Command {
	var crn int

	cmd := &cobra.Command{
		Use:   "students",
		Short: "List students, optionally only those enrolled in one course",
		Long: `List students ordered by ID.

Example:
  coursedb students
  coursedb students --course 12345`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, cleanup, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()
			defer db.Rollback() //nolint:errcheck // Read-only

			var students []enrollment.Student
			if cmd.Flags().Changed("course") {
				course, ok, err := db.Course(ctx, crn)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("course %d not found", crn)
				}
				students, err = db.StudentsByCourse(ctx, course)
				if err != nil {
					return err
				}
			} else {
				students, err = db.Students(ctx)
				if err != nil {
					return err
				}
			}

			for _, s := range students {
				fmt.Fprintln(a.out, s)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&crn, "course", 0, "only students enrolled in this CRN")
	return cmd
}

func newCoursesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "courses [student-id]",
		Short: "List courses, or one student's schedule",
		Long: `List courses ordered by CRN. With a student ID, list only the
courses that student is enrolled in.

Example:
  coursedb courses
  coursedb courses 1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, cleanup, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()
			defer db.Rollback() //nolint:errcheck // Read-only

			var courses []enrollment.Course
			if len(args) == 1 {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid student id %q: %w", args[0], err)
				}
				student, ok, err := db.Student(ctx, id)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("student %d not found", id)
				}
				schedule, err := db.Schedule(ctx, student)
				if err != nil {
					return err
				}
				courses = schedule.Courses
			} else {
				courses, err = db.Courses(ctx)
				if err != nil {
					return err
				}
			}

			for _, c := range courses {
				fmt.Fprintln(a.out, c)
			}
			return nil
		},
	}
}

func newNextIDCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "next-id",
		Short: "Print the next free student ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, cleanup, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()
			defer db.Rollback() //nolint:errcheck // Read-only

			next, err := db.NextStudentID(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, next)
			return nil
		},
	}
}

func newDropCmd(a *app) *cobra.Command {
	var force, clearOnly bool

	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop all tables (or, with --clear, delete all rows)",
		Long: `Drop the Students, Courses and Enrollments tables. With --clear the
tables are kept and only their rows are deleted. Either way --force is
required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				return fmt.Errorf("refusing to remove data from %s without --force", a.cfg.Database.Path)
			}

			ctx := cmd.Context()
			db, cleanup, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if clearOnly {
				err = db.ClearTables(ctx)
			} else {
				err = db.DropTables(ctx)
			}
			if err != nil {
				return err
			}
			if err := db.Commit(ctx); err != nil {
				return err
			}

			action := "Dropped"
			if clearOnly {
				action = "Cleared"
			}
			fmt.Fprintf(a.out, "%s tables in %s\n", action, db.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm data removal")
	cmd.Flags().BoolVar(&clearOnly, "clear", false, "delete rows but keep the tables")
	return cmd
}
