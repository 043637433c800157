// Package database provides SQLite connectivity for coursedb.
//
// This package manages:
//   - Opening the store (a file path or ":memory:") with foreign keys on
//   - Pinning the pool to exactly one connection
//   - Applying and dropping the embedded schema
//
// Each schema step is a pair of files, YYYYMMDD_HHMMSS_description.up.sql
// and .down.sql. Up scripts use CREATE TABLE IF NOT EXISTS and down scripts
// use DROP TABLE IF EXISTS, so both directions are idempotent and can run
// inside the caller's transaction.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: "courses.db"})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	tx, err := db.BeginTx(ctx, nil)
//	...
//	if err := database.ApplySchema(ctx, tx); err != nil {
//	    return err
//	}
package database
