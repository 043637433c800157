package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Schema filename parsing constants.
const (
	// schemaFilenameParts is the expected number of parts in a schema filename.
	// Format: YYYYMMDD_HHMMSS_description.up.sql (3 parts when split by "_")
	schemaFilenameParts = 3

	// minVersionParts is the minimum parts needed to extract a version.
	minVersionParts = 2
)

// ErrNoSchema is returned when no schema files have been registered.
var ErrNoSchema = errors.New("database: no schema files registered")

// SchemaFS holds the embedded schema files. The migrations package sets it
// from an init function:
//
//	//go:embed *.sql
//	var schemaFS embed.FS
//
//	func init() {
//	    database.SchemaFS = schemaFS
//	    database.SchemaDir = "."
//	}
var SchemaFS embed.FS

// SchemaDir is the directory within SchemaFS containing schema files.
var SchemaDir = "migrations"

// Execer is implemented by *sql.DB, *sql.Conn and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SchemaFile is one versioned schema step.
type SchemaFile struct {
	// Version is extracted from the filename, e.g. 20260118_120000.
	Version string

	// Name is the human-readable description from the filename.
	Name string

	// UpSQL creates the objects; it must be idempotent (IF NOT EXISTS).
	UpSQL string

	// DownSQL removes the objects; it must be idempotent (IF EXISTS).
	DownSQL string
}

// ApplySchema runs every up script in version order on exec.
//
// Scripts are written with IF NOT EXISTS, so applying them to a store that
// already has the tables is a no-op. No bookkeeping table is kept: the
// tables themselves are the state. Running on a transaction makes the whole
// schema change part of that transaction.
func ApplySchema(ctx context.Context, exec Execer) error {
	files, err := LoadSchema()
	if err != nil {
		return err
	}

	for _, f := range files {
		if _, err := exec.ExecContext(ctx, f.UpSQL); err != nil {
			return fmt.Errorf("applying schema %s (%s): %w", f.Version, f.Name, err)
		}
	}
	return nil
}

// DropSchema runs every down script in reverse version order on exec, so
// dependent tables go before the tables they reference.
func DropSchema(ctx context.Context, exec Execer) error {
	files, err := LoadSchema()
	if err != nil {
		return err
	}

	for i := len(files) - 1; i >= 0; i-- {
		f := files[i]
		if f.DownSQL == "" {
			return fmt.Errorf("schema %s has no down SQL", f.Version)
		}
		if _, err := exec.ExecContext(ctx, f.DownSQL); err != nil {
			return fmt.Errorf("dropping schema %s (%s): %w", f.Version, f.Name, err)
		}
	}
	return nil
}

// LoadSchema returns the registered schema files sorted oldest first.
func LoadSchema() ([]SchemaFile, error) {
	var empty embed.FS
	if SchemaFS == empty {
		return nil, ErrNoSchema
	}

	entries, err := fs.ReadDir(SchemaFS, SchemaDir)
	if err != nil {
		return nil, fmt.Errorf("reading schema directory: %w", err)
	}

	upFiles, downFiles := categoriseSchemaFiles(entries)
	if len(upFiles) == 0 {
		return nil, ErrNoSchema
	}

	files, err := buildSchemaFiles(upFiles, downFiles)
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Version < files[j].Version
	})

	return files, nil
}

// categoriseSchemaFiles groups schema files by version and direction.
func categoriseSchemaFiles(entries []fs.DirEntry) (upFiles, downFiles map[string]string) {
	upFiles = make(map[string]string)
	downFiles = make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		version, isUp, ok := parseSchemaFilename(name)
		if !ok {
			continue
		}

		if isUp {
			upFiles[version] = name
		} else {
			downFiles[version] = name
		}
	}

	return upFiles, downFiles
}

// parseSchemaFilename extracts version and direction from a schema filename.
// Returns version, isUp (true for .up.sql, false for .down.sql), and ok.
func parseSchemaFilename(name string) (version string, isUp bool, ok bool) {
	if !strings.HasSuffix(name, ".sql") {
		return "", false, false
	}

	base := strings.TrimSuffix(name, ".sql")

	switch {
	case strings.HasSuffix(base, ".up"):
		isUp = true
		base = strings.TrimSuffix(base, ".up")
	case strings.HasSuffix(base, ".down"):
		isUp = false
		base = strings.TrimSuffix(base, ".down")
	default:
		return "", false, false
	}

	parts := strings.SplitN(base, "_", schemaFilenameParts)
	if len(parts) < minVersionParts {
		return "", false, false
	}

	version = parts[0] + "_" + parts[1]
	return version, isUp, true
}

// buildSchemaFiles reads the SQL for each version.
func buildSchemaFiles(upFiles, downFiles map[string]string) ([]SchemaFile, error) {
	files := make([]SchemaFile, 0, len(upFiles))

	for version, upFile := range upFiles {
		upSQL, err := fs.ReadFile(SchemaFS, path.Join(SchemaDir, upFile))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", upFile, err)
		}

		f := SchemaFile{
			Version: version,
			Name:    extractSchemaName(upFile),
			UpSQL:   string(upSQL),
		}

		if downFile, ok := downFiles[version]; ok {
			downSQL, err := fs.ReadFile(SchemaFS, path.Join(SchemaDir, downFile))
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", downFile, err)
			}
			f.DownSQL = string(downSQL)
		}

		files = append(files, f)
	}

	return files, nil
}

// extractSchemaName extracts a human-readable name from the filename.
// Example: "20260118_120000_create_students.up.sql" -> "create_students"
func extractSchemaName(filename string) string {
	base := strings.TrimSuffix(filename, ".sql")
	base = strings.TrimSuffix(base, ".up")
	base = strings.TrimSuffix(base, ".down")

	parts := strings.SplitN(base, "_", schemaFilenameParts)
	if len(parts) >= schemaFilenameParts {
		return parts[minVersionParts]
	}
	return base
}
