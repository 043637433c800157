// Package migrations embeds the coursedb schema files into the binary.
//
// Importing this package registers the files with the database package.
package migrations

import (
	"embed"

	"github.com/nerrad567/coursedb/internal/infrastructure/database"
)

//go:embed *.sql
var schemaFS embed.FS

func init() {
	database.SchemaFS = schemaFS
	database.SchemaDir = "."
}
