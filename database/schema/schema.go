// Package schema embeds the versioned SQL migrations of the invoicer database.
package schema

import "embed"

// Dir is the directory inside FS holding the migration files.
const Dir = "migrations"

// FS holds the migration files.
//
//go:embed migrations/*.sql
var FS embed.FS
