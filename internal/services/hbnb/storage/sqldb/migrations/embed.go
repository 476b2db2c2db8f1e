package migrations

import "embed"

// FS contains embedded schema migrations for the relational engine, one
// directory per SQL dialect.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
