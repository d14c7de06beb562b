// Package migrations embeds the PostgreSQL schema migrations of the paper store.
package migrations

import "embed"

// FS holds the numbered up and down migration files.
//
//go:embed *.sql
var FS embed.FS
