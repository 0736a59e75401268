// Package migrations embeds the schema migrations for the SQLite record store.
//
// Files are named NNN_description.up.sql / NNN_description.down.sql and
// applied in version order.
package migrations

import "embed"

// FS contains all SQL migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
