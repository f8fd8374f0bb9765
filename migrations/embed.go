// Package migrations embeds the SQL schema migrations for the trust engine.
package migrations

import "embed"

// FS contains the SQL migration files.
//
//go:embed *.sql
var FS embed.FS
