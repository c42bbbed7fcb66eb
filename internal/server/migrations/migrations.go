// Package migrations embeds the goose SQL migrations of the server schema,
// including the row-level security policies that isolate tenants.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
