// Package migrations embeds the PostgreSQL schema for the employee directory
// and the outbound mail log.
package migrations

import "embed"

// FS contains the ordered migration files (NNNN_name.sql).
//
//go:embed *.sql
var FS embed.FS
