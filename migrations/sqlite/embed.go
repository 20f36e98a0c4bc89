// Package migrations embeds the SQLite schema (single-node deployments).
package migrations

import "embed"

// FS contains the ordered migration files (NNNN_name.sql).
//
//go:embed *.sql
var FS embed.FS
