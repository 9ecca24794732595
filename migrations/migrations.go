// Package migrations embeds the postgres schema for the migrate binary
package migrations

import "embed"

// FS holds the goose SQL migrations
//
//go:embed *.sql
var FS embed.FS
