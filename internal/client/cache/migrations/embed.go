// Package migrations embeds the local cache's SQL schema for goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
