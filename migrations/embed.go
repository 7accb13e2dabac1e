// Package migrations embeds the run journal schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
