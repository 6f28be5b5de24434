// Package migrations embeds the schema of the viewer's local state file.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
