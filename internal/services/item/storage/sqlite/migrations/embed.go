// Package migrations embeds the item store schema.
package migrations

import "embed"

// FS contains the SQL migrations, applied in file name order.
//
//go:embed *.sql
var FS embed.FS
