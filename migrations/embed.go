// Package migrations embeds the tempora schema: credential records, temporal
// commitments with their reveal deadlines, and the reveal event log.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
