// Package db embeds the SQL migration files shipped with the binary.
package db

import "embed"

// Migrations holds every file under migrations/, ordered by the numeric
// prefix in the file names.
//
//go:embed migrations/*.sql
var Migrations embed.FS
