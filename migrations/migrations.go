// Package migrations embeds the scan-history schema for each supported driver.
package migrations

import "embed"

// Migration files are bundled at compile time, one directory per SQL dialect.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
