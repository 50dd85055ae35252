// Package db embeds the SQL migrations for production builds.
package db

import "embed"

// Migrations holds the embedded migration files.
//
//go:embed migrations
var Migrations embed.FS
