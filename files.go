package auth

import (
	"embed"
)

// The users table ships in both sqlite and postgres flavors; the server
// registers whichever matches the configured driver.
//
//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}
