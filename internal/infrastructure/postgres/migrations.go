package postgres

import (
	"embed"

	pkgpostgres "github.com/bibbank/fintrack/pkg/postgres"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsDir is the directory inside Migrations holding the SQL files.
const MigrationsDir = "migrations"

// Migrations returns the embedded schema migrations.
func Migrations() embed.FS {
	return migrationsFS
}

// Migrate applies all pending schema migrations to the database at dsn.
func Migrate(dsn string) error {
	return pkgpostgres.RunMigrations(dsn, migrationsFS, MigrationsDir)
}
