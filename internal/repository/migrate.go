package repository

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var fs embed.FS

// Migrate applies the embedded schema migrations in the given direction,
// "up" or "down", and returns the resulting schema version.
func Migrate(direction string, dbConnStr string) (uint, error) {
	var migrateMethod func(*migrate.Migrate) error
	switch direction {
	case "up":
		migrateMethod = (*migrate.Migrate).Up
	case "down":
		migrateMethod = (*migrate.Migrate).Down
	default:
		return 0, fmt.Errorf("unknown migration direction %q", direction)
	}

	d, err := iofs.New(fs, "migrations")
	if err != nil {
		return 0, fmt.Errorf("failed to load migration files: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", d, dbConnStr)
	if err != nil {
		return 0, fmt.Errorf("failed create new source instance: %w", err)
	}
	defer m.Close()

	if err := migrateMethod(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to migrate %v: %w", direction, err)
	}
	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, nil
}
