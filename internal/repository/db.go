// Package repository stores contact submissions, email subscriptions and
// portfolio projects in Postgres, or SQLite for local runs and tests.
package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Driver selects the database backend.
type Driver string

const (
	Postgres Driver = "postgres"
	SQLite   Driver = "sqlite"
)

// ParseDriver maps a configuration value to a Driver.
func ParseDriver(raw string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(raw))); d {
	case Postgres, SQLite:
		return d, nil
	case "pg", "postgresql":
		return Postgres, nil
	case "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", raw)
	}
}

func (d Driver) dialect() string {
	if d == SQLite {
		return "sqlite3"
	}
	return "postgres"
}

// Open connects to the database and checks the connection.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var db *sql.DB
	switch driver {
	case Postgres:
		db = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	case SQLite:
		var err error
		if db, err = sql.Open("sqlite", dsn); err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
			// every connection to :memory: is a separate database
			db.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

func migrationSource() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{FileSystem: migrationsFS, Root: "migrations"}
}

// Migrate applies pending migrations and returns how many ran.
func Migrate(db *sql.DB, driver Driver) (int, error) {
	n, err := migrate.Exec(db, driver.dialect(), migrationSource(), migrate.Up)
	if err != nil {
		return n, fmt.Errorf("apply migrations: %w", err)
	}
	return n, nil
}

// Rollback reverts up to steps migrations; zero reverts all of them.
func Rollback(db *sql.DB, driver Driver, steps int) (int, error) {
	n, err := migrate.ExecMax(db, driver.dialect(), migrationSource(), migrate.Down, steps)
	if err != nil {
		return n, fmt.Errorf("revert migrations: %w", err)
	}
	return n, nil
}
