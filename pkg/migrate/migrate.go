package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/sbpremium/gifts-backend/pkg/config"
)

// Dir is the embedded migrations directory.
const Dir = "migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Dialect maps a store driver to the goose dialect name.
func Dialect(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case config.StoreDriverPostgres:
		return "postgres", nil
	case config.StoreDriverSQLite:
		return "sqlite3", nil
	}
	return "", fmt.Errorf("no migration dialect for driver %q", driver)
}

// Run executes a goose command (up, down, status, version, ...) against the
// embedded migrations.
func Run(ctx context.Context, db *sql.DB, driver string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	dialect, err := Dialect(driver)
	if err != nil {
		return err
	}

	goose.SetBaseFS(embedded)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, Dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, driver string) error {
	return Run(ctx, db, driver, "up")
}
