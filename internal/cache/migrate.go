// Package cache persists a content-hash -> compiled-SQL cache (§2.1's
// "NEW ambient" addition): this wraps internal/compiler at the CLI
// boundary and never participates in the compiler's own pipeline, matching
// §5 "no caching across queries" for the compiler itself.
package cache

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// migrate runs all pending migrations against db.
func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("cache: setting goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("cache: running migrations: %w", err)
	}
	return nil
}
