package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // pure-Go sqlite3 driver
)

// Cache is a sqlite-backed store keyed on Key's content hash. The zero
// value is not usable; construct with Open.
type Cache struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if necessary) the cache database at path and runs
// its migrations. Use ":memory:" for a throwaway cache.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("opening compilation cache", "path", path)

	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cache: opening database: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: pinging database: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Cache{db: db, path: path, logger: logger}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	c.logger.Debug("closing compilation cache", "path", c.path)
	return c.db.Close()
}

// Get looks up a previously cached compilation by key. ok is false (with
// a nil error) on a cache miss.
func (c *Cache) Get(ctx context.Context, key string) (sql_ string, ok bool, err error) {
	row := c.db.QueryRowContext(ctx, `SELECT sql FROM compilations WHERE cache_key = ?`, key)
	err = row.Scan(&sql_)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: get: %w", err)
	}
	return sql_, true, nil
}

// Put stores a compilation result, overwriting any existing entry for key.
func (c *Cache) Put(ctx context.Context, key, sql string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO compilations (cache_key, sql) VALUES (?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET sql = excluded.sql, created_at = CURRENT_TIMESTAMP
	`, key, sql)
	if err != nil {
		return fmt.Errorf("cache: put: %w", err)
	}
	return nil
}
