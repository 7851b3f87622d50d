// Package cache persists harvested or resolved header sets so repeated bot
// runs don't re-probe (or re-bother the user with a browser tab) every
// time. It is strictly a caller-side convenience: the resolver itself never
// reads or writes it, keeping header resolution stateless.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/umputun/userheaders/pkg/headers"
)

// DefaultTTL keeps cached headers for a week, long enough to avoid
// re-harvesting, short enough to track browser updates.
const DefaultTTL = 7 * 24 * time.Hour

const schema = `
CREATE TABLE IF NOT EXISTS user_headers (
    key     TEXT NOT NULL COLLATE NOCASE PRIMARY KEY,
    value   TEXT,
    expires INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS user_headers_expires ON user_headers (expires);
`

// Cache is a SQLite-backed header store with per-entry expiry.
type Cache struct {
	db  *sqlx.DB
	ttl time.Duration
}

// New opens (creating if needed) the cache database at path. A zero ttl
// selects DefaultTTL.
func New(path string, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sqlx.Open("sqlite", "file:"+path+"?cache=shared&mode=rwc&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// Get returns the cached profile, nil when the cache holds nothing live.
func (c *Cache) Get(ctx context.Context) (*headers.Profile, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	err := c.db.SelectContext(ctx,
		&rows, "SELECT key, value FROM user_headers WHERE expires > ? ORDER BY key", time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("read cached headers: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	p := headers.New()
	for _, r := range rows {
		p.Set(r.Key, r.Value)
	}
	return p, nil
}

// Save stores the profile, replacing existing entries, with the configured
// TTL. Writes retry on SQLite lock contention.
func (c *Cache) Save(ctx context.Context, p *headers.Profile) error {
	expires := time.Now().Add(c.ttl).Unix()

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	return retrier.Do(ctx, func() error {
		tx, err := c.db.BeginTxx(ctx, nil)
		if err != nil {
			if isLockError(err) {
				return err // retry
			}
			return &criticalError{err: fmt.Errorf("begin cache save: %w", err)}
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, "DELETE FROM user_headers"); err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("clear cached headers: %w", err)}
		}
		for _, k := range p.Keys() {
			_, err := tx.ExecContext(ctx,
				"INSERT OR REPLACE INTO user_headers (key, value, expires) VALUES (?, ?, ?)",
				k, p.Get(k), expires)
			if err != nil {
				if isLockError(err) {
					return err
				}
				return &criticalError{err: fmt.Errorf("save header %s: %w", k, err)}
			}
		}
		if err := tx.Commit(); err != nil {
			if isLockError(err) {
				return err
			}
			return &criticalError{err: fmt.Errorf("commit cache save: %w", err)}
		}
		return nil
	})
}

// ClearExpired purges entries past their expiry.
func (c *Cache) ClearExpired(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM user_headers WHERE expires < ?", time.Now().Unix()); err != nil {
		return fmt.Errorf("clear expired headers: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *Cache) Close() error { return c.db.Close() }

// criticalError wraps an error to signal repeater to stop retrying
type criticalError struct {
	err error
}

func (e *criticalError) Error() string { return e.err.Error() }

// isLockError checks if an error is a SQLite lock/busy error
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked")
}
