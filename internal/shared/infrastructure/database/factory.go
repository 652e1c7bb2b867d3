package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config selects and configures a backend.
type Config struct {
	// Driver is detected from URL when empty or "auto".
	Driver Driver

	// URL is the PostgreSQL connection string. With the SQLite driver a
	// sqlite: URL here stands in for SQLitePath.
	URL string

	// SQLitePath is a file path or ":memory:". Defaults to
	// ~/.todolist/data.db.
	SQLitePath string

	// MaxConns caps the PostgreSQL pool.
	MaxConns int
}

// resolve fills in the driver and, for SQLite, the file path.
func (c Config) resolve() Config {
	if c.Driver == "" || c.Driver == "auto" {
		c.Driver = DetectDriver(c.URL)
	}
	if c.Driver == DriverSQLite && c.SQLitePath == "" {
		if c.URL != "" {
			c.SQLitePath = SQLitePath(c.URL)
		} else {
			c.SQLitePath = DefaultSQLitePath()
		}
	}
	return c
}

// Driver packages register their constructors from init; import
// database/postgres or database/sqlite for side effects to enable one.
var openers = map[Driver]func(ctx context.Context, cfg Config) (Connection, error){}

// RegisterPostgresDriver registers the PostgreSQL connection factory.
func RegisterPostgresDriver(fn func(ctx context.Context, cfg Config) (Connection, error)) {
	openers[DriverPostgres] = fn
}

// RegisterSQLiteDriver registers the SQLite connection factory.
func RegisterSQLiteDriver(fn func(ctx context.Context, cfg Config) (Connection, error)) {
	openers[DriverSQLite] = fn
}

// NewConnection opens a connection for cfg's backend.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	cfg = cfg.resolve()
	if !cfg.Driver.IsValid() {
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	open, ok := openers[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("%s driver not registered", cfg.Driver)
	}
	return open(ctx, cfg)
}

// DefaultSQLitePath returns ~/.todolist/data.db, or ./.todolist/data.db
// when the home directory is unknown.
func DefaultSQLitePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".todolist", "data.db")
}

// IsInMemorySQLite reports whether path names a transient in-memory database.
func IsInMemorySQLite(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// EnsureDirectory creates the parent directory of path.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
