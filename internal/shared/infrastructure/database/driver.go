package database

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Driver names a supported database backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string {
	return string(d)
}

// IsValid reports whether d is a supported backend.
func (d Driver) IsValid() bool {
	return d == DriverPostgres || d == DriverSQLite
}

// Placeholder returns the bind marker for the n-th (1-based) argument.
func (d Driver) Placeholder(n int) string {
	if d == DriverPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// DetectDriver picks a backend from a connection string. An empty string
// selects SQLite so a bare checkout runs without a server.
func DetectDriver(url string) Driver {
	lower := strings.ToLower(strings.TrimSpace(url))
	switch {
	case lower == "":
		return DriverSQLite
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(lower, "sqlite:"), strings.HasPrefix(lower, "file:"):
		return DriverSQLite
	}

	switch filepath.Ext(lower) {
	case ".db", ".sqlite", ".sqlite3":
		return DriverSQLite
	}
	// key=value DSNs and anything else go to PostgreSQL
	return DriverPostgres
}

// SQLitePath turns a sqlite: URL into the file path the driver opens.
// "sqlite:///var/lib/todolist.db" gives "/var/lib/todolist.db"; other
// values, file: DSNs included, are returned unchanged.
func SQLitePath(url string) string {
	if rest, ok := strings.CutPrefix(url, "sqlite://"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(url, "sqlite:"); ok {
		return rest
	}
	return url
}
