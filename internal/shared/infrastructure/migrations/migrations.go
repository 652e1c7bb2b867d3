// Package migrations applies the embedded schema for the selected driver.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationsFS embed.FS

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TEXT NOT NULL
)`

// Files lists the .up.sql migrations for driver in the order they apply.
func Files(driver database.Driver) ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, driver.String())
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations for %s: %w", driver, err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run applies every migration not yet recorded in schema_migrations, each in
// its own transaction, and returns the versions it applied.
func Run(ctx context.Context, conn database.Connection) ([]string, error) {
	driver := conn.Driver()

	files, err := Files(driver)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var applied []string
	for _, file := range files {
		version := strings.TrimSuffix(file, ".up.sql")

		done, err := isApplied(ctx, conn, version)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}

		body, err := migrationsFS.ReadFile(driver.String() + "/" + file)
		if err != nil {
			return applied, fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		if err := apply(ctx, conn, version, string(body)); err != nil {
			return applied, fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
		applied = append(applied, version)
	}

	return applied, nil
}

func isApplied(ctx context.Context, conn database.Connection, version string) (bool, error) {
	query := "SELECT COUNT(*) FROM schema_migrations WHERE version = " + conn.Driver().Placeholder(1)
	var count int
	if err := conn.QueryRow(ctx, query, version).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check migration %s: %w", version, err)
	}
	return count > 0, nil
}

func apply(ctx context.Context, conn database.Connection, version, body string) error {
	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range splitStatements(body) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	driver := conn.Driver()
	insert := fmt.Sprintf("INSERT INTO schema_migrations (version, applied_at) VALUES (%s, %s)",
		driver.Placeholder(1), driver.Placeholder(2))
	if _, err := tx.Exec(ctx, insert, version, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// splitStatements breaks a migration file on semicolons at line ends. The
// schema files contain no procedural bodies, so this is sufficient.
func splitStatements(body string) []string {
	var stmts []string
	for _, part := range strings.Split(body, ";\n") {
		stmt := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(part), ";"))
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
