package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ApplyMigrations runs every *.up.sql migration in name order.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), "up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := execMigration(ctx, db, name); err != nil {
			return err
		}
	}
	return nil
}

// ApplyMigration runs the single migration file whose name ends with
// migrationName + ".sql", e.g. "world_state.down".
func ApplyMigration(ctx context.Context, db *sql.DB, migrationName string) error {
	regex, err := regexp.Compile(fmt.Sprintf(`^.*%s\.sql$`, regexp.QuoteMeta(migrationName)))
	if err != nil {
		return fmt.Errorf("invalid migration name: %w", err)
	}

	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && regex.MatchString(entry.Name()) {
			return execMigration(ctx, db, entry.Name())
		}
	}
	return fmt.Errorf("migration file not found")
}

func execMigration(ctx context.Context, db *sql.DB, name string) error {
	content, err := migrations.ReadFile("migrations/" + name)
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", name, err)
	}
	if _, err := db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", name, err)
	}
	return nil
}
