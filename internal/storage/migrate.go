package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
)

// RunMigrations executes the .sql files at the root of the filesystem in
// lexical order, skipping empty ones. Each file must be idempotent (CREATE
// TABLE IF NOT EXISTS and friends); there is no version bookkeeping.
func RunMigrations(ctx context.Context, db *sql.DB, migrations fs.FS) error {
	files, err := fs.Glob(migrations, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		stmt, err := fs.ReadFile(migrations, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if len(stmt) == 0 {
			continue
		}
		if _, err := db.ExecContext(ctx, string(stmt)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}
	return nil
}
