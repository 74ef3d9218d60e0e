package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"
)

//go:embed scripts/initdb.sql
var bootstrapFS embed.FS

const schemaVersion = 1

// EnsureBootstrapped applies the idempotent schema script and records the
// schema version once.
func EnsureBootstrapped(ctx context.Context, db *sql.DB, d dialect) error {
	ctxBoot, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	if err := runBootstrap(ctxBoot, db); err != nil {
		return err
	}

	var n int
	if err := db.QueryRowContext(ctxBoot, d.rebind(`SELECT COUNT(*) FROM paperlens_meta WHERE version = ?`), schemaVersion).Scan(&n); err != nil {
		return fmt.Errorf("meta version check failed: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.ExecContext(ctxBoot, d.rebind(`INSERT INTO paperlens_meta (version) VALUES (?)`), schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

func runBootstrap(ctx context.Context, db *sql.DB) error {
	sqlBytes, err := bootstrapFS.ReadFile("scripts/initdb.sql")
	if err != nil {
		return fmt.Errorf("read initdb.sql: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec bootstrap: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap: %w", err)
	}
	return nil
}
