package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/slotbook-api/migrations"
)

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    name TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// MigrateCmd applies the embedded schema scripts.
type MigrateCmd struct {
	DryRun bool `help:"List pending scripts without applying them."`
}

func (c *MigrateCmd) Run(ctx *Context) error {
	db, err := ctx.DB()
	if err != nil {
		return err
	}
	scripts, err := migrations.All()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	applied, err := applyMigrations(ctx.Ctx, db, scripts, ctx.Out, c.DryRun)
	if err != nil {
		return err
	}
	ctx.Logger.Info("migrations finished", zap.Int("applied", applied), zap.Bool("dry_run", c.DryRun))
	return nil
}

// applyMigrations runs every script not yet recorded in schema_migrations. Each script
// and its record share one transaction.
func applyMigrations(ctx context.Context, db *sqlx.DB, scripts []migrations.Script, out io.Writer, dryRun bool) (int, error) {
	if _, err := db.ExecContext(ctx, migrationsTable); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}
	var names []string
	if err := db.SelectContext(ctx, &names, `SELECT name FROM schema_migrations`); err != nil {
		return 0, fmt.Errorf("list applied migrations: %w", err)
	}
	done := make(map[string]bool, len(names))
	for _, name := range names {
		done[name] = true
	}

	applied := 0
	for _, script := range scripts {
		if done[script.Name] {
			continue
		}
		if dryRun {
			fmt.Fprintf(out, "pending  %s\n", script.Name)
			continue
		}
		if err := applyScript(ctx, db, script); err != nil {
			return applied, err
		}
		applied++
		fmt.Fprintf(out, "applied  %s\n", script.Name)
	}
	if applied == 0 && !dryRun {
		fmt.Fprintln(out, "schema is up to date")
	}
	return applied, nil
}

func applyScript(ctx context.Context, db *sqlx.DB, script migrations.Script) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", script.Name, err)
	}
	if _, err := tx.ExecContext(ctx, script.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply %s: %w", script.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, script.Name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record %s: %w", script.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", script.Name, err)
	}
	return nil
}
