package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationTarget is the driver-specific half of the runner. apply must run
// the file and record its name in one transaction.
type migrationTarget interface {
	prepare(ctx context.Context) error
	applied(ctx context.Context, name string) (bool, error)
	apply(ctx context.Context, name, stmt string, at time.Time) error
}

// RunMigrations applies the embedded SQL files to a database/sql handle.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := applyMigrations(ctx, sqlTarget{db: db}, time.Now)
	return err
}

// RunPostgresMigrations applies the same files through a pgx pool.
func RunPostgresMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := applyMigrations(ctx, pgTarget{pool: pool}, time.Now)
	return err
}

// applyMigrations runs files from the migrations folder in alphabetical
// order. Applied file names are recorded in schema_migrations so each file
// runs once. It returns the names applied by this call.
func applyMigrations(ctx context.Context, t migrationTarget, now func() time.Time) ([]string, error) {
	if err := t.prepare(ctx); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	// ensure deterministic order: 001_..., 002_..., etc.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var done []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := t.applied(ctx, e.Name())
		if err != nil {
			return done, err
		}
		if ok {
			continue
		}

		sqlBytes, err := fs.ReadFile(migrationsFS, "migrations/"+e.Name())
		if err != nil {
			return done, err
		}
		if err := t.apply(ctx, e.Name(), string(sqlBytes), now().UTC()); err != nil {
			return done, fmt.Errorf("%s: %w", e.Name(), err)
		}
		done = append(done, e.Name())
	}
	return done, nil
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at BIGINT NOT NULL
	)`

type sqlTarget struct{ db *sql.DB }

func (s sqlTarget) prepare(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, createMigrationsTable)
	return err
}

func (s sqlTarget) applied(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, name,
	).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s sqlTarget) apply(ctx context.Context, name, stmt string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`, name, at.Unix(),
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type pgTarget struct{ pool *pgxpool.Pool }

func (p pgTarget) prepare(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, createMigrationsTable)
	return err
}

func (p pgTarget) applied(ctx context.Context, name string) (bool, error) {
	var n int
	if err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM schema_migrations WHERE name = $1`, name,
	).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p pgTarget) apply(ctx context.Context, name, stmt string, at time.Time) error {
	// Files may hold several statements; pgx sends argument-free Exec calls
	// over the simple protocol, which accepts that.
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (name, applied_at) VALUES ($1, $2)`, name, at.Unix())
		return err
	})
}
