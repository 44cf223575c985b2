package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/ykvlv/weather-digest-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct {
	db            *sql.DB
	defaultRegion string
	now           func() time.Time
}

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
// defaultRegion is the location given to records created by CreateDefault.
func OpenSQLite(ctx context.Context, path, defaultRegion string) (*SQLiteRepo, error) {
	if !domain.IsRegion(defaultRegion) {
		return nil, fmt.Errorf("%w: default region %q", domain.ErrUnknownRegion, defaultRegion)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db, defaultRegion: defaultRegion, now: time.Now}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// Ping checks that the database is reachable.
func (r *SQLiteRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetSettings returns a user's settings by id or ErrNotFound.
func (r *SQLiteRepo) GetSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+settingsColumns+` FROM settings WHERE user_id = ?`, userID)
	s, err := scanSettings(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// CreateDefault inserts the default record unless one already exists and
// returns whatever is stored afterwards.
func (r *SQLiteRepo) CreateDefault(ctx context.Context, userID string) (*domain.UserSettings, error) {
	s := domain.NewDefaultSettings(userID, r.defaultRegion, r.now())
	if err := s.Validate(); err != nil {
		return nil, err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (`+settingsColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING`,
		s.UserID, toNullString(s.SendTime), s.Location,
		boolToInt(s.RainAlert), boolToInt(s.UVAlert),
		s.CreatedAt.Unix(), s.UpdatedAt.Unix(),
	)
	if err != nil {
		return nil, err
	}
	return r.GetSettings(ctx, userID)
}

// UpdateFields reads, patches, validates and writes the record inside one
// transaction, so either every field in upd is stored or none is.
func (r *SQLiteRepo) UpdateFields(ctx context.Context, userID string, upd domain.SettingsUpdate) (*domain.UserSettings, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := scanSettings(tx.QueryRowContext(ctx,
		`SELECT `+settingsColumns+` FROM settings WHERE user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	next := upd.Apply(*cur)
	next.UpdatedAt = r.now().UTC()
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("update %s: %w", userID, err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE settings
		SET send_time = ?, location = ?, rain_alert = ?, uv_alert = ?, updated_at = ?
		WHERE user_id = ?`,
		toNullString(next.SendTime), next.Location,
		boolToInt(next.RainAlert), boolToInt(next.UVAlert),
		next.UpdatedAt.Unix(), userID,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &next, nil
}

// ListAll returns every stored record ordered by user id.
func (r *SQLiteRepo) ListAll(ctx context.Context) ([]domain.UserSettings, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+settingsColumns+` FROM settings ORDER BY user_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.UserSettings
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

var _ Repo = (*SQLiteRepo)(nil)
