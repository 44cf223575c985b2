package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ykvlv/weather-digest-bot/internal/domain"
)

// PostgresRepo implements Repo on top of a pgx connection pool.
type PostgresRepo struct {
	pool          *pgxpool.Pool
	defaultRegion string
	now           func() time.Time
}

// OpenPostgres connects to dsn and applies the embedded migrations.
func OpenPostgres(ctx context.Context, dsn, defaultRegion string) (*PostgresRepo, error) {
	if !domain.IsRegion(defaultRegion) {
		return nil, fmt.Errorf("%w: default region %q", domain.ErrUnknownRegion, defaultRegion)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return &PostgresRepo{pool: pool, defaultRegion: defaultRegion, now: time.Now}, nil
}

func (p *PostgresRepo) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresRepo) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresRepo) GetSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	s, err := scanSettings(p.pool.QueryRow(ctx,
		`SELECT `+settingsColumns+` FROM settings WHERE user_id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

func (p *PostgresRepo) CreateDefault(ctx context.Context, userID string) (*domain.UserSettings, error) {
	s := domain.NewDefaultSettings(userID, p.defaultRegion, p.now())
	if err := s.Validate(); err != nil {
		return nil, err
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO settings (`+settingsColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO NOTHING`,
		s.UserID, toNullString(s.SendTime), s.Location,
		boolToInt(s.RainAlert), boolToInt(s.UVAlert),
		s.CreatedAt.Unix(), s.UpdatedAt.Unix(),
	)
	if err != nil {
		return nil, err
	}
	return p.GetSettings(ctx, userID)
}

// UpdateFields locks the row with SELECT ... FOR UPDATE, applies upd and
// writes it back in the same transaction.
func (p *PostgresRepo) UpdateFields(ctx context.Context, userID string, upd domain.SettingsUpdate) (*domain.UserSettings, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := scanSettings(tx.QueryRow(ctx,
		`SELECT `+settingsColumns+` FROM settings WHERE user_id = $1 FOR UPDATE`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	next := upd.Apply(*cur)
	next.UpdatedAt = p.now().UTC()
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("update %s: %w", userID, err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE settings
		SET send_time = $1, location = $2, rain_alert = $3, uv_alert = $4, updated_at = $5
		WHERE user_id = $6`,
		toNullString(next.SendTime), next.Location,
		boolToInt(next.RainAlert), boolToInt(next.UVAlert),
		next.UpdatedAt.Unix(), userID,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &next, nil
}

func (p *PostgresRepo) ListAll(ctx context.Context) ([]domain.UserSettings, error) {
	rows, err := p.pool.Query(ctx,
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
	return res, rows.Err()
}

// --- Compile-time assertions ---
var _ Repo = (*PostgresRepo)(nil)
