package store

import (
	"context"
	"errors"

	"github.com/ykvlv/weather-digest-bot/internal/domain"
)

// ErrNotFound is returned when no settings record exists for a user.
var ErrNotFound = errors.New("settings not found")

// Repo defines durable storage for per-user digest settings.
type Repo interface {
	// GetSettings returns the user's record or ErrNotFound.
	GetSettings(ctx context.Context, userID string) (*domain.UserSettings, error)
	// CreateDefault inserts the first-contact record for userID. If a record
	// already exists it is returned unchanged.
	CreateDefault(ctx context.Context, userID string) (*domain.UserSettings, error)
	// UpdateFields applies upd atomically and returns the resulting record.
	// The stored record is left untouched when the result fails validation.
	UpdateFields(ctx context.Context, userID string, upd domain.SettingsUpdate) (*domain.UserSettings, error)
	// ListAll returns every stored record ordered by user id.
	ListAll(ctx context.Context) ([]domain.UserSettings, error)
	Ping(ctx context.Context) error
	Close() error
}
