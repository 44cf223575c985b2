package store

import (
	"database/sql"
	"time"

	"github.com/ykvlv/weather-digest-bot/internal/domain"
)

// rowScanner is satisfied by *sql.Row, *sql.Rows and pgx rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const settingsColumns = `user_id, send_time, location, rain_alert, uv_alert, created_at, updated_at`

func scanSettings(row rowScanner) (*domain.UserSettings, error) {
	var (
		userID    string
		sendTime  sql.NullString
		location  string
		rainInt   int64
		uvInt     int64
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&userID, &sendTime, &location, &rainInt, &uvInt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return &domain.UserSettings{
		UserID:    userID,
		SendTime:  fromNullString(sendTime),
		Location:  location,
		RainAlert: rainInt != 0,
		UVAlert:   uvInt != 0,
		CreatedAt: time.Unix(createdAt, 0).UTC(),
		UpdatedAt: time.Unix(updatedAt, 0).UTC(),
	}, nil
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func fromNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

// boolToInt converts a boolean to 1/0 for integer flag columns.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
