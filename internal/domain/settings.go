package domain

import "time"

// DefaultSendTime is the delivery time given to a user on first contact.
const DefaultSendTime = "08:00"

// UserSettings is the durable per-user digest configuration.
type UserSettings struct {
	UserID    string    `validate:"required"`
	SendTime  string    `validate:"omitempty,sendtime"` // HH:MM local, empty means no trigger
	Location  string    `validate:"region"`
	RainAlert bool
	UVAlert   bool
	CreatedAt time.Time // UTC
	UpdatedAt time.Time // UTC
}

// NewDefaultSettings returns the record created for a user seen for the first time.
func NewDefaultSettings(userID, region string, now time.Time) UserSettings {
	now = now.UTC()
	return UserSettings{
		UserID:    userID,
		SendTime:  DefaultSendTime,
		Location:  region,
		RainAlert: true,
		UVAlert:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Scheduled reports whether the record carries enough to arm a daily trigger.
func (s UserSettings) Scheduled() bool {
	return s.SendTime != "" && s.Location != ""
}

// SettingsUpdate is a partial, multi-field change. Nil fields are left untouched.
// Stores apply the whole update or none of it.
type SettingsUpdate struct {
	SendTime  *string
	Location  *string
	RainAlert *bool
	UVAlert   *bool
}

// Empty reports whether the update changes nothing.
func (u SettingsUpdate) Empty() bool {
	return u.SendTime == nil && u.Location == nil && u.RainAlert == nil && u.UVAlert == nil
}

// Apply returns a copy of s with the update applied.
func (u SettingsUpdate) Apply(s UserSettings) UserSettings {
	if u.SendTime != nil {
		s.SendTime = *u.SendTime
	}
	if u.Location != nil {
		s.Location = *u.Location
	}
	if u.RainAlert != nil {
		s.RainAlert = *u.RainAlert
	}
	if u.UVAlert != nil {
		s.UVAlert = *u.UVAlert
	}
	return s
}
