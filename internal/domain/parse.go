package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidSendTime = errors.New("invalid send time")
	ErrInvalidChoice   = errors.New("invalid content choice")
)

// sendTimeRe accepts 00:00..23:59 with exactly two digits on each side.
var sendTimeRe = regexp.MustCompile(`^(?:[01]\d|2[0-3]):[0-5]\d$`)

// NormalizeSendTime trims s and replaces full-width colons with ASCII ones.
func NormalizeSendTime(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "：", ":")
}

// ValidSendTime reports whether s is a well-formed HH:MM (24h) value.
func ValidSendTime(s string) bool {
	return sendTimeRe.MatchString(s)
}

// ParseSendTime normalizes and validates a user-entered time, returning the
// canonical HH:MM string plus its hour and minute.
func ParseSendTime(s string) (string, int, int, error) {
	s = NormalizeSendTime(s)
	if !ValidSendTime(s) {
		return "", 0, 0, fmt.Errorf("%w: %q", ErrInvalidSendTime, s)
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	return s, h, m, nil
}

// SplitSendTime returns hour and minute of an already stored HH:MM value.
func SplitSendTime(s string) (hour, minute int, err error) {
	_, hour, minute, err = ParseSendTime(s)
	return hour, minute, err
}

// FormatSendTime renders hour and minute as HH:MM.
func FormatSendTime(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// ParseContentChoice maps the content menu answer to alert flags:
// "1" rain only, "2" UV only, "3" both.
func ParseContentChoice(s string) (rain, uv bool, err error) {
	switch strings.TrimSpace(s) {
	case "1":
		return true, false, nil
	case "2":
		return false, true, nil
	case "3":
		return true, true, nil
	default:
		return false, false, fmt.Errorf("%w: %q", ErrInvalidChoice, s)
	}
}
