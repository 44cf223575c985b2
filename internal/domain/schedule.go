package domain

import "time"

// NextDaily returns the first moment strictly after now at which the wall
// clock in now's location reads hour:minute. If that minute is skipped by a
// DST transition, time.Date normalization moves it forward.
func NextDaily(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}
	return next
}

// UntilNextDaily is the wait from now until NextDaily.
func UntilNextDaily(now time.Time, hour, minute int) time.Duration {
	return NextDaily(now, hour, minute).Sub(now)
}

// LocalizeTime formats t in loc as HH:MM.
func LocalizeTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("15:04")
}
