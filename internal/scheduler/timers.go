package scheduler

// Handle cancels one armed daily timer. Stop is safe to call more than once.
type Handle interface {
	Stop()
}

// Timers arms recurring daily callbacks. Implementations call fire from
// their own goroutines, every day at hour:minute in their configured zone.
type Timers interface {
	Arm(userID string, hour, minute int, fire func()) (Handle, error)
	Start()
	Stop()
}
