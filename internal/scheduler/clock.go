package scheduler

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ykvlv/weather-digest-bot/internal/domain"
)

// ClockTimers arms one clockwork AfterFunc per user and re-arms it after each
// fire. With a fake clock, tests drive triggers by advancing time.
type ClockTimers struct {
	clock clockwork.Clock
	loc   *time.Location
}

// NewClockTimers creates timers that interpret hour:minute in loc.
func NewClockTimers(clock clockwork.Clock, loc *time.Location) *ClockTimers {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	return &ClockTimers{clock: clock, loc: loc}
}

func (c *ClockTimers) Arm(_ string, hour, minute int, fire func()) (Handle, error) {
	h := &clockHandle{owner: c, hour: hour, minute: minute, fire: fire}
	h.mu.Lock()
	h.arm()
	h.mu.Unlock()
	return h, nil
}

// Start is a no-op: timers run as soon as they are armed.
func (c *ClockTimers) Start() {}

// Stop is a no-op: handles are stopped individually by the scheduler.
func (c *ClockTimers) Stop() {}

type clockHandle struct {
	owner        *ClockTimers
	hour, minute int
	fire         func()

	mu      sync.Mutex
	timer   clockwork.Timer
	stopped bool
}

// arm must be called with h.mu held.
func (h *clockHandle) arm() {
	wait := domain.UntilNextDaily(h.owner.clock.Now().In(h.owner.loc), h.hour, h.minute)
	h.timer = h.owner.clock.AfterFunc(wait, h.run)
}

func (h *clockHandle) run() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.arm()
	h.mu.Unlock()

	h.fire()
}

func (h *clockHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	if h.timer != nil {
		h.timer.Stop()
	}
}
