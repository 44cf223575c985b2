package scheduler

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/ykvlv/weather-digest-bot/internal/domain"
)

// GocronTimers backs triggers with one gocron daily job per user.
type GocronTimers struct {
	mu sync.Mutex // the gocron job builder is not safe for concurrent use
	s  *gocron.Scheduler
}

// NewGocronTimers creates timers that interpret hour:minute in loc.
func NewGocronTimers(loc *time.Location) *GocronTimers {
	if loc == nil {
		loc = time.Local
	}
	return &GocronTimers{s: gocron.NewScheduler(loc)}
}

func (g *GocronTimers) Arm(userID string, hour, minute int, fire func()) (Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	job, err := g.s.Every(1).Day().At(domain.FormatSendTime(hour, minute)).Tag(userID).Do(fire)
	if err != nil {
		return nil, err
	}
	return &gocronHandle{timers: g, job: job}, nil
}

func (g *GocronTimers) Start() { g.s.StartAsync() }

func (g *GocronTimers) Stop() { g.s.Stop() }

type gocronHandle struct {
	timers *GocronTimers
	once   sync.Once
	job    *gocron.Job
}

func (h *gocronHandle) Stop() {
	h.once.Do(func() {
		h.timers.mu.Lock()
		defer h.timers.mu.Unlock()
		h.timers.s.RemoveByReference(h.job)
	})
}
