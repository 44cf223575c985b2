package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ykvlv/weather-digest-bot/internal/domain"
	"github.com/ykvlv/weather-digest-bot/internal/observability"
	"github.com/ykvlv/weather-digest-bot/internal/userlock"
)

// ErrInvalidTime is returned for an hour or minute outside the clock face.
var ErrInvalidTime = errors.New("invalid trigger time")

// Sender delivers the daily digest for a user.
// digest.Service implements this (method: SendDigest).
type Sender interface {
	SendDigest(ctx context.Context, userID string) error
}

// Lister enumerates persisted settings; store.Repo satisfies it.
type Lister interface {
	ListAll(ctx context.Context) ([]domain.UserSettings, error)
}

type trigger struct {
	hour, minute int
	id           uuid.UUID
	handle       Handle
}

// Scheduler keeps at most one daily trigger per user. Upsert, Cancel and
// firing for the same user are mutually exclusive; different users never
// wait on each other.
type Scheduler struct {
	timers      Timers
	sender      Sender
	log         *zap.Logger
	metrics     *observability.Metrics
	fireTimeout time.Duration

	locks userlock.Locks

	mu       sync.Mutex // guards triggers map access only
	triggers map[string]*trigger
}

// New creates a Scheduler on top of the given timer backend.
func New(timers Timers, sender Sender, log *zap.Logger, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		timers:      timers,
		sender:      sender,
		log:         log,
		metrics:     metrics,
		fireTimeout: 2 * time.Minute,
		triggers:    make(map[string]*trigger),
	}
}

// Start lets the timer backend begin firing.
func (s *Scheduler) Start() { s.timers.Start() }

// Stop halts the timer backend. Armed triggers are not persisted here;
// Seed rebuilds them from the store on the next start.
func (s *Scheduler) Stop() { s.timers.Stop() }

// Upsert replaces the user's trigger with one firing daily at hour:minute.
// Once it returns, the previous trigger can no longer deliver. If arming
// fails the previous trigger is kept.
func (s *Scheduler) Upsert(userID string, hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("%w: %d:%d", ErrInvalidTime, hour, minute)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	// Arm before stopping the old handle so a failed Arm leaves the old
	// trigger in place. A callback the old timer has already started is
	// dropped by the generation check in fire, which also takes this lock.
	id := uuid.New()
	h, err := s.timers.Arm(userID, hour, minute, func() { s.fire(userID, id) })
	if err != nil {
		return fmt.Errorf("arm trigger for %s: %w", userID, err)
	}

	s.mu.Lock()
	old := s.triggers[userID]
	s.triggers[userID] = &trigger{hour: hour, minute: minute, id: id, handle: h}
	n := len(s.triggers)
	s.mu.Unlock()

	if old != nil {
		old.handle.Stop()
	}
	s.metrics.TriggersActive.Set(float64(n))
	s.log.Debug("trigger armed",
		zap.String("userID", userID),
		zap.String("at", domain.FormatSendTime(hour, minute)),
		zap.Bool("replaced", old != nil))
	return nil
}

// Cancel removes the user's trigger. It is a no-op when none exists.
func (s *Scheduler) Cancel(userID string) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	s.mu.Lock()
	old, ok := s.triggers[userID]
	delete(s.triggers, userID)
	n := len(s.triggers)
	s.mu.Unlock()

	if !ok {
		return
	}
	old.handle.Stop()
	s.metrics.TriggersActive.Set(float64(n))
	s.log.Debug("trigger cancelled", zap.String("userID", userID))
}

// Seed arms a trigger for every stored record that has both a send time and
// a location. Bad records are logged and skipped. It returns how many
// triggers were armed.
func (s *Scheduler) Seed(ctx context.Context, lister Lister) (int, error) {
	all, err := lister.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list settings: %w", err)
	}
	armed := 0
	for _, st := range all {
		if !st.Scheduled() {
			continue
		}
		hour, minute, err := domain.SplitSendTime(st.SendTime)
		if err != nil {
			s.log.Warn("skipping stored send time", zap.String("userID", st.UserID), zap.Error(err))
			continue
		}
		if err := s.Upsert(st.UserID, hour, minute); err != nil {
			s.log.Warn("seeding trigger failed", zap.String("userID", st.UserID), zap.Error(err))
			continue
		}
		armed++
	}
	return armed, nil
}

// Lookup reports the time of the user's trigger, if any.
func (s *Scheduler) Lookup(userID string) (hour, minute int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.triggers[userID]
	if !ok {
		return 0, 0, false
	}
	return t.hour, t.minute, true
}

// Len returns the number of armed triggers.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.triggers)
}

// fire runs on the timer backend's goroutine. A callback whose generation
// was replaced or cancelled is dropped.
func (s *Scheduler) fire(userID string, id uuid.UUID) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	s.mu.Lock()
	cur, ok := s.triggers[userID]
	s.mu.Unlock()
	if !ok || cur.id != id {
		s.metrics.TriggerFires.WithLabelValues("stale").Inc()
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.metrics.TriggerFires.WithLabelValues("panic").Inc()
			s.log.Error("digest delivery panicked", zap.String("userID", userID), zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.fireTimeout)
	defer cancel()

	if err := s.sender.SendDigest(ctx, userID); err != nil {
		s.metrics.TriggerFires.WithLabelValues("error").Inc()
		s.log.Error("scheduled digest failed", zap.String("userID", userID), zap.Error(err))
		return
	}
	s.metrics.TriggerFires.WithLabelValues("delivered").Inc()
	s.log.Info("scheduled digest sent", zap.String("userID", userID))
}
