// Package conversation implements the per-user dialogue that edits digest
// settings: a small state machine over the pending intent of each user.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ykvlv/weather-digest-bot/internal/domain"
	"github.com/ykvlv/weather-digest-bot/internal/observability"
	"github.com/ykvlv/weather-digest-bot/internal/store"
	"github.com/ykvlv/weather-digest-bot/internal/userlock"
)

// Intent is the field the user's next free-text message will update.
type Intent int

const (
	IntentNone Intent = iota
	IntentAwaitingTime
	IntentAwaitingLocation
	IntentAwaitingContent
)

func (i Intent) String() string {
	switch i {
	case IntentAwaitingTime:
		return "awaiting_time"
	case IntentAwaitingLocation:
		return "awaiting_location"
	case IntentAwaitingContent:
		return "awaiting_content"
	default:
		return "none"
	}
}

// Replier answers the inbound message being handled.
type Replier interface {
	Reply(ctx context.Context, text string) error
}

// Choice is a quick answer a transport may render as a button.
type Choice struct {
	Label string
	Value string
}

// ChoiceReplier is implemented by repliers that can attach quick answers.
// Selecting one must come back to Handle as Value.
type ChoiceReplier interface {
	Replier
	ReplyWithChoices(ctx context.Context, text string, choices []Choice) error
}

// Settings is the part of store.Repo the engine uses.
type Settings interface {
	GetSettings(ctx context.Context, userID string) (*domain.UserSettings, error)
	CreateDefault(ctx context.Context, userID string) (*domain.UserSettings, error)
	UpdateFields(ctx context.Context, userID string, upd domain.SettingsUpdate) (*domain.UserSettings, error)
}

// Triggers is the part of scheduler.Scheduler the engine uses.
type Triggers interface {
	Upsert(userID string, hour, minute int) error
	Lookup(userID string) (hour, minute int, ok bool)
}

// Digests sends a digest on request; digest.Service implements it.
type Digests interface {
	SendOnDemand(ctx context.Context, userID string) error
}

// Engine routes each inbound message through the user's pending intent.
// Messages from one user are handled one at a time.
type Engine struct {
	settings Settings
	triggers Triggers
	digests  Digests
	clock    clockwork.Clock
	loc      *time.Location
	log      *zap.Logger
	metrics  *observability.Metrics

	locks userlock.Locks

	mu      sync.RWMutex
	intents map[string]Intent // userID -> pending intent
}

// New creates an Engine. loc is the zone send times are expressed in.
func New(settings Settings, triggers Triggers, digests Digests, clock clockwork.Clock, loc *time.Location, log *zap.Logger, metrics *observability.Metrics) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		settings: settings,
		triggers: triggers,
		digests:  digests,
		clock:    clock,
		loc:      loc,
		log:      log,
		metrics:  metrics,
		intents:  make(map[string]Intent),
	}
}

// Intent returns the user's pending intent.
func (e *Engine) Intent(userID string) Intent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.intents[userID]
}

func (e *Engine) setIntent(userID string, i Intent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i == IntentNone {
		delete(e.intents, userID)
		return
	}
	e.intents[userID] = i
}

// Handle processes one inbound message from userID.
func (e *Engine) Handle(ctx context.Context, userID, text string, reply Replier) {
	text = strings.TrimSpace(text)
	cmd := command(text)
	e.metrics.Messages.WithLabelValues(metricLabel(cmd)).Inc()

	if cmd == CmdCurrentWeather {
		// Delivery can be slow; only first contact runs under the user's lock.
		unlock := e.locks.Lock(userID)
		_, _, err := e.ensureUser(ctx, userID)
		unlock()
		if err != nil {
			e.send(ctx, userID, reply, loadFailedText)
			return
		}
		if err := e.digests.SendOnDemand(ctx, userID); err != nil {
			e.log.Error("on-demand digest failed", zap.String("userID", userID), zap.Error(err))
			e.send(ctx, userID, reply, weatherFailedText)
		}
		return
	}

	unlock := e.locks.Lock(userID)
	defer unlock()

	st, created, err := e.ensureUser(ctx, userID)
	if err != nil {
		e.send(ctx, userID, reply, loadFailedText)
		return
	}

	switch cmd {
	case CmdStart:
		e.setIntent(userID, IntentNone)
		if created {
			e.send(ctx, userID, reply, fmt.Sprintf(welcomeFmt, st.SendTime, st.Location))
		} else {
			e.send(ctx, userID, reply, welcomeBackText)
		}
	case CmdStatus:
		e.setIntent(userID, IntentNone)
		e.send(ctx, userID, reply, e.statusText(userID, st))
	case CmdCancel:
		e.setIntent(userID, IntentNone)
		e.send(ctx, userID, reply, cancelledText)
	case CmdSetTime:
		e.setIntent(userID, IntentAwaitingTime)
		current := st.SendTime
		if current == "" {
			current = notSetText
		}
		e.send(ctx, userID, reply, fmt.Sprintf(askTimeFmt, current))
	case CmdSetLocation:
		e.setIntent(userID, IntentAwaitingLocation)
		e.send(ctx, userID, reply, askLocationText())
	case CmdSetContent:
		e.setIntent(userID, IntentAwaitingContent)
		e.sendChoices(ctx, userID, reply, askContentText, ContentChoices)
	default:
		e.handleText(ctx, userID, text, reply)
	}
}

func (e *Engine) handleText(ctx context.Context, userID, text string, reply Replier) {
	switch e.Intent(userID) {
	case IntentAwaitingTime:
		e.handleTime(ctx, userID, text, reply)
	case IntentAwaitingLocation:
		e.handleLocation(ctx, userID, text, reply)
	case IntentAwaitingContent:
		e.handleContent(ctx, userID, text, reply)
	default:
		// Nothing pending: free text is ignored.
	}
}

func (e *Engine) handleTime(ctx context.Context, userID, text string, reply Replier) {
	sendTime, hour, minute, err := domain.ParseSendTime(text)
	if err != nil {
		e.send(ctx, userID, reply, badTimeText)
		return
	}
	if _, err := e.settings.UpdateFields(ctx, userID, domain.SettingsUpdate{SendTime: &sendTime}); err != nil {
		e.saveFailed(ctx, userID, reply, err)
		return
	}
	e.setIntent(userID, IntentNone)
	if err := e.triggers.Upsert(userID, hour, minute); err != nil {
		e.log.Error("rearm trigger failed", zap.String("userID", userID), zap.Error(err))
		e.send(ctx, userID, reply, scheduleFailText)
		return
	}
	e.log.Info("send time updated", zap.String("userID", userID), zap.String("sendTime", sendTime))
	e.send(ctx, userID, reply, fmt.Sprintf(timeSavedFmt, sendTime))
}

func (e *Engine) handleLocation(ctx context.Context, userID, text string, reply Replier) {
	region, err := domain.ParseRegion(text)
	if err != nil {
		e.send(ctx, userID, reply, badLocationText(text))
		return
	}
	if _, err := e.settings.UpdateFields(ctx, userID, domain.SettingsUpdate{Location: &region}); err != nil {
		e.saveFailed(ctx, userID, reply, err)
		return
	}
	e.setIntent(userID, IntentNone)
	e.log.Info("location updated", zap.String("userID", userID), zap.String("location", region))
	e.send(ctx, userID, reply, fmt.Sprintf(locationSavedFmt, region))
}

func (e *Engine) handleContent(ctx context.Context, userID, text string, reply Replier) {
	rain, uv, err := domain.ParseContentChoice(text)
	if err != nil {
		e.sendChoices(ctx, userID, reply, badContentText, ContentChoices)
		return
	}
	upd := domain.SettingsUpdate{RainAlert: &rain, UVAlert: &uv}
	if _, err := e.settings.UpdateFields(ctx, userID, upd); err != nil {
		e.saveFailed(ctx, userID, reply, err)
		return
	}
	e.setIntent(userID, IntentNone)
	e.log.Info("content updated", zap.String("userID", userID), zap.Bool("rain", rain), zap.Bool("uv", uv))
	e.send(ctx, userID, reply, fmt.Sprintf(contentSavedFmt, contentLabel(rain, uv)))
}

// ensureUser loads the user's settings, creating the default record and its
// trigger on first contact.
func (e *Engine) ensureUser(ctx context.Context, userID string) (*domain.UserSettings, bool, error) {
	st, err := e.settings.GetSettings(ctx, userID)
	if err == nil {
		return st, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		e.log.Error("GetSettings failed", zap.String("userID", userID), zap.Error(err))
		return nil, false, err
	}

	st, err = e.settings.CreateDefault(ctx, userID)
	if err != nil {
		e.log.Error("CreateDefault failed", zap.String("userID", userID), zap.Error(err))
		return nil, false, err
	}
	e.log.Info("new user", zap.String("userID", userID), zap.String("location", st.Location))

	if st.Scheduled() {
		hour, minute, err := domain.SplitSendTime(st.SendTime)
		if err == nil {
			err = e.triggers.Upsert(userID, hour, minute)
		}
		if err != nil {
			e.log.Error("arm default trigger failed", zap.String("userID", userID), zap.Error(err))
		}
	}
	return st, true, nil
}

func (e *Engine) statusText(userID string, st *domain.UserSettings) string {
	sendTime := st.SendTime
	if sendTime == "" {
		sendTime = notSetText
	}
	next := notArmedText
	if hour, minute, ok := e.triggers.Lookup(userID); ok {
		next = domain.NextDaily(e.clock.Now().In(e.loc), hour, minute).Format("2006-01-02 15:04 MST")
	}
	return fmt.Sprintf(statusFmt, sendTime, st.Location, onOff(st.RainAlert), onOff(st.UVAlert), next)
}

func (e *Engine) saveFailed(ctx context.Context, userID string, reply Replier, err error) {
	e.log.Error("UpdateFields failed",
		zap.String("userID", userID), zap.Stringer("intent", e.Intent(userID)), zap.Error(err))
	e.send(ctx, userID, reply, saveFailedText)
}

func (e *Engine) send(ctx context.Context, userID string, reply Replier, text string) {
	if err := reply.Reply(ctx, text); err != nil {
		e.log.Warn("reply failed", zap.String("userID", userID), zap.Error(err))
	}
}

func (e *Engine) sendChoices(ctx context.Context, userID string, reply Replier, text string, choices []Choice) {
	cr, ok := reply.(ChoiceReplier)
	if !ok {
		e.send(ctx, userID, reply, text)
		return
	}
	if err := cr.ReplyWithChoices(ctx, text, choices); err != nil {
		e.log.Warn("reply failed", zap.String("userID", userID), zap.Error(err))
	}
}

// command returns the command word of text ("/setTime@my_bot x" -> "/setTime"),
// or "" when text is not a command.
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	word := strings.Fields(text)[0]
	if i := strings.IndexByte(word, '@'); i > 0 {
		word = word[:i]
	}
	return word
}

func metricLabel(cmd string) string {
	switch cmd {
	case CmdStart:
		return "start"
	case CmdStatus:
		return "status"
	case CmdCancel:
		return "cancel"
	case CmdSetTime:
		return "set_time"
	case CmdSetLocation:
		return "set_location"
	case CmdSetContent:
		return "set_content"
	case CmdCurrentWeather:
		return "current_weather"
	default:
		return "text"
	}
}
