// Package digest builds and delivers a user's weather digest.
package digest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ykvlv/weather-digest-bot/internal/domain"
	"github.com/ykvlv/weather-digest-bot/internal/observability"
)

// Source labels why a digest was sent.
type Source string

const (
	SourceScheduled Source = "scheduled"
	SourceOnDemand  Source = "on_demand"
)

// Pusher sends an unsolicited message to a user.
// telegram.Router implements this (method: Push).
type Pusher interface {
	Push(ctx context.Context, userID, text string) error
}

// Summarizer composes the digest text; weather.Gateway implements it.
type Summarizer interface {
	Summary(ctx context.Context, location string, rainAlert, uvAlert bool) string
}

// SettingsReader is the part of store.Repo the service needs.
type SettingsReader interface {
	GetSettings(ctx context.Context, userID string) (*domain.UserSettings, error)
}

// Service reads settings fresh on every send, so changes made after a
// trigger was armed are honoured.
type Service struct {
	settings SettingsReader
	weather  Summarizer
	push     Pusher
	log      *zap.Logger
	metrics  *observability.Metrics
}

func NewService(settings SettingsReader, weather Summarizer, push Pusher, log *zap.Logger, metrics *observability.Metrics) *Service {
	return &Service{settings: settings, weather: weather, push: push, log: log, metrics: metrics}
}

// SendDigest delivers the scheduled digest. It satisfies scheduler.Sender.
func (s *Service) SendDigest(ctx context.Context, userID string) error {
	return s.send(ctx, userID, SourceScheduled)
}

// SendOnDemand delivers a digest requested from the chat.
func (s *Service) SendOnDemand(ctx context.Context, userID string) error {
	return s.send(ctx, userID, SourceOnDemand)
}

func (s *Service) send(ctx context.Context, userID string, source Source) (err error) {
	defer func() {
		outcome := "sent"
		if err != nil {
			outcome = "error"
		}
		s.metrics.Digests.WithLabelValues(string(source), outcome).Inc()
	}()

	st, err := s.settings.GetSettings(ctx, userID)
	if err != nil {
		return fmt.Errorf("load settings for %s: %w", userID, err)
	}

	text := s.weather.Summary(ctx, st.Location, st.RainAlert, st.UVAlert)
	if err := s.push.Push(ctx, userID, text); err != nil {
		return fmt.Errorf("push digest to %s: %w", userID, err)
	}
	s.log.Debug("digest pushed",
		zap.String("userID", userID),
		zap.String("source", string(source)),
		zap.String("location", st.Location))
	return nil
}
