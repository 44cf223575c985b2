package weather

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ykvlv/weather-digest-bot/internal/observability"
)

// RainThreshold is the precipitation probability (percent) that must be
// exceeded for a forecast point to count as rain risk.
const RainThreshold = 50

const (
	MsgForecastUnavailable = "Unable to fetch weather information, please check the location name."
	MsgNoRainRisk          = "no rain risk in the next 12 hours."
	MsgUVUnavailable       = "UV index is unavailable right now."
)

// Gateway composes the user-facing weather digest for one region.
type Gateway struct {
	forecasts    ForecastProvider
	observations ObservationProvider
	clock        clockwork.Clock
	log          *zap.Logger
	metrics      *observability.Metrics
}

// NewGateway creates a Gateway. clock supplies "now" for the lookahead scans.
func NewGateway(forecasts ForecastProvider, observations ObservationProvider, clock clockwork.Clock, log *zap.Logger, metrics *observability.Metrics) *Gateway {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Gateway{
		forecasts:    forecasts,
		observations: observations,
		clock:        clock,
		log:          log,
		metrics:      metrics,
	}
}

// Summary never returns an empty string: upstream failures degrade to fixed
// fallback text instead of errors.
func (g *Gateway) Summary(ctx context.Context, location string, rainAlert, uvAlert bool) string {
	fc, err := g.forecasts.Forecast(ctx, location)
	if err != nil {
		g.log.Warn("forecast fetch failed", zap.String("location", location), zap.Error(err))
		g.metrics.UpstreamErrors.WithLabelValues("forecast").Inc()
		return MsgForecastUnavailable
	}
	temps := chronological(fc.Temperature)
	if len(temps) == 0 {
		g.log.Warn("forecast has no temperature series", zap.String("location", location))
		return MsgForecastUnavailable
	}

	now := g.clock.Now()
	maxT, minT := temperatureRange(temps)

	current := "Current temperature: unavailable."
	if t, ok := CurrentTemperature(temps, now); ok {
		current = fmt.Sprintf("Current temperature: %s°C.", formatNumber(t))
	} else {
		g.log.Info("no forecast point at or after now", zap.String("location", location))
	}
	if rainAlert {
		current += " " + RainMessage(fc.RainProbability, now)
	}

	lines := []string{
		current,
		fmt.Sprintf("%s high/low: %s°C / %s°C.", location, formatNumber(maxT), formatNumber(minT)),
	}
	if uvAlert {
		if uv := g.uvSection(ctx, location); uv != "" {
			lines = append(lines, uv)
		}
	}
	return strings.Join(lines, "\n")
}

func (g *Gateway) uvSection(ctx context.Context, location string) string {
	station, ok := StationForRegion(location)
	if !ok {
		return ""
	}
	idx, err := g.observations.UVIndex(ctx, station)
	if err != nil {
		g.log.Warn("uv observation fetch failed",
			zap.String("location", location), zap.String("station", station), zap.Error(err))
		g.metrics.UpstreamErrors.WithLabelValues("observation").Inc()
		return MsgUVUnavailable
	}
	return UVMessage(idx)
}

func temperatureRange(pts []Point) (maxT, minT float64) {
	maxT, minT = math.Inf(-1), math.Inf(1)
	for _, p := range pts {
		maxT = math.Max(maxT, p.Value)
		minT = math.Min(minT, p.Value)
	}
	return maxT, minT
}

// CurrentTemperature returns the value of the earliest point at or after now.
func CurrentTemperature(pts []Point, now time.Time) (float64, bool) {
	for _, p := range chronological(pts) {
		if !p.Time.Before(now) {
			return p.Value, true
		}
	}
	return 0, false
}

// HoursUntilRain scans for the first point strictly after now whose
// probability exceeds RainThreshold and returns the whole hours until it.
func HoursUntilRain(pts []Point, now time.Time) (int, bool) {
	for _, p := range chronological(pts) {
		if p.Time.After(now) && p.Value > RainThreshold {
			return int(p.Time.Sub(now) / time.Hour), true
		}
	}
	return 0, false
}

// RainMessage renders the rain part of the first digest line.
func RainMessage(pts []Point, now time.Time) string {
	if h, ok := HoursUntilRain(pts, now); ok {
		return fmt.Sprintf("%d hours until high rain probability", h)
	}
	return MsgNoRainRisk
}
