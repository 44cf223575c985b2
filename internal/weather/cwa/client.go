// Package cwa is a client for the Central Weather Administration open data
// API: township forecasts (F-D0047-089) and UV observations (O-A0005-001).
package cwa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/ykvlv/weather-digest-bot/internal/weather"
)

const (
	forecastDataset    = "F-D0047-089"
	observationDataset = "O-A0005-001"
)

var (
	ErrNoLocation    = errors.New("cwa: location not present in response")
	ErrNoObservation = errors.New("cwa: station not present in response")
)

// Config configures the client.
type Config struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	Location *time.Location // zone of timestamps without an offset
	Backoff  BackoffConfig
}

// Client implements weather.ForecastProvider and weather.ObservationProvider.
type Client struct {
	cfg      Config
	http     *http.Client
	forecast *gobreaker.CircuitBreaker
	observe  *gobreaker.CircuitBreaker
	log      *zap.Logger
}

var (
	_ weather.ForecastProvider    = (*Client)(nil)
	_ weather.ObservationProvider = (*Client)(nil)
)

// New creates a Client. Zero Backoff fields get defaults.
func New(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Backoff.InitialInterval <= 0 {
		cfg.Backoff = BackoffConfig{
			MaxRetries:      2,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		forecast: newBreaker("cwa-forecast"),
		observe:  newBreaker("cwa-observation"),
		log:      log,
	}
}

type forecastResponse struct {
	Records struct {
		Locations []struct {
			Location []struct {
				LocationName   string           `json:"LocationName"`
				WeatherElement []forecastSeries `json:"WeatherElement"`
			} `json:"Location"`
		} `json:"Locations"`
	} `json:"records"`
}

type forecastSeries struct {
	ElementName string `json:"ElementName"`
	Time        []struct {
		DataTime     string              `json:"DataTime"`
		StartTime    string              `json:"StartTime"`
		ElementValue []map[string]string `json:"ElementValue"`
	} `json:"Time"`
}

// Forecast fetches the temperature and rain probability series for region.
func (c *Client) Forecast(ctx context.Context, region string) (weather.Forecast, error) {
	q := url.Values{}
	q.Set("Authorization", c.cfg.APIKey)
	q.Set("locationName", region)

	var payload forecastResponse
	if err := c.getJSON(ctx, c.forecast, forecastDataset, q, &payload); err != nil {
		return weather.Forecast{}, err
	}
	if len(payload.Records.Locations) == 0 || len(payload.Records.Locations[0].Location) == 0 {
		return weather.Forecast{}, fmt.Errorf("%w: %s", ErrNoLocation, region)
	}
	loc := payload.Records.Locations[0].Location[0]

	fc := weather.Forecast{Location: region}
	for _, el := range loc.WeatherElement {
		switch el.ElementName {
		case "溫度", "Temperature":
			fc.Temperature = c.series(el, "Temperature", true)
		case "3小時降雨機率", "ProbabilityOfPrecipitation":
			fc.RainProbability = c.series(el, "ProbabilityOfPrecipitation", false)
		}
	}
	if len(fc.Temperature) == 0 {
		return weather.Forecast{}, fmt.Errorf("%w: no temperature series for %s", ErrNoLocation, region)
	}
	return fc, nil
}

// series extracts numeric points; entries with unparsable time or a
// non-numeric value ("-") are skipped.
func (c *Client) series(el forecastSeries, key string, instant bool) []weather.Point {
	out := make([]weather.Point, 0, len(el.Time))
	for _, t := range el.Time {
		raw, alt := t.StartTime, t.DataTime
		if instant {
			raw, alt = alt, raw
		}
		if raw == "" {
			raw = alt
		}
		ts, err := parseTime(raw, c.cfg.Location)
		if err != nil || len(t.ElementValue) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(t.ElementValue[0][key]), 64)
		if err != nil {
			continue
		}
		out = append(out, weather.Point{Time: ts, Value: v})
	}
	return out
}

type observationResponse struct {
	Records struct {
		WeatherElement struct {
			Location []struct {
				StationID string          `json:"StationID"`
				UVIndex   json.RawMessage `json:"UVIndex"`
			} `json:"location"`
		} `json:"weatherElement"`
	} `json:"records"`
}

// UVIndex fetches the latest UV index observed at stationID.
func (c *Client) UVIndex(ctx context.Context, stationID string) (float64, error) {
	q := url.Values{}
	q.Set("Authorization", c.cfg.APIKey)
	q.Set("StationID", stationID)

	var payload observationResponse
	if err := c.getJSON(ctx, c.observe, observationDataset, q, &payload); err != nil {
		return 0, err
	}
	locs := payload.Records.WeatherElement.Location
	if len(locs) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoObservation, stationID)
	}
	// The dataset has shipped the index both as a number and as a string.
	raw := strings.Trim(string(locs[0].UVIndex), `" `)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("cwa: parse uv index %q: %w", raw, err)
	}
	// Missing readings come back as negative sentinels such as -99.
	if v < 0 {
		return 0, fmt.Errorf("%w: %s reported %s", ErrNoObservation, stationID, raw)
	}
	return v, nil
}

func (c *Client) getJSON(ctx context.Context, cb *gobreaker.CircuitBreaker, dataset string, q url.Values, dst any) error {
	endpoint := c.cfg.BaseURL + "/" + dataset + "?" + q.Encode()
	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	start := time.Now()
	resp, err := doRequest(ctx, c.http, c.cfg.Backoff, cb, build)
	if err != nil {
		c.log.Debug("cwa request failed", zap.String("dataset", dataset), zap.Error(err))
		return fmt.Errorf("%s: %w", dataset, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%s: decode: %w", dataset, err)
	}
	c.log.Debug("cwa request ok", zap.String("dataset", dataset), zap.Duration("took", time.Since(start)))
	return nil
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cwa: unrecognised time %q", s)
}
