package cwa

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const forecastBody = `{
  "records": {
    "Locations": [{
      "Location": [{
        "LocationName": "臺北市",
        "WeatherElement": [
          {"ElementName": "溫度", "Time": [
            {"DataTime": "2024-06-01T09:00:00+08:00", "ElementValue": [{"Temperature": "27"}]},
            {"DataTime": "2024-06-01T12:00:00+08:00", "ElementValue": [{"Temperature": "31"}]},
            {"DataTime": "2024-06-01T15:00:00+08:00", "ElementValue": [{"Temperature": "-"}]}
          ]},
          {"ElementName": "3小時降雨機率", "Time": [
            {"StartTime": "2024-06-01 09:00:00", "EndTime": "2024-06-01 12:00:00", "ElementValue": [{"ProbabilityOfPrecipitation": "20"}]},
            {"StartTime": "2024-06-01 12:00:00", "EndTime": "2024-06-01 15:00:00", "ElementValue": [{"ProbabilityOfPrecipitation": "70"}]}
          ]}
        ]
      }]
    }]
  }
}`

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	loc := time.FixedZone("CST", 8*3600)
	return New(Config{
		BaseURL:  srv.URL,
		APIKey:   "key",
		Timeout:  2 * time.Second,
		Location: loc,
		Backoff:  BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond},
	}, zap.NewNop())
}

func TestForecast_ParsesSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+forecastDataset, r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("Authorization"))
		assert.Equal(t, "臺北市", r.URL.Query().Get("locationName"))
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	fc, err := testClient(t, srv).Forecast(context.Background(), "臺北市")
	require.NoError(t, err)

	assert.Equal(t, "臺北市", fc.Location)
	require.Len(t, fc.Temperature, 2)
	assert.Equal(t, 27.0, fc.Temperature[0].Value)
	assert.Equal(t, 31.0, fc.Temperature[1].Value)

	require.Len(t, fc.RainProbability, 2)
	cst := time.FixedZone("CST", 8*3600)
	assert.True(t, fc.RainProbability[1].Time.Equal(time.Date(2024, 6, 1, 12, 0, 0, 0, cst)))
	assert.Equal(t, 70.0, fc.RainProbability[1].Value)
}

func TestForecast_MissingLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"records":{"Locations":[{"Location":[]}]}}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv).Forecast(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrNoLocation)
}

func TestForecast_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	_, err := testClient(t, srv).Forecast(context.Background(), "臺北市")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestForecast_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(t, srv).Forecast(context.Background(), "臺北市")
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.Equal(t, int32(1), calls.Load())
}

func TestForecast_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(t, srv).Forecast(context.Background(), "臺北市")
	assert.True(t, errors.Is(err, ErrRateLimited), "got %v", err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestUVIndex(t *testing.T) {
	cases := map[string]struct {
		body string
		want float64
	}{
		"number": {`{"records":{"weatherElement":{"location":[{"StationID":"466910","UVIndex":6.42}]}}}`, 6.42},
		"string": {`{"records":{"weatherElement":{"location":[{"StationID":"466910","UVIndex":"3"}]}}}`, 3},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/"+observationDataset, r.URL.Path)
				assert.Equal(t, "466910", r.URL.Query().Get("StationID"))
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			got, err := testClient(t, srv).UVIndex(context.Background(), "466910")
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestUVIndex_EmptyStation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"records":{"weatherElement":{"location":[]}}}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv).UVIndex(context.Background(), "000000")
	assert.ErrorIs(t, err, ErrNoObservation)
}

func TestUVIndex_MissingReadingSentinel(t *testing.T) {
	for _, uv := range []string{`-99`, `"-99"`, `"-98.0"`} {
		t.Run(uv, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"records":{"weatherElement":{"location":[{"StationID":"466910","UVIndex":` + uv + `}]}}}`))
			}))
			defer srv.Close()

			_, err := testClient(t, srv).UVIndex(context.Background(), "466910")
			assert.ErrorIs(t, err, ErrNoObservation)
		})
	}
}

func TestParseTime(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	got, err := parseTime("2024-06-01 12:00:00", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 6, 1, 4, 0, 0, 0, time.UTC)))

	_, err = parseTime("noon", loc)
	assert.Error(t, err)
}
