package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

func newTestServer(pingErr error) *Server {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_events_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()
	return NewServer(":0", mockPinger{err: pingErr}, reg, zap.NewNop())
}

func get(t *testing.T, s *Server, path string) (int, []byte) {
	t.Helper()
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHealthzReturns200(t *testing.T) {
	code, body := get(t, newTestServer(nil), "/healthz")
	assert.Equal(t, http.StatusOK, code)

	var m map[string]string
	require.NoError(t, json.Unmarshal(body, &m))
	assert.Equal(t, "healthy", m["status"])
}

func TestReadyzReturns200WhenStoreReachable(t *testing.T) {
	code, body := get(t, newTestServer(nil), "/readyz")
	assert.Equal(t, http.StatusOK, code)

	var m map[string]string
	require.NoError(t, json.Unmarshal(body, &m))
	assert.Equal(t, "ready", m["status"])
}

func TestReadyzReturns503WhenStoreDown(t *testing.T) {
	code, body := get(t, newTestServer(errors.New("database is locked")), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	var m map[string]string
	require.NoError(t, json.Unmarshal(body, &m))
	assert.Equal(t, "not ready", m["status"])
	assert.Equal(t, "database is locked", m["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	code, body := get(t, newTestServer(nil), "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "test_events_total 1")
}
