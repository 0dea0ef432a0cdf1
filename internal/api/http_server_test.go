package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"coworkingbot/internal/config"
	"coworkingbot/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTPServer(cfg config.MonitoringConfig, checks map[string]Checker) *httptest.Server {
	logger := zerolog.New(io.Discard)
	srv := NewHTTPServer(cfg, checks, &logger)
	return httptest.NewServer(srv.Handler())
}

func TestHealthz(t *testing.T) {
	ts := newTestHTTPServer(config.MonitoringConfig{}, nil)
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	post, err := http.Post(ts.URL+"/healthz", "text/plain", nil)
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)
}

func TestReadyz(t *testing.T) {
	var redisDown atomic.Bool
	checks := map[string]Checker{
		"content_db": func(context.Context) error { return nil },
		"redis": func(context.Context) error {
			if redisDown.Load() {
				return errors.New("connection refused")
			}
			return nil
		},
	}
	ts := newTestHTTPServer(config.MonitoringConfig{}, checks)
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	redisDown.Store(true)
	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Status string            `json:"status"`
		Failed map[string]string `json:"failed"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "not ready", body.Status)
	assert.Equal(t, map[string]string{"redis": "connection refused"}, body.Failed)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.Register()
	metrics.IncBookingCreated()

	t.Run("Enabled", func(t *testing.T) {
		ts := newTestHTTPServer(config.MonitoringConfig{PrometheusEnabled: true}, nil)
		t.Cleanup(ts.Close)

		resp, err := http.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "coworkingbot_bookings_created_total")
	})

	t.Run("Disabled", func(t *testing.T) {
		ts := newTestHTTPServer(config.MonitoringConfig{}, nil)
		t.Cleanup(ts.Close)

		resp, err := http.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRateLimit(t *testing.T) {
	ts := newTestHTTPServer(config.MonitoringConfig{RateLimitRPS: 0.001, RateLimitBurst: 2}, nil)
	t.Cleanup(ts.Close)

	var codes []int
	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
