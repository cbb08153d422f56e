package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2beens/fitcoach/internal/coaching"
	coachingmcp "github.com/2beens/fitcoach/internal/coaching/mcp"
	"github.com/2beens/fitcoach/internal/config"
	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/training"

	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRequestRateLimiter struct {
	allowed int
}

func (l *testRequestRateLimiter) Allow(_ context.Context, _ string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	res := &redis_rate.Result{Limit: limit, RetryAfter: time.Minute}
	if l.allowed > 0 {
		l.allowed--
		res.Allowed = 1
		res.RetryAfter = 0
	}
	return res, nil
}

func newTestServer(t *testing.T, allowed int) *Server {
	t.Helper()
	cfg := &config.Config{
		LearningSweepIntervalMin: 60,
		LearningSweepConcurrency: 1,
		SweepLockTTLSec:          30,
		ReportCacheSizeMB:        1,
		ReportCacheTTLSec:        60,
		McpRateLimitPerMin:       allowed,
	}
	metricsManager := metrics.NewTestManager()
	core := coaching.NewCore(coaching.NewCoreParams{
		Repo:           training.NewRepo(nil),
		Config:         cfg,
		MetricsManager: metricsManager,
	})
	limiter := &testRequestRateLimiter{allowed: allowed}

	return &Server{
		config:      cfg,
		rateLimiter: limiter,
		versionInfo: "abc123",
		core:        core,
		mcpServer: coachingmcp.NewServer(coachingmcp.NewServerParams{
			Core:           core,
			MetricsManager: metricsManager,
			RateLimiter:    limiter,
		}),
		metricsManager: metricsManager,
	}
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, 1)
	router := s.routerSetup()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","version":"abc123"}`, rr.Body.String())
}

func TestServer_UnknownPath(t *testing.T) {
	s := newTestServer(t, 1)
	router := s.routerSetup()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/plans", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServer_MCPRateLimited(t *testing.T) {
	s := newTestServer(t, 0)
	router := s.routerSetup()

	req := httptest.NewRequest("POST", "/mcp", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metricsManager.CounterRateLimitedCalls))
}

func TestServer_connStateMetrics(t *testing.T) {
	s := &Server{metricsManager: metrics.NewTestManager()}

	s.connStateMetrics(nil, http.StateNew)
	s.connStateMetrics(nil, http.StateNew)
	s.connStateMetrics(nil, http.StateActive)
	s.connStateMetrics(nil, http.StateClosed)

	assert.Equal(t, float64(1), testutil.ToFloat64(s.metricsManager.GaugeRequests))
}
