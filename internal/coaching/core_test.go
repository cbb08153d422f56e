package coaching_test

import (
	"testing"

	"github.com/2beens/fitcoach/internal/coaching"
	"github.com/2beens/fitcoach/internal/config"
	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/training"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCore_WithoutRedis(t *testing.T) {
	cfg := &config.Config{
		LearningSweepIntervalMin: 60,
		LearningSweepConcurrency: 2,
		SweepLockTTLSec:          30,
		ReportCacheSizeMB:        1,
		ReportCacheTTLSec:        60,
	}

	core := coaching.NewCore(coaching.NewCoreParams{
		Repo:           training.NewRepo(nil),
		Config:         cfg,
		MetricsManager: metrics.NewTestManager(),
	})
	require.NotNil(t, core)

	assert.NotNil(t, core.Metrics)
	assert.NotNil(t, core.Suggestions)
	assert.NotNil(t, core.Learning)
	assert.NotNil(t, core.Periodization)
	assert.NotNil(t, core.Reports)
	assert.NotNil(t, core.Runner)
}
