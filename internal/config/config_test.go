package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/2beens/fitcoach/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigToml = `
[development]
host = "localhost"
port = 9000
log_level = "trace"
log_to_stdout = true
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "fitcoach"
redis_host = "localhost"
redis_port = "6379"
prometheus_metrics_host = "localhost"
prometheus_metrics_port = "2112"
learning_sweep_interval_min = 30

[production]
host = "0.0.0.0"
port = 8080
log_level = "info"
logs_path = "/var/log/fitcoach/service"
postgres_host = "db"
postgres_port = "5432"
postgres_db_name = "fitcoach"
postgres_user = "coach"
postgres_max_conns = 20
analysis_rate_limit_per_min = 3
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigToml), 0o600))
	return path
}

func TestLoad_Development(t *testing.T) {
	cfg, err := config.Load("dev", writeTestConfig(t))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.LogToStdout)
	assert.Equal(t, "fitcoach", cfg.PostgresDBName)
	assert.Equal(t, 30*time.Minute, cfg.LearningSweepInterval())

	// defaults
	assert.Equal(t, 4, cfg.LearningSweepConcurrency)
	assert.Equal(t, 5*time.Minute, cfg.SweepLockTTL())
	assert.Equal(t, 10, cfg.AnalysisRateLimitPerMin)
	assert.Equal(t, 16, cfg.ReportCacheSizeMB)
	assert.Equal(t, "postgres", cfg.PostgresUser)
	assert.Equal(t, 120, cfg.McpRateLimitPerMin)
}

func TestLoad_Production(t *testing.T) {
	cfg, err := config.Load("production", writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/var/log/fitcoach/service", cfg.LogsPath)
	assert.Equal(t, 3, cfg.AnalysisRateLimitPerMin)
	assert.Equal(t, "coach", cfg.PostgresUser)
	assert.Equal(t, int32(20), cfg.PostgresMaxConns)
	assert.Equal(t, 6*time.Hour, cfg.LearningSweepInterval())
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load("staging", writeTestConfig(t))
	assert.Error(t, err)

	_, err = config.Load("dev", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
