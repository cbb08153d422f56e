package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host"`
	Port int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost     string `toml:"postgres_host"`
	PostgresPort     string `toml:"postgres_port"`
	PostgresDBName   string `toml:"postgres_db_name"`
	PostgresUser     string `toml:"postgres_user"`
	PostgresMaxConns int32  `toml:"postgres_max_conns"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// prometheus
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// learning sweeps
	LearningSweepIntervalMin int `toml:"learning_sweep_interval_min"`
	LearningSweepConcurrency int `toml:"learning_sweep_concurrency"`
	SweepLockTTLSec          int `toml:"sweep_lock_ttl_sec"`

	// analysis & reporting
	AnalysisRateLimitPerMin int `toml:"analysis_rate_limit_per_min"`
	ReportCacheSizeMB       int `toml:"report_cache_size_mb"`
	ReportCacheTTLSec       int `toml:"report_cache_ttl_sec"`

	// mcp over http
	McpRateLimitPerMin int `toml:"mcp_rate_limit_per_min"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		if t.Development == nil {
			return nil, errors.New("development config section missing")
		}
		return t.Development, nil
	case "prod", "production":
		if t.Production == nil {
			return nil, errors.New("production config section missing")
		}
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the section for env,
// with defaults filled in for the optional tuning values.
func Load(env, path string) (*Config, error) {
	var tomlCfg Toml
	if _, err := toml.DecodeFile(path, &tomlCfg); err != nil {
		return nil, fmt.Errorf("decode toml config [%s]: %w", path, err)
	}

	cfg, err := tomlCfg.Get(env)
	if err != nil {
		return nil, err
	}

	cfg.Environment = strings.ToLower(env)
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
	if c.LearningSweepIntervalMin <= 0 {
		c.LearningSweepIntervalMin = 6 * 60
	}
	if c.LearningSweepConcurrency <= 0 {
		c.LearningSweepConcurrency = 4
	}
	if c.SweepLockTTLSec <= 0 {
		c.SweepLockTTLSec = 5 * 60
	}
	if c.AnalysisRateLimitPerMin <= 0 {
		c.AnalysisRateLimitPerMin = 10
	}
	if c.ReportCacheSizeMB <= 0 {
		c.ReportCacheSizeMB = 16
	}
	if c.ReportCacheTTLSec <= 0 {
		c.ReportCacheTTLSec = 10 * 60
	}
	if c.McpRateLimitPerMin <= 0 {
		c.McpRateLimitPerMin = 120
	}
}

func (c *Config) LearningSweepInterval() time.Duration {
	return time.Duration(c.LearningSweepIntervalMin) * time.Minute
}

func (c *Config) SweepLockTTL() time.Duration {
	return time.Duration(c.SweepLockTTLSec) * time.Second
}
