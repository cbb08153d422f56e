// Package main runs one weight learning sweep over all recently active users,
// or over a single user, and exits. Meant for cron or manual runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2beens/fitcoach/internal/coaching"
	"github.com/2beens/fitcoach/internal/config"
	"github.com/2beens/fitcoach/internal/db"
	"github.com/2beens/fitcoach/internal/learning"
	"github.com/2beens/fitcoach/internal/logging"
	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/training"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	userID := flag.Int64("user", 0, "sweep only this user (0 = all active users)")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      true,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SentryServerName: "fitcoach-learning-sweep",
	})

	// run returns before exiting so its deferred closes happen
	err = run(cfg, *userID)
	if err != nil {
		log.Errorf("learning sweep: %s", err)
	}
	sentry.Flush(5 * time.Second)
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, userID int64) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         cfg.PostgresUser,
		DBPassword:     os.Getenv("FITCOACH_POSTGRES_PASS"),
		MaxConns:       cfg.PostgresMaxConns,
		TracingEnabled: honeycombEnabled,
	})
	if err != nil {
		return fmt.Errorf("db pool: %w", err)
	}
	defer dbPool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: os.Getenv("FITCOACH_REDIS_PASS"),
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Errorf("close redis client: %s", err)
		}
	}()
	// without the shared lock a sweep could overlap with the service's runner
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	otelShutdown, err := tracing.HoneycombSetup(honeycombEnabled, "fitcoach-learning-sweep", rdb)
	if err != nil {
		return fmt.Errorf("tracing setup: %w", err)
	}
	defer otelShutdown()

	core := coaching.NewCore(coaching.NewCoreParams{
		Repo:           training.NewRepo(dbPool),
		Config:         cfg,
		MetricsManager: metrics.NewManager("fitcoach", "learning_sweep", metrics.SetupPrometheus()),
		RedisClient:    rdb,
	})

	var results []*learning.SweepResult
	if userID > 0 {
		results, err = core.Runner.SweepAll(ctx, []int64{userID})
	} else {
		results, err = core.Runner.RunOnce(ctx)
	}

	s := summarize(results, err)
	log.WithFields(log.Fields{
		"users":   s.users,
		"updated": s.updated,
		"failed":  s.failed,
	}).Info("learning sweep done")

	return s.err
}

type summary struct {
	users   int
	updated int
	failed  int
	err     error
}

// summarize folds the per-exercise failures of every sweep into the
// returned error, so a partially failed run is reported as failed.
func summarize(results []*learning.SweepResult, sweepErr error) summary {
	s := summary{
		users: len(results),
		err:   sweepErr,
	}
	for _, res := range results {
		s.updated += len(res.Updated)
		s.failed += len(res.Failed)
		for _, f := range res.Failed {
			s.err = multierr.Append(s.err, fmt.Errorf("user %d, exercise %s: %s", res.UserID, f.ExerciseName, f.Error))
		}
	}
	return s
}
