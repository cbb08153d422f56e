// Package coaching assembles the coaching engines over a shared repository.
package coaching

import (
	"context"
	"time"

	"github.com/2beens/fitcoach/internal/analytics"
	"github.com/2beens/fitcoach/internal/config"
	"github.com/2beens/fitcoach/internal/learning"
	"github.com/2beens/fitcoach/internal/periodization"
	"github.com/2beens/fitcoach/internal/reporting"
	"github.com/2beens/fitcoach/internal/suggestions"
	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/training"
	"github.com/2beens/fitcoach/internal/userlock"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

type sweepLocker interface {
	Lock(ctx context.Context, userID int64) (userlock.Unlock, error)
}

type Core struct {
	Repo          *training.Repo
	Metrics       *analytics.Engine
	Suggestions   *suggestions.Engine
	Learning      *learning.Engine
	Periodization *periodization.Analyzer
	Reports       *reporting.Reporter
	Runner        *learning.Runner
}

type NewCoreParams struct {
	Repo           *training.Repo
	Config         *config.Config
	MetricsManager *metrics.Manager
	// RedisClient backs the per-user sweep lock. Without it sweeps are only
	// serialized within this process.
	RedisClient *redis.Client
}

func NewCore(params NewCoreParams) *Core {
	var locker sweepLocker
	if params.RedisClient != nil {
		locker = userlock.NewRedisLocker(params.RedisClient, params.Config.SweepLockTTL())
	} else {
		log.Warnln("no redis client, using in-process sweep lock")
		locker = userlock.NewLocalLocker()
	}

	metricsEngine := analytics.NewEngine(params.Repo)
	learningEngine := learning.NewEngine(params.Repo, locker, params.MetricsManager)

	return &Core{
		Repo:          params.Repo,
		Metrics:       metricsEngine,
		Suggestions:   suggestions.NewEngine(params.Repo, params.MetricsManager),
		Learning:      learningEngine,
		Periodization: periodization.NewAnalyzer(metricsEngine, params.Repo, params.MetricsManager),
		Reports: reporting.NewReporter(
			metricsEngine,
			params.Config.ReportCacheSizeMB,
			time.Duration(params.Config.ReportCacheTTLSec)*time.Second,
		),
		Runner: learning.NewRunner(
			learningEngine,
			params.Repo,
			params.Config.LearningSweepInterval(),
			params.Config.LearningSweepConcurrency,
		),
	}
}
