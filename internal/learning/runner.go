package learning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

type sweeper interface {
	ProcessWeightLearningData(ctx context.Context, userID int64) (*SweepResult, error)
}

type activeUsersRepo interface {
	ListActiveUserIDs(ctx context.Context, since time.Time) ([]int64, error)
}

// Runner triggers learning sweeps for every recently active user on a fixed
// interval. Users are swept in parallel up to the concurrency limit.
type Runner struct {
	sweeper     sweeper
	usersRepo   activeUsersRepo
	interval    time.Duration
	concurrency int
	Now         func() time.Time
}

func NewRunner(sweeper sweeper, usersRepo activeUsersRepo, interval time.Duration, concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{
		sweeper:     sweeper,
		usersRepo:   usersRepo,
		interval:    interval,
		concurrency: concurrency,
		Now:         time.Now,
	}
}

// SweepAll sweeps the given users. A failing user does not stop the others;
// their errors are combined in the returned error.
func (r *Runner) SweepAll(ctx context.Context, userIDs []int64) (_ []*SweepResult, err error) {
	ctx, span := tracing.GlobalLearningTracer.Start(ctx, "learning.sweep-all")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("users", len(userIDs)))

	var (
		mu      sync.Mutex
		results []*SweepResult
		errs    error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, userID := range userIDs {
		g.Go(func() error {
			res, err := r.sweeper.ProcessWeightLearningData(gctx, userID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("user %d: %w", userID, err))
				return nil
			}
			results = append(results, res)
			return nil
		})
	}
	_ = g.Wait()

	return results, errs
}

// RunOnce sweeps every user active in the lookback window.
func (r *Runner) RunOnce(ctx context.Context) ([]*SweepResult, error) {
	userIDs, err := r.usersRepo.ListActiveUserIDs(ctx, r.Now().AddDate(0, 0, -LookbackDays))
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return r.SweepAll(ctx, userIDs)
}

// Run blocks, sweeping on every tick until ctx is done.
func (r *Runner) Run(ctx context.Context) {
	log.Infof("learning runner started, interval %s, concurrency %d", r.interval, r.concurrency)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("learning runner stopped")
			return
		case <-ticker.C:
			results, err := r.RunOnce(ctx)
			if err != nil {
				log.Errorf("learning runner: %s", err)
			}
			log.Debugf("learning runner: %d users swept", len(results))
		}
	}
}
