package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/analytics"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/training"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var ErrUnknownPeriod = errors.New("unknown report period")

type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodWeekly, PeriodMonthly:
		return p, nil
	case "":
		return PeriodWeekly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
}

func (p Period) Days() int {
	if p == PeriodMonthly {
		return 30
	}
	return 7
}

func (p Period) noun() string {
	if p == PeriodMonthly {
		return "month"
	}
	return "week"
}

type Report struct {
	UserID          int64              `json:"userId"`
	Period          Period             `json:"period"`
	From            time.Time          `json:"from"`
	To              time.Time          `json:"to"`
	Metrics         analytics.Snapshot `json:"metrics"`
	Insights        []string           `json:"insights"`
	Recommendations []string           `json:"recommendations"`
}

//go:generate mockgen -source=$GOFILE -destination=reporter_mocks_test.go -package=reporting_test
type snapshotter interface {
	Snapshot(ctx context.Context, userID int64, windowDays int) (*analytics.Snapshot, error)
}

// Reporter renders weekly and monthly reports. Rendered reports are kept in
// an in-process cache for a short time, keyed by user, period and day.
type Reporter struct {
	metrics  snapshotter
	cache    *freecache.Cache
	cacheTTL time.Duration
	Now      func() time.Time
}

func NewReporter(metricsEngine snapshotter, cacheSizeMB int, cacheTTL time.Duration) *Reporter {
	megabyte := 1024 * 1024
	return &Reporter{
		metrics:  metricsEngine,
		cache:    freecache.NewCache(cacheSizeMB * megabyte),
		cacheTTL: cacheTTL,
		Now:      time.Now,
	}
}

func cacheKey(userID int64, period Period, day time.Time) []byte {
	return []byte(fmt.Sprintf("report::%d::%s::%s", userID, period, day.Format(time.DateOnly)))
}

func (r *Reporter) Report(ctx context.Context, userID int64, period Period) (_ *Report, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "reporting.report")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.String("period", string(period)),
	)

	if err := training.ValidateUserID(userID); err != nil {
		return nil, err
	}
	if period != PeriodWeekly && period != PeriodMonthly {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
	}

	now := r.Now()
	key := cacheKey(userID, period, now)
	if cached, err := r.cache.Get(key); err == nil {
		report := &Report{}
		if err := json.Unmarshal(cached, report); err == nil {
			span.SetAttributes(attribute.Bool("cached", true))
			return report, nil
		} else {
			log.Errorf("unmarshal cached report for user %d: %s", userID, err)
		}
	}

	snapshot, err := r.metrics.Snapshot(ctx, userID, period.Days())
	if err != nil {
		return nil, fmt.Errorf("metrics snapshot: %w", err)
	}

	insights, recommendations := Insights(period, *snapshot)
	report := &Report{
		UserID:          userID,
		Period:          period,
		From:            now.AddDate(0, 0, -period.Days()),
		To:              now,
		Metrics:         *snapshot,
		Insights:        insights,
		Recommendations: recommendations,
	}

	reportBytes, err := json.Marshal(report)
	if err != nil {
		log.Errorf("marshal report for user %d: %s", userID, err)
		return report, nil
	}
	if err := r.cache.Set(key, reportBytes, int(r.cacheTTL.Seconds())); err != nil {
		log.Errorf("cache report for user %d: %s", userID, err)
	}

	return report, nil
}

// Invalidate drops the user's cached reports for today.
func (r *Reporter) Invalidate(userID int64) {
	now := r.Now()
	r.cache.Del(cacheKey(userID, PeriodWeekly, now))
	r.cache.Del(cacheKey(userID, PeriodMonthly, now))
}
