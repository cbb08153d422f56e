package periodization

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/analytics"
	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/training"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	SnapshotWindowDays  = 21
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
	InitialPhase        = training.PhaseHypertrophy

	week = 7 * 24 * time.Hour
)

var ErrInvalidDecision = errors.New("invalid phase decision")

//go:generate mockgen -source=$GOFILE -destination=analyzer_mocks_test.go -package=periodization_test
type snapshotter interface {
	Snapshot(ctx context.Context, userID int64, windowDays int) (*analytics.Snapshot, error)
}

type periodizationRepo interface {
	GetLatestPeriodizationAnalysis(ctx context.Context, userID int64) (*training.PeriodizationAnalysis, error)
	AddPeriodizationAnalysis(ctx context.Context, a training.PeriodizationAnalysis) (*training.PeriodizationAnalysis, error)
	ListPeriodizationAnalyses(ctx context.Context, userID int64, limit int) ([]training.PeriodizationAnalysis, error)
	UpdatePeriodizationDecision(ctx context.Context, userID, analysisID int64, decision training.Decision, decidedAt time.Time) error
}

// Analyzer detects training stagnation and proposes phase changes. Proposals
// are stored as pending and only ever change through RecordDecision.
type Analyzer struct {
	metrics        snapshotter
	repo           periodizationRepo
	metricsManager *metrics.Manager
	Now            func() time.Time
}

func NewAnalyzer(metricsEngine snapshotter, repo periodizationRepo, metricsManager *metrics.Manager) *Analyzer {
	return &Analyzer{
		metrics:        metricsEngine,
		repo:           repo,
		metricsManager: metricsManager,
		Now:            time.Now,
	}
}

type StagnationAnalysis struct {
	Analysis training.PeriodizationAnalysis `json:"analysis"`
	Snapshot analytics.Snapshot             `json:"snapshot"`
}

// CurrentPhase derives the phase the user is in now, when it started and how
// many full weeks it has run, from the latest stored analysis.
func CurrentPhase(latest *training.PeriodizationAnalysis, now time.Time) (training.Phase, time.Time, int) {
	if latest == nil {
		return InitialPhase, now, 0
	}
	if latest.UserDecision == training.DecisionAccepted && latest.RecommendedPhase != "" && latest.RecommendedPhase != latest.CurrentPhase {
		since := latest.AnalysisDate
		if latest.DecidedAt != nil {
			since = *latest.DecidedAt
		}
		return latest.RecommendedPhase, since, weeksBetween(since, now)
	}
	phase := latest.CurrentPhase
	if phase == "" {
		phase = InitialPhase
	}
	startedAt := PhaseStart(*latest)
	return phase, startedAt, weeksBetween(startedAt, now)
}

// PhaseStart is when the analysis' phase began. Rows stored without a start
// are dated back by their week count.
func PhaseStart(a training.PeriodizationAnalysis) time.Time {
	if !a.PhaseStartedAt.IsZero() {
		return a.PhaseStartedAt
	}
	return a.AnalysisDate.Add(-time.Duration(a.WeeksInPhase) * week)
}

func weeksBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	return int(to.Sub(from) / week)
}

// AnalyzeStagnation evaluates the last 21 days of training and appends the
// result with a pending decision.
func (a *Analyzer) AnalyzeStagnation(ctx context.Context, userID int64) (_ *StagnationAnalysis, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "periodization.analyze")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	if err := training.ValidateUserID(userID); err != nil {
		return nil, err
	}

	snapshot, err := a.metrics.Snapshot(ctx, userID, SnapshotWindowDays)
	if err != nil {
		return nil, fmt.Errorf("metrics snapshot: %w", err)
	}

	latest, err := a.repo.GetLatestPeriodizationAnalysis(ctx, userID)
	switch {
	case errors.Is(err, training.ErrAnalysisNotFound):
		latest = nil
	case err != nil:
		return nil, fmt.Errorf("get latest analysis: %w", err)
	}

	now := a.Now()
	phase, phaseStartedAt, weeks := CurrentPhase(latest, now)
	ev := Evaluate(InputsFromSnapshot(*snapshot, weeks))

	stored, err := a.repo.AddPeriodizationAnalysis(ctx, training.PeriodizationAnalysis{
		UserID:             userID,
		AnalysisDate:       now,
		CurrentPhase:       phase,
		PhaseStartedAt:     phaseStartedAt,
		WeeksInPhase:       weeks,
		StagnationDetected: ev.Stagnant,
		StagnationType:     string(ev.Type),
		Severity:           string(ev.Severity),
		Indicators:         ev.Indicators,
		RecommendedAction:  string(ev.Action),
		RecommendedPhase:   RecommendedPhase(phase, ev),
		ConfidenceScore:    ev.Confidence,
		UserDecision:       training.DecisionPending,
	})
	if err != nil {
		return nil, fmt.Errorf("add periodization analysis: %w", err)
	}

	a.metricsManager.CounterStagnationAnalyses.WithLabelValues(strconv.FormatBool(ev.Stagnant), string(ev.Type)).Inc()
	span.SetAttributes(
		attribute.Bool("stagnant", ev.Stagnant),
		attribute.Float64("confidence", ev.Confidence),
	)
	log.WithFields(log.Fields{
		"user_id":    userID,
		"stagnant":   ev.Stagnant,
		"indicators": strings.Join(ev.Indicators, ","),
	}).Debug("stagnation analysis stored")

	return &StagnationAnalysis{
		Analysis: *stored,
		Snapshot: *snapshot,
	}, nil
}

func ParseDecision(s string) (training.Decision, error) {
	d := training.Decision(strings.ToLower(strings.TrimSpace(s)))
	if d != training.DecisionAccepted && d != training.DecisionRejected {
		return "", fmt.Errorf("%w: %q", ErrInvalidDecision, s)
	}
	return d, nil
}

// RecordDecision stores the user's answer to a pending analysis.
func (a *Analyzer) RecordDecision(ctx context.Context, userID, analysisID int64, decision training.Decision) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "periodization.decision.record")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("analysis_id", analysisID),
		attribute.String("decision", string(decision)),
	)

	if err := training.ValidateUserID(userID); err != nil {
		return err
	}
	if _, err := ParseDecision(string(decision)); err != nil {
		return err
	}
	if analysisID <= 0 {
		return fmt.Errorf("%w: analysis id %d", training.ErrAnalysisNotFound, analysisID)
	}

	if err := a.repo.UpdatePeriodizationDecision(ctx, userID, analysisID, decision, a.Now()); err != nil {
		return fmt.Errorf("update periodization decision: %w", err)
	}
	return nil
}

func (a *Analyzer) History(ctx context.Context, userID int64, limit int) (_ []training.PeriodizationAnalysis, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "periodization.history")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	if err := training.ValidateUserID(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	analyses, err := a.repo.ListPeriodizationAnalyses(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list periodization analyses: %w", err)
	}
	return analyses, nil
}
