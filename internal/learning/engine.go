package learning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/training"
	"github.com/2beens/fitcoach/internal/userlock"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
)

type learningRepo interface {
	ListRecentExercises(ctx context.Context, userID int64, since time.Time) ([]string, error)
	ListWeightHistorySince(
		ctx context.Context,
		userID int64,
		exerciseName string,
		since time.Time,
		limit int,
	) ([]training.WeightHistoryEntry, error)
	ListSetFeedback(ctx context.Context, userID int64, exerciseName string, limit int) ([]training.SetFeedback, error)
	GetWeightSuggestion(ctx context.Context, userID int64, exerciseName string) (*training.WeightSuggestion, error)
	UpsertSuggestionWithDecision(ctx context.Context, s training.WeightSuggestion, d training.AIDecision) (*training.AIDecision, error)
	ListAIDecisions(ctx context.Context, userID int64, decisionType training.DecisionType, limit int) ([]training.AIDecision, error)
	GetUserPreferences(ctx context.Context, userID int64) (*training.UserPreferences, error)
	UpdatePreferencesWithDecisions(
		ctx context.Context,
		userID int64,
		patch training.PreferencesPatch,
		decisions []training.AIDecision,
	) (*training.UserPreferences, []training.AIDecision, error)
	AddRestTimePattern(ctx context.Context, p training.RestTimePattern) (*training.RestTimePattern, error)
	ListRestTimePatterns(ctx context.Context, userID int64, exerciseName string, limit int) ([]training.RestTimePattern, error)
}

type userLocker interface {
	Lock(ctx context.Context, userID int64) (userlock.Unlock, error)
}

// Engine consolidates long-run feedback into weight suggestions and
// training preferences, keeping an audit trail of every adjustment.
type Engine struct {
	repo           learningRepo
	locker         userLocker
	metricsManager *metrics.Manager
	Now            func() time.Time
	NewRunID       func() string
}

func NewEngine(repo learningRepo, locker userLocker, metricsManager *metrics.Manager) *Engine {
	return &Engine{
		repo:           repo,
		locker:         locker,
		metricsManager: metricsManager,
		Now:            time.Now,
		NewRunID:       uuid.NewString,
	}
}

type ExerciseUpdate struct {
	ExerciseName   string  `json:"exerciseName"`
	PreviousWeight float64 `json:"previousWeight"`
	NewWeight      float64 `json:"newWeight"`
	Confidence     float64 `json:"confidence"`
	DecisionID     int64   `json:"decisionId"`
}

type ExerciseFailure struct {
	ExerciseName string `json:"exerciseName"`
	Error        string `json:"error"`
}

type SweepResult struct {
	RunID     string            `json:"runId"`
	UserID    int64             `json:"userId"`
	Updated   []ExerciseUpdate  `json:"updated"`
	Skipped   []string          `json:"skipped,omitempty"`
	Failed    []ExerciseFailure `json:"failed,omitempty"`
	StartedAt time.Time         `json:"startedAt"`
	Duration  time.Duration     `json:"duration"`

	errs error
}

// Err combines the per-exercise errors of the sweep, nil when none failed.
func (r *SweepResult) Err() error {
	return r.errs
}

// ProcessWeightLearningData rewrites the weight suggestion of every exercise
// the user has logged in the lookback window. Sweeps for the same user never
// overlap. A failing exercise is recorded in the result and does not stop
// the sweep; only failing to enumerate the exercises fails it.
func (e *Engine) ProcessWeightLearningData(ctx context.Context, userID int64) (_ *SweepResult, err error) {
	ctx, span := tracing.GlobalLearningTracer.Start(ctx, "learning.sweep")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	if err := training.ValidateUserID(userID); err != nil {
		return nil, err
	}

	unlock, err := e.locker.Lock(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock user %d: %w", userID, err)
	}
	defer func() {
		// the sweep may have been cancelled, release anyway
		if unlockErr := unlock(context.WithoutCancel(ctx)); unlockErr != nil {
			log.Warnf("learning sweep: unlock user %d: %s", userID, unlockErr)
		}
	}()

	e.metricsManager.GaugeActiveSweeps.Inc()
	defer e.metricsManager.GaugeActiveSweeps.Dec()

	startedAt := e.Now()
	result := &SweepResult{
		RunID:     e.NewRunID(),
		UserID:    userID,
		StartedAt: startedAt,
	}
	span.SetAttributes(attribute.String("run_id", result.RunID))
	logger := log.WithFields(log.Fields{
		"user_id": userID,
		"run_id":  result.RunID,
	})

	since := startedAt.AddDate(0, 0, -LookbackDays)
	exercises, err := e.repo.ListRecentExercises(ctx, userID, since)
	if err != nil {
		e.metricsManager.CounterSweeps.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("list recent exercises: %w", err)
	}

	for _, exercise := range exercises {
		if err := ctx.Err(); err != nil {
			e.metricsManager.CounterSweeps.WithLabelValues("failed").Inc()
			return nil, fmt.Errorf("learning sweep interrupted: %w", err)
		}

		update, err := e.processExercise(ctx, userID, result.RunID, exercise, since)
		switch {
		case err != nil:
			logger.WithField("exercise", exercise).Errorf("learning sweep: %s", err)
			result.Failed = append(result.Failed, ExerciseFailure{ExerciseName: exercise, Error: err.Error()})
			result.errs = multierr.Append(result.errs, fmt.Errorf("%s: %w", exercise, err))
			e.metricsManager.CounterSweepExercises.WithLabelValues("failed").Inc()
		case update == nil:
			result.Skipped = append(result.Skipped, exercise)
			e.metricsManager.CounterSweepExercises.WithLabelValues("skipped").Inc()
		default:
			result.Updated = append(result.Updated, *update)
			e.metricsManager.CounterSweepExercises.WithLabelValues("updated").Inc()
		}
	}

	result.Duration = e.Now().Sub(startedAt)
	e.metricsManager.HistSweepDuration.Observe(result.Duration.Seconds())
	e.metricsManager.CounterSweeps.WithLabelValues("ok").Inc()
	span.SetAttributes(
		attribute.Int("updated", len(result.Updated)),
		attribute.Int("failed", len(result.Failed)),
	)
	logger.Debugf(
		"learning sweep done: %d updated, %d skipped, %d failed in %s",
		len(result.Updated), len(result.Skipped), len(result.Failed), result.Duration,
	)

	return result, nil
}

// processExercise learns from the history logged since the start of the
// lookback window. It returns nil without error when there is nothing to learn from.
func (e *Engine) processExercise(ctx context.Context, userID int64, runID, exercise string, since time.Time) (*ExerciseUpdate, error) {
	history, err := e.repo.ListWeightHistorySince(ctx, userID, exercise, since, WeightHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("list weight history: %w", err)
	}
	feedback, err := e.repo.ListSetFeedback(ctx, userID, exercise, SetFeedbackLimit)
	if err != nil {
		return nil, fmt.Errorf("list set feedback: %w", err)
	}

	rec, ok := Recommend(history, feedback)
	if !ok {
		return nil, nil
	}

	previousSuggested := 0.0
	current, err := e.repo.GetWeightSuggestion(ctx, userID, exercise)
	switch {
	case err == nil:
		previousSuggested = current.SuggestedWeight
	case !errors.Is(err, training.ErrSuggestionNotFound):
		return nil, fmt.Errorf("get current suggestion: %w", err)
	}

	now := e.Now()
	suggestion := training.WeightSuggestion{
		UserID:           userID,
		ExerciseName:     exercise,
		SuggestedWeight:  rec.Weight,
		ConfidenceScore:  rec.Confidence,
		BasedOnSessions:  len(history),
		ProgressionTrend: rec.Trend,
		ValidUntil:       now.Add(training.SuggestionValidity),
		UpdatedAt:        now,
	}
	decision := training.AIDecision{
		UserID:     userID,
		Type:       training.DecisionWeightSuggestionUpdate,
		Reasoning:  weightReasoning(rec),
		Confidence: rec.Confidence,
		CreatedAt:  now,
		WeightUpdate: &training.WeightUpdateTrigger{
			RunID:             runID,
			ExerciseName:      exercise,
			PreviousWeight:    previousSuggested,
			NewWeight:         rec.Weight,
			AverageRPE:        rec.Signals.AverageRPE,
			TooLightCount:     rec.Signals.TooLightCount,
			PerfectCount:      rec.Signals.PerfectCount,
			TooHeavyCount:     rec.Signals.TooHeavyCount,
			Trend:             rec.Trend,
			RecentWeightsVar:  rec.RecentVariance,
			DataPoints:        rec.DataPoints,
			AdjustmentPercent: rec.AdjustmentPercent,
		},
	}
	if err := decision.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ai decision: %w", err)
	}

	stored, err := e.repo.UpsertSuggestionWithDecision(ctx, suggestion, decision)
	if err != nil {
		return nil, fmt.Errorf("upsert weight suggestion: %w", err)
	}
	e.metricsManager.CounterAIDecisions.WithLabelValues(string(decision.Type)).Inc()

	return &ExerciseUpdate{
		ExerciseName:   exercise,
		PreviousWeight: previousSuggested,
		NewWeight:      rec.Weight,
		Confidence:     rec.Confidence,
		DecisionID:     stored.ID,
	}, nil
}

func weightReasoning(rec Recommendation) string {
	switch {
	case rec.AdjustmentPercent > 0:
		return fmt.Sprintf(
			"last weight %.1f kg felt easy (avg RPE %.1f, trend %s), increasing by %.1f%%",
			rec.PreviousWeight, rec.Signals.AverageRPE, rec.Trend, rec.AdjustmentPercent,
		)
	case rec.AdjustmentPercent < 0:
		return fmt.Sprintf(
			"last weight %.1f kg felt too hard (avg RPE %.1f, trend %s), decreasing by %.1f%%",
			rec.PreviousWeight, rec.Signals.AverageRPE, rec.Trend, -rec.AdjustmentPercent,
		)
	default:
		return fmt.Sprintf(
			"no clear signal from %d data points, keeping %.1f kg",
			rec.DataPoints, rec.PreviousWeight,
		)
	}
}

const (
	DefaultDecisionsLimit = 50
	MaxDecisionsLimit     = 500
)

var ErrInvalidDecisionType = errors.New("invalid decision type")

// ListDecisions returns the user's AI decisions, newest first. An empty
// decisionType lists all types.
func (e *Engine) ListDecisions(ctx context.Context, userID int64, decisionType training.DecisionType, limit int) (_ []training.AIDecision, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "learning.decisions.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.String("type", string(decisionType)),
	)

	if err := training.ValidateUserID(userID); err != nil {
		return nil, err
	}
	if decisionType != "" && !decisionType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecisionType, decisionType)
	}
	if limit <= 0 {
		limit = DefaultDecisionsLimit
	}
	limit = min(limit, MaxDecisionsLimit)

	decisions, err := e.repo.ListAIDecisions(ctx, userID, decisionType, limit)
	if err != nil {
		return nil, fmt.Errorf("list ai decisions: %w", err)
	}
	return decisions, nil
}
