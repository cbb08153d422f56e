package suggestions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/training"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	sourceCached    = "cached"
	sourceComputed  = "computed"
	sourceColdStart = "cold_start"
)

var ErrInvalidPerformance = errors.New("invalid performance record")

//go:generate mockgen -source=$GOFILE -destination=engine_mocks_test.go -package=suggestions_test
type suggestionsRepo interface {
	GetWeightSuggestion(ctx context.Context, userID int64, exerciseName string) (*training.WeightSuggestion, error)
	UpsertWeightSuggestion(ctx context.Context, s training.WeightSuggestion) error
	ListWeightHistory(ctx context.Context, userID int64, exerciseName string, limit int) ([]training.WeightHistoryEntry, error)
	AddWeightHistory(ctx context.Context, entry training.WeightHistoryEntry) (*training.WeightHistoryEntry, error)
}

// Engine serves per-exercise weight suggestions with write-through caching
// in the suggestion store.
type Engine struct {
	repo           suggestionsRepo
	metricsManager *metrics.Manager
	Now            func() time.Time
}

func NewEngine(repo suggestionsRepo, metricsManager *metrics.Manager) *Engine {
	return &Engine{
		repo:           repo,
		metricsManager: metricsManager,
		Now:            time.Now,
	}
}

// GetSuggestion returns the stored suggestion while it is valid. Otherwise it
// computes a new one from recent history, persists it and returns it.
func (e *Engine) GetSuggestion(ctx context.Context, userID int64, exerciseName string) (_ *training.WeightSuggestion, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "suggestions.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.String("exercise", exerciseName),
	)

	if err := training.ValidateUserID(userID); err != nil {
		return nil, err
	}
	exerciseName = strings.TrimSpace(exerciseName)
	if exerciseName == "" {
		return nil, errors.New("exercise name is empty")
	}

	now := e.Now()
	existing, err := e.repo.GetWeightSuggestion(ctx, userID, exerciseName)
	switch {
	case err == nil && existing.IsValidAt(now):
		span.SetAttributes(attribute.String("source", sourceCached))
		e.metricsManager.CounterSuggestions.WithLabelValues(sourceCached).Inc()
		return existing, nil
	case err != nil && !errors.Is(err, training.ErrSuggestionNotFound):
		// treated as a miss, the upsert below still guarantees one row
		log.WithFields(log.Fields{
			"user_id":  userID,
			"exercise": exerciseName,
		}).Warnf("get weight suggestion: %s", err)
	}

	history, err := e.repo.ListWeightHistory(ctx, userID, exerciseName, HistoryLimit)
	if err != nil {
		log.WithFields(log.Fields{
			"user_id":  userID,
			"exercise": exerciseName,
		}).Warnf("list weight history, falling back to cold start: %s", err)
		history = nil
	}

	weight, confidence, trend := Compute(exerciseName, history)
	suggestion := training.WeightSuggestion{
		UserID:           userID,
		ExerciseName:     exerciseName,
		SuggestedWeight:  weight,
		ConfidenceScore:  confidence,
		BasedOnSessions:  len(history),
		ProgressionTrend: trend,
		ValidUntil:       now.Add(training.SuggestionValidity),
		UpdatedAt:        now,
	}

	if err := e.repo.UpsertWeightSuggestion(ctx, suggestion); err != nil {
		return nil, fmt.Errorf("persist weight suggestion: %w", err)
	}

	source := sourceComputed
	if len(history) == 0 {
		source = sourceColdStart
	}
	span.SetAttributes(attribute.String("source", source))
	e.metricsManager.CounterSuggestions.WithLabelValues(source).Inc()

	return &suggestion, nil
}

type Performance struct {
	UserID       int64
	ExerciseName string
	ActualWeight float64
	Feeling      training.WeightFeeling
	RPE          int
	Reps         int
	Sets         int
	PerformedAt  time.Time
}

func (p Performance) Validate() error {
	if err := training.ValidateUserID(p.UserID); err != nil {
		return err
	}
	if strings.TrimSpace(p.ExerciseName) == "" {
		return fmt.Errorf("%w: exercise name is empty", ErrInvalidPerformance)
	}
	if p.ActualWeight < 0 {
		return fmt.Errorf("%w: negative weight %f", ErrInvalidPerformance, p.ActualWeight)
	}
	if p.RPE < 0 || p.RPE > 10 {
		return fmt.Errorf("%w: rpe out of range: %d", ErrInvalidPerformance, p.RPE)
	}
	if p.Feeling != "" && !p.Feeling.Valid() {
		return fmt.Errorf("%w: unknown feeling %q", ErrInvalidPerformance, p.Feeling)
	}
	return nil
}

// RecordPerformance appends a weight history entry. The suggested weight is
// the one currently stored for the exercise, or the actual weight when there
// is none.
func (e *Engine) RecordPerformance(ctx context.Context, p Performance) (_ *training.WeightHistoryEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "suggestions.record-performance")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", p.UserID),
		attribute.String("exercise", p.ExerciseName),
	)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	exerciseName := strings.TrimSpace(p.ExerciseName)

	suggested := p.ActualWeight
	current, err := e.repo.GetWeightSuggestion(ctx, p.UserID, exerciseName)
	switch {
	case err == nil:
		suggested = current.SuggestedWeight
	case !errors.Is(err, training.ErrSuggestionNotFound):
		return nil, fmt.Errorf("get current suggestion: %w", err)
	}

	performedAt := p.PerformedAt
	if performedAt.IsZero() {
		performedAt = e.Now()
	}

	entry, err := e.repo.AddWeightHistory(ctx, training.WeightHistoryEntry{
		UserID:          p.UserID,
		ExerciseName:    exerciseName,
		WorkoutDate:     performedAt,
		SuggestedWeight: suggested,
		ActualWeight:    p.ActualWeight,
		WeightFeedback:  p.Feeling,
		RPEAchieved:     p.RPE,
		RepsCompleted:   p.Reps,
		SetsCompleted:   p.Sets,
	})
	if err != nil {
		return nil, fmt.Errorf("add weight history: %w", err)
	}
	return entry, nil
}
