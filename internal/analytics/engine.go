package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/training"
	"github.com/2beens/fitcoach/pkg"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const DefaultWindowDays = 30

//go:generate mockgen -source=$GOFILE -destination=engine_mocks_test.go -package=analytics_test
type trainingRepo interface {
	ListSessions(ctx context.Context, userID int64, dateRange training.DateRange) ([]training.WorkoutSession, error)
	ListExerciseLogs(ctx context.Context, userID int64, dateRange training.DateRange) ([]training.ExerciseLog, error)
	ListWorkoutFeedback(ctx context.Context, userID int64, dateRange training.DateRange) ([]training.PostWorkoutFeedback, error)
	GetUserPreferences(ctx context.Context, userID int64) (*training.UserPreferences, error)
}

// Snapshot bundles the three metric families over one window. It is the
// input shape of stagnation analysis and reports.
type Snapshot struct {
	UserID        int64                `json:"userId"`
	WindowDays    int                  `json:"windowDays"`
	GeneratedAt   time.Time            `json:"generatedAt"`
	Progress      ProgressMetrics      `json:"progress"`
	Adherence     AdherenceMetrics     `json:"adherence"`
	Effectiveness EffectivenessMetrics `json:"effectiveness"`
}

type WeeklyProgress struct {
	WeekStart  time.Time `json:"weekStart"`
	Completed  int       `json:"completed"`
	Goal       int       `json:"goal"`
	Percentage float64   `json:"percentage"`
}

// Engine computes metrics over a lookback window ending at Now.
type Engine struct {
	repo trainingRepo
	Now  func() time.Time
}

func NewEngine(repo trainingRepo) *Engine {
	return &Engine{
		repo: repo,
		Now:  time.Now,
	}
}

func (e *Engine) window(windowDays int) (training.DateRange, int) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return training.LastDays(e.Now(), windowDays), windowDays
}

func (e *Engine) Progress(ctx context.Context, userID int64, windowDays int) (_ *ProgressMetrics, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analytics.progress")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	if err := training.ValidateUserID(userID); err != nil {
		return nil, err
	}

	window, windowDays := e.window(windowDays)
	logs, err := e.repo.ListExerciseLogs(ctx, userID, window)
	if err != nil {
		return nil, fmt.Errorf("list exercise logs: %w", err)
	}

	metrics := ComputeProgress(logs, window, windowDays)
	return &metrics, nil
}

func (e *Engine) Adherence(ctx context.Context, userID int64, windowDays int) (_ *AdherenceMetrics, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analytics.adherence")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	if err := training.ValidateUserID(userID); err != nil {
		return nil, err
	}

	window, windowDays := e.window(windowDays)
	sessions, err := e.repo.ListSessions(ctx, userID, window)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	prefs, err := e.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	metrics := ComputeAdherence(sessions, prefs.AvailableDays, window, windowDays)
	return &metrics, nil
}

func (e *Engine) Effectiveness(ctx context.Context, userID int64, windowDays int) (_ *EffectivenessMetrics, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analytics.effectiveness")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	if err := training.ValidateUserID(userID); err != nil {
		return nil, err
	}

	window, windowDays := e.window(windowDays)
	feedback, err := e.repo.ListWorkoutFeedback(ctx, userID, window)
	if err != nil {
		return nil, fmt.Errorf("list workout feedback: %w", err)
	}

	metrics := ComputeEffectiveness(feedback, windowDays)
	return &metrics, nil
}

// Snapshot computes progress, adherence and effectiveness concurrently.
func (e *Engine) Snapshot(ctx context.Context, userID int64, windowDays int) (_ *Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analytics.snapshot")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int("window_days", windowDays),
	)

	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	snapshot := &Snapshot{
		UserID:      userID,
		WindowDays:  windowDays,
		GeneratedAt: e.Now(),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		progress, err := e.Progress(gCtx, userID, windowDays)
		if err != nil {
			return err
		}
		snapshot.Progress = *progress
		return nil
	})
	g.Go(func() error {
		adherence, err := e.Adherence(gCtx, userID, windowDays)
		if err != nil {
			return err
		}
		snapshot.Adherence = *adherence
		return nil
	})
	g.Go(func() error {
		effectiveness, err := e.Effectiveness(gCtx, userID, windowDays)
		if err != nil {
			return err
		}
		snapshot.Effectiveness = *effectiveness
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// WeeklyProgress counts completed sessions in the current ISO week (Monday
// to now) against the user's weekly frequency goal.
func (e *Engine) WeeklyProgress(ctx context.Context, userID int64) (_ *WeeklyProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analytics.weekly-progress")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	if err := training.ValidateUserID(userID); err != nil {
		return nil, err
	}

	now := e.Now()
	weekStart := StartOfISOWeek(now)
	sessions, err := e.repo.ListSessions(ctx, userID, training.DateRange{From: weekStart, To: now})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	prefs, err := e.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	completed := 0
	for _, s := range sessions {
		if s.IsCompleted() {
			completed++
		}
	}

	goal := prefs.WeeklyFrequency
	if goal <= 0 {
		goal = training.DefaultWeeklyFreq
	}

	return &WeeklyProgress{
		WeekStart:  weekStart,
		Completed:  completed,
		Goal:       goal,
		Percentage: math.Min(100, pkg.Percentage(float64(completed), float64(goal))),
	}, nil
}

func (e *Engine) preferences(ctx context.Context, userID int64) (*training.UserPreferences, error) {
	prefs, err := e.repo.GetUserPreferences(ctx, userID)
	if errors.Is(err, training.ErrPreferencesNotFound) {
		defaults := training.DefaultPreferences(userID)
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user preferences: %w", err)
	}
	return prefs, nil
}

// StartOfISOWeek returns Monday 00:00 of t's week, in t's location.
func StartOfISOWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
