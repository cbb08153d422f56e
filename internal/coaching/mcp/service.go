package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/analytics"
	"github.com/2beens/fitcoach/internal/learning"
	"github.com/2beens/fitcoach/internal/periodization"
	"github.com/2beens/fitcoach/internal/reporting"
	"github.com/2beens/fitcoach/internal/suggestions"
	"github.com/2beens/fitcoach/internal/training"

	"github.com/go-redis/redis_rate/v9"
)

var ErrRateLimited = errors.New("rate limited")

// metricsEngine provides the progress, adherence and effectiveness metrics.
type metricsEngine interface {
	Progress(ctx context.Context, userID int64, windowDays int) (*analytics.ProgressMetrics, error)
	Adherence(ctx context.Context, userID int64, windowDays int) (*analytics.AdherenceMetrics, error)
	Effectiveness(ctx context.Context, userID int64, windowDays int) (*analytics.EffectivenessMetrics, error)
	WeeklyProgress(ctx context.Context, userID int64) (*analytics.WeeklyProgress, error)
}

type suggestionEngine interface {
	GetSuggestion(ctx context.Context, userID int64, exerciseName string) (*training.WeightSuggestion, error)
	RecordPerformance(ctx context.Context, p suggestions.Performance) (*training.WeightHistoryEntry, error)
}

type stagnationAnalyzer interface {
	AnalyzeStagnation(ctx context.Context, userID int64) (*periodization.StagnationAnalysis, error)
	RecordDecision(ctx context.Context, userID, analysisID int64, decision training.Decision) error
	History(ctx context.Context, userID int64, limit int) ([]training.PeriodizationAnalysis, error)
}

type reportBuilder interface {
	Report(ctx context.Context, userID int64, period reporting.Period) (*reporting.Report, error)
	Invalidate(userID int64)
}

// learningEngine provides the AI learning operations reachable from tools.
type learningEngine interface {
	ProcessWeightLearningData(ctx context.Context, userID int64) (*learning.SweepResult, error)
	UpdateUserPreferences(ctx context.Context, userID int64, fb training.PostWorkoutFeedback) (*learning.PreferencesUpdate, error)
	RecommendRest(ctx context.Context, userID int64, exerciseName string) (*learning.RestRecommendation, error)
	RecordRestPattern(ctx context.Context, p training.RestTimePattern) (*training.RestTimePattern, error)
	ListDecisions(ctx context.Context, userID int64, decisionType training.DecisionType, limit int) ([]training.AIDecision, error)
}

// feedbackStore persists the raw feedback the learning rules run on.
type feedbackStore interface {
	AddWorkoutFeedback(ctx context.Context, f training.PostWorkoutFeedback) (*training.PostWorkoutFeedback, error)
	UpsertSetFeedback(ctx context.Context, userID int64, f training.SetFeedback) error
}

// RateLimiter is satisfied by *redis_rate.Limiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

type schemaDescriber interface {
	DescribeTables(ctx context.Context) ([]training.TableDescription, error)
}

// coachingService is used by Handler for testability.
type coachingService interface {
	GetSchema(ctx context.Context) (string, error)
	GetProgressMetrics(ctx context.Context, userID int64, windowDays int) (*analytics.ProgressMetrics, error)
	GetAdherenceMetrics(ctx context.Context, userID int64, windowDays int) (*analytics.AdherenceMetrics, error)
	GetEffectivenessMetrics(ctx context.Context, userID int64, windowDays int) (*analytics.EffectivenessMetrics, error)
	GetWeeklyProgress(ctx context.Context, userID int64) (*analytics.WeeklyProgress, error)
	GetWeightSuggestion(ctx context.Context, userID int64, exerciseName string) (*training.WeightSuggestion, error)
	RecordPerformance(ctx context.Context, p suggestions.Performance) (*training.WeightHistoryEntry, error)
	AnalyzeStagnation(ctx context.Context, userID int64) (*periodization.StagnationAnalysis, error)
	RecordPhaseDecision(ctx context.Context, userID, analysisID int64, decision string) error
	GetPeriodizationHistory(ctx context.Context, userID int64, limit int) ([]training.PeriodizationAnalysis, error)
	GetReport(ctx context.Context, userID int64, period string) (*reporting.Report, error)
	ListAIDecisions(ctx context.Context, userID int64, decisionType string, limit int) ([]training.AIDecision, error)
	RunLearningSweep(ctx context.Context, userID int64) (*learning.SweepResult, error)
	SubmitWorkoutFeedback(ctx context.Context, fb training.PostWorkoutFeedback) (*FeedbackSubmission, error)
	RecordSetFeedback(ctx context.Context, userID int64, f training.SetFeedback) error
	RecommendRest(ctx context.Context, userID int64, exerciseName string) (*learning.RestRecommendation, error)
	RecordRestPattern(ctx context.Context, p training.RestTimePattern) (*training.RestTimePattern, error)
}

type CoachingServiceParams struct {
	Schema                  schemaDescriber
	Metrics                 metricsEngine
	Suggestions             suggestionEngine
	Periodization           stagnationAnalyzer
	Reports                 reportBuilder
	Learning                learningEngine
	Feedback                feedbackStore
	RateLimiter             RateLimiter
	AnalysisRateLimitPerMin int
}

// CoachingService holds the engines behind the MCP tools.
type CoachingService struct {
	schema        schemaDescriber
	metrics       metricsEngine
	suggestions   suggestionEngine
	periodization stagnationAnalyzer
	reports       reportBuilder
	learning      learningEngine
	feedback      feedbackStore

	rateLimiter  RateLimiter
	analysisRate redis_rate.Limit
}

func NewCoachingService(params CoachingServiceParams) *CoachingService {
	return &CoachingService{
		schema:        params.Schema,
		metrics:       params.Metrics,
		suggestions:   params.Suggestions,
		periodization: params.Periodization,
		reports:       params.Reports,
		learning:      params.Learning,
		feedback:      params.Feedback,
		rateLimiter:   params.RateLimiter,
		analysisRate:  redis_rate.PerMinute(params.AnalysisRateLimitPerMin),
	}
}

func analysisRateKey(userID int64) string {
	return fmt.Sprintf("fitcoach:analyze:%d", userID)
}

// GetSchema returns the DB schema of the fitcoach tables as markdown.
func (s *CoachingService) GetSchema(ctx context.Context) (string, error) {
	tables, err := s.schema.DescribeTables(ctx)
	if err != nil {
		return "", err
	}
	return formatFitcoachSchema(tables), nil
}

func formatFitcoachSchema(tables []training.TableDescription) string {
	var b strings.Builder
	b.WriteString("# Fitcoach DB Schema\n\n")
	if len(tables) == 0 {
		b.WriteString("No fitcoach tables found in the database.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Tables: %s.\n", strings.Join(training.Tables, ", "))

	for _, t := range tables {
		fmt.Fprintf(&b, "\n## %s\n\n", t.Table)
		b.WriteString("| Column | Type | Nullable | Default |\n|--------|------|----------|---------|\n")
		for _, c := range t.Columns {
			nullable, def := "NO", c.Default
			if c.Nullable {
				nullable = "YES"
			}
			if def == "" {
				def = "-"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", c.Name, c.DataType, nullable, def)
		}
	}
	return b.String()
}

func (s *CoachingService) GetProgressMetrics(ctx context.Context, userID int64, windowDays int) (*analytics.ProgressMetrics, error) {
	return s.metrics.Progress(ctx, userID, windowDays)
}

func (s *CoachingService) GetAdherenceMetrics(ctx context.Context, userID int64, windowDays int) (*analytics.AdherenceMetrics, error) {
	return s.metrics.Adherence(ctx, userID, windowDays)
}

func (s *CoachingService) GetEffectivenessMetrics(ctx context.Context, userID int64, windowDays int) (*analytics.EffectivenessMetrics, error) {
	return s.metrics.Effectiveness(ctx, userID, windowDays)
}

func (s *CoachingService) GetWeeklyProgress(ctx context.Context, userID int64) (*analytics.WeeklyProgress, error) {
	return s.metrics.WeeklyProgress(ctx, userID)
}

func (s *CoachingService) GetWeightSuggestion(ctx context.Context, userID int64, exerciseName string) (*training.WeightSuggestion, error) {
	return s.suggestions.GetSuggestion(ctx, userID, exerciseName)
}

// RecordPerformance stores the performed set and drops the user's cached
// reports, which no longer reflect it.
func (s *CoachingService) RecordPerformance(ctx context.Context, p suggestions.Performance) (*training.WeightHistoryEntry, error) {
	entry, err := s.suggestions.RecordPerformance(ctx, p)
	if err != nil {
		return nil, err
	}
	s.reports.Invalidate(p.UserID)
	return entry, nil
}

// AnalyzeStagnation runs a new analysis. Every run appends a row, so runs
// are limited per user.
func (s *CoachingService) AnalyzeStagnation(ctx context.Context, userID int64) (*periodization.StagnationAnalysis, error) {
	if err := training.ValidateUserID(userID); err != nil {
		return nil, err
	}

	if s.rateLimiter != nil {
		res, err := s.rateLimiter.Allow(ctx, analysisRateKey(userID), s.analysisRate)
		if err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		if res.Allowed <= 0 {
			return nil, fmt.Errorf("%w: retry after %.0f seconds", ErrRateLimited, res.RetryAfter.Seconds())
		}
	}

	return s.periodization.AnalyzeStagnation(ctx, userID)
}

func (s *CoachingService) RecordPhaseDecision(ctx context.Context, userID, analysisID int64, decision string) error {
	d, err := periodization.ParseDecision(decision)
	if err != nil {
		return err
	}
	return s.periodization.RecordDecision(ctx, userID, analysisID, d)
}

func (s *CoachingService) GetPeriodizationHistory(ctx context.Context, userID int64, limit int) ([]training.PeriodizationAnalysis, error) {
	return s.periodization.History(ctx, userID, limit)
}

func (s *CoachingService) GetReport(ctx context.Context, userID int64, period string) (*reporting.Report, error) {
	p, err := reporting.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	return s.reports.Report(ctx, userID, p)
}

// ListAIDecisions lists the audit trail; an empty type lists all of them.
func (s *CoachingService) ListAIDecisions(ctx context.Context, userID int64, decisionType string, limit int) ([]training.AIDecision, error) {
	return s.learning.ListDecisions(ctx, userID, training.DecisionType(decisionType), limit)
}

// RunLearningSweep runs the weight learning sweep for a single user now,
// without waiting for the periodic runner.
func (s *CoachingService) RunLearningSweep(ctx context.Context, userID int64) (*learning.SweepResult, error) {
	res, err := s.learning.ProcessWeightLearningData(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(res.Updated) > 0 {
		s.reports.Invalidate(userID)
	}
	return res, nil
}

type FeedbackSubmission struct {
	Feedback    training.PostWorkoutFeedback `json:"feedback"`
	Preferences *learning.PreferencesUpdate  `json:"preferences"`
}

// SubmitWorkoutFeedback stores the feedback, then adjusts the user's
// preferences from it. Stored feedback changes effectiveness metrics, so
// cached reports are dropped even if the adjustment fails.
func (s *CoachingService) SubmitWorkoutFeedback(ctx context.Context, fb training.PostWorkoutFeedback) (*FeedbackSubmission, error) {
	if err := fb.Validate(); err != nil {
		return nil, err
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now()
	}

	stored, err := s.feedback.AddWorkoutFeedback(ctx, fb)
	if err != nil {
		return nil, fmt.Errorf("store workout feedback: %w", err)
	}
	s.reports.Invalidate(fb.UserID)

	update, err := s.learning.UpdateUserPreferences(ctx, fb.UserID, *stored)
	if err != nil {
		return nil, fmt.Errorf("feedback %d stored, preferences not updated: %w", stored.ID, err)
	}
	return &FeedbackSubmission{
		Feedback:    *stored,
		Preferences: update,
	}, nil
}

// RecordSetFeedback stores how a single logged set felt. The weight learning
// sweep reads it.
func (s *CoachingService) RecordSetFeedback(ctx context.Context, userID int64, f training.SetFeedback) error {
	if err := training.ValidateUserID(userID); err != nil {
		return err
	}
	if f.ExerciseLogID <= 0 {
		return fmt.Errorf("%w: invalid id %d", training.ErrExerciseLogNotFound, f.ExerciseLogID)
	}
	return s.feedback.UpsertSetFeedback(ctx, userID, f)
}

func (s *CoachingService) RecommendRest(ctx context.Context, userID int64, exerciseName string) (*learning.RestRecommendation, error) {
	return s.learning.RecommendRest(ctx, userID, exerciseName)
}

func (s *CoachingService) RecordRestPattern(ctx context.Context, p training.RestTimePattern) (*training.RestTimePattern, error) {
	return s.learning.RecordRestPattern(ctx, p)
}
