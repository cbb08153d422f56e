package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/2beens/fitcoach/internal/suggestions"
	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/training"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"
)

const (
	toolStatusOK          = "ok"
	toolStatusError       = "error"
	toolStatusRateLimited = "rate_limited"
)

// Handler handles MCP tool requests: parses input, calls the service, formats the MCP result.
type Handler struct {
	service        coachingService
	metricsManager *metrics.Manager
}

func NewHandler(service coachingService, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service:        service,
		metricsManager: metricsManager,
	}
}

func (h *Handler) count(tool, status string) {
	if h.metricsManager == nil {
		return
	}
	h.metricsManager.CounterToolCalls.WithLabelValues(tool, status).Inc()
	if status == toolStatusRateLimited {
		h.metricsManager.CounterRateLimitedCalls.Inc()
	}
}

func (h *Handler) errorResult(tool, prefix string, err error) *mcp.CallToolResult {
	status := toolStatusError
	if errors.Is(err, ErrRateLimited) {
		status = toolStatusRateLimited
	}
	h.count(tool, status)
	log.Debugf("mcp tool %s: %s: %s", tool, prefix, err)
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: prefix + ": " + err.Error()}},
		IsError: true,
	}
}

func (h *Handler) jsonResult(tool string, v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return h.errorResult(tool, "Error encoding response", err)
	}
	h.count(tool, toolStatusOK)
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}
}

// GetFitcoachSchemaTool returns the MCP tool handler for get_fitcoach_schema.
func (h *Handler) GetFitcoachSchemaTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	const tool = "get_fitcoach_schema"
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		text, err := h.service.GetSchema(ctx)
		if err != nil {
			return h.errorResult(tool, "Error fetching schema", err), nil, nil
		}
		h.count(tool, toolStatusOK)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil, nil
	}
}

// MetricsInput is the input for the metrics tools.
type MetricsInput struct {
	UserID     int64 `json:"user_id" jsonschema:"User id"`
	WindowDays int   `json:"window_days,omitempty" jsonschema:"Window length in days ending now (default 30)"`
}

// GetProgressMetricsTool returns the MCP tool handler for get_progress_metrics.
func (h *Handler) GetProgressMetricsTool() func(context.Context, *mcp.CallToolRequest, MetricsInput) (*mcp.CallToolResult, any, error) {
	const tool = "get_progress_metrics"
	return func(ctx context.Context, _ *mcp.CallToolRequest, in MetricsInput) (*mcp.CallToolResult, any, error) {
		m, err := h.service.GetProgressMetrics(ctx, in.UserID, in.WindowDays)
		if err != nil {
			return h.errorResult(tool, "Error computing progress metrics", err), nil, nil
		}
		return h.jsonResult(tool, m), nil, nil
	}
}

// GetAdherenceMetricsTool returns the MCP tool handler for get_adherence_metrics.
func (h *Handler) GetAdherenceMetricsTool() func(context.Context, *mcp.CallToolRequest, MetricsInput) (*mcp.CallToolResult, any, error) {
	const tool = "get_adherence_metrics"
	return func(ctx context.Context, _ *mcp.CallToolRequest, in MetricsInput) (*mcp.CallToolResult, any, error) {
		m, err := h.service.GetAdherenceMetrics(ctx, in.UserID, in.WindowDays)
		if err != nil {
			return h.errorResult(tool, "Error computing adherence metrics", err), nil, nil
		}
		return h.jsonResult(tool, m), nil, nil
	}
}

// GetEffectivenessMetricsTool returns the MCP tool handler for get_effectiveness_metrics.
func (h *Handler) GetEffectivenessMetricsTool() func(context.Context, *mcp.CallToolRequest, MetricsInput) (*mcp.CallToolResult, any, error) {
	const tool = "get_effectiveness_metrics"
	return func(ctx context.Context, _ *mcp.CallToolRequest, in MetricsInput) (*mcp.CallToolResult, any, error) {
		m, err := h.service.GetEffectivenessMetrics(ctx, in.UserID, in.WindowDays)
		if err != nil {
			return h.errorResult(tool, "Error computing effectiveness metrics", err), nil, nil
		}
		return h.jsonResult(tool, m), nil, nil
	}
}

// UserInput is the input for tools that only need the user.
type UserInput struct {
	UserID int64 `json:"user_id" jsonschema:"User id"`
}

// GetWeeklyProgressTool returns the MCP tool handler for get_weekly_progress.
func (h *Handler) GetWeeklyProgressTool() func(context.Context, *mcp.CallToolRequest, UserInput) (*mcp.CallToolResult, any, error) {
	const tool = "get_weekly_progress"
	return func(ctx context.Context, _ *mcp.CallToolRequest, in UserInput) (*mcp.CallToolResult, any, error) {
		p, err := h.service.GetWeeklyProgress(ctx, in.UserID)
		if err != nil {
			return h.errorResult(tool, "Error computing weekly progress", err), nil, nil
		}
		return h.jsonResult(tool, p), nil, nil
	}
}

// ExerciseInput is the input for per-exercise tools.
type ExerciseInput struct {
	UserID       int64  `json:"user_id" jsonschema:"User id"`
	ExerciseName string `json:"exercise_name" jsonschema:"Exercise name (e.g. Bench Press)"`
}

// GetWeightSuggestionTool returns the MCP tool handler for get_weight_suggestion.
func (h *Handler) GetWeightSuggestionTool() func(context.Context, *mcp.CallToolRequest, ExerciseInput) (*mcp.CallToolResult, any, error) {
	const tool = "get_weight_suggestion"
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ExerciseInput) (*mcp.CallToolResult, any, error) {
		s, err := h.service.GetWeightSuggestion(ctx, in.UserID, in.ExerciseName)
		if err != nil {
			return h.errorResult(tool, "Error getting weight suggestion", err), nil, nil
		}
		return h.jsonResult(tool, s), nil, nil
	}
}

// RecordPerformanceInput is the input for record_performance.
type RecordPerformanceInput struct {
	UserID       int64   `json:"user_id" jsonschema:"User id"`
	ExerciseName string  `json:"exercise_name" jsonschema:"Exercise name"`
	ActualWeight float64 `json:"actual_weight" jsonschema:"Weight used in kg"`
	Feeling      string  `json:"feeling,omitempty" jsonschema:"How the weight felt: too_light, perfect or too_heavy"`
	RPE          int     `json:"rpe,omitempty" jsonschema:"Rate of perceived exertion 1-10 (0 = not reported)"`
	Reps         int     `json:"reps,omitempty" jsonschema:"Reps performed"`
	Sets         int     `json:"sets,omitempty" jsonschema:"Sets performed"`
	PerformedAt  string  `json:"performed_at,omitempty" jsonschema:"Date performed (YYYY-MM-DD), defaults to now"`
}

// RecordPerformanceTool returns the MCP tool handler for record_performance.
func (h *Handler) RecordPerformanceTool() func(context.Context, *mcp.CallToolRequest, RecordPerformanceInput) (*mcp.CallToolResult, any, error) {
	const tool = "record_performance"
	return func(ctx context.Context, _ *mcp.CallToolRequest, in RecordPerformanceInput) (*mcp.CallToolResult, any, error) {
		var performedAt time.Time
		if in.PerformedAt != "" {
			t, err := time.Parse("2006-01-02", in.PerformedAt)
			if err != nil {
				return h.errorResult(tool, "Invalid performed_at", errors.New("use YYYY-MM-DD")), nil, nil
			}
			performedAt = t
		}

		entry, err := h.service.RecordPerformance(ctx, suggestions.Performance{
			UserID:       in.UserID,
			ExerciseName: in.ExerciseName,
			ActualWeight: in.ActualWeight,
			Feeling:      training.WeightFeeling(in.Feeling),
			RPE:          in.RPE,
			Reps:         in.Reps,
			Sets:         in.Sets,
			PerformedAt:  performedAt,
		})
		if err != nil {
			return h.errorResult(tool, "Error recording performance", err), nil, nil
		}
		return h.jsonResult(tool, entry), nil, nil
	}
}

// AnalyzeStagnationTool returns the MCP tool handler for analyze_stagnation.
func (h *Handler) AnalyzeStagnationTool() func(context.Context, *mcp.CallToolRequest, UserInput) (*mcp.CallToolResult, any, error) {
	const tool = "analyze_stagnation"
	return func(ctx context.Context, _ *mcp.CallToolRequest, in UserInput) (*mcp.CallToolResult, any, error) {
		a, err := h.service.AnalyzeStagnation(ctx, in.UserID)
		if err != nil {
			return h.errorResult(tool, "Error analyzing stagnation", err), nil, nil
		}
		return h.jsonResult(tool, a), nil, nil
	}
}

// PhaseDecisionInput is the input for record_phase_decision.
type PhaseDecisionInput struct {
	UserID     int64  `json:"user_id" jsonschema:"User id"`
	AnalysisID int64  `json:"analysis_id" jsonschema:"Id of the pending periodization analysis"`
	Decision   string `json:"decision" jsonschema:"accepted or rejected"`
}

// RecordPhaseDecisionTool returns the MCP tool handler for record_phase_decision.
func (h *Handler) RecordPhaseDecisionTool() func(context.Context, *mcp.CallToolRequest, PhaseDecisionInput) (*mcp.CallToolResult, any, error) {
	const tool = "record_phase_decision"
	return func(ctx context.Context, _ *mcp.CallToolRequest, in PhaseDecisionInput) (*mcp.CallToolResult, any, error) {
		if err := h.service.RecordPhaseDecision(ctx, in.UserID, in.AnalysisID, in.Decision); err != nil {
			return h.errorResult(tool, "Error recording phase decision", err), nil, nil
		}
		return h.jsonResult(tool, map[string]any{
			"analysisId": in.AnalysisID,
			"decision":   in.Decision,
		}), nil, nil
	}
}

// LimitInput is the input for paged history tools.
type LimitInput struct {
	UserID int64 `json:"user_id" jsonschema:"User id"`
	Limit  int   `json:"limit,omitempty" jsonschema:"Max rows, most recent first"`
}

// GetPeriodizationHistoryTool returns the MCP tool handler for get_periodization_history.
func (h *Handler) GetPeriodizationHistoryTool() func(context.Context, *mcp.CallToolRequest, LimitInput) (*mcp.CallToolResult, any, error) {
	const tool = "get_periodization_history"
	return func(ctx context.Context, _ *mcp.CallToolRequest, in LimitInput) (*mcp.CallToolResult, any, error) {
		list, err := h.service.GetPeriodizationHistory(ctx, in.UserID, in.Limit)
		if err != nil {
			return h.errorResult(tool, "Error listing periodization history", err), nil, nil
		}
		return h.jsonResult(tool, list), nil, nil
	}
}

// ReportInput is the input for get_report.
type ReportInput struct {
	UserID int64  `json:"user_id" jsonschema:"User id"`
	Period string `json:"period,omitempty" jsonschema:"weekly (default) or monthly"`
}

// GetReportTool returns the MCP tool handler for get_report.
func (h *Handler) GetReportTool() func(context.Context, *mcp.CallToolRequest, ReportInput) (*mcp.CallToolResult, any, error) {
	const tool = "get_report"
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ReportInput) (*mcp.CallToolResult, any, error) {
		r, err := h.service.GetReport(ctx, in.UserID, in.Period)
		if err != nil {
			return h.errorResult(tool, "Error building report", err), nil, nil
		}
		return h.jsonResult(tool, r), nil, nil
	}
}

// AIDecisionsInput is the input for list_ai_decisions.
type AIDecisionsInput struct {
	UserID       int64  `json:"user_id" jsonschema:"User id"`
	DecisionType string `json:"decision_type,omitempty" jsonschema:"intensity_adjustment, duration_adjustment, frequency_adjustment or weight_suggestion_update; empty for all"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Max rows, most recent first (default 50)"`
}

// ListAIDecisionsTool returns the MCP tool handler for list_ai_decisions.
func (h *Handler) ListAIDecisionsTool() func(context.Context, *mcp.CallToolRequest, AIDecisionsInput) (*mcp.CallToolResult, any, error) {
	const tool = "list_ai_decisions"
	return func(ctx context.Context, _ *mcp.CallToolRequest, in AIDecisionsInput) (*mcp.CallToolResult, any, error) {
		list, err := h.service.ListAIDecisions(ctx, in.UserID, in.DecisionType, in.Limit)
		if err != nil {
			return h.errorResult(tool, "Error listing AI decisions", err), nil, nil
		}
		return h.jsonResult(tool, list), nil, nil
	}
}

// RunLearningSweepTool returns the MCP tool handler for run_learning_sweep.
func (h *Handler) RunLearningSweepTool() func(context.Context, *mcp.CallToolRequest, UserInput) (*mcp.CallToolResult, any, error) {
	const tool = "run_learning_sweep"
	return func(ctx context.Context, _ *mcp.CallToolRequest, in UserInput) (*mcp.CallToolResult, any, error) {
		res, err := h.service.RunLearningSweep(ctx, in.UserID)
		if err != nil {
			return h.errorResult(tool, "Error running learning sweep", err), nil, nil
		}
		return h.jsonResult(tool, res), nil, nil
	}
}

// WorkoutFeedbackInput is the input for submit_workout_feedback.
type WorkoutFeedbackInput struct {
	UserID             int64    `json:"user_id" jsonschema:"User id"`
	SessionID          int64    `json:"session_id" jsonschema:"Workout session id"`
	PlanID             *int64   `json:"plan_id,omitempty" jsonschema:"Id of the plan followed"`
	PlanName           string   `json:"plan_name,omitempty" jsonschema:"Name of the plan followed"`
	Satisfaction       int      `json:"satisfaction" jsonschema:"Satisfaction 1-5"`
	Fatigue            int      `json:"fatigue" jsonschema:"Fatigue 1-5"`
	OverallRPE         int      `json:"overall_rpe" jsonschema:"Overall RPE 1-10"`
	ProgressFeeling    int      `json:"progress_feeling" jsonschema:"Feeling of progress 1-5"`
	PreferredExercises []string `json:"preferred_exercises,omitempty" jsonschema:"Exercises the user enjoyed"`
	DislikedExercises  []string `json:"disliked_exercises,omitempty" jsonschema:"Exercises the user disliked"`
}

// SubmitWorkoutFeedbackTool returns the MCP tool handler for submit_workout_feedback.
func (h *Handler) SubmitWorkoutFeedbackTool() func(context.Context, *mcp.CallToolRequest, WorkoutFeedbackInput) (*mcp.CallToolResult, any, error) {
	const tool = "submit_workout_feedback"
	return func(ctx context.Context, _ *mcp.CallToolRequest, in WorkoutFeedbackInput) (*mcp.CallToolResult, any, error) {
		submission, err := h.service.SubmitWorkoutFeedback(ctx, training.PostWorkoutFeedback{
			UserID:             in.UserID,
			SessionID:          in.SessionID,
			PlanID:             in.PlanID,
			PlanName:           in.PlanName,
			Satisfaction:       in.Satisfaction,
			Fatigue:            in.Fatigue,
			OverallRPE:         in.OverallRPE,
			ProgressFeeling:    in.ProgressFeeling,
			PreferredExercises: in.PreferredExercises,
			DislikedExercises:  in.DislikedExercises,
		})
		if err != nil {
			return h.errorResult(tool, "Error submitting workout feedback", err), nil, nil
		}
		return h.jsonResult(tool, submission), nil, nil
	}
}

// SetFeedbackInput is the input for record_set_feedback.
type SetFeedbackInput struct {
	UserID             int64  `json:"user_id" jsonschema:"User id"`
	ExerciseLogID      int64  `json:"exercise_log_id" jsonschema:"Id of the logged set"`
	SetRPE             int    `json:"set_rpe" jsonschema:"RPE of the set 1-10"`
	WeightFeeling      string `json:"weight_feeling" jsonschema:"too_light, perfect or too_heavy"`
	CompletedAsPlanned *bool  `json:"completed_as_planned,omitempty" jsonschema:"Whether the set was completed as planned (default true)"`
}

// RecordSetFeedbackTool returns the MCP tool handler for record_set_feedback.
func (h *Handler) RecordSetFeedbackTool() func(context.Context, *mcp.CallToolRequest, SetFeedbackInput) (*mcp.CallToolResult, any, error) {
	const tool = "record_set_feedback"
	return func(ctx context.Context, _ *mcp.CallToolRequest, in SetFeedbackInput) (*mcp.CallToolResult, any, error) {
		f := training.SetFeedback{
			ExerciseLogID:      in.ExerciseLogID,
			SetRPE:             in.SetRPE,
			WeightFeeling:      training.WeightFeeling(in.WeightFeeling),
			CompletedAsPlanned: true,
		}
		if in.CompletedAsPlanned != nil {
			f.CompletedAsPlanned = *in.CompletedAsPlanned
		}
		if err := h.service.RecordSetFeedback(ctx, in.UserID, f); err != nil {
			return h.errorResult(tool, "Error recording set feedback", err), nil, nil
		}
		return h.jsonResult(tool, f), nil, nil
	}
}

// RecommendRestTool returns the MCP tool handler for recommend_rest.
func (h *Handler) RecommendRestTool() func(context.Context, *mcp.CallToolRequest, ExerciseInput) (*mcp.CallToolResult, any, error) {
	const tool = "recommend_rest"
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ExerciseInput) (*mcp.CallToolResult, any, error) {
		rec, err := h.service.RecommendRest(ctx, in.UserID, in.ExerciseName)
		if err != nil {
			return h.errorResult(tool, "Error recommending rest", err), nil, nil
		}
		return h.jsonResult(tool, rec), nil, nil
	}
}

// RestPatternInput is the input for record_rest_pattern.
type RestPatternInput struct {
	UserID                 int64   `json:"user_id" jsonschema:"User id"`
	ExerciseName           string  `json:"exercise_name" jsonschema:"Exercise name"`
	RecommendedRestSeconds int     `json:"recommended_rest_seconds,omitempty" jsonschema:"Rest that was recommended, in seconds"`
	ActualRestSeconds      int     `json:"actual_rest_seconds" jsonschema:"Rest actually taken, in seconds"`
	NextSetPerformance     float64 `json:"next_set_performance" jsonschema:"Performance of the following set in percent of the plan"`
	FatigueLevel           int     `json:"fatigue_level,omitempty" jsonschema:"Fatigue after the set 1-5 (0 = not reported)"`
}

// RecordRestPatternTool returns the MCP tool handler for record_rest_pattern.
func (h *Handler) RecordRestPatternTool() func(context.Context, *mcp.CallToolRequest, RestPatternInput) (*mcp.CallToolResult, any, error) {
	const tool = "record_rest_pattern"
	return func(ctx context.Context, _ *mcp.CallToolRequest, in RestPatternInput) (*mcp.CallToolResult, any, error) {
		p, err := h.service.RecordRestPattern(ctx, training.RestTimePattern{
			UserID:                 in.UserID,
			ExerciseName:           in.ExerciseName,
			RecommendedRestSeconds: in.RecommendedRestSeconds,
			ActualRestSeconds:      in.ActualRestSeconds,
			NextSetPerformance:     in.NextSetPerformance,
			FatigueLevel:           in.FatigueLevel,
		})
		if err != nil {
			return h.errorResult(tool, "Error recording rest pattern", err), nil, nil
		}
		return h.jsonResult(tool, p), nil, nil
	}
}
