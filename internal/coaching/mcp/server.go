package mcp

import (
	"github.com/2beens/fitcoach/internal/coaching"
	"github.com/2beens/fitcoach/internal/telemetry/metrics"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ServerName    = "fitcoach"
	ServerVersion = "1.0.0"
)

type NewServerParams struct {
	Core                    *coaching.Core
	MetricsManager          *metrics.Manager
	RateLimiter             RateLimiter
	AnalysisRateLimitPerMin int
}

// NewServer builds the coaching MCP server. It is served over stdio by
// cmd/coach_mcp and mounted at /mcp over streamable HTTP by the service.
func NewServer(params NewServerParams) *mcp.Server {
	svc := NewCoachingService(CoachingServiceParams{
		Schema:                  params.Core.Repo,
		Metrics:                 params.Core.Metrics,
		Suggestions:             params.Core.Suggestions,
		Periodization:           params.Core.Periodization,
		Reports:                 params.Core.Reports,
		Learning:                params.Core.Learning,
		Feedback:                params.Core.Repo,
		RateLimiter:             params.RateLimiter,
		AnalysisRateLimitPerMin: params.AnalysisRateLimitPerMin,
	})
	return newServer(NewHandler(svc, params.MetricsManager))
}

func newServer(h *Handler) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_fitcoach_schema",
		Description: "Returns the DB schema of the fitcoach tables (sessions, exercise logs, feedback, weight history, suggestions, periodization, AI decisions, preferences, rest patterns): columns, types, nullable, default.",
	}, h.GetFitcoachSchemaTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_progress_metrics",
		Description: "Returns strength and volume progress for a user over the last window_days (default 30): per-exercise first/last weight, volume change between window halves, average RPE and a consistency score.",
	}, h.GetProgressMetricsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_adherence_metrics",
		Description: "Returns adherence for a user over the last window_days (default 30): sessions per week against the weekly goal, completion rate, current streak and average session duration.",
	}, h.GetAdherenceMetricsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_effectiveness_metrics",
		Description: "Returns program effectiveness from post-workout feedback over the last window_days (default 30): satisfaction, fatigue, RPE, best split and preferred or disliked exercises.",
	}, h.GetEffectivenessMetricsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_weekly_progress",
		Description: "Returns completed sessions in the current ISO week against the user's weekly frequency goal.",
	}, h.GetWeeklyProgressTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_weight_suggestion",
		Description: "Returns the suggested working weight for an exercise, computed from recent performance when no valid suggestion is stored.",
	}, h.GetWeightSuggestionTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "record_performance",
		Description: "Records a performed exercise (weight, feeling, RPE, reps, sets) into the weight history used by suggestions and learning.",
	}, h.RecordPerformanceTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "analyze_stagnation",
		Description: "Analyzes the last 3 weeks for stagnation (plateau, overreaching, under-stimulus, low satisfaction, volume decline, long phase) and stores a pending phase recommendation. Rate limited per user.",
	}, h.AnalyzeStagnationTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "record_phase_decision",
		Description: "Accepts or rejects a pending periodization recommendation. An accepted change restarts the phase week count.",
	}, h.RecordPhaseDecisionTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_periodization_history",
		Description: "Lists past periodization analyses for a user, most recent first.",
	}, h.GetPeriodizationHistoryTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_report",
		Description: "Returns a weekly (7 days) or monthly (30 days) report with metrics, insights and recommendations.",
	}, h.GetReportTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_ai_decisions",
		Description: "Lists the audit trail of automatic adjustments (intensity, duration, frequency, weight suggestion updates) with reasoning and confidence.",
	}, h.ListAIDecisionsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "run_learning_sweep",
		Description: "Recomputes the weight suggestions of every exercise the user logged in the last 4 weeks from set feedback and history. Sweeps for the same user never overlap.",
	}, h.RunLearningSweepTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "submit_workout_feedback",
		Description: "Stores post-workout feedback (satisfaction, fatigue, overall RPE, progress feeling, liked and disliked exercises) for a session and adjusts the user's intensity, session duration and weekly frequency preferences.",
	}, h.SubmitWorkoutFeedbackTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "record_set_feedback",
		Description: "Records how a logged set felt (set RPE, too_light / perfect / too_heavy, completed as planned). The weight learning sweep adjusts suggestions from it.",
	}, h.RecordSetFeedbackTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "recommend_rest",
		Description: "Recommends the rest between sets of an exercise from the user's recent rest patterns and fatigue.",
	}, h.RecommendRestTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "record_rest_pattern",
		Description: "Records an observed rest between sets (recommended and actual seconds, next set performance in percent, fatigue 1-5) used by recommend_rest.",
	}, h.RecordRestPatternTool())

	return s
}
