package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// Repo is the Postgres storage collaborator for every training entity.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *Repo) ListSessions(ctx context.Context, userID int64, dateRange DateRange) (_ []WorkoutSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.sessions.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, plan_id, plan_name, started_at, completed_at, status
			FROM workout_session
			WHERE user_id = $1 AND started_at >= $2 AND started_at <= $3
			ORDER BY started_at;`,
		userID, dateRange.From, dateRange.To,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []WorkoutSession
	for rows.Next() {
		var s WorkoutSession
		var status string
		if err := rows.Scan(&s.ID, &s.UserID, &s.PlanID, &s.PlanName, &s.StartedAt, &s.CompletedAt, &status); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.Status = SessionStatus(status)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("sessions.count", len(sessions)))
	return sessions, nil
}

// ListExerciseLogs returns all logs of the user's sessions started within the
// range, joined with their set feedback when present.
func (r *Repo) ListExerciseLogs(ctx context.Context, userID int64, dateRange DateRange) (_ []ExerciseLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.logs.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT
				l.id, l.session_id, l.exercise_name, l.set_number, l.reps_completed, l.weight_used, l.rest_time_seconds,
				s.started_at,
				f.set_rpe, f.weight_feeling, f.completed_as_planned, f.created_at
			FROM exercise_log l
			JOIN workout_session s ON s.id = l.session_id
			LEFT JOIN set_feedback f ON f.exercise_log_id = l.id
			WHERE s.user_id = $1 AND s.started_at >= $2 AND s.started_at <= $3
			ORDER BY s.started_at, l.id;`,
		userID, dateRange.From, dateRange.To,
	)
	if err != nil {
		return nil, fmt.Errorf("query exercise logs: %w", err)
	}
	defer rows.Close()

	var logs []ExerciseLog
	for rows.Next() {
		var l ExerciseLog
		var setRPE *int
		var feeling *string
		var asPlanned *bool
		var feedbackAt *time.Time
		if err := rows.Scan(
			&l.ID, &l.SessionID, &l.ExerciseName, &l.SetNumber, &l.RepsCompleted, &l.WeightUsed, &l.RestTimeSeconds,
			&l.PerformedAt,
			&setRPE, &feeling, &asPlanned, &feedbackAt,
		); err != nil {
			return nil, fmt.Errorf("scan exercise log: %w", err)
		}
		if setRPE != nil {
			l.Feedback = &SetFeedback{
				ExerciseLogID:      l.ID,
				SetRPE:             *setRPE,
				WeightFeeling:      WeightFeeling(*feeling),
				CompletedAsPlanned: *asPlanned,
				CreatedAt:          *feedbackAt,
			}
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("logs.count", len(logs)))
	return logs, nil
}

func (r *Repo) ListWorkoutFeedback(ctx context.Context, userID int64, dateRange DateRange) (_ []PostWorkoutFeedback, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.workout_feedback.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT
				id, session_id, user_id, plan_id, plan_name, satisfaction, fatigue, overall_rpe, progress_feeling,
				preferred_exercises, disliked_exercises, created_at
			FROM post_workout_feedback
			WHERE user_id = $1 AND created_at >= $2 AND created_at <= $3
			ORDER BY created_at;`,
		userID, dateRange.From, dateRange.To,
	)
	if err != nil {
		return nil, fmt.Errorf("query workout feedback: %w", err)
	}
	defer rows.Close()

	var feedback []PostWorkoutFeedback
	for rows.Next() {
		var f PostWorkoutFeedback
		if err := rows.Scan(
			&f.ID, &f.SessionID, &f.UserID, &f.PlanID, &f.PlanName, &f.Satisfaction, &f.Fatigue, &f.OverallRPE, &f.ProgressFeeling,
			&f.PreferredExercises, &f.DislikedExercises, &f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan workout feedback: %w", err)
		}
		feedback = append(feedback, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return feedback, nil
}

// ListWeightHistory returns at most limit entries, most recent first.
func (r *Repo) ListWeightHistory(ctx context.Context, userID int64, exerciseName string, limit int) ([]WeightHistoryEntry, error) {
	return r.ListWeightHistorySince(ctx, userID, exerciseName, time.Time{}, limit)
}

// ListWeightHistorySince is ListWeightHistory restricted to workouts on or
// after since. A zero since does not restrict.
func (r *Repo) ListWeightHistorySince(
	ctx context.Context,
	userID int64,
	exerciseName string,
	since time.Time,
	limit int,
) (_ []WeightHistoryEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.weight_history.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.String("exercise", exerciseName),
		attribute.Int("limit", limit),
	)

	var sinceArg *time.Time
	if !since.IsZero() {
		sinceArg = &since
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT
				id, user_id, exercise_name, workout_date, suggested_weight, actual_weight,
				weight_feedback, rpe_achieved, reps_completed, sets_completed
			FROM weight_history
			WHERE user_id = $1 AND exercise_name = $2
				AND ($3::timestamptz IS NULL OR workout_date >= $3)
			ORDER BY workout_date DESC, id DESC
			LIMIT $4;`,
		userID, exerciseName, sinceArg, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query weight history: %w", err)
	}
	defer rows.Close()

	var entries []WeightHistoryEntry
	for rows.Next() {
		var e WeightHistoryEntry
		var feeling string
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.ExerciseName, &e.WorkoutDate, &e.SuggestedWeight, &e.ActualWeight,
			&feeling, &e.RPEAchieved, &e.RepsCompleted, &e.SetsCompleted,
		); err != nil {
			return nil, fmt.Errorf("scan weight history: %w", err)
		}
		e.WeightFeedback = WeightFeeling(feeling)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// ListRecentExercises returns the distinct exercises the user has weight history for since the given time.
func (r *Repo) ListRecentExercises(ctx context.Context, userID int64, since time.Time) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.weight_history.exercises")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT DISTINCT exercise_name FROM weight_history
			WHERE user_id = $1 AND workout_date >= $2
			ORDER BY exercise_name;`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent exercises: %w", err)
	}
	defer rows.Close()

	exercises, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect recent exercises: %w", err)
	}
	return exercises, nil
}

// ListSetFeedback returns the user's most recent set feedback for an exercise, newest first.
func (r *Repo) ListSetFeedback(ctx context.Context, userID int64, exerciseName string, limit int) (_ []SetFeedback, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.set_feedback.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.String("exercise", exerciseName),
	)

	rows, err := r.db.Query(
		ctx,
		`SELECT f.exercise_log_id, f.set_rpe, f.weight_feeling, f.completed_as_planned, f.created_at
			FROM set_feedback f
			JOIN exercise_log l ON l.id = f.exercise_log_id
			JOIN workout_session s ON s.id = l.session_id
			WHERE s.user_id = $1 AND l.exercise_name = $2
			ORDER BY f.created_at DESC
			LIMIT $3;`,
		userID, exerciseName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query set feedback: %w", err)
	}
	defer rows.Close()

	var feedback []SetFeedback
	for rows.Next() {
		var f SetFeedback
		var feeling string
		if err := rows.Scan(&f.ExerciseLogID, &f.SetRPE, &feeling, &f.CompletedAsPlanned, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan set feedback: %w", err)
		}
		f.WeightFeeling = WeightFeeling(feeling)
		feedback = append(feedback, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return feedback, nil
}

// AddWorkoutFeedback stores the post-workout questionnaire of one of the
// user's sessions.
func (r *Repo) AddWorkoutFeedback(ctx context.Context, f PostWorkoutFeedback) (_ *PostWorkoutFeedback, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.workout_feedback.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", f.UserID),
		attribute.Int64("session_id", f.SessionID),
	)

	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	preferred := f.PreferredExercises
	if preferred == nil {
		preferred = []string{}
	}
	disliked := f.DislikedExercises
	if disliked == nil {
		disliked = []string{}
	}

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO post_workout_feedback
				(session_id, user_id, plan_id, plan_name, satisfaction, fatigue, overall_rpe, progress_feeling,
				preferred_exercises, disliked_exercises, created_at)
			SELECT s.id, s.user_id, $3::bigint, $4::text, $5::int, $6::int, $7::int, $8::int, $9::text[], $10::text[], $11::timestamptz
			FROM workout_session s
			WHERE s.id = $1 AND s.user_id = $2
			RETURNING id;`,
		f.SessionID, f.UserID, f.PlanID, f.PlanName, f.Satisfaction, f.Fatigue, f.OverallRPE, f.ProgressFeeling,
		preferred, disliked, f.CreatedAt,
	).Scan(&f.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %d of user %d", ErrSessionNotFound, f.SessionID, f.UserID)
	}
	if err != nil {
		if pkg.IsCheckViolationError(err) {
			return nil, fmt.Errorf("invalid workout feedback: %w", err)
		}
		return nil, fmt.Errorf("insert workout feedback: %w", err)
	}
	return &f, nil
}

// UpsertSetFeedback writes the feedback of a set logged in one of the user's
// sessions, replacing any earlier feedback for it.
func (r *Repo) UpsertSetFeedback(ctx context.Context, userID int64, feedback SetFeedback) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.set_feedback.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("exercise_log_id", feedback.ExerciseLogID),
	)

	if err := feedback.Validate(); err != nil {
		return err
	}

	tag, err := r.db.Exec(
		ctx,
		`INSERT INTO set_feedback (exercise_log_id, set_rpe, weight_feeling, completed_as_planned, created_at)
			SELECT l.id, $2::int, $3::text, $4::boolean, now()
			FROM exercise_log l
			JOIN workout_session s ON s.id = l.session_id
			WHERE l.id = $1 AND s.user_id = $5
			ON CONFLICT (exercise_log_id) DO UPDATE SET
				set_rpe = EXCLUDED.set_rpe,
				weight_feeling = EXCLUDED.weight_feeling,
				completed_as_planned = EXCLUDED.completed_as_planned,
				created_at = EXCLUDED.created_at;`,
		feedback.ExerciseLogID, feedback.SetRPE, string(feedback.WeightFeeling), feedback.CompletedAsPlanned, userID,
	)
	if err != nil {
		return fmt.Errorf("upsert set feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: log %d of user %d", ErrExerciseLogNotFound, feedback.ExerciseLogID, userID)
	}
	return nil
}

func (r *Repo) GetWeightSuggestion(ctx context.Context, userID int64, exerciseName string) (_ *WeightSuggestion, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.suggestion.get")
	defer func() {
		// a miss is not a failure
		if errors.Is(err, ErrSuggestionNotFound) {
			tracing.EndSpanWithErrCheck(span, nil)
			return
		}
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.String("exercise", exerciseName),
	)

	var s WeightSuggestion
	var trend string
	err = r.db.QueryRow(
		ctx,
		`SELECT user_id, exercise_name, suggested_weight, confidence_score, based_on_sessions,
				progression_trend, valid_until, updated_at
			FROM weight_suggestion
			WHERE user_id = $1 AND exercise_name = $2;`,
		userID, exerciseName,
	).Scan(&s.UserID, &s.ExerciseName, &s.SuggestedWeight, &s.ConfidenceScore, &s.BasedOnSessions, &trend, &s.ValidUntil, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSuggestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get weight suggestion: %w", err)
	}

	s.ProgressionTrend = ProgressionTrend(trend)
	return &s, nil
}

// UpsertWeightSuggestion atomically writes the single suggestion row for (user, exercise).
func (r *Repo) UpsertWeightSuggestion(ctx context.Context, s WeightSuggestion) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.suggestion.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", s.UserID),
		attribute.String("exercise", s.ExerciseName),
		attribute.Float64("suggested_weight", s.SuggestedWeight),
	)

	return upsertWeightSuggestion(ctx, r.db, s)
}

func upsertWeightSuggestion(ctx context.Context, q querier, s WeightSuggestion) error {
	_, err := q.Exec(
		ctx,
		`INSERT INTO weight_suggestion
				(user_id, exercise_name, suggested_weight, confidence_score, based_on_sessions, progression_trend, valid_until, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			ON CONFLICT (user_id, exercise_name) DO UPDATE SET
				suggested_weight = EXCLUDED.suggested_weight,
				confidence_score = EXCLUDED.confidence_score,
				based_on_sessions = EXCLUDED.based_on_sessions,
				progression_trend = EXCLUDED.progression_trend,
				valid_until = EXCLUDED.valid_until,
				updated_at = EXCLUDED.updated_at;`,
		s.UserID, s.ExerciseName, s.SuggestedWeight, s.ConfidenceScore, s.BasedOnSessions, string(s.ProgressionTrend), s.ValidUntil,
	)
	if err != nil {
		return fmt.Errorf("upsert weight suggestion: %w", err)
	}
	return nil
}

func (r *Repo) AddWeightHistory(ctx context.Context, entry WeightHistoryEntry) (_ *WeightHistoryEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.weight_history.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", entry.UserID),
		attribute.String("exercise", entry.ExerciseName),
	)

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO weight_history
				(user_id, exercise_name, workout_date, suggested_weight, actual_weight, weight_feedback,
				 rpe_achieved, reps_completed, sets_completed, progression_pct, user_override)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id;`,
		entry.UserID, entry.ExerciseName, entry.WorkoutDate, entry.SuggestedWeight, entry.ActualWeight, string(entry.WeightFeedback),
		entry.RPEAchieved, entry.RepsCompleted, entry.SetsCompleted, entry.ProgressionPercentage(), entry.UserOverride(),
	).Scan(&entry.ID)
	if err != nil {
		return nil, fmt.Errorf("insert weight history: %w", err)
	}

	return &entry, nil
}

const analysisColumns = `id, user_id, analysis_date, current_phase, phase_started_at, weeks_in_phase, stagnation_detected,
	stagnation_type, severity, indicators, recommended_action, recommended_phase, confidence_score,
	user_decision, decided_at`

func (r *Repo) AddPeriodizationAnalysis(ctx context.Context, a PeriodizationAnalysis) (_ *PeriodizationAnalysis, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.analysis.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", a.UserID),
		attribute.Bool("stagnant", a.StagnationDetected),
	)

	if a.UserDecision == "" {
		a.UserDecision = DecisionPending
	}
	if a.Indicators == nil {
		a.Indicators = []string{}
	}
	var phaseStartedAt *time.Time
	if !a.PhaseStartedAt.IsZero() {
		phaseStartedAt = &a.PhaseStartedAt
	}

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO periodization_analysis
				(user_id, analysis_date, current_phase, phase_started_at, weeks_in_phase, stagnation_detected, stagnation_type,
				 severity, indicators, recommended_action, recommended_phase, confidence_score, user_decision)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id;`,
		a.UserID, a.AnalysisDate, string(a.CurrentPhase), phaseStartedAt, a.WeeksInPhase, a.StagnationDetected, a.StagnationType, a.Severity,
		a.Indicators, a.RecommendedAction, string(a.RecommendedPhase), a.ConfidenceScore, string(a.UserDecision),
	).Scan(&a.ID)
	if err != nil {
		return nil, fmt.Errorf("insert periodization analysis: %w", err)
	}

	span.SetAttributes(attribute.Int64("analysis.id", a.ID))
	return &a, nil
}

func (r *Repo) GetLatestPeriodizationAnalysis(ctx context.Context, userID int64) (_ *PeriodizationAnalysis, err error) {
	analyses, err := r.ListPeriodizationAnalyses(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		return nil, ErrAnalysisNotFound
	}
	return &analyses[0], nil
}

// ListPeriodizationAnalyses returns the user's analyses, newest first.
func (r *Repo) ListPeriodizationAnalyses(ctx context.Context, userID int64, limit int) (_ []PeriodizationAnalysis, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.analysis.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int("limit", limit),
	)

	rows, err := r.db.Query(
		ctx,
		`SELECT `+analysisColumns+`
			FROM periodization_analysis
			WHERE user_id = $1
			ORDER BY analysis_date DESC, id DESC
			LIMIT $2;`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query periodization analyses: %w", err)
	}
	defer rows.Close()

	return r.rows2analyses(rows)
}

// UpdatePeriodizationDecision records the user's decision on their latest
// analysis. Older analyses are superseded and cannot be decided.
func (r *Repo) UpdatePeriodizationDecision(
	ctx context.Context,
	userID, analysisID int64,
	decision Decision,
	decidedAt time.Time,
) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.analysis.decide")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("analysis.id", analysisID),
		attribute.String("decision", string(decision)),
	)

	tag, err := r.db.Exec(
		ctx,
		`UPDATE periodization_analysis SET user_decision = $1, decided_at = $2
			WHERE id = $3 AND user_id = $4 AND user_decision = 'pending'
				AND id = (
					SELECT id FROM periodization_analysis
					WHERE user_id = $4
					ORDER BY analysis_date DESC, id DESC
					LIMIT 1
				);`,
		string(decision), decidedAt, analysisID, userID,
	)
	if err != nil {
		return fmt.Errorf("update periodization decision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAnalysisNotFound
	}
	return nil
}

func insertAIDecision(ctx context.Context, q querier, d AIDecision) (*AIDecision, error) {
	triggerJSON, err := d.MarshalTrigger()
	if err != nil {
		return nil, fmt.Errorf("marshal decision trigger: %w", err)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	err = q.QueryRow(
		ctx,
		`INSERT INTO ai_decision (user_id, decision_type, reasoning, confidence, trigger_data, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id;`,
		d.UserID, string(d.Type), d.Reasoning, d.Confidence, triggerJSON, d.CreatedAt,
	).Scan(&d.ID)
	if err != nil {
		return nil, fmt.Errorf("insert ai decision: %w", err)
	}

	return &d, nil
}

// ListAIDecisions returns the user's decisions, newest first. An empty
// decisionType lists every type.
func (r *Repo) ListAIDecisions(ctx context.Context, userID int64, decisionType DecisionType, limit int) (_ []AIDecision, err error) {
	ctx, span := tracing.GlobalLearningTracer.Start(ctx, "repo.training.ai_decision.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.String("decision_type", string(decisionType)),
	)

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, decision_type, reasoning, confidence, trigger_data, created_at
			FROM ai_decision
			WHERE user_id = $1 AND ($2::text = '' OR decision_type = $2)
			ORDER BY created_at DESC, id DESC
			LIMIT $3;`,
		userID, string(decisionType), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query ai decisions: %w", err)
	}
	defer rows.Close()

	var decisions []AIDecision
	for rows.Next() {
		var d AIDecision
		var dType string
		var trigger []byte
		if err := rows.Scan(&d.ID, &d.UserID, &dType, &d.Reasoning, &d.Confidence, &trigger, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ai decision: %w", err)
		}
		d.Type = DecisionType(dType)
		if err := d.UnmarshalTrigger(trigger); err != nil {
			return nil, fmt.Errorf("decision %d: %w", d.ID, err)
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return decisions, nil
}

func (r *Repo) GetUserPreferences(ctx context.Context, userID int64) (_ *UserPreferences, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.preferences.get")
	defer func() {
		if errors.Is(err, ErrPreferencesNotFound) {
			tracing.EndSpanWithErrCheck(span, nil)
			return
		}
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	row := r.db.QueryRow(
		ctx,
		`SELECT user_id, preferred_intensity, session_minutes, weekly_frequency, available_days, updated_at
			FROM user_preferences WHERE user_id = $1;`,
		userID,
	)
	prefs, err := scanPreferences(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPreferencesNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user preferences: %w", err)
	}
	return prefs, nil
}

// updateUserPreferences applies the patch on top of the stored preferences,
// creating the row from defaults when the user has none yet.
func updateUserPreferences(ctx context.Context, q querier, userID int64, patch PreferencesPatch) (*UserPreferences, error) {
	var intensity *string
	if patch.PreferredIntensity != nil {
		v := string(*patch.PreferredIntensity)
		intensity = &v
	}
	var days []int32
	if patch.AvailableDays != nil {
		days = make([]int32, 0, len(patch.AvailableDays))
		for _, d := range patch.AvailableDays {
			days = append(days, int32(d))
		}
	}

	row := q.QueryRow(
		ctx,
		`INSERT INTO user_preferences (user_id, preferred_intensity, session_minutes, weekly_frequency, available_days, updated_at)
			VALUES (
				$1,
				COALESCE($2::text, 'moderate'),
				COALESCE($3::int, 60),
				COALESCE($4::int, 3),
				COALESCE($5::int[], '{1,3,5}'),
				now()
			)
			ON CONFLICT (user_id) DO UPDATE SET
				preferred_intensity = COALESCE($2::text, user_preferences.preferred_intensity),
				session_minutes = COALESCE($3::int, user_preferences.session_minutes),
				weekly_frequency = COALESCE($4::int, user_preferences.weekly_frequency),
				available_days = COALESCE($5::int[], user_preferences.available_days),
				updated_at = now()
			RETURNING user_id, preferred_intensity, session_minutes, weekly_frequency, available_days, updated_at;`,
		userID, intensity, patch.SessionMinutes, patch.WeeklyFrequency, days,
	)
	prefs, err := scanPreferences(row)
	if err != nil {
		if pkg.IsCheckViolationError(err) {
			return nil, fmt.Errorf("invalid preferences patch: %w", err)
		}
		return nil, fmt.Errorf("update user preferences: %w", err)
	}
	return prefs, nil
}

// UpdatePreferencesWithDecisions applies the patch and records the decisions
// that motivated it in one transaction. Nothing is stored if any write fails.
// A missing preferences row is created from defaults first.
func (r *Repo) UpdatePreferencesWithDecisions(
	ctx context.Context,
	userID int64,
	patch PreferencesPatch,
	decisions []AIDecision,
) (_ *UserPreferences, _ []AIDecision, err error) {
	ctx, span := tracing.GlobalLearningTracer.Start(ctx, "repo.training.preferences.update_with_decisions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int("decisions", len(decisions)),
	)

	var prefs *UserPreferences
	stored := make([]AIDecision, 0, len(decisions))
	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var txErr error
		if prefs, txErr = updateUserPreferences(ctx, tx, userID, patch); txErr != nil {
			return txErr
		}
		for _, d := range decisions {
			added, txErr := insertAIDecision(ctx, tx, d)
			if txErr != nil {
				return txErr
			}
			stored = append(stored, *added)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return prefs, stored, nil
}

// UpsertSuggestionWithDecision stores the suggestion together with the
// decision that produced it in one transaction.
func (r *Repo) UpsertSuggestionWithDecision(ctx context.Context, s WeightSuggestion, d AIDecision) (_ *AIDecision, err error) {
	ctx, span := tracing.GlobalLearningTracer.Start(ctx, "repo.training.suggestion.upsert_with_decision")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", s.UserID),
		attribute.String("exercise", s.ExerciseName),
	)

	var stored *AIDecision
	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if txErr := upsertWeightSuggestion(ctx, tx, s); txErr != nil {
			return txErr
		}
		var txErr error
		stored, txErr = insertAIDecision(ctx, tx, d)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func scanPreferences(row pgx.Row) (*UserPreferences, error) {
	var p UserPreferences
	var intensity string
	var days []int32
	if err := row.Scan(&p.UserID, &intensity, &p.SessionMinutes, &p.WeeklyFrequency, &days, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.PreferredIntensity = IntensityLevel(intensity)
	p.AvailableDays = make([]time.Weekday, 0, len(days))
	for _, d := range days {
		p.AvailableDays = append(p.AvailableDays, time.Weekday(d))
	}
	return &p, nil
}

func (r *Repo) AddRestTimePattern(ctx context.Context, p RestTimePattern) (_ *RestTimePattern, err error) {
	ctx, span := tracing.GlobalLearningTracer.Start(ctx, "repo.training.rest_pattern.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", p.UserID),
		attribute.String("exercise", p.ExerciseName),
	)

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO rest_time_pattern
				(user_id, exercise_name, recommended_rest_seconds, actual_rest_seconds, next_set_performance, fatigue_level, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id;`,
		p.UserID, p.ExerciseName, p.RecommendedRestSeconds, p.ActualRestSeconds, p.NextSetPerformance, p.FatigueLevel, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("insert rest time pattern: %w", err)
	}
	return &p, nil
}

// ListRestTimePatterns returns the most recent patterns for an exercise, newest first.
func (r *Repo) ListRestTimePatterns(ctx context.Context, userID int64, exerciseName string, limit int) (_ []RestTimePattern, err error) {
	ctx, span := tracing.GlobalLearningTracer.Start(ctx, "repo.training.rest_pattern.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.String("exercise", exerciseName),
	)

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, exercise_name, recommended_rest_seconds, actual_rest_seconds,
				next_set_performance, fatigue_level, created_at
			FROM rest_time_pattern
			WHERE user_id = $1 AND exercise_name = $2
			ORDER BY created_at DESC, id DESC
			LIMIT $3;`,
		userID, exerciseName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query rest time patterns: %w", err)
	}
	defer rows.Close()

	var patterns []RestTimePattern
	for rows.Next() {
		var p RestTimePattern
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.ExerciseName, &p.RecommendedRestSeconds, &p.ActualRestSeconds,
			&p.NextSetPerformance, &p.FatigueLevel, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan rest time pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

// ListActiveUserIDs returns users with weight history since the given time.
func (r *Repo) ListActiveUserIDs(ctx context.Context, since time.Time) (_ []int64, err error) {
	ctx, span := tracing.GlobalLearningTracer.Start(ctx, "repo.training.users.active")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT DISTINCT user_id FROM weight_history WHERE workout_date >= $1 ORDER BY user_id;`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("query active users: %w", err)
	}
	defer rows.Close()

	userIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect active users: %w", err)
	}
	span.SetAttributes(attribute.Int("users.count", len(userIDs)))
	return userIDs, nil
}

func (r *Repo) rows2analyses(rows pgx.Rows) ([]PeriodizationAnalysis, error) {
	var analyses []PeriodizationAnalysis
	for rows.Next() {
		var a PeriodizationAnalysis
		var currentPhase, recommendedPhase, decision string
		var phaseStartedAt *time.Time
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.AnalysisDate, &currentPhase, &phaseStartedAt, &a.WeeksInPhase, &a.StagnationDetected,
			&a.StagnationType, &a.Severity, &a.Indicators, &a.RecommendedAction, &recommendedPhase, &a.ConfidenceScore,
			&decision, &a.DecidedAt,
		); err != nil {
			return nil, fmt.Errorf("scan periodization analysis: %w", err)
		}
		a.CurrentPhase = Phase(currentPhase)
		if phaseStartedAt != nil {
			a.PhaseStartedAt = *phaseStartedAt
		}
		a.RecommendedPhase = Phase(recommendedPhase)
		a.UserDecision = Decision(decision)
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return analyses, nil
}
