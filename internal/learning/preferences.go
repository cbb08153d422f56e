package learning

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/training"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var ErrInvalidFeedback = errors.New("invalid post workout feedback")

const (
	sessionMinutesStep = 5

	intensityConfidence = 0.7
	durationConfidence  = 0.6
	frequencyConfidence = 0.5
)

type PreferencesUpdate struct {
	Preferences training.UserPreferences `json:"preferences"`
	Decisions   []training.AIDecision    `json:"decisions"`
}

// validateFeedback accepts 0 for any unreported score.
func validateFeedback(fb training.PostWorkoutFeedback) error {
	if fb.OverallRPE < 0 || fb.OverallRPE > 10 {
		return fmt.Errorf("%w: overall rpe out of range: %d", ErrInvalidFeedback, fb.OverallRPE)
	}
	if fb.Fatigue < 0 || fb.Fatigue > 5 {
		return fmt.Errorf("%w: fatigue out of range: %d", ErrInvalidFeedback, fb.Fatigue)
	}
	if fb.Satisfaction < 0 || fb.Satisfaction > 5 {
		return fmt.Errorf("%w: satisfaction out of range: %d", ErrInvalidFeedback, fb.Satisfaction)
	}
	return nil
}

type preferenceChange struct {
	decisionType training.DecisionType
	reasoning    string
	confidence   float64
	previous     string
	next         string
}

// planPreferenceChanges derives the patch and the decisions justifying it.
// Only values that actually change are included.
func planPreferenceChanges(current training.UserPreferences, fb training.PostWorkoutFeedback) (training.PreferencesPatch, []preferenceChange) {
	var patch training.PreferencesPatch
	var changes []preferenceChange

	var intensity training.IntensityLevel
	switch {
	case fb.OverallRPE > 0 && fb.OverallRPE <= 4:
		intensity = current.PreferredIntensity.Shift(1)
	case fb.OverallRPE >= 9:
		intensity = current.PreferredIntensity.Shift(-1)
	}
	if intensity != "" && intensity != current.PreferredIntensity {
		patch.PreferredIntensity = &intensity
		changes = append(changes, preferenceChange{
			decisionType: training.DecisionIntensityAdjustment,
			reasoning:    fmt.Sprintf("session rpe %d, moving intensity from %s to %s", fb.OverallRPE, current.PreferredIntensity, intensity),
			confidence:   intensityConfidence,
			previous:     string(current.PreferredIntensity),
			next:         string(intensity),
		})
	}

	minutes := current.SessionMinutes
	switch {
	case fb.Fatigue >= 4:
		minutes = max(training.MinSessionMinutes, minutes-sessionMinutesStep)
	case fb.Fatigue > 0 && fb.Fatigue <= 2:
		minutes = min(training.MaxSessionMinutes, minutes+sessionMinutesStep)
	}
	if minutes != current.SessionMinutes {
		patch.SessionMinutes = &minutes
		changes = append(changes, preferenceChange{
			decisionType: training.DecisionDurationAdjustment,
			reasoning:    fmt.Sprintf("fatigue %d/5, session length %d -> %d min", fb.Fatigue, current.SessionMinutes, minutes),
			confidence:   durationConfidence,
			previous:     strconv.Itoa(current.SessionMinutes),
			next:         strconv.Itoa(minutes),
		})
	}

	frequency := current.WeeklyFrequency
	switch {
	case fb.Satisfaction > 0 && fb.Satisfaction <= 2:
		frequency = max(training.MinWeeklyFrequency, frequency-1)
	case fb.Satisfaction == 5:
		frequency = min(training.MaxWeeklyFrequency, frequency+1)
	}
	if frequency != current.WeeklyFrequency {
		patch.WeeklyFrequency = &frequency
		changes = append(changes, preferenceChange{
			decisionType: training.DecisionFrequencyAdjustment,
			reasoning:    fmt.Sprintf("satisfaction %d/5, weekly frequency %d -> %d", fb.Satisfaction, current.WeeklyFrequency, frequency),
			confidence:   frequencyConfidence,
			previous:     strconv.Itoa(current.WeeklyFrequency),
			next:         strconv.Itoa(frequency),
		})
	}

	return patch, changes
}

// UpdateUserPreferences nudges the user's coarse training preferences after
// a workout and appends an AI decision for each adjustment made.
func (e *Engine) UpdateUserPreferences(ctx context.Context, userID int64, fb training.PostWorkoutFeedback) (_ *PreferencesUpdate, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "learning.preferences.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("session_id", fb.SessionID),
	)

	if err := training.ValidateUserID(userID); err != nil {
		return nil, err
	}
	if err := validateFeedback(fb); err != nil {
		return nil, err
	}

	current, err := e.repo.GetUserPreferences(ctx, userID)
	switch {
	case errors.Is(err, training.ErrPreferencesNotFound):
		defaults := training.DefaultPreferences(userID)
		current = &defaults
	case err != nil:
		return nil, fmt.Errorf("get user preferences: %w", err)
	}

	patch, changes := planPreferenceChanges(*current, fb)
	if patch.IsEmpty() {
		return &PreferencesUpdate{Preferences: *current}, nil
	}

	now := e.Now()
	decisions := make([]training.AIDecision, 0, len(changes))
	for _, c := range changes {
		d := training.AIDecision{
			UserID:     userID,
			Type:       c.decisionType,
			Reasoning:  c.reasoning,
			Confidence: c.confidence,
			CreatedAt:  now,
			Preference: &training.PreferenceTrigger{
				SessionID:     fb.SessionID,
				OverallRPE:    fb.OverallRPE,
				Fatigue:       fb.Fatigue,
				Satisfaction:  fb.Satisfaction,
				PreviousValue: c.previous,
				NewValue:      c.next,
			},
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("invalid ai decision: %w", err)
		}
		decisions = append(decisions, d)
	}

	// the patch and its decisions are stored together or not at all
	updated, stored, err := e.repo.UpdatePreferencesWithDecisions(ctx, userID, patch, decisions)
	if err != nil {
		return nil, fmt.Errorf("update user preferences: %w", err)
	}
	for _, d := range stored {
		e.metricsManager.CounterAIDecisions.WithLabelValues(string(d.Type)).Inc()
	}

	result := &PreferencesUpdate{Preferences: *updated, Decisions: stored}
	span.SetAttributes(attribute.Int("decisions", len(result.Decisions)))
	log.WithField("user_id", userID).Debugf("preferences updated with %d decisions", len(result.Decisions))

	return result, nil
}
