package learning_test

import (
	"context"
	"errors"
	"testing"

	"github.com/2beens/fitcoach/internal/learning"
	"github.com/2beens/fitcoach/internal/training"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_UpdateUserPreferences_DefaultsAndAllRules(t *testing.T) {
	engine, repo, _ := newTestEngine(t)

	res, err := engine.UpdateUserPreferences(context.Background(), 1, training.PostWorkoutFeedback{
		SessionID:    10,
		UserID:       1,
		OverallRPE:   3,
		Fatigue:      5,
		Satisfaction: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, training.IntensityHigh, res.Preferences.PreferredIntensity)
	assert.Equal(t, 55, res.Preferences.SessionMinutes)
	assert.Equal(t, 4, res.Preferences.WeeklyFrequency)

	require.Len(t, res.Decisions, 3)
	assert.Equal(t, training.DecisionIntensityAdjustment, res.Decisions[0].Type)
	assert.Equal(t, 0.7, res.Decisions[0].Confidence)
	assert.Equal(t, "moderate", res.Decisions[0].Preference.PreviousValue)
	assert.Equal(t, "high", res.Decisions[0].Preference.NewValue)
	assert.Equal(t, training.DecisionDurationAdjustment, res.Decisions[1].Type)
	assert.Equal(t, "60", res.Decisions[1].Preference.PreviousValue)
	assert.Equal(t, "55", res.Decisions[1].Preference.NewValue)
	assert.Equal(t, training.DecisionFrequencyAdjustment, res.Decisions[2].Type)
	assert.Equal(t, int64(10), res.Decisions[2].Preference.SessionID)
	assert.Len(t, repo.decisions, 3)
}

func TestEngine_UpdateUserPreferences_Bounds(t *testing.T) {
	engine, repo, _ := newTestEngine(t)
	repo.prefs = &training.UserPreferences{
		UserID:             1,
		PreferredIntensity: training.IntensityLow,
		SessionMinutes:     training.MinSessionMinutes,
		WeeklyFrequency:    training.MinWeeklyFrequency,
	}

	// already at every floor the feedback pushes towards
	res, err := engine.UpdateUserPreferences(context.Background(), 1, training.PostWorkoutFeedback{
		SessionID:    11,
		OverallRPE:   10,
		Fatigue:      4,
		Satisfaction: 1,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Decisions)
	assert.Empty(t, repo.decisions)
	assert.Equal(t, training.IntensityLow, res.Preferences.PreferredIntensity)

	repo.prefs = &training.UserPreferences{
		UserID:             1,
		PreferredIntensity: training.IntensityVeryHigh,
		SessionMinutes:     training.MaxSessionMinutes,
		WeeklyFrequency:    training.MaxWeeklyFrequency,
	}
	res, err = engine.UpdateUserPreferences(context.Background(), 1, training.PostWorkoutFeedback{
		SessionID:    12,
		OverallRPE:   2,
		Fatigue:      1,
		Satisfaction: 5,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Decisions)
	assert.Equal(t, training.MaxSessionMinutes, res.Preferences.SessionMinutes)
}

func TestEngine_UpdateUserPreferences_NeutralFeedback(t *testing.T) {
	engine, repo, _ := newTestEngine(t)

	res, err := engine.UpdateUserPreferences(context.Background(), 1, training.PostWorkoutFeedback{
		SessionID:    13,
		OverallRPE:   7,
		Fatigue:      3,
		Satisfaction: 4,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Decisions)
	assert.Nil(t, repo.prefs)
	assert.Equal(t, training.DefaultPreferences(1), res.Preferences)
}

func TestEngine_UpdateUserPreferences_Errors(t *testing.T) {
	engine, repo, _ := newTestEngine(t)

	_, err := engine.UpdateUserPreferences(context.Background(), 1, training.PostWorkoutFeedback{OverallRPE: 11})
	assert.ErrorIs(t, err, learning.ErrInvalidFeedback)

	_, err = engine.UpdateUserPreferences(context.Background(), 1, training.PostWorkoutFeedback{Fatigue: 6})
	assert.ErrorIs(t, err, learning.ErrInvalidFeedback)

	repo.prefsErr = errors.New("timeout")
	_, err = engine.UpdateUserPreferences(context.Background(), 1, training.PostWorkoutFeedback{OverallRPE: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")

	repo.prefsErr = nil
	repo.decisionErr = errors.New("insert failed")
	_, err = engine.UpdateUserPreferences(context.Background(), 1, training.PostWorkoutFeedback{OverallRPE: 3})
	require.Error(t, err)
}

func TestEngine_UpdateUserPreferences_FailedDecisionKeepsPreferences(t *testing.T) {
	engine, repo, metricsManager := newTestEngine(t)
	stored := training.DefaultPreferences(1)
	repo.prefs = &stored
	repo.decisionErr = errors.New("db down")

	res, err := engine.UpdateUserPreferences(context.Background(), 1, training.PostWorkoutFeedback{
		SessionID:    14,
		OverallRPE:   3,
		Fatigue:      5,
		Satisfaction: 5,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Nil(t, res)

	require.NotNil(t, repo.prefs)
	assert.Equal(t, training.DefaultPreferences(1), *repo.prefs)
	assert.Empty(t, repo.decisions)
	assert.Equal(t, 0.0, testutil.ToFloat64(metricsManager.CounterAIDecisions.WithLabelValues("intensity_adjustment")))
}
