package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/2beens/fitcoach/internal/analytics"
	"github.com/2beens/fitcoach/internal/training"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestEngine(t *testing.T) (*analytics.Engine, *MocktrainingRepo) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repoMock := NewMocktrainingRepo(ctrl)
	engine := analytics.NewEngine(repoMock)
	engine.Now = func() time.Time { return testNow }
	return engine, repoMock
}

func TestEngine_Adherence_NoSessions(t *testing.T) {
	engine, repoMock := newTestEngine(t)

	repoMock.EXPECT().
		ListSessions(gomock.Any(), int64(5), training.LastDays(testNow, 30)).
		Return(nil, nil)
	repoMock.EXPECT().
		GetUserPreferences(gomock.Any(), int64(5)).
		Return(nil, training.ErrPreferencesNotFound)

	m, err := engine.Adherence(context.Background(), 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 30, m.WindowDays)
	assert.Zero(t, m.CompletionRate)
	assert.Zero(t, m.TotalSessions)
	assert.Contains(t, m.WeeklyPattern, "Monday")
}

func TestEngine_Adherence_PreferencesError(t *testing.T) {
	engine, repoMock := newTestEngine(t)

	repoMock.EXPECT().ListSessions(gomock.Any(), int64(5), gomock.Any()).Return(nil, nil)
	repoMock.EXPECT().GetUserPreferences(gomock.Any(), int64(5)).Return(nil, errors.New("conn refused"))

	m, err := engine.Adherence(context.Background(), 5, 14)
	require.Error(t, err)
	assert.Nil(t, m)
}

func TestEngine_InvalidUser(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Progress(context.Background(), 0, 30)
	assert.ErrorIs(t, err, training.ErrInvalidUserID)
	_, err = engine.Snapshot(context.Background(), -1, 30)
	assert.ErrorIs(t, err, training.ErrInvalidUserID)
	_, err = engine.WeeklyProgress(context.Background(), 0)
	assert.ErrorIs(t, err, training.ErrInvalidUserID)
}

func TestEngine_Snapshot(t *testing.T) {
	engine, repoMock := newTestEngine(t)
	window := training.LastDays(testNow, 21)

	repoMock.EXPECT().ListExerciseLogs(gomock.Any(), int64(9), window).Return([]training.ExerciseLog{
		{ID: 1, SessionID: 1, ExerciseName: "Sentadilla", RepsCompleted: 5, WeightUsed: 100, PerformedAt: day(25), Feedback: withRPE(9)},
	}, nil)
	repoMock.EXPECT().ListSessions(gomock.Any(), int64(9), window).Return([]training.WorkoutSession{
		completedOn(1, day(25), 50),
	}, nil)
	repoMock.EXPECT().GetUserPreferences(gomock.Any(), int64(9)).Return(&training.UserPreferences{
		UserID:          9,
		WeeklyFrequency: 4,
		AvailableDays:   []time.Weekday{time.Tuesday},
	}, nil)
	repoMock.EXPECT().ListWorkoutFeedback(gomock.Any(), int64(9), window).Return([]training.PostWorkoutFeedback{
		{Satisfaction: 2, Fatigue: 5, OverallRPE: 9, ProgressFeeling: 2},
	}, nil)

	snapshot, err := engine.Snapshot(context.Background(), 9, 21)
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	assert.Equal(t, int64(9), snapshot.UserID)
	assert.Equal(t, 21, snapshot.WindowDays)
	assert.Equal(t, testNow, snapshot.GeneratedAt)
	assert.InDelta(t, 500.0, snapshot.Progress.TotalVolume, 1e-9)
	assert.InDelta(t, 9.0, snapshot.Progress.AverageRPE, 1e-9)
	assert.Equal(t, 1, snapshot.Adherence.CompletedSessions)
	require.Len(t, snapshot.Adherence.WeeklyPattern, 1)
	assert.InDelta(t, 33.333, snapshot.Adherence.WeeklyPattern["Tuesday"], 1e-3)
	assert.InDelta(t, 2.0, snapshot.Effectiveness.AverageSatisfaction, 1e-9)
}

func TestEngine_Snapshot_RepoError(t *testing.T) {
	engine, repoMock := newTestEngine(t)
	storeErr := errors.New("store unreachable")

	repoMock.EXPECT().ListExerciseLogs(gomock.Any(), int64(9), gomock.Any()).Return(nil, storeErr)
	repoMock.EXPECT().ListSessions(gomock.Any(), int64(9), gomock.Any()).Return(nil, nil).AnyTimes()
	repoMock.EXPECT().GetUserPreferences(gomock.Any(), int64(9)).Return(nil, training.ErrPreferencesNotFound).AnyTimes()
	repoMock.EXPECT().ListWorkoutFeedback(gomock.Any(), int64(9), gomock.Any()).Return(nil, nil).AnyTimes()

	snapshot, err := engine.Snapshot(context.Background(), 9, 21)
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.Nil(t, snapshot)
}

func TestEngine_WeeklyProgress_NoSessions(t *testing.T) {
	engine, repoMock := newTestEngine(t)
	// 2025-03-31 is a Monday
	weekStart := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	repoMock.EXPECT().
		ListSessions(gomock.Any(), int64(2), training.DateRange{From: weekStart, To: testNow}).
		Return([]training.WorkoutSession{}, nil)
	repoMock.EXPECT().GetUserPreferences(gomock.Any(), int64(2)).Return(nil, training.ErrPreferencesNotFound)

	wp, err := engine.WeeklyProgress(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, weekStart, wp.WeekStart)
	assert.Zero(t, wp.Completed)
	assert.Equal(t, training.DefaultWeeklyFreq, wp.Goal)
	assert.Zero(t, wp.Percentage)
}

func TestEngine_WeeklyProgress(t *testing.T) {
	engine, repoMock := newTestEngine(t)
	engine.Now = func() time.Time { return time.Date(2025, 3, 27, 20, 0, 0, 0, time.UTC) }

	repoMock.EXPECT().ListSessions(gomock.Any(), int64(2), gomock.Any()).Return([]training.WorkoutSession{
		completedOn(1, day(24), 60),
		completedOn(2, day(26), 60),
		{ID: 3, StartedAt: day(27), Status: training.SessionInProgress},
	}, nil)
	repoMock.EXPECT().GetUserPreferences(gomock.Any(), int64(2)).Return(&training.UserPreferences{WeeklyFrequency: 4}, nil)

	wp, err := engine.WeeklyProgress(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 24, 0, 0, 0, 0, time.UTC), wp.WeekStart)
	assert.Equal(t, 2, wp.Completed)
	assert.Equal(t, 4, wp.Goal)
	assert.InDelta(t, 50.0, wp.Percentage, 1e-9)
}

func TestStartOfISOWeek(t *testing.T) {
	sunday := time.Date(2025, 3, 30, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 24, 0, 0, 0, 0, time.UTC), analytics.StartOfISOWeek(sunday))
	monday := time.Date(2025, 3, 24, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, analytics.StartOfISOWeek(monday))
}
