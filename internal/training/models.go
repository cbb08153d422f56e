package training

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidUserID       = errors.New("invalid user id")
	ErrSuggestionNotFound  = errors.New("weight suggestion not found")
	ErrAnalysisNotFound    = errors.New("periodization analysis not found")
	ErrPreferencesNotFound = errors.New("user preferences not found")
	ErrSessionNotFound     = errors.New("workout session not found")
	ErrExerciseLogNotFound = errors.New("exercise log not found")
)

// PlateIncrement is the smallest weight step, in kg, a suggestion can move by.
const PlateIncrement = 2.5

// SuggestionValidity is how long a weight suggestion stays valid before it has to be regenerated.
const SuggestionValidity = 7 * 24 * time.Hour

func ValidateUserID(userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidUserID, userID)
	}
	return nil
}

type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// LastDays returns the range [now - days, now].
func LastDays(now time.Time, days int) DateRange {
	return DateRange{
		From: now.AddDate(0, 0, -days),
		To:   now,
	}
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

func (r DateRange) Midpoint() time.Time {
	return r.From.Add(r.To.Sub(r.From) / 2)
}

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionFinished   SessionStatus = "finished"
	SessionSkipped    SessionStatus = "skipped"
)

type WorkoutSession struct {
	ID          int64         `json:"id"`
	UserID      int64         `json:"userId"`
	PlanID      *int64        `json:"planId,omitempty"`
	PlanName    string        `json:"planName,omitempty"`
	StartedAt   time.Time     `json:"startedAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	Status      SessionStatus `json:"status"`
}

func (s WorkoutSession) IsCompleted() bool {
	return s.Status == SessionCompleted || s.Status == SessionFinished || s.CompletedAt != nil
}

func (s WorkoutSession) Validate() error {
	if s.CompletedAt != nil && s.CompletedAt.Before(s.StartedAt) {
		return fmt.Errorf("session %d completed before it started", s.ID)
	}
	switch s.Status {
	case SessionInProgress, SessionCompleted, SessionFinished, SessionSkipped:
		return nil
	default:
		return fmt.Errorf("session %d: unknown status %q", s.ID, s.Status)
	}
}

// Duration is zero for sessions that never completed.
func (s WorkoutSession) Duration() time.Duration {
	if s.CompletedAt == nil {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

type WeightFeeling string

const (
	FeelingTooLight WeightFeeling = "too_light"
	FeelingPerfect  WeightFeeling = "perfect"
	FeelingTooHeavy WeightFeeling = "too_heavy"
)

func (f WeightFeeling) Valid() bool {
	return f == FeelingTooLight || f == FeelingPerfect || f == FeelingTooHeavy
}

type SetFeedback struct {
	ExerciseLogID      int64         `json:"exerciseLogId"`
	SetRPE             int           `json:"setRpe"`
	WeightFeeling      WeightFeeling `json:"weightFeeling"`
	CompletedAsPlanned bool          `json:"completedAsPlanned"`
	CreatedAt          time.Time     `json:"createdAt"`
}

func (f SetFeedback) Validate() error {
	if f.SetRPE < 1 || f.SetRPE > 10 {
		return fmt.Errorf("set rpe out of range [1,10]: %d", f.SetRPE)
	}
	if !f.WeightFeeling.Valid() {
		return fmt.Errorf("unknown weight feeling: %q", f.WeightFeeling)
	}
	return nil
}

type ExerciseLog struct {
	ID              int64        `json:"id"`
	SessionID       int64        `json:"sessionId"`
	ExerciseName    string       `json:"exerciseName"`
	SetNumber       int          `json:"setNumber"`
	RepsCompleted   int          `json:"repsCompleted"`
	WeightUsed      float64      `json:"weightUsed"`
	RestTimeSeconds int          `json:"restTimeSeconds"`
	PerformedAt     time.Time    `json:"performedAt"`
	Feedback        *SetFeedback `json:"feedback,omitempty"`
}

func (l ExerciseLog) Volume() float64 {
	return l.WeightUsed * float64(l.RepsCompleted)
}

type WeightHistoryEntry struct {
	ID              int64         `json:"id"`
	UserID          int64         `json:"userId"`
	ExerciseName    string        `json:"exerciseName"`
	WorkoutDate     time.Time     `json:"workoutDate"`
	SuggestedWeight float64       `json:"suggestedWeight"`
	ActualWeight    float64       `json:"actualWeight"`
	WeightFeedback  WeightFeeling `json:"weightFeedback,omitempty"`
	RPEAchieved     int           `json:"rpeAchieved,omitempty"`
	RepsCompleted   int           `json:"repsCompleted"`
	SetsCompleted   int           `json:"setsCompleted"`
}

func (e WeightHistoryEntry) ProgressionPercentage() float64 {
	if e.SuggestedWeight == 0 {
		return 0
	}
	return (e.ActualWeight - e.SuggestedWeight) / e.SuggestedWeight * 100
}

func (e WeightHistoryEntry) UserOverride() bool {
	return math.Abs(e.ActualWeight-e.SuggestedWeight) > PlateIncrement
}

type ProgressionTrend string

const (
	TrendIncreasing ProgressionTrend = "increasing"
	TrendStable     ProgressionTrend = "stable"
	TrendDecreasing ProgressionTrend = "decreasing"
)

type WeightSuggestion struct {
	UserID           int64            `json:"userId"`
	ExerciseName     string           `json:"exerciseName"`
	SuggestedWeight  float64          `json:"suggestedWeight"`
	ConfidenceScore  float64          `json:"confidenceScore"`
	BasedOnSessions  int              `json:"basedOnSessions"`
	ProgressionTrend ProgressionTrend `json:"progressionTrend"`
	ValidUntil       time.Time        `json:"validUntil"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func (s WeightSuggestion) IsValidAt(t time.Time) bool {
	return t.Before(s.ValidUntil)
}

type Phase string

const (
	PhaseStrength    Phase = "strength"
	PhaseHypertrophy Phase = "hypertrophy"
	PhaseDefinition  Phase = "definition"
	PhaseRecovery    Phase = "recovery"
)

type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

type PeriodizationAnalysis struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"userId"`
	AnalysisDate       time.Time  `json:"analysisDate"`
	CurrentPhase       Phase      `json:"currentPhase"`
	PhaseStartedAt     time.Time  `json:"phaseStartedAt"`
	WeeksInPhase       int        `json:"weeksInPhase"`
	StagnationDetected bool       `json:"stagnationDetected"`
	StagnationType     string     `json:"stagnationType,omitempty"`
	Severity           string     `json:"severity,omitempty"`
	Indicators         []string   `json:"indicators,omitempty"`
	RecommendedAction  string     `json:"recommendedAction"`
	RecommendedPhase   Phase      `json:"recommendedPhase"`
	ConfidenceScore    float64    `json:"confidenceScore"`
	UserDecision       Decision   `json:"userDecision"`
	DecidedAt          *time.Time `json:"decidedAt,omitempty"`
}

// RestTimePattern is an observed rest period. NextSetPerformance is the
// percentage of planned reps hit in the set that followed it.
type RestTimePattern struct {
	ID                     int64     `json:"id"`
	UserID                 int64     `json:"userId"`
	ExerciseName           string    `json:"exerciseName"`
	RecommendedRestSeconds int       `json:"recommendedRestSeconds"`
	ActualRestSeconds      int       `json:"actualRestSeconds"`
	NextSetPerformance     float64   `json:"nextSetPerformance"`
	FatigueLevel           int       `json:"fatigueLevel"`
	CreatedAt              time.Time `json:"createdAt"`
}

type PostWorkoutFeedback struct {
	ID                 int64     `json:"id"`
	SessionID          int64     `json:"sessionId"`
	UserID             int64     `json:"userId"`
	PlanID             *int64    `json:"planId,omitempty"`
	PlanName           string    `json:"planName,omitempty"`
	Satisfaction       int       `json:"satisfaction"`
	Fatigue            int       `json:"fatigue"`
	OverallRPE         int       `json:"overallRpe"`
	ProgressFeeling    int       `json:"progressFeeling"`
	PreferredExercises []string  `json:"preferredExercises,omitempty"`
	DislikedExercises  []string  `json:"dislikedExercises,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Validate checks a feedback is complete enough to be stored. Every score
// has to be reported.
func (f PostWorkoutFeedback) Validate() error {
	if err := ValidateUserID(f.UserID); err != nil {
		return err
	}
	if f.SessionID <= 0 {
		return fmt.Errorf("invalid session id: %d", f.SessionID)
	}
	for _, score := range []struct {
		name     string
		value    int
		min, max int
	}{
		{"satisfaction", f.Satisfaction, 1, 5},
		{"fatigue", f.Fatigue, 1, 5},
		{"overall rpe", f.OverallRPE, 1, 10},
		{"progress feeling", f.ProgressFeeling, 1, 5},
	} {
		if score.value < score.min || score.value > score.max {
			return fmt.Errorf("%s out of range [%d,%d]: %d", score.name, score.min, score.max, score.value)
		}
	}
	return nil
}

type IntensityLevel string

const (
	IntensityLow      IntensityLevel = "low"
	IntensityModerate IntensityLevel = "moderate"
	IntensityHigh     IntensityLevel = "high"
	IntensityVeryHigh IntensityLevel = "very_high"
)

var intensityScale = []IntensityLevel{IntensityLow, IntensityModerate, IntensityHigh, IntensityVeryHigh}

// Shift moves the intensity by steps along the scale, clamped to its ends.
func (l IntensityLevel) Shift(steps int) IntensityLevel {
	idx := 1
	for i, lvl := range intensityScale {
		if lvl == l {
			idx = i
			break
		}
	}
	idx += steps
	if idx < 0 {
		idx = 0
	}
	if idx >= len(intensityScale) {
		idx = len(intensityScale) - 1
	}
	return intensityScale[idx]
}

const (
	MinSessionMinutes  = 30
	MaxSessionMinutes  = 90
	MinWeeklyFrequency = 2
	MaxWeeklyFrequency = 6
	DefaultSessionMins = 60
	DefaultWeeklyFreq  = 3
)

var DefaultAvailableDays = []time.Weekday{time.Monday, time.Wednesday, time.Friday}

type UserPreferences struct {
	UserID             int64          `json:"userId"`
	PreferredIntensity IntensityLevel `json:"preferredIntensity"`
	SessionMinutes     int            `json:"sessionMinutes"`
	WeeklyFrequency    int            `json:"weeklyFrequency"`
	AvailableDays      []time.Weekday `json:"availableDays"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

func DefaultPreferences(userID int64) UserPreferences {
	return UserPreferences{
		UserID:             userID,
		PreferredIntensity: IntensityModerate,
		SessionMinutes:     DefaultSessionMins,
		WeeklyFrequency:    DefaultWeeklyFreq,
		AvailableDays:      append([]time.Weekday(nil), DefaultAvailableDays...),
	}
}

// PreferencesPatch holds the fields to change; nil fields are left as stored.
type PreferencesPatch struct {
	PreferredIntensity *IntensityLevel
	SessionMinutes     *int
	WeeklyFrequency    *int
	AvailableDays      []time.Weekday
}

func (p PreferencesPatch) IsEmpty() bool {
	return p.PreferredIntensity == nil && p.SessionMinutes == nil && p.WeeklyFrequency == nil && p.AvailableDays == nil
}

// Apply returns prefs with the patch applied.
func (p PreferencesPatch) Apply(prefs UserPreferences) UserPreferences {
	if p.PreferredIntensity != nil {
		prefs.PreferredIntensity = *p.PreferredIntensity
	}
	if p.SessionMinutes != nil {
		prefs.SessionMinutes = *p.SessionMinutes
	}
	if p.WeeklyFrequency != nil {
		prefs.WeeklyFrequency = *p.WeeklyFrequency
	}
	if p.AvailableDays != nil {
		prefs.AvailableDays = append([]time.Weekday(nil), p.AvailableDays...)
	}
	return prefs
}

// RoundToPlate rounds w to the nearest plate increment, never below one increment.
func RoundToPlate(w float64) float64 {
	rounded := math.Round(w/PlateIncrement) * PlateIncrement
	if rounded < PlateIncrement {
		return PlateIncrement
	}
	return rounded
}
