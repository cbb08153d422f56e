package learning_test

import (
	"context"
	"sync"
	"time"

	"github.com/2beens/fitcoach/internal/training"
)

// fakeRepo is an in-memory store for a single user.
type fakeRepo struct {
	mu sync.Mutex

	exercises    []string
	exercisesErr error
	history      map[string][]training.WeightHistoryEntry
	historyErr   map[string]error
	historySince time.Time
	feedback     map[string][]training.SetFeedback
	suggestions  map[string]training.WeightSuggestion
	upsertErr    error
	decisions    []training.AIDecision
	decisionErr  error
	prefs        *training.UserPreferences
	prefsErr     error
	restPatterns []training.RestTimePattern
	upserts      int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		history:     make(map[string][]training.WeightHistoryEntry),
		historyErr:  make(map[string]error),
		feedback:    make(map[string][]training.SetFeedback),
		suggestions: make(map[string]training.WeightSuggestion),
	}
}

func (r *fakeRepo) ListRecentExercises(_ context.Context, _ int64, _ time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exercises, r.exercisesErr
}

func (r *fakeRepo) ListWeightHistorySince(
	_ context.Context,
	_ int64,
	exerciseName string,
	since time.Time,
	limit int,
) ([]training.WeightHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.historyErr[exerciseName]; err != nil {
		return nil, err
	}
	r.historySince = since
	var h []training.WeightHistoryEntry
	for _, e := range r.history[exerciseName] {
		if e.WorkoutDate.Before(since) {
			continue
		}
		h = append(h, e)
	}
	return h[:min(len(h), limit)], nil
}

func (r *fakeRepo) ListSetFeedback(_ context.Context, _ int64, exerciseName string, limit int) ([]training.SetFeedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := r.feedback[exerciseName]
	return f[:min(len(f), limit)], nil
}

func (r *fakeRepo) GetWeightSuggestion(_ context.Context, _ int64, exerciseName string) (*training.WeightSuggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suggestions[exerciseName]
	if !ok {
		return nil, training.ErrSuggestionNotFound
	}
	return &s, nil
}

// UpsertSuggestionWithDecision applies both writes or neither, like the
// transaction in training.Repo.
func (r *fakeRepo) UpsertSuggestionWithDecision(_ context.Context, s training.WeightSuggestion, d training.AIDecision) (*training.AIDecision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}
	if r.decisionErr != nil {
		return nil, r.decisionErr
	}
	r.upserts++
	r.suggestions[s.ExerciseName] = s
	return r.appendDecision(d), nil
}

func (r *fakeRepo) appendDecision(d training.AIDecision) *training.AIDecision {
	d.ID = int64(len(r.decisions) + 1)
	r.decisions = append(r.decisions, d)
	return &d
}

func (r *fakeRepo) ListAIDecisions(_ context.Context, _ int64, decisionType training.DecisionType, limit int) ([]training.AIDecision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []training.AIDecision
	for i := len(r.decisions) - 1; i >= 0 && len(out) < limit; i-- {
		if decisionType == "" || r.decisions[i].Type == decisionType {
			out = append(out, r.decisions[i])
		}
	}
	return out, nil
}

func (r *fakeRepo) GetUserPreferences(_ context.Context, _ int64) (*training.UserPreferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.prefsErr != nil {
		return nil, r.prefsErr
	}
	if r.prefs == nil {
		return nil, training.ErrPreferencesNotFound
	}
	p := *r.prefs
	return &p, nil
}

func (r *fakeRepo) UpdatePreferencesWithDecisions(
	_ context.Context,
	userID int64,
	patch training.PreferencesPatch,
	decisions []training.AIDecision,
) (*training.UserPreferences, []training.AIDecision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.decisionErr != nil {
		return nil, nil, r.decisionErr
	}
	current := training.DefaultPreferences(userID)
	if r.prefs != nil {
		current = *r.prefs
	}
	updated := patch.Apply(current)
	r.prefs = &updated
	stored := make([]training.AIDecision, 0, len(decisions))
	for _, d := range decisions {
		stored = append(stored, *r.appendDecision(d))
	}
	return &updated, stored, nil
}

func (r *fakeRepo) AddRestTimePattern(_ context.Context, p training.RestTimePattern) (*training.RestTimePattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = int64(len(r.restPatterns) + 1)
	r.restPatterns = append(r.restPatterns, p)
	return &p, nil
}

func (r *fakeRepo) ListRestTimePatterns(_ context.Context, _ int64, exerciseName string, limit int) ([]training.RestTimePattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []training.RestTimePattern
	for i := len(r.restPatterns) - 1; i >= 0 && len(out) < limit; i-- {
		if r.restPatterns[i].ExerciseName == exerciseName {
			out = append(out, r.restPatterns[i])
		}
	}
	return out, nil
}
