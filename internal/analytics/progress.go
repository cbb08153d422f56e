package analytics

import (
	"sort"

	"github.com/2beens/fitcoach/internal/training"
	"github.com/2beens/fitcoach/pkg"
)

type ExerciseProgress struct {
	ExerciseName   string  `json:"exerciseName"`
	FirstMaxWeight float64 `json:"firstMaxWeight"`
	LastMaxWeight  float64 `json:"lastMaxWeight"`
	ChangePercent  float64 `json:"changePercent"`
}

// ProgressMetrics describes training volume and intensity over a window.
// ConsistencyScore is a heuristic, max(0, 100 - 10 * stddev(rpe)).
type ProgressMetrics struct {
	WindowDays           int                `json:"windowDays"`
	TotalVolume          float64            `json:"totalVolume"`
	VolumeChangePercent  float64            `json:"volumeChangePercent"`
	AverageRPE           float64            `json:"averageRpe"`
	RPESamples           int                `json:"rpeSamples"`
	ConsistencyScore     float64            `json:"consistencyScore"`
	TotalSets            int                `json:"totalSets"`
	SessionsTrained      int                `json:"sessionsTrained"`
	MuscleGroupFrequency map[string]int     `json:"muscleGroupFrequency"`
	Exercises            []ExerciseProgress `json:"exercises"`
}

// ComputeProgress aggregates the logs performed within the window.
func ComputeProgress(logs []training.ExerciseLog, window training.DateRange, windowDays int) ProgressMetrics {
	metrics := ProgressMetrics{
		WindowDays:           windowDays,
		MuscleGroupFrequency: make(map[string]int),
		Exercises:            []ExerciseProgress{},
	}

	midpoint := window.Midpoint()
	var firstHalf, secondHalf float64
	var rpes []float64
	sessions := make(map[int64]struct{})
	groupSessions := make(map[string]map[int64]struct{})

	type sessionMax struct {
		sessionID int64
		max       float64
	}
	var exerciseOrder []string
	perExercise := make(map[string][]sessionMax)

	for _, l := range logs {
		if !window.Contains(l.PerformedAt) {
			continue
		}

		volume := l.Volume()
		metrics.TotalVolume += volume
		if l.PerformedAt.Before(midpoint) {
			firstHalf += volume
		} else {
			secondHalf += volume
		}
		metrics.TotalSets++
		sessions[l.SessionID] = struct{}{}

		if l.Feedback != nil && l.Feedback.SetRPE > 0 {
			rpes = append(rpes, float64(l.Feedback.SetRPE))
		}

		group := MuscleGroup(l.ExerciseName)
		if groupSessions[group] == nil {
			groupSessions[group] = make(map[int64]struct{})
		}
		groupSessions[group][l.SessionID] = struct{}{}

		// logs arrive ordered by session start
		maxes, seen := perExercise[l.ExerciseName]
		if !seen {
			exerciseOrder = append(exerciseOrder, l.ExerciseName)
		}
		if n := len(maxes); n == 0 || maxes[n-1].sessionID != l.SessionID {
			maxes = append(maxes, sessionMax{sessionID: l.SessionID})
		}
		if last := &maxes[len(maxes)-1]; l.WeightUsed > last.max {
			last.max = l.WeightUsed
		}
		perExercise[l.ExerciseName] = maxes
	}

	metrics.VolumeChangePercent = pkg.PercentChange(firstHalf, secondHalf)
	metrics.RPESamples = len(rpes)
	if len(rpes) > 0 {
		metrics.AverageRPE = pkg.Mean(rpes)
		metrics.ConsistencyScore = ConsistencyScore(rpes)
	}
	metrics.SessionsTrained = len(sessions)
	for group, ids := range groupSessions {
		metrics.MuscleGroupFrequency[group] = len(ids)
	}

	for _, name := range exerciseOrder {
		maxes := perExercise[name]
		first, last := maxes[0].max, maxes[len(maxes)-1].max
		metrics.Exercises = append(metrics.Exercises, ExerciseProgress{
			ExerciseName:   name,
			FirstMaxWeight: first,
			LastMaxWeight:  last,
			ChangePercent:  pkg.PercentChange(first, last),
		})
	}
	sort.SliceStable(metrics.Exercises, func(i, j int) bool {
		return metrics.Exercises[i].ChangePercent > metrics.Exercises[j].ChangePercent
	})

	return metrics
}

// ConsistencyScore is 0 without samples and never negative.
func ConsistencyScore(rpes []float64) float64 {
	if len(rpes) == 0 {
		return 0
	}
	return pkg.Clamp(100-10*pkg.StdDev(rpes), 0, 100)
}
