package analytics

import (
	"sort"
	"strings"

	"github.com/2beens/fitcoach/internal/training"
	"github.com/2beens/fitcoach/pkg"
)

// CustomRoutineLabel buckets feedback for sessions without a linked plan.
// Dynamically generated routines are merged into this one bucket.
const CustomRoutineLabel = "Custom Routine"

type SplitEffectiveness struct {
	Name               string  `json:"name"`
	Sessions           int     `json:"sessions"`
	AvgSatisfaction    float64 `json:"avgSatisfaction"`
	AvgRPE             float64 `json:"avgRpe"`
	AvgProgressFeeling float64 `json:"avgProgressFeeling"`
}

type ExercisePreference struct {
	ExerciseName string `json:"exerciseName"`
	Score        int    `json:"score"`
}

type EffectivenessMetrics struct {
	WindowDays          int                  `json:"windowDays"`
	FeedbackCount       int                  `json:"feedbackCount"`
	AverageSatisfaction float64              `json:"averageSatisfaction"`
	AverageFatigue      float64              `json:"averageFatigue"`
	AverageRPE          float64              `json:"averageRpe"`
	Splits              []SplitEffectiveness `json:"splits"`
	ExercisePreferences []ExercisePreference `json:"exercisePreferences"`
}

func ComputeEffectiveness(feedback []training.PostWorkoutFeedback, windowDays int) EffectivenessMetrics {
	metrics := EffectivenessMetrics{
		WindowDays:          windowDays,
		FeedbackCount:       len(feedback),
		Splits:              []SplitEffectiveness{},
		ExercisePreferences: []ExercisePreference{},
	}
	if len(feedback) == 0 {
		return metrics
	}

	type splitAcc struct {
		satisfaction, rpe, progress []float64
	}
	var satisfaction, fatigue, rpe []float64
	splits := make(map[string]*splitAcc)
	preferenceScores := make(map[string]int)

	for _, f := range feedback {
		satisfaction = append(satisfaction, float64(f.Satisfaction))
		fatigue = append(fatigue, float64(f.Fatigue))
		rpe = append(rpe, float64(f.OverallRPE))

		name := splitName(f)
		acc, ok := splits[name]
		if !ok {
			acc = &splitAcc{}
			splits[name] = acc
		}
		acc.satisfaction = append(acc.satisfaction, float64(f.Satisfaction))
		acc.rpe = append(acc.rpe, float64(f.OverallRPE))
		acc.progress = append(acc.progress, float64(f.ProgressFeeling))

		for _, ex := range f.PreferredExercises {
			preferenceScores[ex]++
		}
		for _, ex := range f.DislikedExercises {
			preferenceScores[ex]--
		}
	}

	metrics.AverageSatisfaction = pkg.Mean(satisfaction)
	metrics.AverageFatigue = pkg.Mean(fatigue)
	metrics.AverageRPE = pkg.Mean(rpe)

	for name, acc := range splits {
		metrics.Splits = append(metrics.Splits, SplitEffectiveness{
			Name:               name,
			Sessions:           len(acc.satisfaction),
			AvgSatisfaction:    pkg.Mean(acc.satisfaction),
			AvgRPE:             pkg.Mean(acc.rpe),
			AvgProgressFeeling: pkg.Mean(acc.progress),
		})
	}
	sort.Slice(metrics.Splits, func(i, j int) bool {
		a, b := metrics.Splits[i], metrics.Splits[j]
		if a.AvgSatisfaction != b.AvgSatisfaction {
			return a.AvgSatisfaction > b.AvgSatisfaction
		}
		return a.Name < b.Name
	})

	for ex, score := range preferenceScores {
		metrics.ExercisePreferences = append(metrics.ExercisePreferences, ExercisePreference{
			ExerciseName: ex,
			Score:        score,
		})
	}
	sort.Slice(metrics.ExercisePreferences, func(i, j int) bool {
		a, b := metrics.ExercisePreferences[i], metrics.ExercisePreferences[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.ExerciseName < b.ExerciseName
	})

	return metrics
}

func splitName(f training.PostWorkoutFeedback) string {
	if f.PlanID == nil || strings.TrimSpace(f.PlanName) == "" {
		return CustomRoutineLabel
	}
	return f.PlanName
}
