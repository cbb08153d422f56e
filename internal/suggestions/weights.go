package suggestions

import (
	"math"
	"strings"

	"github.com/2beens/fitcoach/internal/training"
	"github.com/2beens/fitcoach/pkg"
)

const (
	DefaultBaseWeight    = 25.0
	ColdStartConfidence  = 0.3
	MaxConfidence        = 0.95
	ConfidencePerSession = 0.1
	HistoryLimit         = 10

	factorIncrease    = 1.10
	factorDecrease    = 0.90
	factorProgressive = 1.025

	trendThresholdPercent = 5.0
)

type baseWeight struct {
	keyword string
	kilos   float64
}

// First match wins.
var baseWeights = []baseWeight{
	{keyword: "press de banca", kilos: 40},
	{keyword: "bench", kilos: 40},
	{keyword: "sentadilla", kilos: 50},
	{keyword: "squat", kilos: 50},
	{keyword: "peso muerto", kilos: 60},
	{keyword: "deadlift", kilos: 60},
	{keyword: "press militar", kilos: 25},
	{keyword: "military press", kilos: 25},
	{keyword: "overhead press", kilos: 25},
	{keyword: "prensa", kilos: 80},
	{keyword: "leg press", kilos: 80},
	{keyword: "remo", kilos: 35},
	{keyword: "row", kilos: 35},
	{keyword: "curl", kilos: 12.5},
}

// BaseWeight looks up the starting weight for an exercise with no history.
func BaseWeight(exerciseName string) (float64, bool) {
	name := strings.ToLower(exerciseName)
	for _, bw := range baseWeights {
		if strings.Contains(name, bw.keyword) {
			return bw.kilos, true
		}
	}
	return DefaultBaseWeight, false
}

// AdjustmentFactor picks the multiplier for the next weight from the most
// recent entry. An RPE of 0 means it was not reported.
func AdjustmentFactor(last training.WeightHistoryEntry) float64 {
	rpe := last.RPEAchieved
	hasRPE := rpe > 0
	switch {
	case last.WeightFeedback == training.FeelingTooLight || (hasRPE && rpe < 6):
		return factorIncrease
	case last.WeightFeedback == training.FeelingTooHeavy || rpe > 9:
		return factorDecrease
	case hasRPE && rpe >= 6 && rpe <= 8 && last.WeightFeedback == training.FeelingPerfect:
		return factorProgressive
	default:
		return 1
	}
}

func Confidence(sessions int) float64 {
	return math.Min(MaxConfidence, ColdStartConfidence+float64(sessions)*ConfidencePerSession)
}

// Trend compares the mean of the three most recent actual weights with the
// mean of entries four to six. History is most recent first.
func Trend(history []training.WeightHistoryEntry) training.ProgressionTrend {
	if len(history) < 4 {
		return training.TrendStable
	}
	older := history[3:min(6, len(history))]
	change := pkg.PercentChange(meanActual(older), meanActual(history[:3]))
	switch {
	case change > trendThresholdPercent:
		return training.TrendIncreasing
	case change < -trendThresholdPercent:
		return training.TrendDecreasing
	default:
		return training.TrendStable
	}
}

func meanActual(entries []training.WeightHistoryEntry) float64 {
	weights := make([]float64, 0, len(entries))
	for _, e := range entries {
		weights = append(weights, e.ActualWeight)
	}
	return pkg.Mean(weights)
}

// Compute derives a suggestion from history, most recent first. Empty
// history yields the cold-start suggestion.
func Compute(exerciseName string, history []training.WeightHistoryEntry) (weight, confidence float64, trend training.ProgressionTrend) {
	if len(history) == 0 {
		base, _ := BaseWeight(exerciseName)
		return base, ColdStartConfidence, training.TrendStable
	}
	if len(history) > HistoryLimit {
		history = history[:HistoryLimit]
	}

	last := history[0]
	weight = training.RoundToPlate(last.ActualWeight * AdjustmentFactor(last))
	return weight, Confidence(len(history)), Trend(history)
}
