package learning

import (
	"math"

	"github.com/2beens/fitcoach/internal/training"
	"github.com/2beens/fitcoach/pkg"
)

const (
	LookbackDays         = 28
	WeightHistoryLimit   = 10
	SetFeedbackLimit     = 10
	trendWindow          = 5
	trendThresholdPct    = 5.0
	MaxConfidence        = 0.95
	baseConfidence       = 0.3
	confidencePerPoint   = 0.02
	highVarianceKg2      = 25.0
	highVarianceDiscount = 0.8

	stepStrong      = 7.5
	stepNormal      = 5.0
	stepProgressive = 2.5
)

// Signals is the feedback evidence for one exercise.
type Signals struct {
	AverageRPE    float64
	RPESamples    int
	TooLightCount int
	PerfectCount  int
	TooHeavyCount int
	Samples       int
}

func (s Signals) majority(count int) bool {
	return s.Samples > 0 && count*2 > s.Samples
}

// SignalsFromFeedback tallies set feedback. An RPE of 0 is not counted.
func SignalsFromFeedback(feedback []training.SetFeedback) Signals {
	var s Signals
	var rpes []float64
	for _, f := range feedback {
		s.Samples++
		if f.SetRPE > 0 {
			rpes = append(rpes, float64(f.SetRPE))
		}
		s.tally(f.WeightFeeling)
	}
	s.RPESamples = len(rpes)
	s.AverageRPE = pkg.Mean(rpes)
	return s
}

// SignalsFromHistory is used when an exercise has no set feedback rows.
func SignalsFromHistory(history []training.WeightHistoryEntry) Signals {
	var s Signals
	var rpes []float64
	for _, e := range history {
		s.Samples++
		if e.RPEAchieved > 0 {
			rpes = append(rpes, float64(e.RPEAchieved))
		}
		s.tally(e.WeightFeedback)
	}
	s.RPESamples = len(rpes)
	s.AverageRPE = pkg.Mean(rpes)
	return s
}

func (s *Signals) tally(feeling training.WeightFeeling) {
	switch feeling {
	case training.FeelingTooLight:
		s.TooLightCount++
	case training.FeelingPerfect:
		s.PerfectCount++
	case training.FeelingTooHeavy:
		s.TooHeavyCount++
	}
}

type Recommendation struct {
	Weight            float64
	PreviousWeight    float64
	AdjustmentPercent float64
	Confidence        float64
	Trend             training.ProgressionTrend
	RecentVariance    float64
	DataPoints        int
	Signals           Signals
}

// WeightTrend compares the mean of the 5 most recent actual weights with
// the mean of the 5 before them. history is most recent first.
func WeightTrend(history []training.WeightHistoryEntry) training.ProgressionTrend {
	if len(history) <= trendWindow {
		return training.TrendStable
	}
	recent := pkg.Mean(actualWeights(history[:trendWindow]))
	end := min(len(history), 2*trendWindow)
	previous := pkg.Mean(actualWeights(history[trendWindow:end]))
	change := pkg.PercentChange(previous, recent)
	switch {
	case change > trendThresholdPct:
		return training.TrendIncreasing
	case change < -trendThresholdPct:
		return training.TrendDecreasing
	default:
		return training.TrendStable
	}
}

// AdjustmentPercent returns the signed percentage the last weight moves by.
func AdjustmentPercent(s Signals, trend training.ProgressionTrend) float64 {
	hasRPE := s.RPESamples > 0
	switch {
	case (hasRPE && s.AverageRPE < 6) || s.majority(s.TooLightCount):
		if trend == training.TrendIncreasing {
			return stepStrong
		}
		return stepNormal
	case (hasRPE && s.AverageRPE > 9) || s.majority(s.TooHeavyCount):
		if trend == training.TrendDecreasing {
			return -stepStrong
		}
		return -stepNormal
	case hasRPE && s.AverageRPE >= 6 && s.AverageRPE <= 8 && s.majority(s.PerfectCount):
		return stepProgressive
	default:
		return 0
	}
}

func LearningConfidence(dataPoints int, recentVariance float64) float64 {
	c := math.Min(MaxConfidence, baseConfidence+float64(dataPoints)*confidencePerPoint)
	if recentVariance > highVarianceKg2 {
		c *= highVarianceDiscount
	}
	return c
}

// Recommend derives the next weight from history (most recent first) and
// the latest set feedback. ok is false when there is no history.
func Recommend(history []training.WeightHistoryEntry, feedback []training.SetFeedback) (rec Recommendation, ok bool) {
	if len(history) == 0 {
		return Recommendation{}, false
	}

	signals := SignalsFromFeedback(feedback)
	if signals.Samples == 0 {
		signals = SignalsFromHistory(history)
	}

	trend := WeightTrend(history)
	pct := AdjustmentPercent(signals, trend)
	last := history[0].ActualWeight
	variance := pkg.Variance(actualWeights(history[:min(len(history), trendWindow)]))
	dataPoints := len(history) + len(feedback)

	return Recommendation{
		Weight:            training.RoundToPlate(last * (1 + pct/100)),
		PreviousWeight:    last,
		AdjustmentPercent: pct,
		Confidence:        LearningConfidence(dataPoints, variance),
		Trend:             trend,
		RecentVariance:    variance,
		DataPoints:        dataPoints,
		Signals:           signals,
	}, true
}

func actualWeights(entries []training.WeightHistoryEntry) []float64 {
	weights := make([]float64, len(entries))
	for i, e := range entries {
		weights[i] = e.ActualWeight
	}
	return weights
}
