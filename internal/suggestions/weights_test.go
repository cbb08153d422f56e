package suggestions_test

import (
	"math"
	"testing"
	"time"

	"github.com/2beens/fitcoach/internal/suggestions"
	"github.com/2beens/fitcoach/internal/training"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
)

func entry(actual float64, feeling training.WeightFeeling, rpe int) training.WeightHistoryEntry {
	return training.WeightHistoryEntry{
		ExerciseName:    "Press de Banca",
		SuggestedWeight: actual,
		ActualWeight:    actual,
		WeightFeedback:  feeling,
		RPEAchieved:     rpe,
	}
}

func TestBaseWeight(t *testing.T) {
	cases := []struct {
		name      string
		wantKilos float64
		wantFound bool
	}{
		{"Press de Banca", 40, true},
		{"Incline BENCH press", 40, true},
		{"Sentadilla frontal", 50, true},
		{"Back Squat", 50, true},
		{"Peso Muerto", 60, true},
		{"Press Militar", 25, true},
		{"Prensa de piernas", 80, true},
		{"Remo con mancuerna", 35, true},
		{"Curl martillo", 12.5, true},
		{"Face pull", suggestions.DefaultBaseWeight, false},
	}
	for _, tc := range cases {
		kilos, found := suggestions.BaseWeight(tc.name)
		assert.Equal(t, tc.wantKilos, kilos, tc.name)
		assert.Equal(t, tc.wantFound, found, tc.name)
	}
}

func TestAdjustmentFactor(t *testing.T) {
	cases := []struct {
		name  string
		entry training.WeightHistoryEntry
		want  float64
	}{
		{"too light", entry(50, training.FeelingTooLight, 7), 1.10},
		{"low rpe", entry(50, training.FeelingPerfect, 5), 1.10},
		{"too heavy", entry(50, training.FeelingTooHeavy, 8), 0.90},
		{"rpe above 9", entry(50, training.FeelingPerfect, 10), 0.90},
		{"perfect in range", entry(50, training.FeelingPerfect, 7), 1.025},
		{"perfect rpe 9", entry(50, training.FeelingPerfect, 9), 1},
		{"no rpe, perfect", entry(50, training.FeelingPerfect, 0), 1},
		{"nothing reported", entry(50, "", 0), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, suggestions.AdjustmentFactor(tc.entry))
		})
	}
}

func TestTrend(t *testing.T) {
	flat := []training.WeightHistoryEntry{entry(60, "", 0), entry(60, "", 0), entry(60, "", 0)}
	assert.Equal(t, training.TrendStable, suggestions.Trend(flat))

	rising := []training.WeightHistoryEntry{
		entry(70, "", 0), entry(70, "", 0), entry(67.5, "", 0),
		entry(60, "", 0), entry(60, "", 0), entry(60, "", 0),
	}
	assert.Equal(t, training.TrendIncreasing, suggestions.Trend(rising))

	falling := []training.WeightHistoryEntry{
		entry(50, "", 0), entry(50, "", 0), entry(50, "", 0),
		entry(60, "", 0),
	}
	assert.Equal(t, training.TrendDecreasing, suggestions.Trend(falling))

	// +4% is within the band
	small := []training.WeightHistoryEntry{
		entry(52, "", 0), entry(52, "", 0), entry(52, "", 0),
		entry(50, "", 0), entry(50, "", 0), entry(50, "", 0),
	}
	assert.Equal(t, training.TrendStable, suggestions.Trend(small))
}

func TestCompute_ColdStart(t *testing.T) {
	weight, confidence, trend := suggestions.Compute("Press de Banca", nil)
	assert.Equal(t, 40.0, weight)
	assert.Equal(t, 0.3, confidence)
	assert.Equal(t, training.TrendStable, trend)

	weight, _, _ = suggestions.Compute("Unknown Machine", nil)
	assert.Equal(t, 25.0, weight)
}

func TestCompute_TooHeavyHighRPE(t *testing.T) {
	history := []training.WeightHistoryEntry{
		entry(60, training.FeelingTooHeavy, 9),
		entry(60, training.FeelingTooHeavy, 9),
		entry(60, training.FeelingTooHeavy, 9),
		entry(60, training.FeelingTooHeavy, 9),
	}
	weight, confidence, trend := suggestions.Compute("Press de Banca", history)
	assert.Equal(t, 55.0, weight)
	assert.InDelta(t, 0.7, confidence, 1e-9)
	assert.Equal(t, training.TrendStable, trend)
}

func TestCompute_UsesAtMostTenEntries(t *testing.T) {
	var history []training.WeightHistoryEntry
	for i := 0; i < 15; i++ {
		history = append(history, entry(40, training.FeelingPerfect, 7))
	}
	weight, confidence, _ := suggestions.Compute("Remo", history)
	// 40 * 1.025 = 41 -> 40
	assert.Equal(t, 40.0, weight)
	assert.Equal(t, 0.95, confidence)
}

func TestCompute_Properties(t *testing.T) {
	faker := gofakeit.New(time.Now().UnixNano())
	feelings := []training.WeightFeeling{training.FeelingTooLight, training.FeelingPerfect, training.FeelingTooHeavy, ""}

	for i := 0; i < 500; i++ {
		n := faker.IntRange(0, 14)
		history := make([]training.WeightHistoryEntry, 0, n)
		for j := 0; j < n; j++ {
			history = append(history, entry(
				faker.Float64Range(0, 300),
				feelings[faker.IntRange(0, len(feelings)-1)],
				faker.IntRange(0, 10),
			))
		}

		weight, confidence, _ := suggestions.Compute(faker.Word(), history)

		remainder := math.Mod(weight, training.PlateIncrement)
		assert.InDelta(t, 0, remainder, 1e-9, "weight %v is not a plate multiple", weight)
		assert.GreaterOrEqual(t, weight, training.PlateIncrement)
		assert.GreaterOrEqual(t, confidence, 0.0)
		assert.LessOrEqual(t, confidence, suggestions.MaxConfidence)
	}
}
