package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanVarianceStdDev(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.Zero(t, Variance(nil))
	assert.Zero(t, StdDev([]float64{}))

	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5.0, Mean(values), 1e-9)
	assert.InDelta(t, 4.0, Variance(values), 1e-9)
	assert.InDelta(t, 2.0, StdDev(values), 1e-9)
}

func TestPercentChangeAndPercentage(t *testing.T) {
	assert.Zero(t, PercentChange(0, 100))
	assert.InDelta(t, 50.0, PercentChange(100, 150), 1e-9)
	assert.InDelta(t, -25.0, PercentChange(200, 150), 1e-9)

	assert.Zero(t, Percentage(3, 0))
	assert.InDelta(t, 75.0, Percentage(3, 4), 1e-9)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.95, Clamp(1.2, 0, 0.95))
	assert.Equal(t, 0.0, Clamp(-3, 0, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
}
