package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanEmptyIsZero(t *testing.T) {
	assert.Zero(t, mean(nil))
	assert.Zero(t, stddev(nil))
	assert.Zero(t, median(nil))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 3.0, median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 2, 3}))
}

func TestPercentChangeZeroBaseline(t *testing.T) {
	assert.Zero(t, percentChange(0, 50))
	assert.Equal(t, 25.0, percentChange(80, 100))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-5, 0, 100))
	assert.Equal(t, 100.0, clamp(250, 0, 100))
	assert.Equal(t, 42.0, clamp(42, 0, 100))
}

func TestOnlineMean(t *testing.T) {
	avg := 0.0
	for i, v := range []float64{80, 90, 100} {
		avg = onlineMean(avg, i, v)
	}
	assert.InDelta(t, 90, avg, 0.0001)
}
