// pkg/stats/stats_test.go
package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantileInterpolates(t *testing.T) {
	values := []float64{1, 2, 3, 4}

	assert.InDelta(t, 1.75, Quantile(values, 0.25), 1e-9)
	assert.InDelta(t, 2.5, Quantile(values, 0.5), 1e-9)
	assert.InDelta(t, 3.25, Quantile(values, 0.75), 1e-9)
	assert.InDelta(t, 1, Quantile(values, 0), 1e-9)
	assert.InDelta(t, 4, Quantile(values, 1), 1e-9)
}

func TestQuantileEmptyIsNaN(t *testing.T) {
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestMedian(t *testing.T) {
	assert.InDelta(t, 3, Median([]float64{1, 3, 5}), 1e-9)
	assert.InDelta(t, 2, Median([]float64{1, 3}), 1e-9)
}

func TestSampleStdDev(t *testing.T) {
	// Known sample std of {2,4,4,4,5,5,7,9} with n-1 denominator
	got := SampleStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 2.13808993529939, got, 1e-9)
}

func TestSampleStdDevUndefinedForSingleValue(t *testing.T) {
	assert.True(t, math.IsNaN(SampleStdDev([]float64{10})))
	assert.True(t, math.IsNaN(SampleStdDev(nil)))
}
