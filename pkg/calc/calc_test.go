package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummaries(t *testing.T) {
	xs := []float64{3, 1, 4, 1, 5, 9, 2, 6}

	require.Equal(t, 1.0, Min(xs))
	require.Equal(t, 9.0, Max(xs))
	require.InDelta(t, 3.875, Mean(xs), 1e-12)
}

func TestTrimmedMeanDropsOutliers(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 1000}
	// 20% trim drops the 1 and the 1000
	require.InDelta(t, 3.0, TrimmedMean(xs, 0.2), 1e-12)
	// zero trim equals the plain mean
	require.InDelta(t, Mean(xs), TrimmedMean(xs, 0), 1e-12)
}

func TestEmptyInputs(t *testing.T) {
	require.True(t, math.IsNaN(Min(nil)))
	require.True(t, math.IsNaN(Max(nil)))
	require.True(t, math.IsNaN(Mean(nil)))
	require.True(t, math.IsNaN(TrimmedMean(nil, 0.1)))
	require.True(t, math.IsNaN(TrimmedMean([]float64{1, 2}, 0.5)))
}
