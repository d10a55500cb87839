package analysis

import (
	"math"
	"testing"

	"github.com/sigmacheck/sigmacheck/config"
	"github.com/sigmacheck/sigmacheck/replicate"
	"github.com/sigmacheck/sigmacheck/synthetic"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// scalarSet builds a scalar replicate set whose estimates equal the
// given deviations, which keeps hand calculations short.
func scalarSet(t *testing.T, deviations, stderrs []float64) *replicate.Set {
	t.Helper()
	replicates := make([]replicate.Replicate, len(deviations))
	for i := range deviations {
		replicates[i] = replicate.Replicate{
			Estimated: replicate.Scalar(deviations[i]),
			Error:     replicate.Scalar(deviations[i]),
			StdError:  replicate.Scalar(stderrs[i]),
		}
	}
	set, err := replicate.NewSet("scalar-fixture", replicates)
	require.NoError(t, err, "building a scalar fixture set should not produce an error")
	return set
}

// vectorSet builds a vector replicate set, one row per replicate.
func vectorSet(t *testing.T, deviations, stderrs [][]float64) *replicate.Set {
	t.Helper()
	replicates := make([]replicate.Replicate, len(deviations))
	for i := range deviations {
		errQty, err := replicate.Vector(deviations[i])
		require.NoError(t, err, "building a deviation vector should not produce an error")
		stdQty, err := replicate.Vector(stderrs[i])
		require.NoError(t, err, "building a standard error vector should not produce an error")
		replicates[i] = replicate.Replicate{Estimated: errQty, Error: errQty, StdError: stdQty}
	}
	set, err := replicate.NewSet("vector-fixture", replicates)
	require.NoError(t, err, "building a vector fixture set should not produce an error")
	return set
}

// matrixSet builds a matrix replicate set, one matrix per replicate.
func matrixSet(t *testing.T, deviations, stderrs [][][]float64) *replicate.Set {
	t.Helper()
	replicates := make([]replicate.Replicate, len(deviations))
	for i := range deviations {
		errQty, err := replicate.Matrix(deviations[i])
		require.NoError(t, err, "building a deviation matrix should not produce an error")
		stdQty, err := replicate.Matrix(stderrs[i])
		require.NoError(t, err, "building a standard error matrix should not produce an error")
		replicates[i] = replicate.Replicate{Estimated: errQty, Error: errQty, StdError: stdQty}
	}
	set, err := replicate.NewSet("matrix-fixture", replicates)
	require.NoError(t, err, "building a matrix fixture set should not produce an error")
	return set
}

func TestOrderDeviations(t *testing.T) {
	t.Run("normalizes by the first replicate's standard error", func(t *testing.T) {
		set := scalarSet(t, []float64{2, 5}, []float64{2, 99})

		deviations := OrderDeviations(set)

		coord := replicate.Coordinate{}
		require.InDelta(t, 2.0, deviations.Sigma[coord], 1e-12, "reference sigma should come from the first replicate")
		require.Equal(t, []float64{1, 2.5}, deviations.Ordered[coord], "every replicate should be divided by the reference sigma")
		require.Empty(t, deviations.Degenerate, "no coordinate should be degenerate")
	})

	t.Run("sorts each coordinate independently", func(t *testing.T) {
		set := vectorSet(t,
			[][]float64{{3, -1}, {1, 2}, {2, 0}},
			[][]float64{{1, 1}, {1, 1}, {1, 1}},
		)

		deviations := OrderDeviations(set)

		require.Equal(t, []float64{1, 2, 3}, deviations.Ordered[replicate.Coordinate{Row: 0}], "first coordinate should be sorted ascending")
		require.Equal(t, []float64{-1, 0, 2}, deviations.Ordered[replicate.Coordinate{Row: 1}], "second coordinate should be sorted ascending")
	})

	t.Run("does not mutate the input set", func(t *testing.T) {
		set := scalarSet(t, []float64{1.5, -0.5, 0.5}, []float64{2, 2, 2})

		OrderDeviations(set)

		require.InDelta(t, 1.5, set.Replicates[0].Error.At(replicate.Coordinate{}), 1e-12, "replicate deviations should be untouched")
		require.InDelta(t, -0.5, set.Replicates[1].Error.At(replicate.Coordinate{}), 1e-12, "replicate order should be untouched")
	})

	t.Run("flags zero sigma coordinates and substitutes one", func(t *testing.T) {
		set := vectorSet(t,
			[][]float64{{3, 4}, {-1, 2}},
			[][]float64{{0, 2}, {0, 2}},
		)

		deviations := OrderDeviations(set)

		degenerateCoord := replicate.Coordinate{Row: 0}
		require.True(t, deviations.Degenerate[degenerateCoord], "zero sigma coordinate should be flagged degenerate")
		require.InDelta(t, 1.0, deviations.Sigma[degenerateCoord], 1e-12, "degenerate coordinate should use a substitute sigma of one")
		require.Equal(t, []float64{-1, 3}, deviations.Ordered[degenerateCoord], "degenerate coordinate should keep its raw deviations")

		healthyCoord := replicate.Coordinate{Row: 1}
		require.False(t, deviations.Degenerate[healthyCoord], "nonzero sigma coordinate should not be flagged")
		require.Equal(t, []float64{1, 2}, deviations.Ordered[healthyCoord], "healthy coordinate should be normalized as usual")
	})
}

func TestNewAnalyzer(t *testing.T) {
	cfg := config.GetDefaultConfig()
	set := scalarSet(t, []float64{1, -1}, []float64{1, 1})

	analyzer := NewAnalyzer(set, &cfg)

	require.Len(t, analyzer.Alphas, 40, "default sweep should have forty grid points")
	require.InDelta(t, 0.1, analyzer.Alphas[0], 1e-12, "sweep should start at the configured minimum")
	require.InDelta(t, 4.0, analyzer.Alphas[39], 1e-12, "sweep should end at the configured maximum")
	require.InDelta(t, 4.5, analyzer.Threshold, 1e-12, "threshold should come from the config")
	require.InDelta(t, 0.95, analyzer.CredibleLevel, 1e-12, "credible level should come from the config")
	require.GreaterOrEqual(t, analyzer.Workers, 4, "worker count should be resolved to a usable value")
}

func TestAnalyzeHonestData(t *testing.T) {
	set, err := synthetic.Generator{Dim: 0, States: 1, Replicates: 500, Misscale: 1}.Generate("analyzer-honest")
	require.NoError(t, err, "generating honest data should not produce an error")

	cfg := config.GetDefaultConfig()
	result, err := NewAnalyzer(set, &cfg).Analyze()
	require.NoError(t, err, "analyzing honest data should not produce an error")

	require.NotEqual(t, uuid.Nil, result.RunID, "result should carry a run id")
	require.Equal(t, "analyzer-honest", result.Dataset, "result should carry the dataset name")
	require.Equal(t, 500, result.Replicates, "result should carry the replicate count")
	require.False(t, result.CreatedAt.IsZero(), "result should carry a creation time")
	require.Positive(t, result.Elapsed, "result should carry the elapsed duration")

	require.Len(t, result.GoodnessOfFit, 1, "a scalar set has a single fit verdict")
	require.Zero(t, result.FitRejections(), "honestly reported errors should pass the fit test")
	require.Empty(t, result.Degenerate, "no coordinate should be degenerate")
	require.Len(t, result.Summaries, 1, "a scalar set has a single summary")

	require.Len(t, result.Coverage, 40, "sweep should cover the whole default grid")
	for i, point := range result.Coverage {
		require.GreaterOrEqual(t, point.Observed, point.Low, "observed coverage should sit above the lower bound")
		require.LessOrEqual(t, point.Observed, point.High, "observed coverage should sit below the upper bound")
		require.GreaterOrEqual(t, point.Observed, point.Chebyshev, "normal data should clear the distribution free floor")
		if i > 0 {
			require.GreaterOrEqual(t, point.Observed, result.Coverage[i-1].Observed, "observed coverage should be non decreasing in alpha")
		}
	}

	// grid point 19 is alpha = 2, where the normal expectation is ~0.9545
	atTwo := result.Coverage[19]
	require.InDelta(t, 2.0, atTwo.Alpha, 1e-9, "grid point 19 should be alpha 2")
	require.InDelta(t, atTwo.Normal, atTwo.Observed, 0.08, "honest coverage should track the normal expectation")

	summary := result.Summaries[0]
	require.InDelta(t, 1.0, summary.RMSError/summary.AvgStdErr, 0.25, "observed spread should match the reported spread")
}

func TestAnalyzeMisscaledData(t *testing.T) {
	set, err := synthetic.Generator{Dim: 0, States: 1, Replicates: 500, Misscale: 10}.Generate("analyzer-misscaled")
	require.NoError(t, err, "generating misscaled data should not produce an error")

	cfg := config.GetDefaultConfig()
	result, err := NewAnalyzer(set, &cfg).Analyze()
	require.NoError(t, err, "analyzing misscaled data should not produce an error")

	require.Equal(t, 1, result.FitRejections(), "tenfold understated errors should fail the fit test")
	require.GreaterOrEqual(t, result.CoverageViolations(), 35, "tenfold understated errors should fail nearly every sweep point")
	require.False(t, result.Consistent(), "misscaled data should not be consistent")
}

func TestAnalyzeRejectsInvalidValues(t *testing.T) {
	set := scalarSet(t, []float64{1, -1}, []float64{1, 1})
	set.Replicates[1].Error = replicate.Scalar(math.NaN())

	cfg := config.GetDefaultConfig()
	_, err := NewAnalyzer(set, &cfg).Analyze()
	require.Error(t, err, "a NaN deviation should abort the analysis")
	require.ErrorIs(t, err, replicate.ErrInvalidValue, "the error should identify the invalid value")
}
