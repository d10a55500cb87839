package analysis

import (
	"math"
	"testing"

	"github.com/sigmacheck/sigmacheck/replicate"

	"github.com/stretchr/testify/require"
)

func TestSummaries(t *testing.T) {
	set := scalarSet(t, []float64{0.5, -0.5, 1.5}, []float64{1, 1, 1})
	// estimates differ from the deviations here to keep the averages apart
	for i, estimated := range []float64{1, 2, 3} {
		set.Replicates[i].Estimated = replicate.Scalar(estimated)
	}

	summaries, err := Summaries(set, OrderDeviations(set))
	require.NoError(t, err, "summarizing should not produce an error")
	require.Len(t, summaries, 1, "a scalar set has one summary")

	summary := summaries[0]
	require.Equal(t, "0", summary.Label, "scalar summary should be labeled by its coordinate")
	require.InDelta(t, 2.0, summary.Average, 1e-12, "average should be the mean estimate")
	require.InDelta(t, 0.5, summary.Bias, 1e-12, "bias should be the mean deviation")
	require.InDelta(t, math.Sqrt(2.75/3.0), summary.RMSError, 1e-12, "rms error should be the quadratic mean deviation")
	require.InDelta(t, math.Sqrt(2.0/3.0), summary.StdDev, 1e-12, "stddev should be the population spread of the estimates")
	require.InDelta(t, 1.0, summary.AvgStdErr, 1e-12, "avg stderr should be the quadratic mean reported sigma")
}

func TestSummariesSkipDegenerateCoordinates(t *testing.T) {
	set := vectorSet(t,
		[][]float64{{1, 0.1}, {2, -0.1}},
		[][]float64{{0, 1}, {0, 1}},
	)

	summaries, err := Summaries(set, OrderDeviations(set))
	require.NoError(t, err, "summarizing should not produce an error")
	require.Len(t, summaries, 1, "the degenerate coordinate should be skipped")
	require.Equal(t, "1", summaries[0].Label, "the surviving summary should be the healthy coordinate")
}

func TestSummariesMatrixPerPair(t *testing.T) {
	deviations := [][][]float64{
		{{0, -0.1, -0.2}, {0.1, 0, -0.3}, {0.2, 0.3, 0}},
		{{0, -0.3, -0.6}, {0.3, 0, -0.9}, {0.6, 0.9, 0}},
	}
	stderrs := [][][]float64{
		{{0, 1, 1}, {1, 0, 1}, {1, 1, 0}},
		{{0, 1, 1}, {1, 0, 1}, {1, 1, 0}},
	}
	set := matrixSet(t, deviations, stderrs)

	summaries, err := Summaries(set, OrderDeviations(set))
	require.NoError(t, err, "summarizing should not produce an error")
	require.Len(t, summaries, 3, "a 3x3 matrix has three lower triangle pairs")

	labels := make([]string, len(summaries))
	for i, summary := range summaries {
		labels[i] = summary.Label
	}
	require.Equal(t, []string{"1-0", "2-0", "2-1"}, labels, "each lower triangle pair should get its own summary")

	require.InDelta(t, 0.2, summaries[0].Bias, 1e-12, "pair 1-0 should aggregate its own cells")
	require.InDelta(t, 0.4, summaries[1].Bias, 1e-12, "pair 2-0 should aggregate its own cells")
	require.InDelta(t, 0.6, summaries[2].Bias, 1e-12, "pair 2-1 should aggregate its own cells")
}
