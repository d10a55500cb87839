package selfcheck

import (
	"context"
	"testing"

	"github.com/sigmacheck/sigmacheck/config"

	"github.com/stretchr/testify/require"
)

func TestRunHonest(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.SelfCheck.Trials = 4
	cfg.SelfCheck.States = 3
	cfg.SelfCheck.Replicates = 600
	cfg.SelfCheck.Misscale = 1

	runner := &Runner{Cfg: &cfg}
	summary, err := runner.Run(context.Background())
	require.NoError(t, err, "self check over honest data should not produce an error")

	require.True(t, summary.Passed, "honest synthetic data should pass the self check")
	require.Equal(t, 1.0, summary.Misscale, "summary should carry the configured misscale")
	require.Positive(t, summary.Elapsed, "summary should record the elapsed time")

	require.Len(t, summary.Dims, 3, "self check should cover scalar, vector and matrix sets")
	names := []string{"Scalar", "Vector", "Matrix"}
	fitTests := []int{4, 12, 24}
	for i, dim := range summary.Dims {
		require.Equal(t, i, dim.Dim, "dim summaries should be ordered by dimensionality")
		require.Equal(t, names[i], dim.Name, "dim summary should be labeled by its dimensionality")
		require.Equal(t, 4, dim.Trials, "dim summary should record the number of trials")
		require.Equal(t, fitTests[i], dim.FitTests, "fit test count should be panels times trials")
		require.Equal(t, cfg.AlphaSweep.Count*4, dim.CoveragePoints, "coverage point count should be grid size times trials")
		require.True(t, dim.Passed, "honest trials should pass at every dimensionality")
	}
}

func TestRunMisscaled(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.SelfCheck.Trials = 1
	cfg.SelfCheck.States = 2
	cfg.SelfCheck.Replicates = 200
	cfg.SelfCheck.Misscale = 10

	runner := &Runner{Cfg: &cfg}
	summary, err := runner.Run(context.Background())
	require.NoError(t, err, "self check over misscaled data should not produce an error")

	require.True(t, summary.Passed, "badly misscaled sigmas must be flagged at every dimensionality")
	for _, dim := range summary.Dims {
		require.Equal(t, dim.FitTests, dim.Rejections, "ten fold misscaled sigmas should fail every goodness of fit test")
		require.True(t, dim.Passed, "the detector should fire for dim %d", dim.Dim)
	}
}

func TestRunCancelled(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.SelfCheck.Trials = 1

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &Runner{Cfg: &cfg}
	summary, err := runner.Run(ctx)
	require.Error(t, err, "a cancelled context should abort the self check")
	require.ErrorIs(t, err, context.Canceled, "the context error should be propagated")
	require.Nil(t, summary, "no summary should be produced for an aborted run")
}

func TestScore(t *testing.T) {
	// totals land in the first trial of each dim, pooling sums them anyway
	outcomesWith := func(rejections, violations [3]int, trials int) [][]TrialOutcome {
		outcomes := make([][]TrialOutcome, 3)
		for dim := range outcomes {
			outcomes[dim] = make([]TrialOutcome, trials)
			outcomes[dim][0].Rejections = rejections[dim]
			outcomes[dim][0].Violations = violations[dim]
		}
		return outcomes
	}

	// two trials at three states: 2/6/12 fit tests and 80 coverage points
	// per dim, honest tolerances 1 rejection and 12 violations
	tests := []struct {
		name        string
		misscale    float64
		rejections  [3]int
		violations  [3]int
		expectedDim [3]bool
		expected    bool
	}{
		{
			name:        "honest run within tolerance",
			misscale:    1,
			rejections:  [3]int{1, 1, 1},
			violations:  [3]int{12, 0, 0},
			expectedDim: [3]bool{true, true, true},
			expected:    true,
		},
		{
			name:        "honest run with too many rejections",
			misscale:    1,
			rejections:  [3]int{2, 0, 0},
			expectedDim: [3]bool{false, true, true},
		},
		{
			name:        "honest run with too many violations",
			misscale:    1,
			violations:  [3]int{0, 13, 0},
			expectedDim: [3]bool{true, false, true},
		},
		{
			name:        "misscaled run detected everywhere",
			misscale:    10,
			rejections:  [3]int{1, 3, 6},
			expectedDim: [3]bool{true, true, true},
			expected:    true,
		},
		{
			name:        "misscaled run missed by the detector",
			misscale:    10,
			rejections:  [3]int{1, 2, 6},
			expectedDim: [3]bool{true, false, true},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := config.GetDefaultConfig()
			cfg.SelfCheck.Trials = 2
			cfg.SelfCheck.States = 3
			cfg.SelfCheck.Misscale = test.misscale

			runner := &Runner{Cfg: &cfg}
			summary := runner.score(outcomesWith(test.rejections, test.violations, 2))

			require.Equal(t, test.expected, summary.Passed, "aggregate verdict should match expected value")
			require.Len(t, summary.Dims, 3, "every dimensionality should be scored")

			fitTests := []int{2, 6, 12}
			for i, dim := range summary.Dims {
				require.Equal(t, fitTests[i], dim.FitTests, "fit test count should be panels times trials")
				require.Equal(t, cfg.AlphaSweep.Count*2, dim.CoveragePoints, "coverage point count should be grid size times trials")
				require.Equal(t, test.rejections[i], dim.Rejections, "pooled rejections should match the trial outcomes")
				require.Equal(t, test.violations[i], dim.Violations, "pooled violations should match the trial outcomes")
				require.Equal(t, test.expectedDim[i], dim.Passed, "per dim verdict should match expected value for %s", dim.Name)
			}
		})
	}
}
