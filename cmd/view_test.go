package cmd_test

import (
	"testing"

	"github.com/sigmacheck/sigmacheck/analysis"
	"github.com/sigmacheck/sigmacheck/cmd"
	"github.com/sigmacheck/sigmacheck/report"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestViewCommandFlags(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		expectedError error
	}{
		{"Section Without Stdout", []string{"app", "view", "--section", "coverage"}, cmd.ErrMissingSectionStdout},
		{"Invalid Section", []string{"app", "view", "--stdout", "--section", "pizza", "harmonic"}, cmd.ErrInvalidSection},
		{"Stdout Without Dataset", []string{"app", "view", "--stdout"}, cmd.ErrMissingDatasetStdout},
		{"Dataset Without Stdout", []string{"app", "view", "harmonic"}, cmd.ErrTooManyArguments},
		{"Too Many Arguments", []string{"app", "view", "--stdout", "harmonic", "extra"}, cmd.ErrTooManyArguments},
		{"Invalid Dataset Name", []string{"app", "view", "--stdout", `a\b`}, cmd.ErrInvalidDatasetName},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			app, ctx := setupTestApp([]*cli.Command{cmd.ViewCommand}, nil)
			err := app.RunContext(ctx, test.args)
			require.ErrorIs(t, err, test.expectedError, "error should match the expected value")
		})
	}
}

// seedViewStore stores one result carrying data for every report section
func seedViewStore(t *testing.T, afs afero.Fs, dir string) {
	t.Helper()

	result := storedResult("harmonic")
	result.GoodnessOfFit = []analysis.FitResult{
		{Label: "value", Statistic: 0.42},
	}
	result.Coverage = []analysis.AlphaCoverage{
		{Alpha: 1.0, Chebyshev: 0, Observed: 0.71, ObservedErr: 0.05, Low: 0.62, High: 0.78, Normal: 0.6827, Consistent: true},
	}
	result.Summaries = []analysis.CoordinateSummary{
		{Label: "value", Average: 0.01, Bias: 0.01, RMSError: 1.02, StdDev: 1.01, AvgStdErr: 0.99},
	}

	_, err := report.NewStore(afs, dir).Save(result)
	require.NoError(t, err, "seeding the store should not produce an error")
}

func TestRunViewCmdStdout(t *testing.T) {
	require := require.New(t)
	afs := afero.NewMemMapFs()
	seedViewStore(t, afs, "results")

	for _, section := range []string{"", "coverage", "fit", "summary"} {
		err := cmd.RunViewCmd(afs, "results", "harmonic", true, section)
		require.NoError(err, "printing section %q should not produce an error", section)
	}

	err := cmd.RunViewCmd(afs, "results", "unknown", true, "")
	require.ErrorIs(err, report.ErrNoResults, "an unknown dataset should return the sentinel error")
}
