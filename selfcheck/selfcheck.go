// Package selfcheck exercises the full analysis pipeline against
// synthetic replicate sets with known properties. Sets drawn with honest
// standard errors must pass the goodness of fit test and the coverage
// sweep almost everywhere; sets drawn with deliberately misscaled
// standard errors must be flagged. A failure in either direction means
// the pipeline itself is broken, not the data.
package selfcheck

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sigmacheck/sigmacheck/analysis"
	"github.com/sigmacheck/sigmacheck/config"
	zlog "github.com/sigmacheck/sigmacheck/logger"
	"github.com/sigmacheck/sigmacheck/progressbar"
	"github.com/sigmacheck/sigmacheck/replicate"
	"github.com/sigmacheck/sigmacheck/synthetic"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

// dimNames labels the trial groups, indexed by shape dimensionality.
var dimNames = [...]string{"Scalar", "Vector", "Matrix"}

// An honest run still trips a small fraction of tests by chance; tolerate
// up to 2% fit rejections and 15% coverage violations before calling the
// pipeline broken.
const (
	fitRejectionTolerance      = 0.02
	coverageViolationTolerance = 0.15
)

// TrialOutcome records the verdict counts from a single synthetic trial.
type TrialOutcome struct {
	Dim        int
	Trial      int
	Dataset    string
	Rejections int
	Violations int
}

// DimSummary pools the outcomes of every trial at one dimensionality.
type DimSummary struct {
	Dim            int    `json:"dim"`
	Name           string `json:"name"`
	Trials         int    `json:"trials"`
	FitTests       int    `json:"fit_tests"`
	Rejections     int    `json:"rejections"`
	CoveragePoints int    `json:"coverage_points"`
	Violations     int    `json:"violations"`
	Passed         bool   `json:"passed"`
}

// Summary is the aggregate verdict of a self check run.
type Summary struct {
	Dims     []DimSummary  `json:"dims"`
	Misscale float64       `json:"misscale"`
	Passed   bool          `json:"passed"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Runner drives synthetic trials through the analysis pipeline at every
// supported dimensionality. Progress enables the interactive bars and
// should stay off under tests.
type Runner struct {
	Cfg      *config.Config
	Progress bool
}

// Run generates and analyzes the configured number of trials for scalar,
// vector and matrix sets concurrently, then scores the pooled verdicts.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	logger := zlog.GetLogger()

	check := r.Cfg.SelfCheck
	start := time.Now()
	logger.Debug().
		Int("trials", check.Trials).
		Int("states", check.States).
		Int("replicates", check.Replicates).
		Float64("misscale", check.Misscale).
		Msg("Starting Self Check")

	group, ctx := errgroup.WithContext(ctx)

	outcomes := make([][]TrialOutcome, len(dimNames))
	for dim := range outcomes {
		outcomes[dim] = make([]TrialOutcome, check.Trials)
	}

	var bars *tea.Program
	if r.Progress {
		bars = progressbar.New(ctx, []*progressbar.Bar{
			progressbar.NewBar("Scalar Trials", 0, progress.New(progress.WithDefaultGradient())),
			progressbar.NewBar("Vector Trials", 1, progress.New(progress.WithDefaultGradient())),
			progressbar.NewBar("Matrix Trials", 2, progress.New(progress.WithDefaultGradient())),
		}, []progressbar.Spinner{})
	}

	for dim := range outcomes {
		group.Go(func() error {
			return r.runDim(ctx, dim, outcomes[dim], bars)
		})
	}

	if bars != nil {
		group.Go(func() error {
			_, err := bars.Run()
			if err != nil {
				logger.Error().Err(err).Msg("error running progress bars")
			}
			return err
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	summary := r.score(outcomes)
	end := time.Now()
	summary.Elapsed = end.Sub(start)

	logger.Info().
		Str("elapsed_time", summary.Elapsed.String()).
		Time("selfcheck_began", start).
		Time("selfcheck_finished", end).
		Bool("passed", summary.Passed).
		Msg("Finished Self Check! 🎉")

	return summary, nil
}

// runDim runs every trial at one dimensionality sequentially, reporting
// progress after each completed trial.
func (r *Runner) runDim(ctx context.Context, dim int, outcomes []TrialOutcome, bars *tea.Program) error {
	logger := zlog.GetLogger()

	check := r.Cfg.SelfCheck
	for trial := range outcomes {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		name := fmt.Sprintf("selfcheck-%s-%03d", strings.ToLower(dimNames[dim]), trial)
		generator := synthetic.Generator{
			Dim:        dim,
			States:     check.States,
			Replicates: check.Replicates,
			Misscale:   check.Misscale,
		}
		set, err := generator.Generate(name)
		if err != nil {
			return fmt.Errorf("could not generate trial %s: %w", name, err)
		}

		result, err := analysis.NewAnalyzer(set, r.Cfg).Analyze()
		if err != nil {
			return fmt.Errorf("could not analyze trial %s: %w", name, err)
		}

		outcomes[trial] = TrialOutcome{
			Dim:        dim,
			Trial:      trial,
			Dataset:    name,
			Rejections: result.FitRejections(),
			Violations: result.CoverageViolations(),
		}

		logger.Debug().
			Str("set", name).
			Int("rejections", outcomes[trial].Rejections).
			Int("violations", outcomes[trial].Violations).
			Msg("finished self check trial")

		if bars != nil {
			bars.Send(progressbar.ProgressMsg{ID: dim, Percent: float64(trial+1) / float64(len(outcomes))})
		}
	}

	return nil
}

// score pools the per trial verdict counts and applies the pass criteria.
// Honest runs must stay within the chance tolerances; misscaled runs must
// make the goodness of fit test reject at least half of its targets.
func (r *Runner) score(outcomes [][]TrialOutcome) *Summary {
	check := r.Cfg.SelfCheck

	summary := &Summary{Misscale: check.Misscale, Passed: true}
	for dim, trials := range outcomes {
		shape := replicate.Shape{Dim: dim, K: check.States}
		if dim == 0 {
			shape.K = 1
		}

		pooled := DimSummary{
			Dim:            dim,
			Name:           dimNames[dim],
			Trials:         len(trials),
			FitTests:       len(shape.PanelCoordinates()) * len(trials),
			CoveragePoints: r.Cfg.AlphaSweep.Count * len(trials),
		}
		for _, outcome := range trials {
			pooled.Rejections += outcome.Rejections
			pooled.Violations += outcome.Violations
		}

		if check.Misscale == 1 {
			maxRejections := int(fitRejectionTolerance * float64(pooled.FitTests))
			if maxRejections < 1 {
				maxRejections = 1
			}
			maxViolations := int(coverageViolationTolerance * float64(pooled.CoveragePoints))
			pooled.Passed = pooled.Rejections <= maxRejections && pooled.Violations <= maxViolations
		} else {
			pooled.Passed = pooled.Rejections*2 >= pooled.FitTests
		}

		if !pooled.Passed {
			summary.Passed = false
		}
		summary.Dims = append(summary.Dims, pooled)
	}

	return summary
}
