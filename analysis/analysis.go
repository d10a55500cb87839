package analysis

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sigmacheck/sigmacheck/config"
	zlog "github.com/sigmacheck/sigmacheck/logger"
	"github.com/sigmacheck/sigmacheck/replicate"
)

// Analyzer runs the full validation pipeline over one replicate set.
type Analyzer struct {
	Set           *replicate.Set
	Alphas        []float64
	Threshold     float64
	CredibleLevel float64
	Workers       int
}

// Result is the complete outcome of one analysis run. It is self
// contained and safe to persist; nothing in it references the replicate
// data it was computed from beyond the dataset name and fingerprint.
type Result struct {
	RunID         uuid.UUID           `json:"run_id"`
	Dataset       string              `json:"dataset"`
	Fingerprint   string              `json:"fingerprint,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	Shape         replicate.Shape     `json:"shape"`
	Replicates    int                 `json:"replicates"`
	Threshold     float64             `json:"threshold"`
	CredibleLevel float64             `json:"credible_level"`
	GoodnessOfFit []FitResult         `json:"goodness_of_fit"`
	Coverage      []AlphaCoverage     `json:"coverage"`
	Summaries     []CoordinateSummary `json:"summaries"`
	Degenerate    []string            `json:"degenerate,omitempty"`
	Elapsed       time.Duration       `json:"elapsed"`
}

// NewAnalyzer binds a replicate set to the tunables it will be analyzed
// with.
func NewAnalyzer(set *replicate.Set, cfg *config.Config) *Analyzer {
	return &Analyzer{
		Set:           set,
		Alphas:        Alphas(cfg.AlphaSweep.Min, cfg.AlphaSweep.Max, cfg.AlphaSweep.Count),
		Threshold:     cfg.GoodnessOfFit.Threshold,
		CredibleLevel: cfg.Coverage.CredibleLevel,
		Workers:       cfg.WorkerCount(),
	}
}

// Analyze validates the set, orders its deviations, then runs the
// goodness of fit test, the coverage sweep and the per coordinate
// summaries.
func (analyzer *Analyzer) Analyze() (*Result, error) {
	logger := zlog.GetLogger()

	start := time.Now()
	logger.Debug().Str("set", analyzer.Set.Name).Msg("Starting Analysis")

	if err := analyzer.Set.Validate(); err != nil {
		return nil, fmt.Errorf("could not analyze replicate set %s: %w", analyzer.Set.Name, err)
	}

	deviations := OrderDeviations(analyzer.Set)

	fit := AndersonDarling(deviations, analyzer.Threshold)

	coverage, err := Coverage(analyzer.Set, deviations, analyzer.Alphas, analyzer.CredibleLevel, analyzer.Workers)
	if err != nil {
		return nil, fmt.Errorf("could not sweep coverage for replicate set %s: %w", analyzer.Set.Name, err)
	}

	summaries, err := Summaries(analyzer.Set, deviations)
	if err != nil {
		return nil, fmt.Errorf("could not summarize replicate set %s: %w", analyzer.Set.Name, err)
	}

	var degenerate []string
	for _, coord := range analyzer.Set.Shape.PanelCoordinates() {
		if deviations.Degenerate[coord] {
			degenerate = append(degenerate, analyzer.Set.Shape.Label(coord))
		}
	}

	end := time.Now()
	diff := time.Since(start)

	result := &Result{
		RunID:         uuid.New(),
		Dataset:       analyzer.Set.Name,
		Fingerprint:   analyzer.Set.Fingerprint,
		CreatedAt:     start.UTC(),
		Shape:         analyzer.Set.Shape,
		Replicates:    analyzer.Set.Size(),
		Threshold:     analyzer.Threshold,
		CredibleLevel: analyzer.CredibleLevel,
		GoodnessOfFit: fit,
		Coverage:      coverage,
		Summaries:     summaries,
		Degenerate:    degenerate,
		Elapsed:       diff,
	}

	logger.Debug().
		Str("set", analyzer.Set.Name).
		Str("elapsed_time", diff.String()).
		Time("analysis_began", start).
		Time("analysis_finished", end).
		Msg("finished analyzing replicate set")

	return result, nil
}

// FitRejections counts the coordinates whose deviations failed the
// goodness of fit test.
func (r *Result) FitRejections() int {
	count := 0
	for _, fit := range r.GoodnessOfFit {
		if fit.Rejected {
			count++
		}
	}
	return count
}

// CoverageViolations counts the sweep points where the normal
// expectation fell outside the credible interval.
func (r *Result) CoverageViolations() int {
	count := 0
	for _, point := range r.Coverage {
		if !point.Consistent {
			count++
		}
	}
	return count
}

// Consistent reports whether the run passed cleanly, with no fit
// rejections and no coverage violations.
func (r *Result) Consistent() bool {
	return r.FitRejections() == 0 && r.CoverageViolations() == 0
}
