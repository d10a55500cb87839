package analysis

import (
	"errors"
	"math"

	"github.com/sigmacheck/sigmacheck/replicate"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"
)

var ErrNoCoverageCoordinates = errors.New("replicate set has no usable coverage coordinates")

// AlphaCoverage is the pooled coverage outcome at one sweep point.
// Observed is the posterior mean of the success proportion under a
// uniform prior, Low and High bound it at the configured credible level,
// and Consistent records whether the normal expectation falls inside
// that interval.
type AlphaCoverage struct {
	Alpha       float64 `json:"alpha"`
	Chebyshev   float64 `json:"chebyshev"`
	Observed    float64 `json:"observed"`
	ObservedErr float64 `json:"observed_err"`
	Low         float64 `json:"low"`
	High        float64 `json:"high"`
	Normal      float64 `json:"normal"`
	Consistent  bool    `json:"consistent"`
}

// Alphas builds the evenly spaced sweep grid from min to max, endpoints
// included.
func Alphas(min, max float64, count int) []float64 {
	if count < 2 {
		return []float64{min}
	}
	alphas := make([]float64, count)
	step := (max - min) / float64(count-1)
	for i := range alphas {
		alphas[i] = min + float64(i)*step
	}
	alphas[count-1] = max
	return alphas
}

// ChebyshevBound returns the distribution free coverage floor 1 - 1/a²,
// clamped to zero where the raw bound is vacuous.
func ChebyshevBound(alpha float64) float64 {
	bound := 1 - 1/(alpha*alpha)
	if bound < 0 {
		return 0
	}
	return bound
}

// Coverage sweeps the alpha grid. At each point it pools every replicate
// and every non degenerate lower triangle coordinate into one tally of
// |error| <= alpha * stderr successes, then summarizes the tally with a
// Beta(1+successes, 1+failures) posterior. Each replicate supplies its
// own standard error to the comparison. Grid points are independent, so
// they fan out across the worker pool with each goroutine writing a
// disjoint index of the result slice.
func Coverage(set *replicate.Set, deviations *Deviations, alphas []float64, credibleLevel float64, workers int) ([]AlphaCoverage, error) {
	coords := make([]replicate.Coordinate, 0, len(set.Shape.CoverageCoordinates()))
	for _, coord := range set.Shape.CoverageCoordinates() {
		if !deviations.Degenerate[coord] {
			coords = append(coords, coord)
		}
	}
	if len(coords) == 0 {
		return nil, ErrNoCoverageCoordinates
	}

	lowTail := (1 - credibleLevel) / 2
	highTail := 1 - lowTail

	if workers < 1 {
		workers = 1
	}

	results := make([]AlphaCoverage, len(alphas))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, alpha := range alphas {
		g.Go(func() error {
			a := 1.0
			b := 1.0
			for _, rep := range set.Replicates {
				for _, coord := range coords {
					if math.Abs(rep.Error.At(coord)) <= alpha*rep.StdError.At(coord) {
						a++
					} else {
						b++
					}
				}
			}

			posterior := distuv.Beta{Alpha: a, Beta: b}
			point := AlphaCoverage{
				Alpha:       alpha,
				Chebyshev:   ChebyshevBound(alpha),
				Observed:    a / (a + b),
				ObservedErr: math.Sqrt(a * b / ((a + b) * (a + b) * (a + b + 1))),
				Low:         posterior.Quantile(lowTail),
				High:        posterior.Quantile(highTail),
				Normal:      math.Erf(alpha / math.Sqrt2),
			}
			point.Consistent = point.Low <= point.Normal && point.Normal <= point.High
			results[i] = point
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
