package analysis

import (
	"sort"

	zlog "github.com/sigmacheck/sigmacheck/logger"
	"github.com/sigmacheck/sigmacheck/replicate"
)

// Deviations holds the normalized, per coordinate order statistics of a
// replicate set. Every off diagonal coordinate keys into Sigma, Ordered
// and Degenerate; the coordinate sets used downstream are subsets of
// this one.
type Deviations struct {
	Shape      replicate.Shape
	Sigma      map[replicate.Coordinate]float64
	Ordered    map[replicate.Coordinate][]float64
	Degenerate map[replicate.Coordinate]bool
}

// OrderDeviations divides each replicate's deviation by the reference
// standard error taken from the first replicate and sorts the resulting
// sample ascending, independently per coordinate. A coordinate whose
// reference standard error is exactly zero cannot be normalized; it is
// flagged degenerate and divided by a substitute of one so the ordered
// sample stays finite. The input set is never mutated.
func OrderDeviations(set *replicate.Set) *Deviations {
	logger := zlog.GetLogger()

	deviations := &Deviations{
		Shape:      set.Shape,
		Sigma:      make(map[replicate.Coordinate]float64),
		Ordered:    make(map[replicate.Coordinate][]float64),
		Degenerate: make(map[replicate.Coordinate]bool),
	}

	reference := set.Replicates[0].StdError
	for _, coord := range set.Shape.PanelCoordinates() {
		sigma := reference.At(coord)
		if sigma == 0 {
			deviations.Degenerate[coord] = true
			sigma = 1
			logger.Warn().
				Str("set", set.Name).
				Str("coordinate", set.Shape.Label(coord)).
				Msg("reference standard error is zero, excluding coordinate from coverage")
		}
		deviations.Sigma[coord] = sigma

		sample := make([]float64, set.Size())
		for i, rep := range set.Replicates {
			sample[i] = rep.Error.At(coord) / sigma
		}
		sort.Float64s(sample)
		deviations.Ordered[coord] = sample
	}

	return deviations
}
