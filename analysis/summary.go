package analysis

import (
	"math"

	"github.com/sigmacheck/sigmacheck/replicate"

	"github.com/montanaflynn/stats"
)

// CoordinateSummary aggregates one coordinate's estimates across all
// replicates. Bias is the mean signed deviation from the truth, RMSError
// its quadratic mean, StdDev the spread of the estimates themselves, and
// AvgStdErr the quadratic mean of the reported standard errors. An
// honest estimator has RMSError and AvgStdErr of comparable size.
type CoordinateSummary struct {
	Coordinate replicate.Coordinate `json:"-"`
	Label      string               `json:"coordinate"`
	Average    float64              `json:"average"`
	Bias       float64              `json:"bias"`
	RMSError   float64              `json:"rms_error"`
	StdDev     float64              `json:"std_dev"`
	AvgStdErr  float64              `json:"avg_std_err"`
}

// Summaries computes per coordinate aggregates over the same non
// degenerate lower triangle coordinates that coverage pools.
func Summaries(set *replicate.Set, deviations *Deviations) ([]CoordinateSummary, error) {
	var summaries []CoordinateSummary
	for _, coord := range set.Shape.CoverageCoordinates() {
		if deviations.Degenerate[coord] {
			continue
		}

		n := set.Size()
		estimated := make([]float64, n)
		devs := make([]float64, n)
		squaredDevs := make([]float64, n)
		squaredStds := make([]float64, n)
		for i, rep := range set.Replicates {
			estimated[i] = rep.Estimated.At(coord)
			devs[i] = rep.Error.At(coord)
			squaredDevs[i] = devs[i] * devs[i]
			stderr := rep.StdError.At(coord)
			squaredStds[i] = stderr * stderr
		}

		average, err := stats.Mean(estimated)
		if err != nil {
			return nil, err
		}
		bias, err := stats.Mean(devs)
		if err != nil {
			return nil, err
		}
		meanSquaredDev, err := stats.Mean(squaredDevs)
		if err != nil {
			return nil, err
		}
		stdDev, err := stats.StandardDeviationPopulation(estimated)
		if err != nil {
			return nil, err
		}
		meanSquaredStd, err := stats.Mean(squaredStds)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, CoordinateSummary{
			Coordinate: coord,
			Label:      set.Shape.Label(coord),
			Average:    average,
			Bias:       bias,
			RMSError:   math.Sqrt(meanSquaredDev),
			StdDev:     stdDev,
			AvgStdErr:  math.Sqrt(meanSquaredStd),
		})
	}
	return summaries, nil
}
