package synthetic

import (
	"fmt"
	"math/rand/v2"

	"github.com/sigmacheck/sigmacheck/replicate"
	"github.com/sigmacheck/sigmacheck/util"
)

// Generator describes a family of synthetic replicate sets with a known
// ground truth of zero. Each coordinate draws a true standard deviation
// uniformly from [0.5, 2), errors are normal with that spread, and the
// reported standard error is the true one divided by Misscale. A
// Misscale of 1 reports honestly; anything else should be caught by the
// analysis.
type Generator struct {
	Dim        int
	States     int
	Replicates int
	Misscale   float64
}

// Generate builds one replicate set, seeded deterministically from the
// set name so repeated runs produce identical data.
func (g Generator) Generate(name string) (*replicate.Set, error) {
	shape := replicate.Shape{Dim: g.Dim, K: g.States}
	if g.Dim == 0 {
		shape.K = 1
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("could not generate synthetic set %s: %w", name, err)
	}
	if g.Replicates < 1 {
		return nil, fmt.Errorf("could not generate synthetic set %s: at least one replicate is required", name)
	}
	if g.Misscale <= 0 {
		return nil, fmt.Errorf("could not generate synthetic set %s: misscale must be positive", name)
	}

	digest, err := util.NewFixedStringHash(name)
	if err != nil {
		return nil, fmt.Errorf("could not seed synthetic set %s: %w", name, err)
	}
	rng := rand.New(rand.NewPCG(digest.Seed()))

	sigma := g.trueSigma(shape, rng)

	replicates := make([]replicate.Replicate, g.Replicates)
	for r := range replicates {
		rep, err := g.drawReplicate(shape, sigma, rng)
		if err != nil {
			return nil, fmt.Errorf("could not generate synthetic set %s: %w", name, err)
		}
		replicates[r] = rep
	}

	set, err := replicate.NewSet(name, replicates)
	if err != nil {
		return nil, fmt.Errorf("could not generate synthetic set %s: %w", name, err)
	}
	return set, nil
}

// trueSigma draws the per coordinate ground truth spread. Matrix shapes
// get a symmetric sigma with a zero diagonal, matching a matrix of
// pairwise differences where the self difference is exact.
func (g Generator) trueSigma(shape replicate.Shape, rng *rand.Rand) []float64 {
	sigma := make([]float64, shape.Size())
	if shape.Dim != 2 {
		for i := range sigma {
			sigma[i] = 0.5 + 1.5*rng.Float64()
		}
		return sigma
	}

	k := shape.K
	for row := 1; row < k; row++ {
		for col := 0; col < row; col++ {
			s := 0.5 + 1.5*rng.Float64()
			sigma[row*k+col] = s
			sigma[col*k+row] = s
		}
	}
	return sigma
}

// drawReplicate samples one replicate. Matrix errors are antisymmetric
// across the diagonal, as differences are.
func (g Generator) drawReplicate(shape replicate.Shape, sigma []float64, rng *rand.Rand) (replicate.Replicate, error) {
	size := shape.Size()
	estimated := make([]float64, size)
	errs := make([]float64, size)
	stds := make([]float64, size)

	if shape.Dim != 2 {
		for i := range errs {
			errs[i] = sigma[i] * rng.NormFloat64()
			estimated[i] = errs[i]
			stds[i] = sigma[i] / g.Misscale
		}
	} else {
		k := shape.K
		for row := 1; row < k; row++ {
			for col := 0; col < row; col++ {
				e := sigma[row*k+col] * rng.NormFloat64()
				errs[row*k+col] = e
				errs[col*k+row] = -e
				estimated[row*k+col] = e
				estimated[col*k+row] = -e
				reported := sigma[row*k+col] / g.Misscale
				stds[row*k+col] = reported
				stds[col*k+row] = reported
			}
		}
	}

	est, err := replicate.NewQuantity(shape, estimated)
	if err != nil {
		return replicate.Replicate{}, err
	}
	errQty, err := replicate.NewQuantity(shape, errs)
	if err != nil {
		return replicate.Replicate{}, err
	}
	stdQty, err := replicate.NewQuantity(shape, stds)
	if err != nil {
		return replicate.Replicate{}, err
	}

	return replicate.Replicate{Estimated: est, Error: errQty, StdError: stdQty}, nil
}
