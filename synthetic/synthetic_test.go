package synthetic

import (
	"testing"

	"github.com/sigmacheck/sigmacheck/replicate"

	"github.com/stretchr/testify/require"
)

func TestGenerateDeterminism(t *testing.T) {
	gen := Generator{Dim: 1, States: 3, Replicates: 10, Misscale: 1}

	first, err := gen.Generate("trial-0")
	require.NoError(t, err, "generating should not produce an error")
	second, err := gen.Generate("trial-0")
	require.NoError(t, err, "generating should not produce an error")
	require.Equal(t, first.Replicates, second.Replicates, "the same name should reproduce identical data")

	other, err := gen.Generate("trial-1")
	require.NoError(t, err, "generating should not produce an error")
	require.NotEqual(t, first.Replicates, other.Replicates, "different names should produce different data")
}

func TestGenerateShapes(t *testing.T) {
	tests := []struct {
		name          string
		dim           int
		states        int
		expectedShape replicate.Shape
	}{
		{name: "scalar ignores states", dim: 0, states: 5, expectedShape: replicate.Shape{Dim: 0, K: 1}},
		{name: "vector", dim: 1, states: 4, expectedShape: replicate.Shape{Dim: 1, K: 4}},
		{name: "matrix", dim: 2, states: 3, expectedShape: replicate.Shape{Dim: 2, K: 3}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			set, err := Generator{Dim: test.dim, States: test.states, Replicates: 3, Misscale: 1}.Generate(test.name)
			require.NoError(t, err, "generating should not produce an error")
			require.Equal(t, test.expectedShape, set.Shape, "set shape should match the generator")
			require.Equal(t, 3, set.Size(), "set should have the requested number of replicates")
		})
	}
}

func TestGenerateHonestSigmas(t *testing.T) {
	set, err := Generator{Dim: 1, States: 4, Replicates: 5, Misscale: 1}.Generate("sigma-range")
	require.NoError(t, err, "generating should not produce an error")

	for _, coord := range set.Shape.Coordinates() {
		reference := set.Replicates[0].StdError.At(coord)
		require.GreaterOrEqual(t, reference, 0.5, "true sigma should be at least 0.5")
		require.Less(t, reference, 2.0, "true sigma should be below 2")

		for _, rep := range set.Replicates {
			require.Equal(t, reference, rep.StdError.At(coord), "the true sigma should be constant across replicates")
			require.Equal(t, rep.Error.At(coord), rep.Estimated.At(coord), "estimates should equal deviations when the truth is zero")
		}
	}
}

func TestGenerateMisscale(t *testing.T) {
	honest, err := Generator{Dim: 1, States: 2, Replicates: 4, Misscale: 1}.Generate("misscale-check")
	require.NoError(t, err, "generating honest data should not produce an error")
	halved, err := Generator{Dim: 1, States: 2, Replicates: 4, Misscale: 2}.Generate("misscale-check")
	require.NoError(t, err, "generating misscaled data should not produce an error")

	for i := range honest.Replicates {
		require.Equal(t, honest.Replicates[i].Error, halved.Replicates[i].Error, "misscale should not change the deviations themselves")
		for _, coord := range honest.Shape.Coordinates() {
			require.InDelta(t, honest.Replicates[i].StdError.At(coord)/2, halved.Replicates[i].StdError.At(coord), 1e-12, "misscale should shrink the reported sigma")
		}
	}
}

func TestGenerateMatrixStructure(t *testing.T) {
	set, err := Generator{Dim: 2, States: 3, Replicates: 2, Misscale: 1}.Generate("matrix-structure")
	require.NoError(t, err, "generating should not produce an error")

	for _, rep := range set.Replicates {
		for i := 0; i < 3; i++ {
			diagonal := replicate.Coordinate{Row: i, Col: i}
			require.Zero(t, rep.Error.At(diagonal), "self differences should be exactly zero")
			require.Zero(t, rep.StdError.At(diagonal), "self differences should carry no spread")
		}

		for _, coord := range set.Shape.PanelCoordinates() {
			mirrored := replicate.Coordinate{Row: coord.Col, Col: coord.Row}
			require.InDelta(t, -rep.Error.At(mirrored), rep.Error.At(coord), 1e-12, "deviations should be antisymmetric")
			require.Equal(t, rep.StdError.At(mirrored), rep.StdError.At(coord), "sigmas should be symmetric")
			require.GreaterOrEqual(t, rep.StdError.At(coord), 0.5, "off diagonal sigma should be at least 0.5")
		}
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		setName string
		gen     Generator
	}{
		{name: "zero replicates", setName: "x", gen: Generator{Dim: 0, States: 1, Replicates: 0, Misscale: 1}},
		{name: "unsupported dim", setName: "x", gen: Generator{Dim: 3, States: 2, Replicates: 2, Misscale: 1}},
		{name: "zero states", setName: "x", gen: Generator{Dim: 1, States: 0, Replicates: 2, Misscale: 1}},
		{name: "zero misscale", setName: "x", gen: Generator{Dim: 0, States: 1, Replicates: 2, Misscale: 0}},
		{name: "empty name", setName: "", gen: Generator{Dim: 0, States: 1, Replicates: 2, Misscale: 1}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := test.gen.Generate(test.setName)
			require.Error(t, err, "invalid generator parameters should be rejected")
		})
	}
}
