package replicate

import (
	"bytes"
	"compress/gzip"
	"crypto/md5" // #nosec G501
	"encoding/hex"
	"strings"
	"testing"

	"github.com/sigmacheck/sigmacheck/util"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestCompatibleFile(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{path: "free_energies.jsonl", expected: true},
		{path: "free_energies.jsonl.gz", expected: true},
		{path: "estimator.json.log", expected: true},
		{path: "estimator.json.log.gz", expected: true},
		{path: "notes.txt", expected: false},
		{path: "results.json", expected: false},
		{path: "archive.gz", expected: false},
	}

	for _, test := range tests {
		t.Run(test.path, func(t *testing.T) {
			require.Equal(t, test.expected, CompatibleFile(test.path), "compatibility should match expected value")
		})
	}
}

func TestSetName(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{path: "/data/free_energies.jsonl", expected: "free_energies"},
		{path: "/data/free_energies.jsonl.gz", expected: "free_energies"},
		{path: "estimator.json.log", expected: "estimator"},
		{path: "deep/nested/run42.jsonl", expected: "run42"},
		{path: "odd_name", expected: "odd_name"},
	}

	for _, test := range tests {
		t.Run(test.path, func(t *testing.T) {
			require.Equal(t, test.expected, SetName(test.path), "set name should match expected value")
		})
	}
}

const scalarDataset = `{"estimated": 1.0, "error": 0.1, "destimated": 0.5}
{"estimated": 1.2, "error": -0.2, "destimated": 0.5}

{"estimated": 0.9, "error": 0.05, "destimated": 0.5}
`

func TestReadSetFile(t *testing.T) {
	afs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(afs, "/data/demo.jsonl", []byte(scalarDataset), 0o644))

	set, err := ReadSetFile(afs, "/data/demo.jsonl")
	require.NoError(t, err, "reading a valid dataset should not produce an error")

	require.Equal(t, "demo", set.Name, "set name should come from the file base name")
	require.Equal(t, Shape{Dim: 0, K: 1}, set.Shape, "shape should be inferred from the first replicate")
	require.Equal(t, 3, set.Size(), "blank lines should be skipped")
	require.InDelta(t, -0.2, set.Replicates[1].Error.At(Coordinate{Row: 0}), 1e-15)
	require.InDelta(t, 0.5, set.Replicates[2].StdError.At(Coordinate{Row: 0}), 1e-15)

	// the fingerprint covers the raw file bytes
	sum := md5.Sum([]byte(scalarDataset)) // #nosec G401
	expected := strings.ToUpper(hex.EncodeToString(sum[:]))
	require.Equal(t, expected, set.Fingerprint, "fingerprint should be the md5 of the raw file")
}

func TestReadSetFileGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(scalarDataset))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	afs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(afs, "/data/demo.jsonl.gz", buf.Bytes(), 0o644))

	set, err := ReadSetFile(afs, "/data/demo.jsonl.gz")
	require.NoError(t, err, "reading a compressed dataset should not produce an error")
	require.Equal(t, "demo", set.Name)
	require.Equal(t, 3, set.Size())

	// the fingerprint covers the compressed bytes as stored on disk
	sum := md5.Sum(buf.Bytes()) // #nosec G401
	expected := strings.ToUpper(hex.EncodeToString(sum[:]))
	require.Equal(t, expected, set.Fingerprint)
}

func TestReadSetFileVector(t *testing.T) {
	dataset := `{"estimated": [1.0, 2.0], "error": [0.1, -0.1], "destimated": [0.5, 0.4]}
{"estimated": [1.1, 1.9], "error": [-0.2, 0.2], "destimated": [0.5, 0.4]}
`
	afs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(afs, "/data/pair.jsonl", []byte(dataset), 0o644))

	set, err := ReadSetFile(afs, "/data/pair.jsonl")
	require.NoError(t, err)
	require.Equal(t, Shape{Dim: 1, K: 2}, set.Shape)
	require.InDelta(t, 0.2, set.Replicates[1].Error.At(Coordinate{Row: 1}), 1e-15)
}

func TestReadSetFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		afs := afero.NewMemMapFs()
		_, err := ReadSetFile(afs, "/data/nope.jsonl")
		require.ErrorIs(t, err, util.ErrFileDoesNotExist)
	})

	t.Run("empty file", func(t *testing.T) {
		afs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(afs, "/data/empty.jsonl", []byte{}, 0o644))
		_, err := ReadSetFile(afs, "/data/empty.jsonl")
		require.ErrorIs(t, err, util.ErrFileIsEmpty)
	})

	t.Run("too many bad lines", func(t *testing.T) {
		var sb strings.Builder
		sb.WriteString(`{"estimated": 1.0, "error": 0.1, "destimated": 0.5}` + "\n")
		for i := 0; i < 30; i++ {
			sb.WriteString("not json at all\n")
		}

		afs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(afs, "/data/corrupt.jsonl", []byte(sb.String()), 0o644))
		_, err := ReadSetFile(afs, "/data/corrupt.jsonl")
		require.ErrorIs(t, err, ErrTooManyBadLines)
	})

	t.Run("a few bad lines are tolerated", func(t *testing.T) {
		var sb strings.Builder
		sb.WriteString(`{"estimated": 1.0, "error": 0.1, "destimated": 0.5}` + "\n")
		sb.WriteString("garbage\n")
		sb.WriteString(`{"estimated": 1.2, "error": -0.1, "destimated": 0.5}` + "\n")

		afs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(afs, "/data/mostly.jsonl", []byte(sb.String()), 0o644))
		set, err := ReadSetFile(afs, "/data/mostly.jsonl")
		require.NoError(t, err, "an isolated bad line should be skipped")
		require.Equal(t, 2, set.Size())
	})

	t.Run("mismatched shapes", func(t *testing.T) {
		dataset := `{"estimated": 1.0, "error": 0.1, "destimated": 0.5}
{"estimated": [1.0, 2.0], "error": [0.1, 0.2], "destimated": [0.5, 0.5]}
`
		afs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(afs, "/data/mixed.jsonl", []byte(dataset), 0o644))
		_, err := ReadSetFile(afs, "/data/mixed.jsonl")

		var shapeErr *ShapeError
		require.ErrorAs(t, err, &shapeErr, "shape drift across lines should surface as a shape error")
		require.Equal(t, 1, shapeErr.Replicate)
	})

	t.Run("not gzip despite extension", func(t *testing.T) {
		afs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(afs, "/data/fake.jsonl.gz", []byte("plain text"), 0o644))
		_, err := ReadSetFile(afs, "/data/fake.jsonl.gz")
		require.Error(t, err, "a non gzip file with a gz extension should fail to open")
	})
}
