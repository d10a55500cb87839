package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sigmacheck/sigmacheck/analysis"
	zlog "github.com/sigmacheck/sigmacheck/logger"
	"github.com/sigmacheck/sigmacheck/util"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrNoResults = errors.New("no stored results found")

// Store persists analysis results as pretty printed JSON files, one per
// run, named <dataset>-<short run id>.json.
type Store struct {
	afs afero.Fs
	dir string
}

func NewStore(afs afero.Fs, dir string) *Store {
	return &Store{afs: afs, dir: dir}
}

// Dir returns the directory results are stored in.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes one result and returns the path it landed at.
func (s *Store) Save(result *analysis.Result) (string, error) {
	if err := s.afs.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create results directory %s: %w", s.dir, err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("could not encode result for %s: %w", result.Dataset, err)
	}

	path := filepath.Join(s.dir, fileName(result))
	if err := afero.WriteFile(s.afs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("could not write result to %s: %w", path, err)
	}
	return path, nil
}

// Load reads one stored result back.
func (s *Store) Load(path string) (*analysis.Result, error) {
	data, err := util.GetFileContents(s.afs, path)
	if err != nil {
		return nil, err
	}

	var result analysis.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("could not decode result file %s: %w", path, err)
	}
	return &result, nil
}

// List loads every stored result, newest first. Files that cannot be
// decoded are skipped with a warning rather than failing the whole
// listing.
func (s *Store) List() ([]*analysis.Result, error) {
	logger := zlog.GetLogger()

	entries, err := afero.ReadDir(s.afs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("could not read results directory %s: %w", s.dir, err)
	}

	var results []*analysis.Result
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		result, err := s.Load(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable result file")
			continue
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

// Delete removes every stored run for one dataset and returns how many
// files were removed.
func (s *Store) Delete(dataset string) (int, error) {
	return s.DeleteMatching(dataset, false, false)
}

// DeleteMatching removes stored runs whose dataset name equals name, or
// ends with, begins with or contains it, depending on which wildcards
// were present. It returns how many files were removed. Files that
// cannot be decoded are left in place.
func (s *Store) DeleteMatching(name string, wildcardStart bool, wildcardEnd bool) (int, error) {
	exists, err := afero.DirExists(s.afs, s.dir)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	entries, err := afero.ReadDir(s.afs, s.dir)
	if err != nil {
		return 0, fmt.Errorf("could not read results directory %s: %w", s.dir, err)
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		result, err := s.Load(path)
		if err != nil {
			continue
		}

		var match bool
		switch {
		case wildcardStart && wildcardEnd:
			match = strings.Contains(result.Dataset, name)
		case wildcardStart:
			match = strings.HasSuffix(result.Dataset, name)
		case wildcardEnd:
			match = strings.HasPrefix(result.Dataset, name)
		default:
			match = result.Dataset == name
		}
		if !match {
			continue
		}

		if err := s.afs.Remove(path); err != nil {
			return deleted, fmt.Errorf("could not remove result file %s: %w", path, err)
		}
		deleted++
	}
	return deleted, nil
}

// Latest returns the most recent stored result for a dataset.
func (s *Store) Latest(dataset string) (*analysis.Result, error) {
	results, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, result := range results {
		if result.Dataset == dataset {
			return result, nil
		}
	}
	return nil, fmt.Errorf("%w: dataset %s", ErrNoResults, dataset)
}

func fileName(result *analysis.Result) string {
	runID := result.RunID.String()
	return fmt.Sprintf("%s-%s.json", result.Dataset, runID[:8])
}
