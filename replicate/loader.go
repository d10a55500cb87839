package replicate

import (
	"bufio"
	"compress/gzip"
	"crypto/md5" //#nosec
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sigmacheck/sigmacheck/logger"
	"github.com/sigmacheck/sigmacheck/util"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrTooManyBadLines = errors.New("failed to parse dataset file: too many undecodable lines")

// lineErrorLimit caps how many undecodable lines a file may contain
// before parsing is abandoned
const lineErrorLimit = 25

// compatibleExtensions lists the dataset file endings the loader accepts,
// ordered so that compressed variants are matched before their plain twins
var compatibleExtensions = []string{".jsonl.gz", ".jsonl", ".json.log.gz", ".json.log"}

// CompatibleFile reports whether the path carries a dataset extension
func CompatibleFile(path string) bool {
	for _, ext := range compatibleExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// SetName derives the dataset name from a file path by stripping the
// directory and the dataset extension
func SetName(path string) string {
	base := filepath.Base(path)
	for _, ext := range compatibleExtensions {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return base
}

// ReadSetFile parses a JSONL dataset file into a replicate set, one JSON
// object per line, optionally gzip compressed. The raw file bytes are
// hashed during the scan and recorded as the set fingerprint.
func ReadSetFile(afs afero.Fs, path string) (*Set, error) {
	zlog := logger.GetLogger()

	// validate the file before attempting to parse it
	if err := util.ValidateFile(afs, path); err != nil {
		return nil, err
	}

	file, err := afs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open dataset file %s: %w", path, err)
	}
	defer file.Close()

	// hash the raw bytes as they stream past, before any decompression
	//#nosec
	hasher := md5.New()
	var reader io.Reader = io.TeeReader(file, hasher)

	// set up a new scanner to read from the file
	var scanner *bufio.Scanner
	if strings.HasSuffix(path, ".gz") {
		// create gzip reader if the file extension insinuates that the file is compressed
		gzipReader, err := gzip.NewReader(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to parse dataset file: could not open compressed file %s: %w", path, err)
		}
		scanner = bufio.NewScanner(gzipReader)
		defer gzipReader.Close()
	} else {
		scanner = bufio.NewScanner(reader)
	}

	// set a buffer for the scanner
	initialBufferSize := 64 * 1024 // 64KiB
	maxBufferSize := 1024 * 1024   // 1MiB
	scanner.Buffer(make([]byte, 0, initialBufferSize), maxBufferSize)

	// create line error counter which will allow us to stop scanning in lines from
	// a file that had more than a certain amount of errors
	lineErrorCounter := 0
	lineNumber := 0

	var replicates []Replicate

	// iterate over lines in file
	for scanner.Scan() {
		lineNumber++

		// skip empty lines
		if len(scanner.Bytes()) < 1 {
			continue
		}

		// unmarshal line
		var rep Replicate
		if err := json.Unmarshal(scanner.Bytes(), &rep); err != nil {
			zlog.Err(err).Str("path", path).Int("line", lineNumber).Msg("failed to unmarshal replicate from JSON")
			lineErrorCounter++
			if lineErrorCounter > lineErrorLimit {
				return nil, fmt.Errorf("%w: %s had %d bad lines", ErrTooManyBadLines, path, lineErrorCounter)
			}
			continue
		}

		replicates = append(replicates, rep)
	}

	// handle error from scanner
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse dataset file: could not scan %s: %w", path, err)
	}

	// drain any bytes the scanner left unread so the fingerprint covers the whole file
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return nil, fmt.Errorf("could not hash dataset file %s: %w", path, err)
	}

	set, err := NewSet(SetName(path), replicates)
	if err != nil {
		return nil, fmt.Errorf("could not build replicate set from %s: %w", path, err)
	}

	var digest util.FixedString
	copy(digest.Data[:], hasher.Sum(nil))
	set.Fingerprint = digest.Hex()

	zlog.Debug().Str("path", path).Str("set", set.Name).Int("replicates", set.Size()).
		Str("shape", set.Shape.String()).Str("fingerprint", set.Fingerprint).Msg("loaded dataset")

	return set, nil
}
