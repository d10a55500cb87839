package util

import (
	"context"
	"crypto/md5" //#nosec
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blang/semver"
	"github.com/google/go-github/github"
	"github.com/spf13/afero"
)

var (
	ErrInvalidPath = errors.New("path cannot be empty string")

	ErrFileDoesNotExist = errors.New("file does not exist")
	ErrFileIsEmpty      = errors.New("file is empty")
	ErrPathIsDir        = errors.New("given path is a directory, not a file")

	ErrDirDoesNotExist = errors.New("directory does not exist")
	ErrDirIsEmpty      = errors.New("directory is empty")
	ErrPathIsNotDir    = errors.New("given path is not a directory")

	ErrFetchingLatestRelease = errors.New("error fetching latest release")
	ErrParsingCurrentVersion = errors.New("error parsing current version")
	ErrParsingLatestVersion  = errors.New("error parsing latest version")
)

// FixedString holds a 16 byte digest used to identify datasets and
// to derive deterministic seeds. It is not a security primitive.
type FixedString struct {
	Data [16]byte
}

// NewFixedStringHash hashes the concatenation of the given strings
func NewFixedStringHash(args ...string) (FixedString, error) {
	if len(args) == 0 {
		return FixedString{}, errors.New("no arguments provided")
	}

	joined := strings.Join(args, "")
	if joined == "" {
		return FixedString{}, errors.New("joined string is empty")
	}

	//#nosec
	hash := md5.Sum([]byte(joined))

	fs := FixedString{
		Data: hash,
	}
	return fs, nil
}

func (bin *FixedString) Hex() string {
	return strings.ToUpper(hex.EncodeToString(bin.Data[:]))
}

// Seed folds the digest into a pair of 64-bit values for seeding a PRNG
func (bin *FixedString) Seed() (uint64, uint64) {
	var hi, lo uint64
	for i := 0; i < 8; i++ {
		hi = hi<<8 | uint64(bin.Data[i])
		lo = lo<<8 | uint64(bin.Data[i+8])
	}
	return hi, lo
}

func ParseRelativePath(dir string) (string, error) {
	// validate parameters
	if dir == "" {
		return "", ErrInvalidPath
	}

	switch {
	// if path is home, parse and set home dir
	case strings.HasPrefix(dir, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, dir[2:]), nil
	// if the path starts with a dot, get the path relative to the current working directory
	case strings.HasPrefix(dir, "."):
		currentDir, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(currentDir, dir), nil
	default:
		// otherwise, return the directory as is
		return dir, nil

	}

}

// ValidateDirectory returns whether a directory exists and is empty
func ValidateDirectory(afs afero.Fs, dir string) error {
	// validate path
	exists, isDir, isEmpty, err := validatePath(afs, dir)
	if err != nil {
		return err
	}

	// check if dirctory exists
	if !exists {
		return fmt.Errorf("%w: %s", ErrDirDoesNotExist, dir)
	}

	// check if path is a directory
	if !isDir {
		return fmt.Errorf("%w: %s", ErrPathIsNotDir, dir)
	}

	// check if file is empty
	if isEmpty {
		return fmt.Errorf("%w: %s", ErrDirIsEmpty, dir)
	}

	return nil
}

// Validate File
func ValidateFile(afs afero.Fs, file string) error {
	// validate path
	exists, isDir, isEmpty, err := validatePath(afs, file)
	if err != nil {
		return err
	}

	// check if file exists
	if !exists {
		return fmt.Errorf("%w: %s", ErrFileDoesNotExist, file)
	}

	// check if path is a directory
	if isDir {
		return fmt.Errorf("%w: %s", ErrPathIsDir, file)
	}

	// check if file is empty
	if isEmpty {
		return fmt.Errorf("%w: %s", ErrFileIsEmpty, file)
	}

	return nil
}

// readFile is swappable for tests
var readFile = afero.ReadFile

// GetFileContents validates a file path and returns the contents of the file
func GetFileContents(afs afero.Fs, path string) ([]byte, error) {
	// validate the file
	if err := ValidateFile(afs, path); err != nil {
		return nil, err
	}

	// read the file
	contents, err := readFile(afs, path)
	if err != nil {
		return nil, err
	}

	return contents, nil
}

func validatePath(afs afero.Fs, path string) (bool, bool, bool, error) {
	var exists, isDir, isEmpty bool

	// validate parameters
	if afs == nil {
		return exists, isDir, isEmpty, fmt.Errorf("filesystem is nil")
	}
	if path == "" {
		return exists, isDir, isEmpty, ErrInvalidPath
	}

	// check if path exists
	exists, err := afero.Exists(afs, path)
	if err != nil {
		return exists, isDir, isEmpty, err
	}

	if exists {
		// check if path is a directory
		isDir, err = afero.IsDir(afs, path)
		if err != nil {
			return exists, isDir, isEmpty, err
		}

		// check if directory is empty
		isEmpty, err = afero.IsEmpty(afs, path)
		if err != nil {
			return exists, isDir, isEmpty, err
		}
	}

	return exists, isDir, isEmpty, nil
}

// CheckForNewerVersion checks if a newer version of the project is available on the GitHub repository
func CheckForNewerVersion(client *github.Client, currentVersion string) (bool, string, error) {

	// Get the latest release
	latestRelease, _, err := client.Repositories.GetLatestRelease(context.Background(), "sigmacheck", "sigmacheck")
	if err != nil {
		return false, "", fmt.Errorf("%w: %w", ErrFetchingLatestRelease, err)
	}

	// Get the latest version from release tag name
	latestVersion := latestRelease.GetTagName()

	// Parse the current and latest versions
	currentSemver, err := semver.ParseTolerant(currentVersion)
	if err != nil {
		return false, "", fmt.Errorf("%w: %w", ErrParsingCurrentVersion, err)
	}

	latestSemver, err := semver.ParseTolerant(latestVersion)
	if err != nil {
		return false, "", fmt.Errorf("%w: %w", ErrParsingLatestVersion, err)
	}

	// Compare the versions
	if latestSemver.GT(currentSemver) {
		return true, latestVersion, nil
	}

	return false, latestVersion, nil
}
