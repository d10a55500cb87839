package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sigmacheck/sigmacheck/config"
	zlog "github.com/sigmacheck/sigmacheck/logger"
	"github.com/sigmacheck/sigmacheck/util"

	"github.com/google/go-github/github"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

var ErrMissingDatasetName = errors.New("dataset name is required")
var ErrMissingConfigPath = errors.New("config path parameter is required")
var ErrTooManyArguments = errors.New("too many arguments provided")
var ErrInvalidDatasetName = errors.New("dataset name cannot contain path separators")

func Commands() []*cli.Command {
	return []*cli.Command{
		CheckCommand,
		ViewCommand,
		QQCommand,
		ListCommand,
		DeleteCommand,
		SelfCheckCommand,
		ValidateConfigCommand,
	}
}

func ConfigFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "Load configuration from `FILE`",
		Value:    config.DefaultConfigPath,
		Required: required,
		Action: func(_ *cli.Context, path string) error {
			return ValidateConfigPath(afero.NewOsFs(), path)
		},
	}
}

func ResultsFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "results",
		Aliases: []string{"r"},
		Usage:   "Read and write analysis results in `DIR`",
		Value:   "results",
	}
}

// ValidateDatasetName rejects names that could escape the results
// directory when used in file names.
func ValidateDatasetName(name string) error {
	if name == "" {
		return ErrMissingDatasetName
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %s", ErrInvalidDatasetName, name)
	}
	return nil
}

func CheckForUpdate(cfg *config.Config) error {
	// get the current version
	currentVersion := config.Version

	// check for update if a release version is set
	if cfg.UpdateCheckEnabled && currentVersion != "" && currentVersion != "dev" {
		newer, latestVersion, err := util.CheckForNewerVersion(github.NewClient(nil), currentVersion)
		if err != nil {
			// the update check must never fail the command
			logger := zlog.GetLogger()
			logger.Debug().Err(err).Msg("could not check for a newer version of sigmacheck")
			return nil
		}
		if newer {
			fmt.Printf("\n\t✨ A newer version (%s) of sigmacheck is available! https://github.com/sigmacheck/sigmacheck/releases ✨\n\n", latestVersion)
		}
	}
	return nil
}
