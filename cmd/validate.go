package cmd

import (
	"fmt"
	"strings"

	"github.com/sigmacheck/sigmacheck/analysis"
	"github.com/sigmacheck/sigmacheck/config"
	"github.com/sigmacheck/sigmacheck/replicate"
	"github.com/sigmacheck/sigmacheck/util"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

var ValidateConfigCommand = &cli.Command{
	Name:      "validate",
	Usage:     "validate a configuration file and, optionally, replicate set files",
	UsageText: "validate [--config FILE] [PATH]...",
	Description: "checks that the configuration file parses and passes validation, then dry-runs " +
		"each given replicate set file through loading and shape checks without analyzing it",
	Args: true,
	Flags: []cli.Flag{
		ConfigFlag(false),
	},
	Action: func(cCtx *cli.Context) error {
		// check if a config was provided and is not empty
		if cCtx.String("config") == "" {
			return ErrMissingConfigPath
		}

		afs := afero.NewOsFs()

		// validate config file
		cfg, err := RunValidateConfigCommand(afs, cCtx.String("config"))
		if err != nil {
			fmt.Printf("\n\t[!] Configuration file is not valid...")
			return err
		}

		// dry-run any replicate set files that were passed
		for _, path := range cCtx.Args().Slice() {
			if err := RunValidateSetCmd(afs, path); err != nil {
				return err
			}
		}

		// check for updates after running the command
		if err := CheckForUpdate(cfg); err != nil {
			return err
		}

		return nil
	},
}

func RunValidateConfigCommand(afs afero.Fs, configPath string) (*config.Config, error) {
	// validate config file path
	if err := ValidateConfigPath(afs, configPath); err != nil {
		return nil, err
	}

	// load config path
	cfg, err := config.ReadFileConfig(afs, configPath)
	if err != nil {
		return nil, err
	}

	fmt.Printf("\n\t[✨] Configuration file is valid \n\n")

	return cfg, nil
}

// RunValidateSetCmd loads a replicate set file and reports its shape,
// size and any coordinates that cannot be normalized, without running
// the analysis.
func RunValidateSetCmd(afs afero.Fs, path string) error {
	path, err := util.ParseRelativePath(path)
	if err != nil {
		return err
	}
	if !replicate.CompatibleFile(path) {
		return fmt.Errorf("%w: %s", ErrIncompatibleFileExtension, path)
	}

	set, err := replicate.ReadSetFile(afs, path)
	if err != nil {
		fmt.Printf("\n\t[!] Replicate set file is not valid...\n")
		return err
	}
	if err := set.Validate(); err != nil {
		fmt.Printf("\n\t[!] Replicate set file is not valid...\n")
		return err
	}

	fmt.Printf("\n\t[✨] %s is valid: %s, %d replicates\n", set.Name, set.Shape.String(), set.Size())

	// a zero reference standard error cannot be normalized, warn ahead
	// of the check instead of surprising the user mid analysis
	deviations := analysis.OrderDeviations(set)
	var degenerate []string
	for _, coord := range set.Shape.PanelCoordinates() {
		if deviations.Degenerate[coord] {
			degenerate = append(degenerate, set.Shape.Label(coord))
		}
	}
	if len(degenerate) > 0 {
		fmt.Printf("\t[!] coordinates with zero reported standard error: %s\n", strings.Join(degenerate, ", "))
	}
	fmt.Println()

	return nil
}

func ValidateConfigPath(afs afero.Fs, configPath string) error {
	if configPath == "" {
		return ErrMissingConfigPath
	}

	// get relative file path
	_, err := util.ParseRelativePath(configPath)
	if err != nil {
		return err
	}

	// validate file path
	if err := util.ValidateFile(afs, configPath); err != nil {
		return err
	}

	return nil
}
