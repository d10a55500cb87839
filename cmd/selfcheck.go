package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sigmacheck/sigmacheck/config"
	"github.com/sigmacheck/sigmacheck/selfcheck"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

var ErrSelfCheckFailed = errors.New("self check failed: the analysis pipeline is not detecting what it should")

var SelfCheckCommand = &cli.Command{
	Name:      "selfcheck",
	Usage:     "run the synthetic pipeline check",
	UsageText: "selfcheck [--no-progress]",
	Description: "generates replicate sets with known statistics and verifies that the analysis " +
		"accepts honest uncertainty estimates and flags misscaled ones",
	Args: false,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:     "no-progress",
			Usage:    "disable progress bars",
			Value:    false,
			Required: false,
		},
		ConfigFlag(false),
	},
	Action: func(cCtx *cli.Context) error {
		// check if too many arguments were provided
		if cCtx.NArg() > 0 {
			return ErrTooManyArguments
		}

		afs := afero.NewOsFs()

		// load config file
		cfg, err := config.LoadConfig(afs, cCtx.String("config"))
		if err != nil {
			return err
		}

		// run the self check
		if _, err := RunSelfCheckCmd(cfg, !cCtx.Bool("no-progress")); err != nil {
			return err
		}

		// check for updates after running the command
		if err := CheckForUpdate(cfg); err != nil {
			return err
		}

		return nil
	},
}

func RunSelfCheckCmd(cfg *config.Config, showProgress bool) (*selfcheck.Summary, error) {
	runner := selfcheck.Runner{Cfg: cfg, Progress: showProgress}

	summary, err := runner.Run(context.Background())
	if err != nil {
		return nil, err
	}

	printSelfCheckSummary(summary)

	if !summary.Passed {
		return summary, ErrSelfCheckFailed
	}
	return summary, nil
}

func printSelfCheckSummary(summary *selfcheck.Summary) {
	fmt.Printf("\n\tSelf check finished in %s\n\n", summary.Elapsed.Round(time.Millisecond))

	for _, dim := range summary.Dims {
		status := "[✨] passed"
		if !dim.Passed {
			status = "[!] FAILED"
		}
		fmt.Printf("\t%s %-6s  %d trials, %d/%d fit rejections, %d/%d coverage points outside\n",
			status, dim.Name, dim.Trials, dim.Rejections, dim.FitTests, dim.Violations, dim.CoveragePoints)
	}

	if summary.Misscale != 1 {
		fmt.Printf("\n\tReported standard errors were scaled by %g and should have been rejected\n", summary.Misscale)
	}
	fmt.Println()
}
