package cmd

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sigmacheck/sigmacheck/analysis"
	"github.com/sigmacheck/sigmacheck/config"
	"github.com/sigmacheck/sigmacheck/report"
	"github.com/sigmacheck/sigmacheck/viewer"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

var ErrMissingDatasetStdout = errors.New("a dataset name is required with --stdout")
var ErrMissingSectionStdout = errors.New("cannot apply section without --stdout")
var ErrInvalidSection = errors.New("section must be one of coverage, fit, summary")

// csvSections are the result sections that can be piped as comma
// delimited data.
var csvSections = []string{"coverage", "fit", "summary"}

var ViewCommand = &cli.Command{
	Name:      "view",
	Usage:     "browse stored results, or print one report with --stdout",
	UsageText: "view [--results DIR] [--stdout [--section SECTION]] [dataset name]",
	Flags: []cli.Flag{
		ResultsFlag(),
		&cli.BoolFlag{
			Name:     "stdout",
			Aliases:  []string{"o"},
			Usage:    "print the latest report for the given dataset to stdout instead of opening the terminal UI",
			Required: false,
		},
		&cli.StringFlag{
			Name:     "section",
			Aliases:  []string{"s"},
			Usage:    "pipe a single report section as comma-delimited data, only works with --stdout/-o flag, one of: coverage, fit, summary",
			Required: false,
		},
		ConfigFlag(false),
	},
	Action: func(cCtx *cli.Context) error {
		afs := afero.NewOsFs()

		// check if too many arguments were provided
		if cCtx.NArg() > 1 {
			return ErrTooManyArguments
		}

		// the dataset argument is only meaningful when piping to stdout
		if cCtx.Bool("stdout") && !cCtx.Args().Present() {
			return ErrMissingDatasetStdout
		}
		if !cCtx.Bool("stdout") && cCtx.Args().Present() {
			return ErrTooManyArguments
		}

		// validate section flag
		if cCtx.IsSet("section") {
			if !cCtx.Bool("stdout") {
				return ErrMissingSectionStdout
			}
			if !slices.Contains(csvSections, cCtx.String("section")) {
				return ErrInvalidSection
			}
		}

		if cCtx.Args().Present() {
			if err := ValidateDatasetName(cCtx.Args().First()); err != nil {
				return err
			}
		}

		if err := RunViewCmd(afs, cCtx.String("results"), cCtx.Args().First(), cCtx.Bool("stdout"), cCtx.String("section")); err != nil {
			return err
		}

		// load config file and check for updates after running the command
		cfg, err := config.LoadConfig(afs, cCtx.String("config"))
		if err != nil {
			return err
		}
		if err := CheckForUpdate(cfg); err != nil {
			return err
		}

		return nil
	},
}

func RunViewCmd(afs afero.Fs, resultsDir string, dataset string, stdout bool, section string) error {
	store := report.NewStore(afs, resultsDir)

	// if stdout was requested, print the latest report for the dataset
	if stdout {
		result, err := store.Latest(dataset)
		if err != nil {
			return err
		}

		switch section {
		case "coverage":
			fmt.Print(report.FormatCoverageCSV(result))
		case "fit":
			fmt.Print(report.FormatFitCSV(result))
		case "summary":
			fmt.Print(report.FormatSummaryCSV(result))
		default:
			fmt.Println(report.Render(result))
		}
		return nil
	}

	// otherwise browse everything in the terminal UI
	var results []*analysis.Result
	exists, err := afero.DirExists(afs, store.Dir())
	if err != nil {
		return err
	}
	if exists {
		results, err = store.List()
		if err != nil {
			return err
		}
	}

	return viewer.CreateUI(store.Dir(), results)
}
