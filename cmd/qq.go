package cmd

import (
	"fmt"

	"github.com/sigmacheck/sigmacheck/analysis"
	"github.com/sigmacheck/sigmacheck/replicate"
	"github.com/sigmacheck/sigmacheck/report"
	"github.com/sigmacheck/sigmacheck/util"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

var QQCommand = &cli.Command{
	Name:      "qq",
	Usage:     "export quantile-quantile data for a replicate set",
	UsageText: "sigmacheck qq [--out FILE] PATH",
	Description: "orders the normalized deviations of a replicate set and pairs them with " +
		"standard normal quantiles, one panel block per coordinate, as comma-delimited rows",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "out",
			Aliases:  []string{"o"},
			Usage:    "write the panel data to `FILE` instead of stdout",
			Required: false,
		},
	},
	Action: func(cCtx *cli.Context) error {
		// check if a path to the replicate data was provided
		if !cCtx.Args().Present() {
			return ErrMissingSetPath
		}

		// check if too many arguments were provided
		if cCtx.NArg() > 1 {
			return ErrTooManyArguments
		}

		afs := afero.NewOsFs()

		return RunQQCmd(afs, cCtx.Args().First(), cCtx.String("out"))
	},
}

func RunQQCmd(afs afero.Fs, path string, outPath string) error {
	path, err := util.ParseRelativePath(path)
	if err != nil {
		return err
	}
	if !replicate.CompatibleFile(path) {
		return fmt.Errorf("%w: %s", ErrIncompatibleFileExtension, path)
	}

	set, err := replicate.ReadSetFile(afs, path)
	if err != nil {
		return fmt.Errorf("could not read replicate set %s: %w", path, err)
	}

	panels := report.Panels(analysis.OrderDeviations(set))
	data := report.FormatQQCSV(panels)

	if outPath == "" {
		fmt.Println(data)
		return nil
	}

	if err := afero.WriteFile(afs, outPath, []byte(data+"\n"), 0o644); err != nil {
		return fmt.Errorf("could not write QQ data to %s: %w", outPath, err)
	}
	fmt.Printf("\n\t[✨] Wrote QQ data for %s to %s\n\n", set.Name, outPath)

	return nil
}
