package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sigmacheck/sigmacheck/analysis"
	"github.com/sigmacheck/sigmacheck/report"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

var ListCommand = &cli.Command{
	Name:        "list",
	Usage:       "list stored analysis results",
	UsageText:   "list [--results DIR]",
	Description: "lists stored analysis results, newest first",
	Args:        false,
	Flags: []cli.Flag{
		ResultsFlag(),
	},
	Action: func(cCtx *cli.Context) error {
		// check if too many arguments were provided
		if cCtx.NArg() > 0 {
			return ErrTooManyArguments
		}

		// set up file system interface
		afs := afero.NewOsFs()

		// run the list command
		if err := RunListCmd(afs, cCtx.String("results")); err != nil {
			return err
		}

		return nil
	},
}

func RunListCmd(afs afero.Fs, resultsDir string) error {
	store := report.NewStore(afs, resultsDir)

	exists, err := afero.DirExists(afs, store.Dir())
	if err != nil {
		return err
	}
	if !exists {
		fmt.Println("No stored results.")
		return nil
	}

	results, err := store.List()
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No stored results.")
		return nil
	}

	t := FormatListTable(results)
	fmt.Println(t)
	return nil
}

func FormatListTable(results []*analysis.Result) *table.Table {
	var data [][]string

	for _, r := range results {
		verdict := "consistent"
		if !r.Consistent() {
			verdict = "inconsistent"
		}
		data = append(data, []string{
			r.Dataset,
			r.RunID.String()[:8],
			r.Shape.String(),
			strconv.Itoa(r.Replicates),
			verdict,
			r.CreatedAt.UTC().Format("2006-01-02 15:04"),
		})
	}

	re := lipgloss.NewRenderer(os.Stdout)
	baseStyle := re.NewStyle().Padding(0, 1)
	headerStyle := baseStyle.Foreground(lipgloss.Color("252")).Bold(true)

	headers := []string{"Dataset", "Run", "Shape", "Replicates", "Verdict", "Analyzed (UTC)"}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(re.NewStyle().Foreground(lipgloss.Color("238"))).
		Headers(headers...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == 0 {
				return headerStyle
			}

			even := row%2 == 0

			if even {
				return baseStyle.Foreground(lipgloss.Color("245"))
			}
			return baseStyle.Foreground(lipgloss.Color("252"))
		})
	return t
}
