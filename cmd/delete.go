package cmd

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sigmacheck/sigmacheck/report"

	"github.com/manifoldco/promptui"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

var ErrTrimmedNameEmpty = errors.New("trimmed name cannot contain wildcards or be empty")

var DeleteCommand = &cli.Command{
	Name:        "delete",
	Usage:       "delete stored results for a dataset",
	UsageText:   "delete [--results DIR] [NAME]",
	Description: "if <dataset name> ends in a wildcard, results for all datasets with that prefix will be deleted",
	Args:        false,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:     "non-interactive",
			Aliases:  []string{"ni"},
			Usage:    "does not prompt for confirmation of deletion",
			Value:    false,
			Required: false,
		},
		ResultsFlag(),
	},
	Action: func(cCtx *cli.Context) error {
		// check if too many arguments were provided
		if cCtx.NArg() > 1 {
			return ErrTooManyArguments
		}

		// check if a dataset name was provided
		if !cCtx.Args().Present() {
			return ErrMissingDatasetName
		}

		input := cCtx.Args().First()

		// trim leading and trailing wildcards
		trimmedName, err := TrimWildcards(input)
		if err != nil {
			return err
		}

		// set up file system interface
		afs := afero.NewOsFs()

		// validate the trimmed name
		if err := ValidateDatasetName(trimmedName); err != nil {
			return err
		}

		prompt := true
		if cCtx.Bool("non-interactive") {
			prompt = false
		}

		// run the delete command
		if err := RunDeleteCmd(afs, cCtx.String("results"), input, trimmedName, prompt); err != nil {
			return err
		}

		return nil
	},
}

func RunDeleteCmd(afs afero.Fs, resultsDir string, entry string, trimmedName string, ask bool) error {
	// validate the trimmed name
	if len(trimmedName) == 0 {
		return ErrTrimmedNameEmpty
	}

	store := report.NewStore(afs, resultsDir)

	// set up prompt for confirmation
	prompt := promptui.Prompt{
		Label:     "Delete Results",
		IsConfirm: true,
	}

	wildcardStart := strings.HasPrefix(entry, "*")
	wildcardEnd := strings.HasSuffix(entry, "*")
	if wildcardStart || wildcardEnd {
		fmt.Printf("Deleting results for datasets matching: %s\n", entry)
		switch {
		case wildcardStart && !wildcardEnd:
			fmt.Printf("Deleting results for datasets ending with: %s\n", trimmedName)
		case !wildcardStart && wildcardEnd:
			fmt.Printf("Deleting results for datasets beginning with: %s\n", trimmedName)
		case wildcardStart && wildcardEnd:
			fmt.Printf("Deleting results for datasets containing: %s\n", trimmedName)
		default:
			return errors.New("unable to determine wildcard status for result deletion")
		}

		if ask {
			if _, err := prompt.Run(); err != nil {
				fmt.Println("Cancelling deletion...")
				return err
			}
		}

		numDeleted, err := store.DeleteMatching(trimmedName, wildcardStart, wildcardEnd)
		if err != nil {
			return err
		}
		if numDeleted == 0 {
			fmt.Println("Found no matching results to delete.")
		} else {
			fmt.Println("Successfully deleted", numDeleted, "stored runs")
		}
	} else {
		fmt.Printf("Deleting results for dataset: %s\n", entry)

		if ask {
			if _, err := prompt.Run(); err != nil {
				fmt.Println("Cancelling deletion...")
				return err
			}
		}

		numDeleted, err := store.Delete(entry)
		if err != nil {
			return err
		}
		if numDeleted == 0 {
			fmt.Println("Found no stored results for that dataset.")
		} else {
			fmt.Println("Successfully deleted", numDeleted, "stored runs")
		}
	}

	return nil
}

// TrimWildcards removes leading and trailing wildcards from a dataset name
func TrimWildcards(name string) (string, error) {
	// regex to remove leading and trailing wildcards
	re := regexp.MustCompile(`^\*+|\*+$`)
	trimmedName := re.ReplaceAllString(name, "")

	// check if the trimmed name contains any wildcards or is empty
	if strings.Contains(trimmedName, "*") || len(trimmedName) == 0 {
		return "", ErrTrimmedNameEmpty
	}

	return trimmedName, nil
}
