package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sigmacheck/sigmacheck/analysis"
	"github.com/sigmacheck/sigmacheck/config"
	zlog "github.com/sigmacheck/sigmacheck/logger"
	"github.com/sigmacheck/sigmacheck/replicate"
	"github.com/sigmacheck/sigmacheck/report"
	"github.com/sigmacheck/sigmacheck/util"

	"github.com/manifoldco/promptui"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrMissingSetPath = errors.New("path to a replicate set file or directory is required")
var ErrNoSetFilesFound = errors.New("no valid replicate set files found")
var ErrIncompatibleFileExtension = errors.New("incompatible file extension")
var ErrSkippedDuplicateSet = errors.New("encountered file with a previously seen dataset name, skipping file")

type WalkError struct {
	Path  string
	Error error
}

var CheckCommand = &cli.Command{
	Name:      "check",
	Usage:     "analyze replicate set files and store the results",
	UsageText: "sigmacheck check [--results DIR] [--non-interactive] PATH",
	Description: "reads every replicate set file under PATH, tests the reported uncertainties " +
		"for normality and coverage, and stores one result file per set",
	Flags: []cli.Flag{
		ResultsFlag(),
		&cli.BoolFlag{
			Name:     "non-interactive",
			Aliases:  []string{"ni"},
			Usage:    "does not prompt for confirmation before storing new runs for previously checked datasets",
			Value:    false,
			Required: false,
		},
		ConfigFlag(false),
	},
	Action: func(cCtx *cli.Context) error {
		afs := afero.NewOsFs()

		// check if a path to the replicate data was provided
		if !cCtx.Args().Present() {
			return ErrMissingSetPath
		}

		// check if too many arguments were provided
		if cCtx.NArg() > 1 {
			return ErrTooManyArguments
		}

		// load config file
		cfg, err := config.LoadConfig(afs, cCtx.String("config"))
		if err != nil {
			return err
		}

		// set the check start time
		startTime := time.Now()

		// run check command
		_, err = RunCheckCmd(startTime, cfg, afs, cCtx.Args().First(), cCtx.String("results"), !cCtx.Bool("non-interactive"), true)
		if err != nil {
			return err
		}

		// check for updates after running the command
		if err := CheckForUpdate(cfg); err != nil {
			return err
		}

		return nil
	},
}

// CheckResults aggregates the outcome of one check run (used for testing).
type CheckResults struct {
	Sets         int
	Replicates   int
	Consistent   int
	Inconsistent int
	Results      []*analysis.Result
}

func RunCheckCmd(startTime time.Time, cfg *config.Config, afs afero.Fs, root string, resultsDir string, ask bool, showProgress bool) (CheckResults, error) {
	var checkResults CheckResults
	logger := zlog.GetLogger()

	logger.Info().Str("path", root).Str("results", resultsDir).Str("started_at", startTime.String()).Msg("Initiating new check...")

	// load the dataset path relative to the current working directory
	// this is done here instead of in the flag parsing so that anyone calling RunCheckCmd will have the relative path
	root, err := util.ParseRelativePath(root)
	if err != nil {
		return checkResults, err
	}

	// get the list of compatible replicate set files under the given path
	files, walkErrors, err := WalkSetFiles(afs, root)
	if err != nil {
		return checkResults, err
	}

	// log any errors that occurred during the walk
	for _, walkErr := range walkErrors {
		logger.Debug().Str("path", walkErr.Path).Err(walkErr.Error).Msg("file was left out of the check due to error or incompatibility")
	}

	if len(files) == 0 {
		return checkResults, ErrNoSetFilesFound
	}

	store := report.NewStore(afs, resultsDir)

	// warn when datasets already have stored results, since checking them
	// again stores an additional run rather than replacing the old one
	rechecked, err := previouslyChecked(afs, store, files)
	if err != nil {
		return checkResults, err
	}
	if len(rechecked) > 0 {
		fmt.Printf("Datasets with stored results: %s\n", strings.Join(rechecked, ", "))
		if ask {
			prompt := promptui.Prompt{
				Label:     "Store New Runs",
				IsConfirm: true,
			}
			if _, err := prompt.Run(); err != nil {
				fmt.Println("Cancelling check...")
				return checkResults, err
			}
		}
	}

	group, ctx := errgroup.WithContext(context.Background())

	// the bar counts analyzed files, per file log lines print above it
	progressLogger := log.New(io.Discard, "", 0)
	var progressBars *mpb.Progress
	var fileBar *mpb.Bar
	if showProgress {
		progressBars = mpb.New(mpb.WithWidth(64))
		fileBar = progressBars.New(int64(len(files)),
			mpb.BarStyle().Lbound("╢").Filler("▌").Tip("▌").Padding("░").Rbound("╟"),
			mpb.PrependDecorators(
				// display our name with one space on the right
				decor.Name("Analyzing Sets", decor.WC{C: decor.DindentRight | decor.DextraSpace}),
				// replace ETA decorator with "done" message, OnComplete event
				decor.OnComplete(decor.Elapsed(decor.ET_STYLE_GO), "🎉"),
			),
			mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
		)
		progressLogger = log.New(progressBars, "", 0)
	}

	results := make([]*analysis.Result, len(files))

	// analyze the files with a fixed pool of workers
	work := make(chan int)
	for w := 0; w < cfg.WorkerCount(); w++ {
		group.Go(func() error {
			for idx := range work {
				progressLogger.Println("[-] Analyzing: ", files[idx])
				result, err := checkOne(cfg, afs, store, files[idx])
				if err != nil {
					return err
				}
				results[idx] = result

				if fileBar != nil {
					fileBar.Increment()
				}
			}
			return nil
		})
	}

	// feed the workers
	group.Go(func() error {
		defer close(work)
		for idx := range files {
			select {
			case work <- idx:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return checkResults, err
	}
	if progressBars != nil {
		progressBars.Wait()
	}

	// aggregate the run
	for _, result := range results {
		checkResults.Sets++
		checkResults.Replicates += result.Replicates
		if result.Consistent() {
			checkResults.Consistent++
		} else {
			checkResults.Inconsistent++
		}
		checkResults.Results = append(checkResults.Results, result)
	}

	logger.Info().Str("elapsed_time", fmt.Sprintf("%1.1fs", time.Since(startTime).Seconds())).Msg("🎊✨ Finished Check! ✨🎊")

	printCheckSummary(checkResults)

	return checkResults, nil
}

// checkOne reads, analyzes and stores a single replicate set file.
func checkOne(cfg *config.Config, afs afero.Fs, store *report.Store, path string) (*analysis.Result, error) {
	logger := zlog.GetLogger()

	set, err := replicate.ReadSetFile(afs, path)
	if err != nil {
		return nil, fmt.Errorf("could not read replicate set %s: %w", path, err)
	}

	result, err := analysis.NewAnalyzer(set, cfg).Analyze()
	if err != nil {
		return nil, fmt.Errorf("could not analyze %s: %w", set.Name, err)
	}

	saved, err := store.Save(result)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("dataset", set.Name).Str("path", saved).Msg("stored analysis result")

	return result, nil
}

// previouslyChecked returns the dataset names among files that already
// have at least one stored result.
func previouslyChecked(afs afero.Fs, store *report.Store, files []string) ([]string, error) {
	exists, err := afero.DirExists(afs, store.Dir())
	if err != nil || !exists {
		return nil, err
	}

	stored, err := store.List()
	if err != nil {
		return nil, err
	}
	prior := make(map[string]bool, len(stored))
	for _, result := range stored {
		prior[result.Dataset] = true
	}

	var rechecked []string
	for _, path := range files {
		if name := replicate.SetName(path); prior[name] {
			rechecked = append(rechecked, name)
		}
	}
	return rechecked, nil
}

func printCheckSummary(res CheckResults) {
	p := message.NewPrinter(language.English)

	fmt.Printf("\n\tChecked %d replicate sets (%s total replicates): %d consistent, %d inconsistent\n", res.Sets, p.Sprintf("%d", res.Replicates), res.Consistent, res.Inconsistent)
	for _, result := range res.Results {
		if !result.Consistent() {
			fmt.Printf("\t[!] %s: %d fit rejections, %d coverage points outside the credible interval\n", result.Dataset, result.FitRejections(), result.CoverageViolations())
		}
	}
	fmt.Println()
}

// WalkSetFiles walks the directory tree at root and collects every
// compatible replicate set file, skipping duplicates that would produce
// the same dataset name. A root that is itself a compatible file is
// returned directly.
func WalkSetFiles(afs afero.Fs, root string) ([]string, []WalkError, error) {
	// check if root is a valid directory or file
	err := util.ValidateDirectory(afs, root)
	if err != nil && !errors.Is(err, util.ErrPathIsNotDir) {
		return nil, nil, err
	}
	if err != nil && errors.Is(err, util.ErrPathIsNotDir) {
		if err := util.ValidateFile(afs, root); err != nil {
			return nil, nil, err
		}
		if !replicate.CompatibleFile(root) {
			return nil, nil, fmt.Errorf("%w: %s", ErrIncompatibleFileExtension, root)
		}
		return []string{root}, nil, nil
	}

	var files []string
	var walkErrors []WalkError
	seen := make(map[string]string)

	err = afero.Walk(afs, root, func(path string, info os.FileInfo, afErr error) error {
		// check if afero failed to access or find a file or directory
		if afErr != nil {
			walkErrors = append(walkErrors, WalkError{Path: path, Error: afErr})
			return nil //nolint:nilerr // log the issue and continue walking
		}
		if info.IsDir() {
			return nil
		}
		if !replicate.CompatibleFile(path) {
			walkErrors = append(walkErrors, WalkError{Path: path, Error: ErrIncompatibleFileExtension})
			return nil
		}
		if err := util.ValidateFile(afs, path); err != nil {
			walkErrors = append(walkErrors, WalkError{Path: path, Error: err})
			return nil
		}

		// two files that map to the same dataset name would store runs that
		// cannot be told apart, keep the first one walked
		name := replicate.SetName(path)
		if _, ok := seen[name]; ok {
			walkErrors = append(walkErrors, WalkError{Path: path, Error: ErrSkippedDuplicateSet})
			return nil
		}
		seen[name] = path

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, walkErrors, err
	}

	return files, walkErrors, nil
}
