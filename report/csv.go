package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sigmacheck/sigmacheck/analysis"
)

// FormatCoverageCSV renders the coverage sweep as comma-delimited rows,
// one per alpha grid point.
func FormatCoverageCSV(result *analysis.Result) string {
	columns := []string{
		"Alpha",
		"Chebyshev",
		"Observed",
		"Observed Err",
		"Low",
		"High",
		"Normal",
		"Consistent",
	}

	var data []string
	for _, point := range result.Coverage {
		fields := []string{
			formatFloat(point.Alpha), formatFloat(point.Chebyshev),
			formatFloat(point.Observed), formatFloat(point.ObservedErr),
			formatFloat(point.Low), formatFloat(point.High),
			formatFloat(point.Normal), strconv.FormatBool(point.Consistent),
		}
		data = append(data, strings.Join(fields, ","))
	}

	csvOutput := []string{
		strings.Join(columns, ","),
		strings.Join(data, "\n"),
	}
	return strings.Join(csvOutput, "\n")
}

// FormatFitCSV renders the goodness of fit verdicts as comma-delimited
// rows, one per coordinate.
func FormatFitCSV(result *analysis.Result) string {
	columns := []string{
		"Coordinate",
		"A2",
		"Degenerate",
		"Rejected",
	}

	var data []string
	for _, fit := range result.GoodnessOfFit {
		fields := []string{
			fit.Label, formatFloat(fit.Statistic),
			strconv.FormatBool(fit.Degenerate), strconv.FormatBool(fit.Rejected),
		}
		data = append(data, strings.Join(fields, ","))
	}

	csvOutput := []string{
		strings.Join(columns, ","),
		strings.Join(data, "\n"),
	}
	return strings.Join(csvOutput, "\n")
}

// FormatSummaryCSV renders the per coordinate summaries as
// comma-delimited rows.
func FormatSummaryCSV(result *analysis.Result) string {
	columns := []string{
		"Coordinate",
		"Average",
		"Bias",
		"RMS Error",
		"Std Dev",
		"Avg Std Err",
	}

	var data []string
	for _, summary := range result.Summaries {
		fields := []string{
			summary.Label, formatFloat(summary.Average), formatFloat(summary.Bias),
			formatFloat(summary.RMSError), formatFloat(summary.StdDev), formatFloat(summary.AvgStdErr),
		}
		data = append(data, strings.Join(fields, ","))
	}

	csvOutput := []string{
		strings.Join(columns, ","),
		strings.Join(data, "\n"),
	}
	return strings.Join(csvOutput, "\n")
}

func formatFloat(value float64) string {
	return fmt.Sprintf("%g", value)
}
