package report

import (
	"fmt"
	"strings"

	"github.com/sigmacheck/sigmacheck/analysis"
)

// preamble explains how to read the coverage table. It renders at the
// top of every text report.
const preamble = `The uncertainty estimates are tested in this section.
If the error is normally distributed, the actual error will be less than a
multiplier 'alpha' times the computed uncertainty 'sigma' a fraction of
time given by:
P(error < alpha sigma) = erf(alpha / sqrt(2))
For example, the true error should be less than 1.0 * sigma
(one standard deviation) a total of 68% of the time, and
less than 2.0 * sigma (two standard deviations) 95% of the time.
The observed fraction of the time that error < alpha sigma, and its
uncertainty, is given as 'obs' (with bounds 'obs err') below.
This should be compared to the column labeled 'normal'.
A weak lower bound that holds regardless of how the error is distributed is
given by Chebyshev's inequality, and is listed as 'cheby' below.`

const summaryHeader = "     i      average    bias      rms_error     stddev  ave_analyt_std"
const summaryRule = "---------------------------------------------------------------------"

// Render formats a full analysis result as a plain text report.
func Render(result *analysis.Result) string {
	lines := []string{
		fmt.Sprintf("Dataset:        %s", result.Dataset),
		fmt.Sprintf("Shape:          %s", result.Shape.String()),
		fmt.Sprintf("Replicates:     %d", result.Replicates),
		fmt.Sprintf("Run ID:         %s", result.RunID.String()),
		fmt.Sprintf("Analyzed:       %s", result.CreatedAt.Format("2006-01-02 15:04:05 MST")),
	}
	if result.Fingerprint != "" {
		lines = append(lines, fmt.Sprintf("Fingerprint:    %s", result.Fingerprint))
	}
	if len(result.Degenerate) > 0 {
		lines = append(lines, fmt.Sprintf("Degenerate:     %s (zero reported sigma, excluded from coverage)", strings.Join(result.Degenerate, ", ")))
	}

	lines = append(lines, "", preamble, "")
	lines = append(lines, renderFit(result)...)
	lines = append(lines, "")
	lines = append(lines, renderCoverage(result)...)
	lines = append(lines, "")
	lines = append(lines, renderSummaries(result)...)
	lines = append(lines, "", renderVerdict(result))

	return strings.Join(lines, "\n")
}

func renderFit(result *analysis.Result) []string {
	lines := []string{
		fmt.Sprintf("Anderson-Darling goodness of fit, threshold %.2f", result.Threshold),
		fmt.Sprintf("%6s %12s    %s", "i", "A2", "verdict"),
	}
	for _, fit := range result.GoodnessOfFit {
		verdict := "ok"
		switch {
		case fit.Degenerate:
			verdict = "skipped (zero sigma)"
		case fit.Rejected:
			verdict = "REJECT"
		}
		lines = append(lines, fmt.Sprintf("%6s %12.4f    %s", fit.Label, fit.Statistic, verdict))
	}
	return lines
}

func renderCoverage(result *analysis.Result) []string {
	lines := []string{
		"Error vs. alpha",
		fmt.Sprintf("%5s %10s %10s %16s %17s", "alpha", "cheby", "obs", "obs err", "normal"),
	}
	for _, point := range result.Coverage {
		marker := ""
		if !point.Consistent {
			marker = "  *"
		}
		lines = append(lines, fmt.Sprintf("%5.1f %10.6f %10.6f (%10.6f,%10.6f) %10.6f%s",
			point.Alpha, point.Chebyshev, point.Observed, point.Low, point.High, point.Normal, marker))
	}
	if violations := result.CoverageViolations(); violations > 0 {
		lines = append(lines, fmt.Sprintf("* %d of %d points fall outside the %.0f%% credible interval",
			violations, len(result.Coverage), result.CredibleLevel*100))
	}
	return lines
}

func renderSummaries(result *analysis.Result) []string {
	lines := []string{summaryHeader, summaryRule}
	if len(result.Summaries) == 0 {
		return lines
	}

	var ave, bias, rms, stddev, avestd float64
	for _, summary := range result.Summaries {
		lines = append(lines, fmt.Sprintf("%7s %10.4f  %10.4f  %10.4f  %10.4f %10.4f",
			summary.Label, summary.Average, summary.Bias, summary.RMSError, summary.StdDev, summary.AvgStdErr))
		ave += summary.Average
		bias += summary.Bias
		rms += summary.RMSError
		stddev += summary.StdDev
		avestd += summary.AvgStdErr
	}

	n := float64(len(result.Summaries))
	lines = append(lines, fmt.Sprintf("Totals: %10.4f  %10.4f  %10.4f  %10.4f %10.4f",
		ave/n, bias/n, rms/n, stddev/n, avestd/n))
	return lines
}

func renderVerdict(result *analysis.Result) string {
	if result.Consistent() {
		return "VERDICT: consistent, reported uncertainties describe the observed errors"
	}
	parts := []string{}
	if rejections := result.FitRejections(); rejections > 0 {
		parts = append(parts, fmt.Sprintf("%d coordinate(s) failed the goodness of fit test", rejections))
	}
	if violations := result.CoverageViolations(); violations > 0 {
		parts = append(parts, fmt.Sprintf("%d coverage point(s) outside the credible interval", violations))
	}
	return "VERDICT: inconsistent, " + strings.Join(parts, " and ")
}
