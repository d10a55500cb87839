package report

import (
	"strings"

	"github.com/sigmacheck/sigmacheck/analysis"
	"github.com/sigmacheck/sigmacheck/replicate"

	"gonum.org/v1/gonum/stat/distuv"
)

// Panel holds the data behind one quantile-quantile panel: the standard
// normal quantiles paired with one coordinate's observed ordered
// deviations. On well calibrated data the two track each other.
type Panel struct {
	Coordinate  replicate.Coordinate
	Label       string
	Theoretical []float64
	Observed    []float64
}

// Panels builds one QQ panel per coordinate. Matrix sets get a panel for
// every off diagonal pair. Degenerate coordinates are skipped, their
// deviations were never normalized so the comparison would be
// meaningless. All panels share one theoretical slice, evaluated at the
// plotting positions (i + 0.5)/N.
func Panels(deviations *analysis.Deviations) []Panel {
	coords := deviations.Shape.PanelCoordinates()
	panels := make([]Panel, 0, len(coords))

	var theoretical []float64
	for _, coord := range coords {
		if deviations.Degenerate[coord] {
			continue
		}
		sample := deviations.Ordered[coord]
		if theoretical == nil {
			theoretical = plottingQuantiles(len(sample))
		}
		panels = append(panels, Panel{
			Coordinate:  coord,
			Label:       deviations.Shape.Label(coord),
			Theoretical: theoretical,
			Observed:    sample,
		})
	}
	return panels
}

// plottingQuantiles evaluates the standard normal quantile function at
// (i + 0.5)/N for i in 0..N-1.
func plottingQuantiles(n int) []float64 {
	stdNormal := distuv.Normal{Mu: 0, Sigma: 1}
	quantiles := make([]float64, n)
	for i := range quantiles {
		quantiles[i] = stdNormal.Quantile((float64(i) + 0.5) / float64(n))
	}
	return quantiles
}

// FormatQQCSV renders QQ panels as long form comma-delimited rows, one
// row per sample point, grouped by coordinate.
func FormatQQCSV(panels []Panel) string {
	columns := []string{
		"Coordinate",
		"Theoretical",
		"Observed",
	}

	var data []string
	for _, panel := range panels {
		for i := range panel.Theoretical {
			fields := []string{
				panel.Label, formatFloat(panel.Theoretical[i]), formatFloat(panel.Observed[i]),
			}
			data = append(data, strings.Join(fields, ","))
		}
	}

	csvOutput := []string{
		strings.Join(columns, ","),
		strings.Join(data, "\n"),
	}
	return strings.Join(csvOutput, "\n")
}
