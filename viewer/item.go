package viewer

import (
	"fmt"

	"github.com/sigmacheck/sigmacheck/analysis"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Item adapts one stored analysis result to the result list.
type Item struct {
	Result *analysis.Result
}

func (i Item) FilterValue() string { return i.GetDataset() } // no-op, filtering is disabled

func (i Item) GetDataset() string {
	if i.Result == nil {
		return ""
	}
	return i.Result.Dataset
}

// GetRunID returns the short form of the run identifier, matching the
// suffix used in stored result file names.
func (i Item) GetRunID() string {
	if i.Result == nil {
		return ""
	}
	return i.Result.RunID.String()[:8]
}

func (i Item) GetShape() string {
	if i.Result == nil {
		return ""
	}
	return i.Result.Shape.String()
}

func (i Item) GetReplicates() string {
	if i.Result == nil {
		return ""
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d", i.Result.Replicates)
}

func (i Item) GetAnalyzed() string {
	if i.Result == nil {
		return ""
	}
	return i.Result.CreatedAt.Format("2006-01-02 15:04")
}

func (i Item) GetVerdict(color bool) string {
	if i.Result == nil {
		return ""
	}

	verdict := "consistent"
	verdictColor := green
	if !i.Result.Consistent() {
		verdict = "inconsistent"
		verdictColor = red
	}
	if color {
		return lipgloss.NewStyle().Foreground(verdictColor).Render(verdict)
	}
	return verdict
}

// GetFit summarizes the goodness of fit column. A result with zero sigma
// coordinates shows as partial because those panels were never tested.
func (i Item) GetFit() string {
	if i.Result == nil {
		return ""
	}

	if rejected := i.Result.FitRejections(); rejected > 0 {
		return lipgloss.NewStyle().Foreground(red).Render(fmt.Sprintf("%d rejected", rejected))
	}
	if len(i.Result.Degenerate) > 0 {
		return lipgloss.NewStyle().Foreground(peach).Render("partial")
	}
	return lipgloss.NewStyle().Foreground(green).Render("ok")
}

func (i Item) GetCoverage() string {
	if i.Result == nil {
		return ""
	}

	if violations := i.Result.CoverageViolations(); violations > 0 {
		return lipgloss.NewStyle().Foreground(red).Render(fmt.Sprintf("%d outside", violations))
	}
	return lipgloss.NewStyle().Foreground(green).Render("clean")
}
