package viewer

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var sideBarStyle = lipgloss.NewStyle()

type sidebarModel struct {
	Viewport      viewport.Model
	Data          *Item
	ScrollEnabled bool
}

func NewSidebarModel(initialData *Item) sidebarModel {
	return sidebarModel{
		Viewport: viewport.Model{},
		Data:     initialData,
	}
}

func (m *sidebarModel) Init() tea.Cmd {
	m.Viewport.SetContent(m.getSidebarContents())
	return nil
}

func (m *sidebarModel) Update(_ tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

func (m *sidebarModel) View() string {
	m.Viewport.SetContent(m.getSidebarContents())
	borderColor := mauve
	if m.ScrollEnabled {
		borderColor = green
	}
	style := sideBarStyle.
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor)

	return style.Render(m.Viewport.View())
}

func (m *sidebarModel) getSidebarContents() string {
	if m.Data == nil || m.Data.Result == nil {
		return lipgloss.NewStyle().Foreground(subduedTextColor).Render("no stored results")
	}

	// get header
	headerPadding := 2

	headerLabelStyle := lipgloss.NewStyle().Padding(0, headerPadding).Background(overlay0).Foreground(defaultTextColor).Bold(true)
	headerValueStyle := lipgloss.NewStyle().Padding(0, headerPadding).Background(mauve).Foreground(base).Bold(true)

	datasetLabel := "DATASET"
	datasetStyle := lipgloss.NewStyle().Width(m.Viewport.Width - len(datasetLabel) - (headerPadding * 4))
	dataset := lipgloss.JoinHorizontal(lipgloss.Left, headerLabelStyle.Render(datasetLabel), headerValueStyle.Render(Truncate(m.Data.GetDataset(), &datasetStyle)))

	runLabel := "RUN"
	runStyle := lipgloss.NewStyle().Width(m.Viewport.Width - len(runLabel) - (headerPadding * 4))
	run := lipgloss.JoinHorizontal(lipgloss.Left, headerLabelStyle.Render(runLabel), headerValueStyle.Render(Truncate(m.Data.GetRunID(), &runStyle)))

	heading := lipgloss.NewStyle().MarginBottom(1).Render(
		lipgloss.JoinVertical(lipgloss.Top, lipgloss.NewStyle().MarginBottom(1).Render(dataset), run),
	)

	sectionStyle := lipgloss.NewStyle().
		Foreground(overlay2).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(surface0).
		Width(m.Viewport.Width)

	verdictLabel := sectionStyle.Render("「 Verdict 」")
	verdict := m.renderVerdict()

	fitLabel := sectionStyle.Render("「 Goodness of Fit 」")
	fit := m.renderFit()

	coverageLabel := sectionStyle.Render("「 Coverage 」")
	coverage := m.renderCoverage()

	summaryLabel := sectionStyle.Render("「 Error Summary 」")
	summaries := m.renderSummaries()

	// join contents
	return lipgloss.JoinVertical(lipgloss.Top, heading, verdictLabel, verdict, fitLabel, fit, coverageLabel, coverage, summaryLabel, summaries)
}

func (m *sidebarModel) renderVerdict() string {
	result := m.Data.Result

	verdict := "consistent"
	verdictColor := green
	if !result.Consistent() {
		verdict = "inconsistent"
		verdictColor = red
	}
	status := lipgloss.NewStyle().Background(verdictColor).Foreground(base).Bold(true).Padding(0, 2).Render(verdict)

	detailStyle := lipgloss.NewStyle().Foreground(subduedTextColor)
	details := lipgloss.JoinVertical(lipgloss.Top,
		detailStyle.Render(fmt.Sprintf("threshold %.2f", result.Threshold)),
		detailStyle.Render(fmt.Sprintf("credible level %.0f%%", result.CredibleLevel*100)),
		detailStyle.Render("elapsed "+result.Elapsed.String()),
	)

	return lipgloss.NewStyle().MarginBottom(1).Render(lipgloss.JoinVertical(lipgloss.Top, status, details))
}

func (m *sidebarModel) renderFit() string {
	result := m.Data.Result

	lines := make([]string, 0, len(result.GoodnessOfFit))
	for _, fit := range result.GoodnessOfFit {
		var status string
		switch {
		case fit.Degenerate:
			status = lipgloss.NewStyle().Foreground(yellow).Render("skipped (zero sigma)")
		case fit.Rejected:
			status = lipgloss.NewStyle().Foreground(red).Render("REJECT")
		default:
			status = lipgloss.NewStyle().Foreground(green).Render("ok")
		}
		line := lipgloss.NewStyle().Foreground(defaultTextColor).Render(fmt.Sprintf("%-6s %9.4f  ", fit.Label, fit.Statistic))
		lines = append(lines, line+status)
	}

	return lipgloss.NewStyle().MarginBottom(1).Render(lipgloss.JoinVertical(lipgloss.Top, lines...))
}

func (m *sidebarModel) renderCoverage() string {
	result := m.Data.Result

	violations := result.CoverageViolations()
	if violations == 0 {
		summary := lipgloss.NewStyle().Foreground(green).Render(
			fmt.Sprintf("all %d points inside the %.0f%% credible interval", len(result.Coverage), result.CredibleLevel*100),
		)
		return lipgloss.NewStyle().MarginBottom(1).Render(summary)
	}

	header := lipgloss.NewStyle().Foreground(red).Render(
		fmt.Sprintf("%d of %d points outside the %.0f%% credible interval", violations, len(result.Coverage), result.CredibleLevel*100),
	)

	lineStyle := lipgloss.NewStyle().Foreground(subduedTextColor)
	lines := []string{header}
	for _, point := range result.Coverage {
		if point.Consistent {
			continue
		}
		lines = append(lines, lineStyle.Render(
			fmt.Sprintf("alpha %.1f  observed %.3f  interval (%.3f, %.3f)", point.Alpha, point.Observed, point.Low, point.High),
		))
	}

	return lipgloss.NewStyle().MarginBottom(1).Render(lipgloss.JoinVertical(lipgloss.Top, lines...))
}

func (m *sidebarModel) renderSummaries() string {
	result := m.Data.Result

	lineStyle := lipgloss.NewStyle().Foreground(defaultTextColor)
	lines := make([]string, 0, len(result.Summaries)+len(result.Degenerate))
	for _, summary := range result.Summaries {
		lines = append(lines, lineStyle.Render(
			fmt.Sprintf("%-6s bias %+.4f  rms %.4f  avg std err %.4f", summary.Label, summary.Bias, summary.RMSError, summary.AvgStdErr),
		))
	}

	degenerateStyle := lipgloss.NewStyle().Foreground(yellow)
	for _, label := range result.Degenerate {
		lines = append(lines, degenerateStyle.Render(fmt.Sprintf("%-6s zero reported sigma, excluded", label)))
	}

	if len(lines) == 0 {
		return lipgloss.NewStyle().Foreground(subduedTextColor).Render("no coverage coordinates")
	}

	return lipgloss.JoinVertical(lipgloss.Top, lines...)
}
