package viewer

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type footerModel struct {
	dir   string
	count int
	width int
}

func NewFooterModel(dir string, count int) footerModel {
	return footerModel{dir: dir, count: count}
}

func (m *footerModel) Init() tea.Cmd {
	return nil
}

func (m *footerModel) Update(_ tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

func (m *footerModel) View() string {
	p := message.NewPrinter(language.English)
	runCount := p.Sprintf("%d runs", m.count)

	resultsLabel := mainStyle.Padding(0, 2).Background(lavender).Foreground(base).Bold(true).Render("Results")
	helpLabel := mainStyle.Background(overlay2).Foreground(base).Padding(0, 2).Render("? help")

	middleBarStyle := mainStyle.Background(surface0).Foreground(defaultTextColor)

	footer := resultsLabel
	footer += middleBarStyle.PaddingLeft(1).Render(m.dir)

	// right align the run count, filling the middle of the bar
	fillWidth := m.width - lipgloss.Width(footer) - lipgloss.Width(helpLabel) - len(runCount) - 2
	if fillWidth > 0 {
		footer += middleBarStyle.Width(fillWidth).Render()
		footer += middleBarStyle.PaddingRight(1).Render(runCount)
	} else {
		footer += middleBarStyle.Padding(0, 1).Render(bullet + " " + runCount)
	}
	footer += helpLabel

	return footer
}
