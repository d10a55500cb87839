package viewer

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// colors
var (
	defaultTextColor = lipgloss.AdaptiveColor{Light: "#2c2b2f", Dark: "#d3cdd4"}
	subduedTextColor = lipgloss.AdaptiveColor{Light: "#454545", Dark: "#A49FA5"}

	// catpuccin theme colors
	red      = lipgloss.AdaptiveColor{Light: "#D2042D", Dark: "#f38ba8"}
	peach    = lipgloss.AdaptiveColor{Light: "#fe640b", Dark: "#fab387"}
	yellow   = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"}
	lavender = lipgloss.AdaptiveColor{Light: "#7287fd", Dark: "#b4befe"}
	mauve    = lipgloss.AdaptiveColor{Light: "#8839ef", Dark: "#cba6f7"}
	green    = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"}

	overlay0 = lipgloss.AdaptiveColor{Light: "#9ca0b0", Dark: "#6c7086"}
	surface0 = lipgloss.AdaptiveColor{Light: "#ccd0da", Dark: "#313244"}
	base     = lipgloss.AdaptiveColor{Light: "#eff1f5", Dark: "#1e1e2e"}
	overlay2 = lipgloss.AdaptiveColor{Light: "#7c7f93", Dark: "#9399b2"}

	subtext0 = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#a6adc8"}
)

// styles
var (
	listStyle       = lipgloss.NewStyle().Margin(0, 0)
	listHeaderStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, true, false).BorderForeground(lavender).Foreground(subduedTextColor).MarginBottom(1)
)

const (
	bullet   = "•"
	ellipsis = "…"
)

type listModel struct {
	Rows        list.Model
	width       int
	totalHeight int
	columns     []column
}

func MakeList(items []list.Item, columns []column, width int, height int) listModel {
	d := listDelegate{delegate: list.NewDefaultDelegate(), columns: columns}

	l := list.New(items, d, width, height)

	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return listModel{
		Rows:    l,
		columns: columns,
		width:   width,
	}
}

func (m *listModel) Init() tea.Cmd {
	return nil
}

func (m *listModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.WindowSizeMsg); ok {
		_, v := listStyle.GetFrameSize()
		m.Rows.SetSize(m.width, m.Rows.Height()-v)
	}

	var cmd tea.Cmd

	m.Rows, cmd = m.Rows.Update(msg)
	return m, cmd
}

func (m *listModel) SetHeight(height int) {
	_, v := listStyle.GetFrameSize()
	header := lipgloss.Height(renderColumnHeader(m.columns, m.width))
	h := (height - header - v)
	m.totalHeight = header + v + h
	m.Rows.SetSize(m.width, h)
	m.Rows.SetHeight(h)
}

func (m *listModel) View() string {
	header := renderColumnHeader(m.columns, m.width)

	return listStyle.
		Border(lipgloss.RoundedBorder(), true, false, true, true).
		BorderForeground(lavender).
		Render(lipgloss.JoinVertical(lipgloss.Top, header, m.Rows.View()))
}

type listDelegate struct {
	delegate list.DefaultDelegate
	columns  []column
}

func (d listDelegate) Height() int                             { return 2 }   //nolint:gocritic // bubbletea requires these to not be pointer methods
func (d listDelegate) Spacing() int                            { return 1 }   //nolint:gocritic // bubbletea requires these to not be pointer methods
func (d listDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil } //nolint:gocritic // bubbletea requires these to not be pointer methods
func (d listDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) { //nolint:gocritic // bubbletea requires these to not be pointer methods
	// get the item
	i, ok := listItem.(Item)
	if !ok {
		return
	}

	if m.Width() <= 0 {
		// short-circuit
		return
	}

	isSelected := index == m.Index()

	// set up the style for the row, giving each cell a right padding of 3 to keep them from running together
	style := lipgloss.NewStyle().PaddingRight(3)

	// set the background color of the row if it is selected
	if isSelected {
		style = style.Background(surface0).Bold(true)
	}

	verdictStyle := style.PaddingLeft(2).Width(d.columns[0].width)
	verdictTitle := verdictStyle.Render(i.GetVerdict(true))

	datasetStyle := style.Foreground(defaultTextColor).Width(d.columns[1].width)
	datasetTitle := datasetStyle.Render(Truncate(i.GetDataset(), &datasetStyle))

	shapeStyle := style.Foreground(defaultTextColor).Width(d.columns[2].width)
	shapeTitle := shapeStyle.Render(Truncate(i.GetShape(), &shapeStyle))

	replicatesStyle := style.Width(d.columns[3].width)
	replicatesTitle := replicatesStyle.Render(i.GetReplicates())

	analyzedStyle := style.Width(d.columns[4].width)
	analyzedTitle := analyzedStyle.Render(i.GetAnalyzed())

	fitStyle := style.Width(d.columns[5].width)
	fitTitle := fitStyle.Render(i.GetFit())

	coverageStyle := style.Width(d.columns[6].width)
	coverageTitle := coverageStyle.Render(i.GetCoverage())

	// render the full row
	row := lipgloss.NewStyle().Render(
		lipgloss.JoinHorizontal(lipgloss.Left, verdictTitle, datasetTitle, shapeTitle, replicatesTitle, analyzedTitle, fitTitle, coverageTitle),
	)

	fmt.Fprintf(w, "%s", row)
}

func Truncate(str string, style *lipgloss.Style) string {
	// Prevent text from exceeding list width
	textwidth := uint(style.GetWidth() - style.GetPaddingLeft() - style.GetPaddingRight())
	return truncate.StringWithTail(str, textwidth, ellipsis)
}

func renderColumnHeader(columns []column, headerWidth int) string {
	var header string
	columnStyle := lipgloss.NewStyle().Foreground(defaultTextColor)

	for i, c := range columns {
		// set the width of the column, subtracting off the column border
		width := c.width - 3

		// the fist column must start with a margin,
		if i == 0 {
			width -= 2 // subtract off the margin
			header += columnStyle.MarginLeft(2).Width(width).Render(c.name)
		} else {
			header += columnStyle.Width(width).Render(c.name)
		}

		// add a column border if not the last column
		if i < len(columns)-1 {
			header += columnStyle.Foreground(surface0).Render(" | ")
		}
	}

	return listHeaderStyle.Width(headerWidth).Render(header)
}
