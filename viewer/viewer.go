package viewer

import (
	"fmt"
	"runtime"

	"github.com/sigmacheck/sigmacheck/analysis"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var mainStyle = lipgloss.NewStyle().Margin(0, 0)

type Model struct {
	SideBar  sidebarModel
	List     listModel
	Footer   footerModel
	title    string
	keys     keyMap
	ViewHelp bool
}

type keyMap struct {
	base         list.KeyMap
	toggleScroll key.Binding
	quit         key.Binding
}

type column struct {
	name  string
	width int
}

// CreateUI creates the terminal UI for browsing stored results
func CreateUI(resultsDir string, results []*analysis.Result) error {
	// create model
	m := NewModel(resultsDir, results)

	// create program
	p := tea.NewProgram(m, tea.WithAltScreen())

	// run the program
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}

	return nil
}

func NewModel(resultsDir string, results []*analysis.Result) *Model {
	// set columns
	columns := []column{{"Verdict", 18}, {"Dataset", 22}, {"Shape", 18}, {"Replicates", 13}, {"Analyzed", 19}, {"Fit", 14}, {"Coverage", 13}}

	// set table size
	width := getTableWidth(columns)
	height := 20

	items := make([]list.Item, 0, len(results))
	for _, result := range results {
		items = append(items, Item{Result: result})
	}

	// create dataList
	dataList := MakeList(items, columns, width, height)

	// create side bar
	sideBar := NewSidebarModel(&Item{})
	if len(dataList.Rows.Items()) > 0 {
		// set sidebar data to whichever item is selected in the list
		if data, ok := dataList.Rows.Items()[dataList.Rows.Index()].(Item); ok {
			sideBar.Data = &data
		}
	}

	// create footer
	footer := NewFooterModel(resultsDir, len(results))

	// create model
	m := &Model{
		List:    dataList,
		SideBar: sideBar,
		Footer:  footer,
	}

	// initialize model components
	m.Init()

	// initialize sidebar
	m.SideBar.Init()

	return m
}

func (m *Model) Init() tea.Cmd {
	// set title
	m.title = getTitle()

	// set key bindings
	m.keys.base = list.DefaultKeyMap()

	m.keys.toggleScroll = key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "toggle sidebar scrolling"),
	)

	m.keys.quit = key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q | ctrl+c", "quit"),
	)

	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// make the footer the entire width of the terminal
		m.Footer.width = msg.Width

		// make the list fill the extra vertical space
		m.List.SetHeight(msg.Height - lipgloss.Height(m.title) - lipgloss.Height(m.Footer.View()))

		// make the sidebar the same height as the list
		m.SideBar.Viewport.Height = m.List.totalHeight

		// make sidebar fill the extra horizontal space
		m.SideBar.Viewport.Width = msg.Width - lipgloss.Width(m.List.View()) - 4

	case tea.KeyMsg:
		switch {
		// toggle help
		case key.Matches(msg, m.keys.base.ShowFullHelp):
			m.ViewHelp = !m.ViewHelp

		// toggle sidebar scrolling
		case key.Matches(msg, m.keys.toggleScroll):
			m.SideBar.ScrollEnabled = !m.SideBar.ScrollEnabled

		// handle quiting
		case key.Matches(msg, m.keys.quit):
			cmd = tea.Quit

		// otherwise, handle browsing
		default:
			cmd = m.handleBrowsing(msg)
		}
	}

	// keep the sidebar on the selected result
	if len(m.List.Rows.Items()) > 0 {
		if data, ok := m.List.Rows.Items()[m.List.Rows.Index()].(Item); ok {
			m.SideBar.Data = &data
		}
	} else {
		m.SideBar.Data = &Item{}
	}

	return m, cmd
}

// View renders the model to the terminal
func (m *Model) View() string {
	var mainContent string
	if m.ViewHelp {
		mainContent = helpPanel(m.SideBar.Viewport.Height, m.List.width, mainHelpText())
	} else {
		mainContent = lipgloss.JoinHorizontal(
			lipgloss.Left,
			mainStyle.Render(m.List.View()),
			mainStyle.Render(m.SideBar.View()),
		)
	}

	// join and render header, main view, and footer
	return lipgloss.JoinVertical(lipgloss.Top,
		m.title,
		mainContent,
		m.Footer.View(),
	)
}

// handleBrowsing handles key presses on the list
func (m *Model) handleBrowsing(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	// if sidebar scrolling is enabled, pass key events through to the sidebar and
	// ignore them for all other components
	if m.SideBar.ScrollEnabled {
		m.SideBar.Viewport, cmd = m.SideBar.Viewport.Update(msg)
	} else {
		switch {
		// go to the previous row
		case key.Matches(msg, m.keys.base.CursorUp):
			m.List.Rows.CursorUp()

		// go to the next row
		case key.Matches(msg, m.keys.base.CursorDown):
			m.List.Rows.CursorDown()

		// go to the previous page
		case key.Matches(msg, m.keys.base.PrevPage):
			m.List.Rows.Paginator.PrevPage()

		// go to the next page
		case key.Matches(msg, m.keys.base.NextPage):
			m.List.Rows.Paginator.NextPage()

			// set selected row to the last item on the page if keeping the cursor on the same row
			// as the previous page would result in the cursor being out of bounds
			if m.List.Rows.Cursor() >= m.List.Rows.Paginator.ItemsOnPage(len(m.List.Rows.Items())) {
				index := (m.List.Rows.Paginator.Page * m.List.Rows.Paginator.PerPage) + m.List.Rows.Paginator.ItemsOnPage(len(m.List.Rows.Items())) - 1
				m.List.Rows.Select(index)
			}

		// go to the first page
		case key.Matches(msg, m.keys.base.GoToStart):
			m.List.Rows.Paginator.Page = 0

		// go to the last page
		case key.Matches(msg, m.keys.base.GoToEnd):
			m.List.Rows.Paginator.Page = m.List.Rows.Paginator.TotalPages - 1

			// set selected row to the last item on the page if keeping the cursor on the same row
			// as the previous page would result in the cursor being out of bounds
			if m.List.Rows.Cursor() >= m.List.Rows.Paginator.ItemsOnPage(len(m.List.Rows.Items())) {
				m.List.Rows.Select(len(m.List.Rows.Items()) - 1)
			}
		}
	}
	return cmd
}

// getTitle returns the title of the application
func getTitle() string {
	return mainStyle.
		MarginLeft(1).
		// DO NOT INDENT THE FOLLOWING CODE BLOCK!
		Render(`
░█▀▀▀█ ▀█▀ ░█▀▀█ ░█▀▄▀█ ─█▀▀█ ░█▀▀█ ░█─░█ ░█▀▀▀ ░█▀▀█ ░█─▄▀
─▀▀▀▄▄ ░█─ ░█─▄▄ ░█░█░█ ░█▄▄█ ░█─── ░█▄▄█ ░█▀▀▀ ░█─── ░█▀▄─
░█▄▄▄█ ▄█▄ ░█▄▄█ ░█──░█ ░█─░█ ░█▄▄█ ░█─░█ ░█▄▄▄ ░█▄▄█ ░█─░█
`)
}

// mainHelpText returns the help text for the main program
func mainHelpText() string {
	helpStyle := lipgloss.NewStyle().Foreground(overlay2)
	subduedHelpStyle := lipgloss.NewStyle().Foreground(surface0)
	sectionStyle := lipgloss.NewStyle().Foreground(lavender).Bold(true)
	subSectionStyle := lipgloss.NewStyle().Foreground(subtext0)
	helpText := lipgloss.JoinVertical(lipgloss.Top,
		sectionStyle.Render("Navigation"),
		"",
		subSectionStyle.Render("Results"),
	)

	helpText = lipgloss.JoinVertical(lipgloss.Top, helpText, helpStyle.Render(
		helpStyle.Render("↑/k"), subduedHelpStyle.Render("previous row"),
		subduedHelpStyle.Render(bullet),
		helpStyle.Render("↓/j"), subduedHelpStyle.Render("next row")))
	helpText = lipgloss.JoinVertical(lipgloss.Top, helpText, helpStyle.Render(
		helpStyle.Render("←/h"), subduedHelpStyle.Render("previous page"),
		subduedHelpStyle.Render(bullet),
		helpStyle.Render("→/l"), subduedHelpStyle.Render("next page")),
	)

	helpText += subSectionStyle.Render("\n\nSidebar")
	helpText = lipgloss.JoinVertical(lipgloss.Top, helpText, helpStyle.Render(
		helpStyle.Render("tab"), subduedHelpStyle.Render("toggle scrolling")))
	helpText = lipgloss.JoinVertical(lipgloss.Top, helpText, helpStyle.Render(
		helpStyle.Render("↑/k"), subduedHelpStyle.Render("scroll up"),
		subduedHelpStyle.Render(bullet),
		helpStyle.Render("↓/j"), subduedHelpStyle.Render("scroll down")))
	pgDownSidebar := "pgdn/f"
	pgUpSidebar := "pgup/b"
	if runtime.GOOS == "darwin" {
		pgDownSidebar = "fn+↓"
		pgUpSidebar = "fn+↑"
	}
	helpText = lipgloss.JoinVertical(lipgloss.Top, helpText, helpStyle.Render(
		helpStyle.Render(pgDownSidebar), subduedHelpStyle.Render("page down"),
		subduedHelpStyle.Render(bullet),
		helpStyle.Render(pgUpSidebar), subduedHelpStyle.Render("page up")))

	helpText = lipgloss.JoinVertical(lipgloss.Top, helpText,
		sectionStyle.Render("\n\nShortcuts"))

	helpText = lipgloss.JoinVertical(lipgloss.Top, helpText, helpStyle.Render(
		helpStyle.Render("q/ctrl+c"), subduedHelpStyle.Render("quit"),
		subduedHelpStyle.Render(bullet),
		helpStyle.Render("?"), subduedHelpStyle.Render("toggle help")),
	)

	return lipgloss.NewStyle().Margin(1, 0, 0, 2).Render(helpText)
}

func helpPanel(height int, width int, contents string) string {
	return mainStyle.Height(height).Width(width).
		Border(lipgloss.RoundedBorder()).BorderForeground(surface0).
		Render(contents)
}

func getTableWidth(columns []column) int {
	width := 0
	for _, column := range columns {
		width += column.width
	}

	return width
}
