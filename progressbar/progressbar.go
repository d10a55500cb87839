package progressbar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	padding  = 2
	maxWidth = 80
)

// ProgressMsg updates the completion fraction of the bar with a matching
// ID.
type ProgressMsg struct {
	ID      int
	Percent float64
}

// SpinnerDoneMsg marks the spinner at the given index as finished.
type SpinnerDoneMsg int

// Bar is one labeled progress bar.
type Bar struct {
	bar     progress.Model
	name    string
	id      int
	percent float64
}

// Spinner is one labeled activity spinner.
type Spinner struct {
	spinner spinner.Model
	name    string
	done    bool
}

// Model drives a stack of progress bars followed by a stack of spinners.
// The program quits once every bar reaches 100% and every spinner is
// marked done, or when the supplied context is cancelled.
type Model struct {
	Bars     []*Bar
	Spinners []Spinner
	ctx      context.Context
}

func NewBar(name string, id int, bar progress.Model) *Bar {
	return &Bar{name: name, id: id, bar: bar}
}

func NewSpinner(name string) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Spinner{name: name, spinner: s}
}

func New(ctx context.Context, bars []*Bar, spinners []Spinner) *tea.Program {
	return tea.NewProgram(Model{
		Bars:     bars,
		Spinners: spinners,
		ctx:      ctx,
	})
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd()}
	for i := range m.Spinners {
		cmds = append(cmds, m.Spinners[i].spinner.Tick)
	}
	return tea.Batch(cmds...)
}

type tickMsg struct{}

// tickCmd emits a tickMsg every second so the program can notice a
// cancelled context even when no progress is flowing.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m Model) finished() bool {
	for _, bar := range m.Bars {
		if bar.percent < 1.0 {
			return false
		}
	}
	for i := range m.Spinners {
		if !m.Spinners[i].done {
			return false
		}
	}
	return true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		select {
		// quit the program if the context was cancelled
		case <-m.ctx.Done():
			return m, tea.Quit
		default:
			return m, tickCmd()
		}

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		for _, bar := range m.Bars {
			bar.bar.Width = msg.Width - padding*2 - 4
			if bar.bar.Width > maxWidth {
				bar.bar.Width = maxWidth
			}
		}
		return m, nil

	case SpinnerDoneMsg:
		if int(msg) < len(m.Spinners) {
			m.Spinners[msg].done = true
		}
		if m.finished() {
			return m, tea.Quit
		}
		return m, nil

	case ProgressMsg:
		for _, bar := range m.Bars {
			if bar.id == msg.ID {
				bar.percent = msg.Percent
			}
		}
		if m.finished() {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		for i := range m.Spinners {
			if m.Spinners[i].spinner.ID() == msg.ID {
				var cmd tea.Cmd
				m.Spinners[i].spinner, cmd = m.Spinners[i].spinner.Update(msg)
				return m, cmd
			}
		}
		return m, nil

	default:
		return m, nil
	}
}

func (m Model) View() string {
	pad := strings.Repeat(" ", padding)
	render := ""

	for _, bar := range m.Bars {
		render += "\n" + bar.name
		if bar.percent >= 1.0 {
			render += " 🎉"
		}
		render += pad + bar.bar.ViewAs(bar.percent) + "\n\n"
	}
	for i := range m.Spinners {
		spinnerTxt := m.Spinners[i].spinner.View()
		if m.Spinners[i].done {
			spinnerTxt = "✅"
		}
		render += fmt.Sprintf("\n%s %s\n\n", spinnerTxt, m.Spinners[i].name)
	}
	return render
}
