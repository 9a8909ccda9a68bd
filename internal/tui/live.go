// Package tui renders integration runs in the terminal.
package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/widthlab/internal/integration"
)

// IterationMsg carries one finished pass into the model.
type IterationMsg integration.Iteration

// DoneMsg ends the run.
type DoneMsg struct {
	State    integration.State
	Estimate integration.Estimate
	Err      error
}

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is the live view of a single integration.
type Model struct {
	process string
	maxIter int
	started time.Time
	elapsed time.Duration

	history []integration.Iteration
	done    bool
	final   DoneMsg
	width   int
}

func NewModel(process string, maxIter int) Model {
	return Model{process: process, maxIter: maxIter, started: time.Now(), width: 80}
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case IterationMsg:
		m.history = append(m.history, integration.Iteration(msg))
	case DoneMsg:
		m.done = true
		m.final = msg
		m.elapsed = time.Since(m.started)
		return m, tea.Quit
	case TickMsg:
		if m.done {
			return m, nil
		}
		m.elapsed = time.Since(m.started)
		return m, tick()
	}
	return m, nil
}

func (m Model) Done() bool      { return m.done }
func (m Model) Result() DoneMsg { return m.final }
func (m Model) Passes() int     { return len(m.history) }

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(Title.Render(strings.ToUpper(m.process)) + "  ")
	switch {
	case !m.done:
		s.WriteString(StatusRunning.Render(fmt.Sprintf("RUNNING pass %d/%d", len(m.history), m.maxIter)))
	case m.final.Err != nil:
		s.WriteString(StatusFailed.Render("FAILED"))
	default:
		s.WriteString(StateStyle(m.final.State))
	}
	s.WriteString("  " + Subtle.Render(m.elapsed.Round(100*time.Millisecond).String()) + "\n\n")

	if len(m.history) > 1 {
		values := make([]float64, len(m.history))
		for i, it := range m.history {
			values[i] = it.Cumulative.Value
		}
		w := min(max(m.width-20, 20), 70)
		chart := asciigraph.Plot(values, asciigraph.Height(8), asciigraph.Width(w), asciigraph.Caption("cumulative estimate"))
		s.WriteString(chart + "\n\n")
	}

	if n := len(m.history); n > 0 {
		last := m.history[n-1]
		s.WriteString(row("pass", last.Pass.String()))
		s.WriteString(row("cumulative", last.Cumulative.String()))
		s.WriteString(row("chi2/dof", fmt.Sprintf("%.3f", last.Chi2PerDof)))
	}
	if m.final.Err != nil {
		s.WriteString("\n" + StatusFailed.Render(m.final.Err.Error()) + "\n")
	}
	if !m.done {
		s.WriteString("\n" + Subtle.Render("q to quit") + "\n")
	}
	return Panel.Render(strings.TrimRight(s.String(), "\n")) + "\n"
}

func sortedKeys(m map[string]float64) []string {
	return slices.Sorted(maps.Keys(m))
}
