package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var summaryStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("42")).
	Padding(0, 1)

// summaryBox renders the post-run totals in a bordered box, printed once
// the animated progress bar has cleared the screen.
func summaryBox(path string, generated, discarded int) string {
	return summaryStyle.Render(fmt.Sprintf("wrote %s\ngenerated=%d discarded=%d", path, generated, discarded))
}

// progressMsg is one datagen tick fed into the bubbletea program from the
// run's event bus subscriber.
type progressMsg struct {
	generated, discarded, total int
	done                        bool
}

// progressModel renders a single bubbles progress bar for a datagen run.
// The bar width follows the terminal width reported by tea.WindowSizeMsg.
type progressModel struct {
	bar     progress.Model
	current progressMsg
}

func newProgressModel(total int) progressModel {
	return progressModel{
		bar:     progress.New(progress.WithDefaultGradient()),
		current: progressMsg{total: total},
	}
}

func (m progressModel) Init() tea.Cmd { return nil }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 4
		return m, nil
	case progressMsg:
		m.current = msg
		if msg.done {
			return m, tea.Quit
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	pct := 0.0
	if m.current.total > 0 {
		pct = float64(m.current.generated) / float64(m.current.total)
	}
	return fmt.Sprintf("%s  generated=%d discarded=%d\n",
		m.bar.ViewAs(pct), m.current.generated, m.current.discarded)
}

// isInteractiveTerminal reports whether stdout is a real terminal, i.e.
// whether the animated bubbles progress bar makes sense versus plain log
// lines (piped output, CI, tests).
func isInteractiveTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// runProgressTUI drives a bubbletea program off progressEvent values
// forwarded on updates, quitting once a done event arrives. It returns once
// the program exits so the caller can print its final summary line after
// the bar is gone from the screen.
func runProgressTUI(updates <-chan progressMsg, total int) {
	p := tea.NewProgram(newProgressModel(total))
	go func() {
		for u := range updates {
			p.Send(u)
		}
	}()
	_, _ = p.Run()
}
