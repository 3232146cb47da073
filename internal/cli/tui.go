package cli

import (
	"strings"

	bprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/pacstage/pkg/progress"
)

// maxBarWidth caps the progress bar on wide terminals.
const maxBarWidth = 72

// statusMsg carries a reporter substatus into the watch model.
type statusMsg struct {
	text    string
	percent float64 // 0 to 100
}

// doneMsg signals that every package of the transaction was applied.
type doneMsg struct{}

// watchModel is the bubbletea model of the watch command: a progress bar
// over the current transaction step.
type watchModel struct {
	id       string
	bar      bprogress.Model
	status   string
	percent  float64
	done     bool
	quitting bool
}

func newWatchModel(id string) watchModel {
	return watchModel{
		id:     id,
		bar:    bprogress.New(bprogress.WithDefaultGradient(), bprogress.WithWidth(40)),
		status: "Waiting for pacman output...",
	}
}

func (m watchModel) Init() tea.Cmd {
	return nil
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-4, maxBarWidth)
	case statusMsg:
		m.status = msg.text
		m.percent = msg.percent
		return m, m.bar.SetPercent(msg.percent / 100)
	case doneMsg:
		m.done = true
		return m, tea.Sequence(m.bar.SetPercent(1), tea.Quit)
	case bprogress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(bprogress.Model)
		return m, cmd
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Transaction " + m.id[:8]))
	b.WriteString("\n\n  ")
	b.WriteString(m.bar.View())
	b.WriteString("\n  ")
	if m.done {
		b.WriteString(styleIconSuccess.Render(iconSuccess) + " Transaction complete")
	} else {
		b.WriteString(StyleDim.Render(m.status))
	}
	b.WriteString("\n")
	if !m.done && !m.quitting {
		b.WriteString(StyleDim.Render("\n  q quit"))
		b.WriteString("\n")
	}
	return b.String()
}

// teaWatcher forwards reporter substatus to a running program.
type teaWatcher struct {
	progress.NopWatcher
	program *tea.Program
	percent func() float64
}

func (w *teaWatcher) ChangeSubstatus(text string) {
	w.program.Send(statusMsg{text: text, percent: w.percent()})
}
