package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type waitDoneMsg struct {
	err error
}

// waitSpinnerModel shows a spinner, a label and the elapsed time while a
// blocking engine call runs.
type waitSpinnerModel struct {
	spinner spinner.Model
	elapsed lipgloss.Style
	label   string
	started time.Time
	now     func() time.Time
	wait    tea.Cmd
	err     error
	done    bool
}

func newWaitSpinnerModel(label string, now func() time.Time, wait tea.Cmd) waitSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return waitSpinnerModel{
		spinner: s,
		elapsed: lipgloss.NewStyle().Faint(true),
		label:   label,
		started: now(),
		now:     now,
		wait:    wait,
	}
}

func (m waitSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.wait)
}

func (m waitSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case waitDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m waitSpinnerModel) View() string {
	if m.done {
		return ""
	}

	seconds := int(m.now().Sub(m.started).Seconds())
	return fmt.Sprintf("%s %s %s", m.spinner.View(), m.label, m.elapsed.Render(fmt.Sprintf("(%ds)", seconds)))
}

// runWaitSpinner renders a spinner on output until wait returns. Closing ctx
// ends the spinner with ctx's error; wait itself is expected to observe ctx.
func runWaitSpinner(ctx context.Context, output io.Writer, label string, wait func() error) error {
	waitCmd := func() tea.Msg {
		return waitDoneMsg{err: wait()}
	}

	p := tea.NewProgram(
		newWaitSpinnerModel(label, time.Now, waitCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	result, ok := finalModel.(waitSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
