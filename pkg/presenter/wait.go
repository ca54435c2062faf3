package presenter

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	hintStyle    = lipgloss.NewStyle().Faint(true)
)

type waitModel struct {
	spinner  spinner.Model
	message  string
	cancel   func()
	quitting bool
}

type stopMsg struct{}

func newWaitModel(message string, cancel func()) waitModel {
	return waitModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
		message: message,
		cancel:  cancel,
	}
}

func (m waitModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c", "q":
			m.cancel()
			m.quitting = true
			return m, tea.Quit
		}
	case stopMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m waitModel) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf("%s %s %s", m.spinner.View(), m.message, hintStyle.Render("(esc to stop waiting)"))
}

type cancelSignal struct {
	ch   chan struct{}
	once sync.Once
}

func newCancelSignal() *cancelSignal {
	return &cancelSignal{ch: make(chan struct{})}
}

func (c *cancelSignal) fire() {
	c.once.Do(func() { close(c.ch) })
}

type spinnerWaiter struct {
	program  *tea.Program
	signal   *cancelSignal
	done     chan struct{}
	stopOnce sync.Once
}

func (w *spinnerWaiter) Cancelled() <-chan struct{} {
	return w.signal.ch
}

func (w *spinnerWaiter) Stop() {
	w.stopOnce.Do(func() {
		w.program.Send(stopMsg{})
		<-w.done
	})
}

// lineWaiter is used when there is no terminal to draw on; it cannot be
// cancelled.
type lineWaiter struct {
	signal *cancelSignal
}

func (w *lineWaiter) Cancelled() <-chan struct{} {
	return w.signal.ch
}

func (w *lineWaiter) Stop() {}

// Wait shows a spinner with message until Stop is called. Pressing Esc
// closes the Cancelled channel.
func (p *TerminalPresenter) Wait(message string) Waiter {
	signal := newCancelSignal()
	if !p.interactive || p.quiet {
		p.Info(message)
		return &lineWaiter{signal: signal}
	}

	program := tea.NewProgram(
		newWaitModel(message, signal.fire),
		tea.WithInput(p.input),
		tea.WithOutput(p.output),
	)
	w := &spinnerWaiter{program: program, signal: signal, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		_, _ = program.Run()
	}()
	return w
}
