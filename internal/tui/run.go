package tui

import (
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RunTable starts a bubbletea program for model, runs work in a goroutine
// and blocks until the program exits. work sends row updates through send;
// when it returns, the table is finished, or aborted if it returned an error.
func RunTable(in io.Reader, out io.Writer, model TableModel, work func(send func(tea.Msg)) error) error {
	opts := []tea.ProgramOption{tea.WithOutput(out)}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	p := tea.NewProgram(model, opts...)

	go func() {
		// Give the program a moment to draw its first frame.
		time.Sleep(50 * time.Millisecond)
		if err := work(p.Send); err != nil {
			p.Send(AbortMsg{Err: err})
			return
		}
		p.Send(FinishedMsg{})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(TableModel); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}
