package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// RunWithWork starts a bubbletea program for table, runs workFn in a
// goroutine and blocks until the program exits. workFn receives a send
// callback for row updates; WorkDoneMsg is sent once it returns. An ErrorMsg
// sent by workFn is returned as the error. opts are appended to the program
// options.
func RunWithWork(out io.Writer, table Table, workFn func(send func(tea.Msg)), opts ...tea.ProgramOption) error {
	p := tea.NewProgram(table, append([]tea.ProgramOption{tea.WithOutput(out)}, opts...)...)

	go func() {
		workFn(p.Send)
		p.Send(WorkDoneMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return err
	}
	if final, ok := finalModel.(Table); ok {
		return final.Err()
	}
	return nil
}
