package tui

// RowUpdateMsg updates a single row's fields by column header.
type RowUpdateMsg struct {
	Key    string
	Fields map[string]string
}

// WorkDoneMsg signals that every crate has been checked.
type WorkDoneMsg struct{}

// ErrorMsg signals a fatal error; the program quits and View reports it.
type ErrorMsg struct {
	Err error
}
