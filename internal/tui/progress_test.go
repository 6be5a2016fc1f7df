package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestTable() Table {
	table := NewTable([]Column{
		{Header: "CRATE", Width: 12},
		{Header: "INSTALLED", Width: 9},
		{Header: "LATEST", Width: 9},
		{Header: "STATUS", Width: 8},
	})
	table.AddRow("ripgrep", []string{"ripgrep", "13.0.0", "-", StatusPending})
	table.AddRow("fd-find", []string{"fd-find", "8.7.0", "-", StatusPending})
	return table
}

func TestTableRowUpdate(t *testing.T) {
	table := newTestTable()

	next, _ := table.Update(RowUpdateMsg{Key: "ripgrep", Fields: map[string]string{
		"LATEST": "14.1.0",
		"STATUS": StatusUpgrade,
	}})
	table = next.(Table)

	rows := table.rows
	if got := rows[0].Fields[2]; got != "14.1.0" {
		t.Errorf("LATEST = %q, want 14.1.0", got)
	}
	if got := rows[0].Fields[3]; got != StatusUpgrade {
		t.Errorf("STATUS = %q, want %q", got, StatusUpgrade)
	}
	if got := rows[1].Fields[3]; got != StatusPending {
		t.Errorf("untouched row STATUS = %q", got)
	}
}

func TestTableIgnoresUnknownRow(t *testing.T) {
	table := newTestTable()
	next, _ := table.Update(RowUpdateMsg{Key: "bat", Fields: map[string]string{"STATUS": StatusError}})
	table = next.(Table)

	for _, row := range table.rows {
		if row.Fields[3] != StatusPending {
			t.Fatalf("row %s changed: %v", row.Key, row.Fields)
		}
	}
}

func TestTableProgressCounts(t *testing.T) {
	table := newTestTable()
	table.Set("fd-find", map[string]string{"STATUS": StatusChecking})
	if processed, total := table.progressCounts(); processed != 0 || total != 2 {
		t.Fatalf("progress = %d/%d, want 0/2", processed, total)
	}

	table.Set("ripgrep", map[string]string{"STATUS": StatusCurrent})
	if processed, _ := table.progressCounts(); processed != 1 {
		t.Fatalf("processed = %d, want 1", processed)
	}
}

func TestTableWorkDoneQuits(t *testing.T) {
	table := newTestTable()
	next, cmd := table.Update(WorkDoneMsg{})
	table = next.(Table)

	if !table.done {
		t.Fatal("expected table to be done")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
	if strings.Contains(table.View(), "Checking") {
		t.Error("finished view still shows progress footer")
	}
}

func TestTableErrorView(t *testing.T) {
	table := newTestTable()
	next, _ := table.Update(ErrorMsg{Err: errors.New("index unreachable")})
	table = next.(Table)

	if table.Err() == nil {
		t.Fatal("expected error to be recorded")
	}
	if view := table.View(); !strings.Contains(view, "index unreachable") {
		t.Fatalf("view = %q", view)
	}
}

func TestTableRenderLayout(t *testing.T) {
	table := newTestTable()
	lines := strings.Split(strings.TrimRight(table.Render(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("rendered %d lines, want 3:\n%s", len(lines), table.Render())
	}
	for _, want := range []string{"CRATE", "INSTALLED", "LATEST", "STATUS"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("header missing %s: %q", want, lines[0])
		}
	}
	if !strings.HasPrefix(lines[1], "ripgrep") {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"cargo-watch", 20, "cargo-watch"},
		{"cargo-watch", 8, "cargo..."},
		{"cargo-watch", 3, "car"},
		{"cargo-watch", 0, ""},
	}
	for _, tc := range cases {
		if got := TruncateWithEllipsis(tc.in, tc.limit); got != tc.want {
			t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestNonEmptyOrDash(t *testing.T) {
	if got := NonEmptyOrDash("  "); got != "-" {
		t.Errorf("NonEmptyOrDash(blank) = %q", got)
	}
	if got := NonEmptyOrDash("1.0.0"); got != "1.0.0" {
		t.Errorf("NonEmptyOrDash(1.0.0) = %q", got)
	}
}

func TestDetectMode(t *testing.T) {
	var buf bytes.Buffer
	if got := DetectMode(&buf, false, true); got != ModeJSON {
		t.Errorf("json flag: got %v", got)
	}
	if got := DetectMode(&buf, true, false); got != ModePlain {
		t.Errorf("plain flag: got %v", got)
	}
	if got := DetectMode(&buf, false, false); got != ModePlain {
		t.Errorf("non-file writer: got %v", got)
	}
}

func TestRunWithWorkCompletes(t *testing.T) {
	var out bytes.Buffer
	err := RunWithWork(&out, newTestTable(), func(send func(tea.Msg)) {
		send(RowUpdateMsg{Key: "ripgrep", Fields: map[string]string{"STATUS": StatusCurrent}})
	}, tea.WithInput(nil))
	if err != nil {
		t.Fatalf("RunWithWork: %v", err)
	}
	if !strings.Contains(out.String(), "ripgrep") {
		t.Errorf("expected rendered rows, got %q", out.String())
	}
}

func TestRunWithWorkReturnsWorkError(t *testing.T) {
	var out bytes.Buffer
	err := RunWithWork(&out, newTestTable(), func(send func(tea.Msg)) {
		send(ErrorMsg{Err: errors.New("index unreachable")})
	}, tea.WithInput(nil))
	if err == nil || err.Error() != "index unreachable" {
		t.Fatalf("RunWithWork error = %v, want index unreachable", err)
	}
}
