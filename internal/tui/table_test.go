package tui

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func downloadTable() TableModel {
	m := NewTableModel("Downloads", "Downloading",
		Column{Header: "VERSION", Width: 8},
		Column{Header: "STATUS", Width: 11},
		Column{Header: "SIZE", Width: 8},
	)
	m.AddRow("1.20", "1.20", "pending")
	m.AddRow("1.19", "1.19", "pending")
	return m
}

func TestSetFieldsMsg(t *testing.T) {
	m := downloadTable()

	updated, _ := m.Update(SetFieldsMsg{Key: "1.20", Fields: map[string]string{"STATUS": "downloaded", "SIZE": "48 MB"}})
	m = updated.(TableModel)

	if got := m.Field("1.20", "STATUS"); got != "downloaded" {
		t.Errorf("STATUS = %q, want downloaded", got)
	}
	if got := m.Field("1.20", "SIZE"); got != "48 MB" {
		t.Errorf("SIZE = %q, want 48 MB", got)
	}
	if got := m.Field("1.19", "STATUS"); got != "pending" {
		t.Errorf("other row STATUS = %q, want pending", got)
	}
}

func TestSetFieldsMsgUnknownKey(t *testing.T) {
	m := downloadTable()
	updated, _ := m.Update(SetFieldsMsg{Key: "9.9", Fields: map[string]string{"STATUS": "error"}})
	m = updated.(TableModel)

	if got := m.Field("1.20", "STATUS"); got != "pending" {
		t.Errorf("STATUS = %q, want pending", got)
	}
	if got := m.Field("9.9", "STATUS"); got != "" {
		t.Errorf("unknown row field = %q, want empty", got)
	}
}

func TestFinishedAndAbort(t *testing.T) {
	m := downloadTable()
	updated, cmd := m.Update(FinishedMsg{})
	if !updated.(TableModel).Done() || cmd == nil {
		t.Fatal("expected done model and quit command")
	}

	m = downloadTable()
	updated, cmd = m.Update(AbortMsg{Err: errors.New("boom")})
	m = updated.(TableModel)
	if !m.Done() || m.Err() == nil || cmd == nil {
		t.Fatal("expected aborted model with error")
	}
	if !strings.Contains(m.View(), "Error: boom") {
		t.Errorf("view = %q, want error text", m.View())
	}
}

func TestViewShowsProgress(t *testing.T) {
	m := downloadTable()
	updated, _ := m.Update(SetFieldsMsg{Key: "1.19", Fields: map[string]string{"STATUS": "cached"}})
	m = updated.(TableModel)

	view := m.View()
	for _, want := range []string{"Downloads", "VERSION", "STATUS", "1.20", "1.19", "cached", "Downloading 1/2"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	updated, _ = m.Update(FinishedMsg{})
	if strings.Contains(updated.(TableModel).View(), "Downloading") {
		t.Error("footer should disappear when finished")
	}
}

func TestTickStopsWhenDone(t *testing.T) {
	m := downloadTable()
	updated, cmd := m.Update(tickMsg{})
	if cmd == nil {
		t.Fatal("expected next tick while running")
	}
	updated, _ = updated.(TableModel).Update(FinishedMsg{})
	if _, cmd = updated.(TableModel).Update(tickMsg{}); cmd != nil {
		t.Error("expected no tick after finish")
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"short", 10, "short"},
		{"/srv/minecraft/mc-1.20.4", 10, "/srv/mi..."},
		{"abcd", 3, "abc"},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := TruncateWithEllipsis(tt.input, tt.max); got != tt.want {
			t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
	}
}

func TestNonEmptyOrDash(t *testing.T) {
	if got := NonEmptyOrDash("  "); got != "-" {
		t.Errorf("got %q, want -", got)
	}
	if got := NonEmptyOrDash(" x "); got != "x" {
		t.Errorf("got %q, want x", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{850 * time.Millisecond, "850ms"},
		{2500 * time.Millisecond, "2.5s"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 7*time.Second, "3m07s"},
	}
	for _, tt := range tests {
		if got := FormatElapsed(tt.d); got != tt.want {
			t.Errorf("FormatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestPhaseLinePrintln(t *testing.T) {
	var buf syncBuf
	pl := NewPhaseLine(&buf)
	pl.Set("acquiring", "1.20")
	pl.Println("downloaded 1.20")
	pl.Stop()
	pl.Stop()

	if !strings.Contains(buf.String(), "downloaded 1.20\n") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestDetectModeNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	if got := DetectMode(&buf, false, false); got != ModePlain {
		t.Errorf("buffer mode = %v, want plain", got)
	}
	if got := DetectMode(&buf, false, true); got != ModeJSON {
		t.Errorf("json flag mode = %v, want json", got)
	}
}

type syncBuf struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuf) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuf) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
