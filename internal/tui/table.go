package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const tickInterval = 120 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type tickMsg time.Time

// SetFieldsMsg replaces named fields of the row with Key.
type SetFieldsMsg struct {
	Key    string
	Fields map[string]string
}

// FinishedMsg ends the program after all work completed.
type FinishedMsg struct{}

// AbortMsg ends the program with a fatal error.
type AbortMsg struct {
	Err error
}

// Column is one table column. Width is a minimum; the header always fits.
type Column struct {
	Header string
	Width  int
}

type row struct {
	key    string
	fields []string
}

// TableModel renders a live table, one row per tracked item, with a status
// column colored by StatusStyle and a spinner footer while work runs.
type TableModel struct {
	title     string
	verb      string
	columns   []Column
	rows      []row
	index     map[string]int
	statusCol int
	tick      int
	done      bool
	err       error
}

// NewTableModel builds a table. verb labels the footer ("Downloading 1/3").
func NewTableModel(title, verb string, columns ...Column) TableModel {
	statusCol := -1
	for i, c := range columns {
		if strings.EqualFold(c.Header, "STATUS") {
			statusCol = i
			break
		}
	}
	return TableModel{
		title:     title,
		verb:      verb,
		columns:   columns,
		index:     make(map[string]int),
		statusCol: statusCol,
	}
}

// AddRow registers a row before the program starts.
func (m *TableModel) AddRow(key string, fields ...string) {
	padded := make([]string, len(m.columns))
	copy(padded, fields)
	m.index[key] = len(m.rows)
	m.rows = append(m.rows, row{key: key, fields: padded})
}

// Field returns the current value of header in row key.
func (m TableModel) Field(key, header string) string {
	i, ok := m.index[key]
	if !ok {
		return ""
	}
	for j, c := range m.columns {
		if c.Header == header {
			return m.rows[i].fields[j]
		}
	}
	return ""
}

func nextTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m TableModel) Init() tea.Cmd { return nextTick() }

func (m TableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.tick++
		if m.done {
			return m, nil
		}
		return m, nextTick()
	case SetFieldsMsg:
		m.set(msg)
		return m, nil
	case FinishedMsg:
		m.done = true
		return m, tea.Quit
	case AbortMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	case tea.KeyMsg:
		if s := msg.String(); s == "ctrl+c" || s == "q" {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *TableModel) set(msg SetFieldsMsg) {
	i, ok := m.index[msg.Key]
	if !ok {
		return
	}
	for j, c := range m.columns {
		if v, ok := msg.Fields[c.Header]; ok {
			m.rows[i].fields[j] = v
		}
	}
}

func (m TableModel) View() string {
	if m.done && m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	widths := make([]int, len(m.columns))
	for i, c := range m.columns {
		widths[i] = max(len(c.Header), c.Width)
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(TitleStyle.Render(m.title))
		b.WriteString("\n\n")
	}

	cells := make([]string, len(m.columns))
	for i, c := range m.columns {
		cells[i] = HeaderStyle.Render(pad(c.Header, widths[i]))
	}
	b.WriteString(strings.Join(cells, "  "))
	b.WriteByte('\n')

	for _, r := range m.rows {
		for i := range m.columns {
			v := TruncateWithEllipsis(r.fields[i], widths[i])
			if i == m.statusCol {
				cells[i] = StatusStyle(v).Render(pad(v, widths[i]))
			} else {
				cells[i] = pad(v, widths[i])
			}
		}
		b.WriteString(strings.Join(cells, "  "))
		b.WriteByte('\n')
	}

	if !m.done {
		finished, total := m.progress()
		fmt.Fprintf(&b, "\n%s %s %d/%d...\n", spinnerFrames[m.tick%len(spinnerFrames)], m.verb, finished, total)
	}
	return b.String()
}

// progress counts rows whose status reached a terminal state.
func (m TableModel) progress() (int, int) {
	if m.statusCol < 0 {
		return 0, len(m.rows)
	}
	n := 0
	for _, r := range m.rows {
		if Terminal(strings.TrimSpace(r.fields[m.statusCol])) {
			n++
		}
	}
	return n, len(m.rows)
}

// Done reports whether the program finished.
func (m TableModel) Done() bool { return m.done }

// Err returns the fatal error, if any.
func (m TableModel) Err() error { return m.err }

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// NonEmptyOrDash returns "-" for blank values.
func NonEmptyOrDash(value string) string {
	if value = strings.TrimSpace(value); value == "" {
		return "-"
	}
	return value
}

// TruncateWithEllipsis shortens value to max bytes, ending in "..." when
// there is room for it.
func TruncateWithEllipsis(value string, max int) string {
	if max <= 0 {
		return ""
	}
	value = strings.TrimSpace(value)
	switch {
	case len(value) <= max:
		return value
	case max <= 3:
		return value[:max]
	default:
		return value[:max-3] + "..."
	}
}
