package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/interlude/internal/schedule"
)

var (
	onStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	offStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	cellStyle   = lipgloss.NewStyle().Width(5).Align(lipgloss.Center)
	labelStyle  = lipgloss.NewStyle().Width(7)
)

// Table provides a simple table formatter.
type Table struct {
	w       *tabwriter.Writer
	headers []string
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return NewTableWriter(os.Stdout, headers...)
}

// NewTableWriter creates a table writing to a specific writer.
func NewTableWriter(out io.Writer, headers ...string) *Table {
	t := &Table{
		w:       tabwriter.NewWriter(out, 0, 0, 2, ' ', 0),
		headers: headers,
	}
	if len(headers) > 0 {
		_, _ = t.w.Write([]byte(strings.Join(headers, "\t") + "\n"))
	}
	return t
}

// Row adds a row to the table.
func (t *Table) Row(values ...string) {
	_, _ = t.w.Write([]byte(strings.Join(values, "\t") + "\n"))
}

// Flush writes the table output.
func (t *Table) Flush() {
	_ = t.w.Flush()
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// StatusIcon returns an icon for the given boolean status.
func StatusIcon(active bool) string {
	if active {
		return "●"
	}
	return "○"
}

// TruncateString truncates a string to maxLen, adding "..." if truncated.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// FormatDuration formats a duration in seconds as mm:ss or hh:mm:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// formatClock formats a duration for the timer display, rounding up so a
// running timer never shows 0:00 before it expires.
func formatClock(d time.Duration) string {
	return FormatDuration(int((d + time.Second - 1) / time.Second))
}

// renderWeekGrid draws the base weekly pattern as slots by days.
func renderWeekGrid(base schedule.WeeklyPattern) string {
	var b strings.Builder

	header := []string{labelStyle.Render("")}
	for _, d := range schedule.Days() {
		header = append(header, cellStyle.Inherit(headerStyle).Render(d.String()[:3]))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, header...))
	b.WriteByte('\n')

	for _, slot := range schedule.Slots() {
		row := []string{labelStyle.Render(slot)}
		for _, d := range schedule.Days() {
			row = append(row, cellStyle.Render(slotMark(base[d].Fires(slot))))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row...))
		b.WriteByte('\n')
	}
	return b.String()
}

// renderDay draws one day's slots on a single line.
func renderDay(d schedule.DaySchedule) string {
	if d.WholeDay {
		return onStyle.Render("all day")
	}
	active := d.ActiveSlots()
	if len(active) == 0 {
		return offStyle.Render("off")
	}
	return strings.Join(active, " ")
}

func slotMark(on bool) string {
	if on {
		return onStyle.Render("●")
	}
	return offStyle.Render("·")
}
