package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rebeliceyang/pglens/internal/ui/theme"
)

const (
	maxColumnWidth = 40
	minColumnWidth = 4
)

// TableView renders a result set. It holds no state of its own beyond
// what the caller sets before View.
type TableView struct {
	Columns  []string
	Rows     [][]string
	Selected int
	Page     int
	Width    int
	Height   int
	Focused  bool
	Theme    theme.Theme
}

// ColumnWidths sizes each column by display width, clamped to sane bounds
func ColumnWidths(columns []string, rows [][]string) []int {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = runewidth.StringWidth(col)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			widths[i] = max(widths[i], runewidth.StringWidth(firstLine(cell)))
		}
	}
	for i := range widths {
		widths[i] = min(max(widths[i], minColumnWidth), maxColumnWidth)
	}
	return widths
}

// Fit pads or truncates s to exactly width display cells
func Fit(s string, width int) string {
	s = firstLine(s)
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

// VisibleRange returns the [top, end) window of rows that keeps selected
// on screen
func VisibleRange(selected, total, visible int) (int, int) {
	if visible <= 0 || total == 0 {
		return 0, 0
	}
	top := 0
	if selected >= visible {
		top = selected - visible + 1
	}
	end := min(top+visible, total)
	return top, end
}

// View renders the table
func (tv *TableView) View() string {
	muted := lipgloss.NewStyle().Foreground(tv.Theme.Muted).Italic(true)
	if len(tv.Columns) == 0 {
		return muted.Render("No data")
	}

	widths := ColumnWidths(tv.Columns, tv.Rows)
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(tv.Theme.TableHeader)
	b.WriteString(headerStyle.Render(tv.line(tv.Columns, widths)))
	b.WriteString("\n")

	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("─", w)
	}
	b.WriteString(lipgloss.NewStyle().Foreground(tv.Theme.Border).Render("─" + strings.Join(sep, "─┼─") + "─"))

	visible := tv.Height - 3 // header, separator, footer
	top, end := VisibleRange(tv.Selected, len(tv.Rows), visible)
	selectedStyle := lipgloss.NewStyle().Background(tv.Theme.TableRowSelected).Bold(true)
	for i := top; i < end; i++ {
		b.WriteString("\n")
		line := tv.line(tv.Rows[i], widths)
		if i == tv.Selected && tv.Focused {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
	}

	b.WriteString("\n")
	if len(tv.Rows) == 0 {
		b.WriteString(muted.Render(fmt.Sprintf(" page %d · no rows", tv.Page+1)))
	} else {
		b.WriteString(muted.Render(fmt.Sprintf(" page %d · row %d of %d", tv.Page+1, tv.Selected+1, len(tv.Rows))))
	}
	return b.String()
}

func (tv *TableView) line(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = Fit(cell, w)
	}
	line := " " + strings.Join(parts, " │ ") + " "
	if tv.Width > 0 && runewidth.StringWidth(line) > tv.Width {
		line = runewidth.Truncate(line, tv.Width, "…")
	}
	return line
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i] + "…"
	}
	return s
}
