package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rebeliceyang/pglens/internal/ui/theme"
)

// ListView renders the table list. Active marks the opened table.
type ListView struct {
	Items    []string
	Selected int
	Active   string
	Width    int
	Height   int
	Focused  bool
	Theme    theme.Theme
}

// View renders the list
func (lv *ListView) View() string {
	if len(lv.Items) == 0 {
		return lipgloss.NewStyle().Foreground(lv.Theme.Muted).Italic(true).Render("(no tables)")
	}

	selected := lipgloss.NewStyle().Background(lv.Theme.Selection).Bold(true)
	if lv.Focused {
		selected = selected.Foreground(lv.Theme.BorderFocused)
	}
	active := lipgloss.NewStyle().Foreground(lv.Theme.Info)

	top, end := VisibleRange(lv.Selected, len(lv.Items), lv.Height)
	lines := make([]string, 0, end-top)
	for i := top; i < end; i++ {
		marker := "  "
		if lv.Items[i] == lv.Active {
			marker = "▸ "
		}
		text := marker + lv.Items[i]
		if lv.Width > 0 {
			text = Fit(text, lv.Width)
		}
		switch {
		case i == lv.Selected:
			text = selected.Render(text)
		case lv.Items[i] == lv.Active:
			text = active.Render(text)
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

// Popup renders a small bordered list, used for completion suggestions
func Popup(items []string, selected, maxVisible int, th theme.Theme) string {
	if len(items) == 0 {
		return ""
	}
	width := 0
	for _, it := range items {
		width = max(width, runewidth.StringWidth(it))
	}
	width = min(width, maxColumnWidth)

	top, end := VisibleRange(selected, len(items), maxVisible)
	sel := lipgloss.NewStyle().Background(th.PopupSelected).Bold(true)
	lines := make([]string, 0, end-top)
	for i := top; i < end; i++ {
		line := " " + Fit(items[i], width) + " "
		if i == selected {
			line = sel.Render(line)
		}
		lines = append(lines, line)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(th.Border).
		Background(th.PopupBackground).
		Render(strings.Join(lines, "\n"))
}
