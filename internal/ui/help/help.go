package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/pglens/internal/ui/theme"
)

// Section is a titled group of bindings
type Section struct {
	Title    string
	Bindings []key.Binding
}

// Sections names the groups of a full help layout
func Sections(groups [][]key.Binding) []Section {
	titles := []string{"Navigation", "SQL Editor", "Session"}
	sections := make([]Section, 0, len(groups))
	for i, g := range groups {
		title := "More"
		if i < len(titles) {
			title = titles[i]
		}
		sections = append(sections, Section{Title: title, Bindings: g})
	}
	return sections
}

// Render creates the help view
func Render(width, height int, sections []Section, th theme.Theme) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.BorderFocused).
		Padding(1, 0)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.Info).
		Padding(0, 0, 0, 2)

	keyStyle := lipgloss.NewStyle().
		Foreground(th.Warning).
		Width(16)

	descStyle := lipgloss.NewStyle().
		Foreground(th.Foreground)

	var b strings.Builder
	b.WriteString(titleStyle.Render("pglens keys"))
	b.WriteString("\n")

	for _, s := range sections {
		b.WriteString(sectionStyle.Render(s.Title))
		b.WriteString("\n")
		for _, kb := range s.Bindings {
			h := kb.Help()
			if h.Key == "" {
				continue
			}
			b.WriteString("    ")
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(descStyle.Render(h.Desc))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Foreground(th.Muted).Italic(true).Render("  Press ? or Esc to close"))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, b.String())
}
