package app

import (
	"fmt"
	"strings"

	bhelp "github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/pglens/internal/models"
	"github.com/rebeliceyang/pglens/internal/ui/components"
	"github.com/rebeliceyang/pglens/internal/ui/help"
	"github.com/rebeliceyang/pglens/internal/ui/theme"
)

const (
	minWidth  = 40
	minHeight = 10

	completionRows = 8
)

// View implements tea.Model. It only reads state.
func (a *App) View() string {
	if a.width <= 0 || a.height <= 0 {
		return "Starting…"
	}
	th := theme.GetTheme(a.state.ThemeName)

	if a.showHelp {
		return help.Render(a.width, a.height, help.Sections(a.keys.FullHelp()), th)
	}
	if a.width < minWidth || a.height < minHeight {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, "Terminal too small")
	}

	bodyHeight := a.height - 2
	var body string
	if a.state.Tab == models.SQLTab {
		body = a.renderSQL(th, bodyHeight)
	} else {
		body = a.renderBrowse(th, bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderTopBar(th),
		body,
		a.renderStatusBar(th),
	)
}

func (a *App) renderTopBar(th theme.Theme) string {
	s := a.state
	tabs := ""
	for _, t := range []models.Tab{models.BrowseTab, models.SQLTab} {
		label := fmt.Sprintf(" %s ", t)
		if t == s.Tab {
			label = lipgloss.NewStyle().Bold(true).Reverse(true).Render(label)
		}
		tabs += label
	}

	right := fmt.Sprintf("%s · schema %s", s.Target.Redacted(), s.Schema)
	return lipgloss.NewStyle().
		Width(a.width).
		Background(th.BorderFocused).
		Foreground(th.Background).
		Render(spread("pglens "+tabs, right, a.width))
}

func (a *App) renderStatusBar(th theme.Theme) string {
	statusColor := th.Foreground
	if strings.HasPrefix(a.state.Status, "Error:") {
		statusColor = th.Error
	}
	status := lipgloss.NewStyle().Foreground(statusColor).Render(a.state.Status)

	h := bhelp.New()
	h.Width = max(a.width/2, 20)
	hint := h.ShortHelpView(a.keys.ShortHelp())

	return lipgloss.NewStyle().
		Width(a.width).
		Background(th.Selection).
		Render(spread(status, hint, a.width))
}

func (a *App) renderBrowse(th theme.Theme, height int) string {
	s := a.state
	leftWidth := max(a.width/4, 20)
	rightWidth := a.width - leftWidth

	left := components.Panel{
		Title:   fmt.Sprintf("Tables (%d)", len(s.Tables)),
		Width:   leftWidth,
		Height:  height,
		Focused: s.Focus == models.FocusTables,
		Theme:   th,
	}
	w, h := left.InnerSize()
	list := components.ListView{
		Items:    s.Tables,
		Selected: s.TableCursor,
		Active:   s.OpenedTable,
		Width:    w,
		Height:   h,
		Focused:  left.Focused,
		Theme:    th,
	}
	left.Content = list.View()

	title := "Results"
	if s.OpenedTable != "" {
		title = fmt.Sprintf("%s.%s", s.Schema, s.OpenedTable)
	}
	right := components.Panel{
		Title:   title,
		Width:   rightWidth,
		Height:  height,
		Focused: s.Focus == models.FocusResults,
		Theme:   th,
	}
	right.Content = a.renderResults(&right, th)

	return lipgloss.JoinHorizontal(lipgloss.Top, left.View(), right.View())
}

func (a *App) renderSQL(th theme.Theme, height int) string {
	s := a.state
	editorHeight := max(height*2/5, 6)

	editor := components.Panel{
		Title:   "SQL",
		Width:   a.width,
		Height:  editorHeight,
		Focused: s.Focus == models.FocusSQLEditor,
		Theme:   th,
	}
	w, h := editor.InnerSize()

	popup := ""
	if s.Completion.Visible {
		popup = components.Popup(s.Completion.Items, s.Completion.Selected, completionRows, th)
		h -= lipgloss.Height(popup)
	}
	view := components.SQLEditorView{
		Text:    s.SQLText,
		Cursor:  s.SQLCursor,
		Width:   w,
		Height:  max(h, 1),
		Focused: editor.Focused,
		Theme:   th,
	}
	editor.Content = view.View()
	if popup != "" {
		editor.Content = lipgloss.JoinVertical(lipgloss.Left, editor.Content, popup)
	}
	if !s.CompletionEnabled {
		editor.Title = "SQL (completion off)"
	}

	title := "Results"
	if s.LastCommandResult != "" {
		title = "Results · " + s.LastCommandResult
	}
	results := components.Panel{
		Title:   title,
		Width:   a.width,
		Height:  height - editorHeight,
		Focused: s.Focus == models.FocusResults,
		Theme:   th,
	}
	results.Content = a.renderResults(&results, th)

	return lipgloss.JoinVertical(lipgloss.Left, editor.View(), results.View())
}

func (a *App) renderResults(p *components.Panel, th theme.Theme) string {
	w, h := p.InnerSize()
	tv := components.TableView{
		Columns:  a.state.Columns,
		Rows:     a.state.Rows,
		Selected: a.state.RowCursor,
		Page:     a.state.Page,
		Width:    w,
		Height:   h,
		Focused:  p.Focused,
		Theme:    th,
	}
	return tv.View()
}

// spread places left and right at the two ends of a line of width cells
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return lipgloss.NewStyle().MaxWidth(max(width, 0)).Render(left)
	}
	return left + lipgloss.NewStyle().Width(gap).Render("") + right
}
