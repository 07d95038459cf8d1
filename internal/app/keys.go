package app

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rebeliceyang/pglens/internal/models"
)

// KeyMap holds every binding the session understands
type KeyMap struct {
	BrowseTab  key.Binding
	SQLTab     key.Binding
	Focus      key.Binding
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Open       key.Binding
	Refresh    key.Binding
	Execute    key.Binding
	Reconnect  key.Binding
	Theme      key.Binding
	Completion key.Binding
	Dismiss    key.Binding
	HistPrev   key.Binding
	HistNext   key.Binding
	HistSearch key.Binding
	Export     key.Binding
	ExportJSON key.Binding
	CopyRow    key.Binding
	Help       key.Binding
	Quit       key.Binding
	ForceQuit  key.Binding

	// Editor only
	Left      key.Binding
	Right     key.Binding
	Backspace key.Binding
}

// DefaultKeyMap returns the built-in bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		BrowseTab:  key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "browse")),
		SQLTab:     key.NewBinding(key.WithKeys("f3"), key.WithHelp("F3", "sql")),
		Focus:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("Tab", "focus / accept")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:     key.NewBinding(key.WithKeys("pgup"), key.WithHelp("PgUp", "prev page")),
		PageDown:   key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("PgDn", "next page")),
		Open:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "open / newline")),
		Refresh:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("Ctrl+R", "refresh")),
		Execute:    key.NewBinding(key.WithKeys("ctrl+e", "f5"), key.WithHelp("Ctrl+E/F5", "execute")),
		Reconnect:  key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("Ctrl+O", "reconnect")),
		Theme:      key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("Ctrl+T", "theme")),
		Completion: key.NewBinding(key.WithKeys("ctrl+@", "ctrl+ "), key.WithHelp("Ctrl+Space", "completion")),
		Dismiss:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "dismiss")),
		HistPrev:   key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("Ctrl+P", "older sql")),
		HistNext:   key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("Ctrl+N", "newer sql")),
		HistSearch: key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("Ctrl+F", "search history")),
		Export:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("Ctrl+S", "export csv")),
		ExportJSON: key.NewBinding(key.WithKeys("alt+s"), key.WithHelp("Alt+S", "export json")),
		CopyRow:    key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("Ctrl+Y", "copy row")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit:  key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("Ctrl+C", "quit")),

		Left:      key.NewBinding(key.WithKeys("left")),
		Right:     key.NewBinding(key.WithKeys("right")),
		Backspace: key.NewBinding(key.WithKeys("backspace")),
	}
}

// ShortHelp is shown in the footer
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.BrowseTab, k.SQLTab, k.Focus, k.Execute, k.Help, k.Quit}
}

// FullHelp is shown in the help overlay, one column per group
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.BrowseTab, k.SQLTab, k.Focus, k.Up, k.Down, k.PageUp, k.PageDown, k.Open},
		{k.Execute, k.Completion, k.Dismiss, k.HistPrev, k.HistNext, k.HistSearch},
		{k.Refresh, k.Reconnect, k.Theme, k.Export, k.ExportJSON, k.CopyRow, k.Help, k.Quit, k.ForceQuit},
	}
}

// Decode maps a key press to intents. The same key means different things
// in the editor and in the lists, so the current state is consulted.
func (k KeyMap) Decode(msg tea.KeyMsg, s *models.SessionState) []Intent {
	editing := s.Focus == models.FocusSQLEditor

	switch {
	case key.Matches(msg, k.ForceQuit):
		return []Intent{Quit{}}
	case key.Matches(msg, k.BrowseTab):
		return []Intent{SwitchTab{Tab: models.BrowseTab}}
	case key.Matches(msg, k.SQLTab):
		return []Intent{SwitchTab{Tab: models.SQLTab}}
	case key.Matches(msg, k.Refresh):
		return []Intent{Refresh{}}
	case key.Matches(msg, k.Execute):
		return []Intent{ExecuteSQL{}}
	case key.Matches(msg, k.Reconnect):
		return []Intent{Reconnect{}}
	case key.Matches(msg, k.Theme):
		return []Intent{CycleTheme{}}
	case key.Matches(msg, k.Completion):
		return []Intent{ToggleCompletion{}}
	case key.Matches(msg, k.Export):
		return []Intent{ExportResults{}}
	case key.Matches(msg, k.ExportJSON):
		return []Intent{ExportResults{JSON: true}}
	case key.Matches(msg, k.CopyRow):
		return []Intent{CopyRow{}}
	case key.Matches(msg, k.PageUp):
		return []Intent{Page{Dir: Up}}
	case key.Matches(msg, k.PageDown):
		return []Intent{Page{Dir: Down}}
	case key.Matches(msg, k.Dismiss):
		return []Intent{DismissCompletion{}}
	case key.Matches(msg, k.Open):
		return []Intent{OpenSelection{}}
	case key.Matches(msg, k.Focus):
		if editing && s.Completion.Visible {
			return []Intent{AcceptCompletion{}}
		}
		return []Intent{ToggleFocus{}}
	}

	if editing {
		return k.decodeEditor(msg)
	}

	switch {
	case key.Matches(msg, k.Quit):
		return []Intent{Quit{}}
	case key.Matches(msg, k.Up):
		return []Intent{Nav{Dir: Up}}
	case key.Matches(msg, k.Down):
		return []Intent{Nav{Dir: Down}}
	}
	return nil
}

func (k KeyMap) decodeEditor(msg tea.KeyMsg) []Intent {
	switch msg.Type {
	case tea.KeyUp:
		return []Intent{Nav{Dir: Up}}
	case tea.KeyDown:
		return []Intent{Nav{Dir: Down}}
	case tea.KeySpace:
		return []Intent{InsertRune{R: ' '}}
	case tea.KeyRunes:
		intents := make([]Intent, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			if r == '\n' || r == '\r' {
				intents = append(intents, Newline{})
				continue
			}
			intents = append(intents, InsertRune{R: r})
		}
		return intents
	}

	switch {
	case key.Matches(msg, k.Left):
		return []Intent{CursorLeft{}}
	case key.Matches(msg, k.Right):
		return []Intent{CursorRight{}}
	case key.Matches(msg, k.Backspace):
		return []Intent{Backspace{}}
	case key.Matches(msg, k.HistPrev):
		return []Intent{RecallHistory{Dir: Up}}
	case key.Matches(msg, k.HistNext):
		return []Intent{RecallHistory{Dir: Down}}
	case key.Matches(msg, k.HistSearch):
		return []Intent{SearchHistory{}}
	}
	return nil
}
