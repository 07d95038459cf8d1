package app

import "github.com/rebeliceyang/pglens/internal/models"

// Intent is a decoded user action. The key map produces intents; the
// reducer consumes them.
type Intent interface {
	intent()
}

// Direction is used by navigation, paging and history recall
type Direction int

const (
	Up Direction = iota
	Down
)

type (
	// Quit ends the session
	Quit struct{}

	// SwitchTab activates a tab and moves focus to its default pane
	SwitchTab struct{ Tab models.Tab }

	// ToggleFocus cycles focus between the panes of the current tab
	ToggleFocus struct{}

	// Nav moves the selection of the focused list by one
	Nav struct{ Dir Direction }

	// Page moves the opened table one page back (Up) or forward (Down)
	Page struct{ Dir Direction }

	// OpenSelection opens the selected table, or inserts a newline in the editor
	OpenSelection struct{}

	// Refresh reloads the table list and the completion catalog
	Refresh struct{}

	InsertRune  struct{ R rune }
	Backspace   struct{}
	Newline     struct{}
	CursorLeft  struct{}
	CursorRight struct{}

	// ExecuteSQL runs the editor buffer
	ExecuteSQL struct{}

	// Reconnect reopens the connection and reloads the schema
	Reconnect struct{}

	CycleTheme struct{}

	// SetTheme switches to a named theme, used when the config file changes
	SetTheme struct{ Name string }

	ToggleCompletion  struct{}
	AcceptCompletion  struct{}
	DismissCompletion struct{}

	// RecallHistory replaces the editor buffer with an older (Up) or newer
	// (Down) statement
	RecallHistory struct{ Dir Direction }

	// SearchHistory narrows the recalled statements to those containing the
	// editor text, or restores the full history when the editor is empty
	SearchHistory struct{}

	// ExportResults writes the loaded rows to a CSV file, or JSON when set
	ExportResults struct{ JSON bool }

	// CopyRow copies the selected row to the clipboard
	CopyRow struct{}
)

func (Quit) intent()              {}
func (SwitchTab) intent()         {}
func (ToggleFocus) intent()       {}
func (Nav) intent()               {}
func (Page) intent()              {}
func (OpenSelection) intent()     {}
func (Refresh) intent()           {}
func (InsertRune) intent()        {}
func (Backspace) intent()         {}
func (Newline) intent()           {}
func (CursorLeft) intent()        {}
func (CursorRight) intent()       {}
func (ExecuteSQL) intent()        {}
func (Reconnect) intent()         {}
func (CycleTheme) intent()        {}
func (SetTheme) intent()          {}
func (ToggleCompletion) intent()  {}
func (AcceptCompletion) intent()  {}
func (DismissCompletion) intent() {}
func (RecallHistory) intent()     {}
func (SearchHistory) intent()     {}
func (ExportResults) intent()     {}
func (CopyRow) intent()           {}
