package models

// Tab identifies the active top-level tab
type Tab int

const (
	BrowseTab Tab = iota
	SQLTab
)

func (t Tab) String() string {
	switch t {
	case BrowseTab:
		return "Browse"
	case SQLTab:
		return "SQL"
	default:
		return "Unknown"
	}
}

// Focus identifies which pane receives navigation and editing input
type Focus int

const (
	FocusTables Focus = iota
	FocusResults
	FocusSQLEditor
)

func (f Focus) String() string {
	switch f {
	case FocusTables:
		return "Tables"
	case FocusResults:
		return "Results"
	case FocusSQLEditor:
		return "SQL Editor"
	default:
		return "Unknown"
	}
}

// MaxCompletionItems bounds the suggestion list
const MaxCompletionItems = 30

// CompletionState is derived from the SQL buffer and recomputed on every
// text-affecting edit
type CompletionState struct {
	Items       []string
	Selected    int
	Visible     bool
	PrefixStart int
}

// Hide clears the suggestion list
func (c *CompletionState) Hide() {
	c.Items = nil
	c.Selected = 0
	c.Visible = false
}

// Catalog maps table names to their column names. It is filled lazily and
// never required to be complete.
type Catalog map[string][]string

// SessionState is the whole foreground state of a session. Only the reducer
// mutates it; the view reads it.
type SessionState struct {
	Target ConnectionTarget

	Tab      Tab
	Focus    Focus
	Schema   string
	PageSize int

	Tables      []string
	TableCursor int
	OpenedTable string
	Page        int
	// PendingPage is the page last requested by paging and not yet loaded,
	// or -1
	PendingPage int

	Columns   []string
	Rows      [][]string
	RowCursor int

	SQLText           string
	SQLCursor         int
	LastCommandResult string

	Completion        CompletionState
	CompletionEnabled bool
	Catalog           Catalog

	// History holds previously executed statements, newest first
	History       []string
	HistoryCursor int

	Status    string
	ThemeName string
}

// NewSessionState creates the initial state for a target
func NewSessionState(target ConnectionTarget) *SessionState {
	return &SessionState{
		Target:            target,
		Tab:               BrowseTab,
		Focus:             FocusTables,
		Schema:            target.Schema,
		PageSize:          target.PageSize,
		CompletionEnabled: true,
		Catalog:           Catalog{},
		PendingPage:       -1,
		HistoryCursor:     -1,
		Status:            "Starting…",
		ThemeName:         "default",
	}
}

// SelectedTable returns the table under the cursor, or "" when the list is empty
func (s *SessionState) SelectedTable() string {
	if s.TableCursor < 0 || s.TableCursor >= len(s.Tables) {
		return ""
	}
	return s.Tables[s.TableCursor]
}

// SelectedRow returns the result row under the cursor, or nil
func (s *SessionState) SelectedRow() []string {
	if s.RowCursor < 0 || s.RowCursor >= len(s.Rows) {
		return nil
	}
	return s.Rows[s.RowCursor]
}
