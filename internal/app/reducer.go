package app

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rebeliceyang/pglens/internal/db/worker"
	"github.com/rebeliceyang/pglens/internal/models"
	"github.com/rebeliceyang/pglens/internal/ui/theme"
)

// HistoryLimit is how many past statements are loaded at startup
const HistoryLimit = 50

// SQLSTATE for invalid_schema_name
const codeInvalidSchema = "3F000"

// Status texts set by the reducer itself
const (
	// MsgSQLEmpty answers an execute request with a blank editor
	MsgSQLEmpty = "SQL is empty."

	// MsgSQLTabOnly answers an execute request from the Browse tab
	MsgSQLTabOnly = "Switch to the SQL tab (F3) to run SQL."

	// MsgNoRows answers export and copy requests with nothing loaded
	MsgNoRows = "No rows to export."

	// MsgTablesLoaded follows a non-empty table list
	MsgTablesLoaded = "Tables loaded. Enter to open."
)

// Outcome is what a transition asks of the caller: commands to send to the
// worker in order, and whether the session ends.
type Outcome struct {
	Commands []worker.Command
	Quit     bool
}

func (o *Outcome) send(cmds ...worker.Command) {
	o.Commands = append(o.Commands, cmds...)
}

// InitialCommands opens the connection and loads everything the first
// screen needs
func InitialCommands(s *models.SessionState) []worker.Command {
	return []worker.Command{
		worker.Connect{URL: s.Target.URL},
		worker.LoadTables{Schema: s.Schema},
		worker.LoadCatalog{Schema: s.Schema},
		worker.LoadHistory{Limit: HistoryLimit},
	}
}

// Reduce applies a database event or a user intent to s. Anything else is
// ignored.
func Reduce(s *models.SessionState, msg any) Outcome {
	switch m := msg.(type) {
	case worker.Event:
		return ApplyEvent(s, m)
	case Intent:
		return ApplyIntent(s, m)
	default:
		return Outcome{}
	}
}

// ApplyEvent handles one event from the worker
func ApplyEvent(s *models.SessionState, ev worker.Event) Outcome {
	var out Outcome

	switch e := ev.(type) {
	case worker.Status:
		s.Status = e.Text

	case worker.Error:
		s.PendingPage = -1
		if s.Schema != models.DefaultSchema && isMissingSchema(e, s.Schema) {
			old := s.Schema
			s.Schema = models.DefaultSchema
			s.Tables = nil
			s.TableCursor = 0
			s.OpenedTable = ""
			s.Page = 0
			s.PendingPage = -1
			s.Status = fmt.Sprintf("Schema '%s' not found; falling back to '%s'.", old, models.DefaultSchema)
			out.send(
				worker.LoadTables{Schema: s.Schema},
				worker.LoadCatalog{Schema: s.Schema},
			)
			break
		}
		s.Status = "Error: " + e.Text

	case worker.TablesLoaded:
		s.Tables = e.Tables
		s.TableCursor = 0
		if len(s.Tables) == 0 {
			s.Status = fmt.Sprintf("No tables found in schema '%s'.", s.Schema)
		} else {
			s.Status = MsgTablesLoaded
		}

	case worker.QueryResult:
		s.Columns = e.Columns
		s.Rows = e.Rows
		s.RowCursor = 0
		s.Status = e.Info
		if e.Table != "" {
			s.Page = e.Page
			if e.Page == s.PendingPage {
				s.PendingPage = -1
			}
			if len(e.Columns) > 0 {
				s.Catalog[e.Table] = e.Columns
			}
		}

	case worker.SQLExecuted:
		s.LastCommandResult = e.Info
		s.Status = e.Info

	case worker.CatalogLoaded:
		if e.Schema == s.Schema {
			for table, cols := range e.Columns {
				s.Catalog[table] = cols
			}
		}

	case worker.HistoryLoaded:
		s.History = e.Entries
		s.HistoryCursor = -1
		if e.Match != "" {
			s.Status = fmt.Sprintf("%d statements match '%s'. Ctrl+P to recall.", len(e.Entries), e.Match)
		}
	}

	autoOpen(s, &out)
	return out
}

// autoOpen opens the selected table once a table list arrives and nothing
// is open yet
func autoOpen(s *models.SessionState, out *Outcome) {
	if s.OpenedTable != "" || len(s.Tables) == 0 {
		return
	}
	table := s.SelectedTable()
	if table == "" {
		table = s.Tables[0]
	}
	openTable(s, table, out)
}

// openTable shows page 0 of table
func openTable(s *models.SessionState, table string, out *Outcome) {
	s.OpenedTable = table
	s.Page = 0
	s.PendingPage = -1
	out.send(loadPage(s, 0))
}

// isMissingSchema reports whether e says that schema does not exist. Errors
// about other schemas, such as one named in ad-hoc SQL, do not count.
func isMissingSchema(e worker.Error, schema string) bool {
	if !mentionsName(e.Text, schema) {
		return false
	}
	if e.Code == codeInvalidSchema {
		return true
	}
	text := strings.ToLower(e.Text)
	return strings.Contains(text, "schema") &&
		(strings.Contains(text, "does not exist") || strings.Contains(text, "not found"))
}

// mentionsName reports whether name appears in text as a whole identifier,
// ignoring case and quoting
func mentionsName(text, name string) bool {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$'
	})
	for _, w := range words {
		if strings.EqualFold(w, name) {
			return true
		}
	}
	// names with spaces or punctuation only show up quoted
	return strings.Contains(text, `"`+name+`"`)
}

func loadPage(s *models.SessionState, page int) worker.Command {
	return worker.LoadTablePage{
		Schema:   s.Schema,
		Table:    s.OpenedTable,
		Page:     page,
		PageSize: s.PageSize,
	}
}

// ApplyIntent handles one user intent
func ApplyIntent(s *models.SessionState, in Intent) Outcome {
	var out Outcome
	editing := s.Focus == models.FocusSQLEditor

	switch i := in.(type) {
	case Quit:
		out.Quit = true

	case SwitchTab:
		s.Tab = i.Tab
		if i.Tab == models.SQLTab {
			s.Focus = models.FocusSQLEditor
		} else {
			s.Focus = models.FocusTables
		}
		s.Completion.Hide()
		s.Status = i.Tab.String()

	case ToggleFocus:
		s.Focus = nextFocus(s.Tab, s.Focus)
		s.Completion.Hide()

	case Nav:
		switch s.Focus {
		case models.FocusTables:
			s.TableCursor = step(s.TableCursor, len(s.Tables), i.Dir)
		case models.FocusResults:
			s.RowCursor = step(s.RowCursor, len(s.Rows), i.Dir)
		case models.FocusSQLEditor:
			if s.Completion.Visible {
				moveCompletion(s, i.Dir)
			}
		}

	case Page:
		if s.Tab != models.BrowseTab {
			break
		}
		table := s.OpenedTable
		if table == "" {
			table = s.SelectedTable()
		}
		if table == "" {
			break
		}
		if table != s.OpenedTable {
			openTable(s, table, &out)
			break
		}
		// the page only changes once it has loaded
		page := s.Page
		if s.PendingPage >= 0 {
			page = s.PendingPage
		}
		if i.Dir == Up {
			page = max(page-1, 0)
		} else {
			page++
		}
		s.PendingPage = page
		out.send(loadPage(s, page))

	case OpenSelection:
		if s.Tab == models.BrowseTab {
			table := s.SelectedTable()
			if table == "" {
				break
			}
			openTable(s, table, &out)
		} else if editing {
			insertText(s, "\n")
		}

	case Refresh:
		s.Status = "Refreshing…"
		out.send(
			worker.LoadTables{Schema: s.Schema},
			worker.LoadCatalog{Schema: s.Schema},
		)

	case Reconnect:
		out.send(
			worker.Connect{URL: s.Target.URL},
			worker.LoadTables{Schema: s.Schema},
			worker.LoadCatalog{Schema: s.Schema},
		)

	case InsertRune:
		if editing {
			insertText(s, string(i.R))
		}
	case Backspace:
		if editing {
			deleteBackward(s)
		}
	case Newline:
		if editing {
			insertText(s, "\n")
		}
	case CursorLeft:
		if editing {
			moveLeft(s)
		}
	case CursorRight:
		if editing {
			moveRight(s)
		}

	case ExecuteSQL:
		if s.Tab != models.SQLTab {
			s.Status = MsgSQLTabOnly
			break
		}
		sql := strings.TrimSpace(s.SQLText)
		if sql == "" {
			s.Status = MsgSQLEmpty
			break
		}
		s.Completion.Hide()
		rememberStatement(s, sql)
		out.send(worker.ExecuteSQL{SQL: sql})

	case CycleTheme:
		s.ThemeName = theme.Next(s.ThemeName).Name
		s.Status = "Theme: " + s.ThemeName

	case SetTheme:
		if name := theme.GetTheme(i.Name).Name; name != s.ThemeName {
			s.ThemeName = name
			s.Status = "Theme: " + s.ThemeName
		}

	case ToggleCompletion:
		s.CompletionEnabled = !s.CompletionEnabled
		if s.CompletionEnabled {
			s.Status = "Completion on"
			if editing {
				refreshCompletion(s)
			}
		} else {
			s.Status = "Completion off"
			s.Completion.Hide()
		}

	case AcceptCompletion:
		if editing {
			acceptCompletion(s)
		}

	case DismissCompletion:
		s.Completion.Hide()

	case RecallHistory:
		if editing {
			recallHistory(s, i.Dir)
		}

	case SearchHistory:
		if !editing {
			break
		}
		match := strings.TrimSpace(s.SQLText)
		if match == "" {
			s.Status = "Showing recent history."
		} else {
			s.Status = fmt.Sprintf("Searching history for '%s'…", match)
		}
		out.send(worker.LoadHistory{Limit: HistoryLimit, Match: match})

	case ExportResults:
		if len(s.Rows) == 0 {
			s.Status = MsgNoRows
			break
		}
		out.send(worker.ExportResults{
			Target:  worker.ExportTarget(exportFileName(s, i.JSON)),
			Columns: s.Columns,
			Rows:    s.Rows,
		})

	case CopyRow:
		row := s.SelectedRow()
		if row == nil {
			s.Status = MsgNoRows
			break
		}
		out.send(worker.ExportResults{
			Target:  worker.ClipboardTarget,
			Columns: s.Columns,
			Rows:    [][]string{row},
		})
	}

	return out
}

func nextFocus(tab models.Tab, f models.Focus) models.Focus {
	if tab == models.SQLTab {
		if f == models.FocusSQLEditor {
			return models.FocusResults
		}
		return models.FocusSQLEditor
	}
	if f == models.FocusTables {
		return models.FocusResults
	}
	return models.FocusTables
}

// step moves a cursor by one within [0, n-1]
func step(cursor, n int, dir Direction) int {
	if n == 0 {
		return cursor
	}
	if dir == Up {
		cursor--
	} else {
		cursor++
	}
	return min(max(cursor, 0), n-1)
}

// rememberStatement puts sql at the front of the in-memory history
func rememberStatement(s *models.SessionState, sql string) {
	if len(s.History) == 0 || s.History[0] != sql {
		s.History = append([]string{sql}, s.History...)
	}
	if len(s.History) > HistoryLimit {
		s.History = s.History[:HistoryLimit]
	}
	s.HistoryCursor = -1
}

func recallHistory(s *models.SessionState, dir Direction) {
	if len(s.History) == 0 {
		return
	}
	if dir == Up {
		if s.HistoryCursor >= len(s.History)-1 {
			return
		}
		s.HistoryCursor++
		replaceBuffer(s, s.History[s.HistoryCursor])
		return
	}

	if s.HistoryCursor < 0 {
		return
	}
	s.HistoryCursor--
	if s.HistoryCursor < 0 {
		replaceBuffer(s, "")
		return
	}
	replaceBuffer(s, s.History[s.HistoryCursor])
}

func exportFileName(s *models.SessionState, json bool) string {
	ext := ".csv"
	if json {
		ext = ".json"
	}
	if s.Tab == models.BrowseTab && s.OpenedTable != "" {
		return fmt.Sprintf("%s_page%d%s", safeFileName(s.OpenedTable), s.Page+1, ext)
	}
	return "query_results" + ext
}

// safeFileName keeps letters, digits, '-' and '_' of a table name and
// replaces everything else, path separators and dots included, with '_'
func safeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, name)
}
