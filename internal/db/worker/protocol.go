package worker

import "github.com/rebeliceyang/pglens/internal/export"

// Command is a request from the UI to the worker. Commands are processed
// strictly in the order they are sent, one at a time.
type Command interface {
	command()
	// Name identifies the command kind in logs
	Name() string
}

// Connect opens a connection pool, replacing any existing one
type Connect struct {
	URL string
}

// LoadTables lists the tables of a schema
type LoadTables struct {
	Schema string
}

// LoadTablePage fetches one zero-based page of a table
type LoadTablePage struct {
	Schema   string
	Table    string
	Page     int
	PageSize int
}

// ExecuteSQL runs an ad-hoc statement
type ExecuteSQL struct {
	SQL string
}

// LoadCatalog lists the columns of every table in a schema
type LoadCatalog struct {
	Schema string
}

// LoadHistory reads the most recent statements from the history store.
// A non-empty Match restricts them to statements containing it.
type LoadHistory struct {
	Limit int
	Match string
}

// ExportTarget names where ExportResults writes
type ExportTarget string

// ClipboardTarget sends the export to the system clipboard as tab separated text
const ClipboardTarget ExportTarget = export.ClipboardTarget

// ExportResults writes a result set to a file (CSV or JSON by extension)
// or to the clipboard
type ExportResults struct {
	Target  ExportTarget
	Columns []string
	Rows    [][]string
}

func (Connect) command()       {}
func (LoadTables) command()    {}
func (LoadTablePage) command() {}
func (ExecuteSQL) command()    {}
func (LoadCatalog) command()   {}
func (LoadHistory) command()   {}
func (ExportResults) command() {}

func (Connect) Name() string       { return "connect" }
func (LoadTables) Name() string    { return "load_tables" }
func (LoadTablePage) Name() string { return "load_table_page" }
func (ExecuteSQL) Name() string    { return "execute_sql" }
func (LoadCatalog) Name() string   { return "load_catalog" }
func (LoadHistory) Name() string   { return "load_history" }
func (ExportResults) Name() string { return "export_results" }

// Event is a message from the worker to the UI. Every command yields at
// least one event.
type Event interface {
	event()
}

// Status is an informational message for the status line
type Status struct {
	Text string
}

// Error reports a failed command. Code carries the PostgreSQL SQLSTATE when
// the failure came from the server.
type Error struct {
	Text string
	Code string
}

// TablesLoaded carries the table list of a schema
type TablesLoaded struct {
	Tables []string
}

// QueryResult carries a result set. Table and Page are set when the rows
// are a page of that table.
type QueryResult struct {
	Columns []string
	Rows    [][]string
	Info    string
	Table   string
	Page    int
}

// SQLExecuted reports a statement that returned no result set
type SQLExecuted struct {
	Info string
}

// CatalogLoaded carries the column names of a schema's tables
type CatalogLoaded struct {
	Schema  string
	Columns map[string][]string
}

// HistoryLoaded carries recent statements, newest first
type HistoryLoaded struct {
	Entries []string
	Match   string
}

func (Status) event()        {}
func (Error) event()         {}
func (TablesLoaded) event()  {}
func (QueryResult) event()   {}
func (SQLExecuted) event()   {}
func (CatalogLoaded) event() {}
func (HistoryLoaded) event() {}

// needsConnection reports whether cmd must be served by a gateway
func needsConnection(cmd Command) bool {
	switch cmd.(type) {
	case Connect, LoadHistory, ExportResults:
		return false
	default:
		return true
	}
}
