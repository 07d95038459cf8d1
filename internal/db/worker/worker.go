// Package worker runs all database I/O on a single goroutine. The UI sends
// Commands over a bounded channel and receives Events over another; the
// worker processes one command at a time and emits every event of a command
// before taking the next one, so events arrive in command order.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rebeliceyang/pglens/internal/db/query"
	"github.com/rebeliceyang/pglens/internal/export"
	"github.com/rebeliceyang/pglens/internal/history"
	"github.com/rebeliceyang/pglens/internal/models"
	"github.com/rs/zerolog"
)

const (
	// DefaultConnectTimeout bounds connection establishment
	DefaultConnectTimeout = 5 * time.Second

	// DefaultCommandQueueSize and DefaultEventQueueSize are the channel capacities
	DefaultCommandQueueSize = 64
	DefaultEventQueueSize   = 256
)

// Status and error texts emitted by the worker
const (
	// MsgConnecting precedes every connection attempt
	MsgConnecting = "Connecting…"

	// MsgConnected follows a successful Connect
	MsgConnected = "Connected."

	// MsgNotConnected answers any gateway command sent before a Connect succeeded
	MsgNotConnected = "Not connected."

	// MsgConnectTimedOut reports a Connect that exceeded the connect timeout
	MsgConnectTimedOut = "DB connect timed out."

	msgConnectFailedFmt = "DB connect failed: %v"
)

// HistoryStore records executed statements and returns recent ones
type HistoryStore interface {
	Add(entry history.Entry) error
	Recent(limit int) ([]history.Entry, error)
	Search(text string, limit int) ([]history.Entry, error)
}

// Worker owns the gateway. It is not safe to share across goroutines
// other than through its channels.
type Worker struct {
	connect        Connector
	cmds           <-chan Command
	events         chan<- Event
	connectTimeout time.Duration
	history        HistoryStore
	exporter       *export.Exporter
	log            zerolog.Logger

	gw     Gateway
	target string
}

// Option configures a Worker
type Option func(*Worker)

// WithConnectTimeout overrides DefaultConnectTimeout
func WithConnectTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.connectTimeout = d
		}
	}
}

// WithHistory records every ExecuteSQL outcome in store
func WithHistory(store HistoryStore) Option {
	return func(w *Worker) { w.history = store }
}

// WithExporter sets the exporter used by ExportResults
func WithExporter(e *export.Exporter) Option {
	return func(w *Worker) { w.exporter = e }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(w *Worker) { w.log = l }
}

// New creates a worker reading cmds and writing events. The worker closes
// events when Run returns.
func New(connect Connector, cmds <-chan Command, events chan<- Event, opts ...Option) *Worker {
	w := &Worker{
		connect:        connect,
		cmds:           cmds,
		events:         events,
		connectTimeout: DefaultConnectTimeout,
		exporter:       export.NewExporter(""),
		log:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes commands until the command channel is closed or ctx is
// cancelled. A failing command never stops the loop.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.closeGateway()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-w.cmds:
			if !ok {
				return nil
			}
			w.handle(ctx, cmd)
		}
	}
}

func (w *Worker) handle(ctx context.Context, cmd Command) {
	start := time.Now()
	w.log.Debug().Str("cmd", cmd.Name()).Msg("handling command")

	if needsConnection(cmd) && w.gw == nil {
		w.emit(ctx, Error{Text: MsgNotConnected})
		return
	}

	switch c := cmd.(type) {
	case Connect:
		w.handleConnect(ctx, c)
	case LoadTables:
		tables, err := w.gw.ListTables(ctx, c.Schema)
		if err != nil {
			w.fail(ctx, cmd, err)
			return
		}
		w.emit(ctx, TablesLoaded{Tables: tables})
	case LoadTablePage:
		columns, rows, err := w.gw.LoadPage(ctx, c.Schema, c.Table, c.Page, c.PageSize)
		if err != nil {
			w.fail(ctx, cmd, err)
			return
		}
		w.emit(ctx, QueryResult{
			Columns: columns,
			Rows:    rows,
			Info:    fmt.Sprintf("Loaded page %d", c.Page+1),
			Table:   c.Table,
			Page:    c.Page,
		})
	case ExecuteSQL:
		w.handleExecute(ctx, c)
	case LoadCatalog:
		columns, err := w.gw.ListColumns(ctx, c.Schema)
		if err != nil {
			w.fail(ctx, cmd, err)
			return
		}
		w.emit(ctx, CatalogLoaded{Schema: c.Schema, Columns: columns})
	case LoadHistory:
		w.handleLoadHistory(ctx, c)
	case ExportResults:
		w.handleExport(ctx, c)
	default:
		w.emit(ctx, Error{Text: fmt.Sprintf("unknown command %T", cmd)})
	}

	w.log.Debug().
		Str("cmd", cmd.Name()).
		Dur("duration", time.Since(start)).
		Msg("command done")
}

type connectResult struct {
	gw  Gateway
	err error
}

func (w *Worker) handleConnect(ctx context.Context, c Connect) {
	w.emit(ctx, Status{Text: MsgConnecting})
	w.closeGateway()

	cctx, cancel := context.WithTimeout(ctx, w.connectTimeout)
	defer cancel()

	// The connector runs on its own goroutine so the timeout holds even if
	// it ignores ctx
	done := make(chan connectResult, 1)
	go func() {
		gw, err := w.connect(cctx, c.URL)
		done <- connectResult{gw: gw, err: err}
	}()

	select {
	case res := <-done:
		switch {
		case res.err == nil:
			w.gw = res.gw
			w.target = models.ConnectionTarget{URL: c.URL}.Redacted()
			w.log.Info().Msg("connected")
			w.emit(ctx, Status{Text: MsgConnected})
		case errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil:
			w.log.Warn().Dur("timeout", w.connectTimeout).Msg("connect timed out")
			w.emit(ctx, Error{Text: MsgConnectTimedOut})
		default:
			w.log.Warn().Err(res.err).Msg("connect failed")
			w.emit(ctx, Error{Text: fmt.Sprintf(msgConnectFailedFmt, res.err), Code: sqlState(res.err)})
		}
	case <-cctx.Done():
		// A late success must not leak its pool
		go func() {
			if res := <-done; res.gw != nil {
				res.gw.Close()
			}
		}()
		if ctx.Err() != nil {
			return
		}
		w.log.Warn().Dur("timeout", w.connectTimeout).Msg("connect timed out")
		w.emit(ctx, Error{Text: MsgConnectTimedOut})
	}
}

func (w *Worker) handleExecute(ctx context.Context, c ExecuteSQL) {
	start := time.Now()
	result, err := w.gw.ExecuteSQL(ctx, c.SQL)
	w.record(c.SQL, start, result, err)
	if err != nil {
		w.fail(ctx, c, err)
		return
	}

	if result.IsCommand {
		w.emit(ctx, SQLExecuted{Info: result.Info()})
		return
	}
	w.emit(ctx, QueryResult{
		Columns: result.Columns,
		Rows:    result.Rows,
		Info:    result.Info(),
	})
}

func (w *Worker) record(sql string, start time.Time, result query.Result, err error) {
	if w.history == nil {
		return
	}
	entry := history.Entry{
		Connection:   w.target,
		Query:        sql,
		ExecutedAt:   start,
		Duration:     time.Since(start),
		RowsAffected: result.RowsAffected,
		Success:      err == nil,
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	}
	if herr := w.history.Add(entry); herr != nil {
		w.log.Warn().Err(herr).Msg("failed to record query history")
	}
}

func (w *Worker) handleLoadHistory(ctx context.Context, c LoadHistory) {
	if w.history == nil {
		w.emit(ctx, HistoryLoaded{Match: c.Match})
		return
	}

	var entries []history.Entry
	var err error
	if c.Match != "" {
		entries, err = w.history.Search(c.Match, c.Limit)
	} else {
		entries, err = w.history.Recent(c.Limit)
	}
	if err != nil {
		w.fail(ctx, c, err)
		return
	}
	queries := make([]string, 0, len(entries))
	for _, e := range entries {
		queries = append(queries, e.Query)
	}
	w.emit(ctx, HistoryLoaded{Entries: queries, Match: c.Match})
}

func (w *Worker) handleExport(ctx context.Context, c ExportResults) {
	where, err := w.exporter.Export(string(c.Target), c.Columns, c.Rows)
	if err != nil {
		w.fail(ctx, c, err)
		return
	}
	w.emit(ctx, Status{Text: fmt.Sprintf("Exported %d rows to %s", len(c.Rows), where)})
}

func (w *Worker) fail(ctx context.Context, cmd Command, err error) {
	w.log.Error().Str("cmd", cmd.Name()).Err(err).Msg("command failed")
	w.emit(ctx, Error{Text: err.Error(), Code: sqlState(err)})
}

// emit blocks until the event is queued or ctx is cancelled
func (w *Worker) emit(ctx context.Context, ev Event) {
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

func (w *Worker) closeGateway() {
	if w.gw != nil {
		w.gw.Close()
		w.gw = nil
	}
}

// sqlState returns the SQLSTATE of a server error anywhere in err's chain
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
