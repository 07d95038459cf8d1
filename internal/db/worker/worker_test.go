package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rebeliceyang/pglens/internal/db/query"
	"github.com/rebeliceyang/pglens/internal/export"
	"github.com/rebeliceyang/pglens/internal/history"
)

type fakeGateway struct {
	mu      sync.Mutex
	tables  []string
	columns map[string][]string
	execs   map[string]query.Result
	errs    map[string]error
	closed  bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		tables:  []string{"accounts", "users"},
		columns: map[string][]string{"users": {"id", "name"}},
		execs:   map[string]query.Result{},
		errs:    map[string]error{},
	}
}

func (g *fakeGateway) ListTables(_ context.Context, schema string) ([]string, error) {
	if err := g.errs["tables:"+schema]; err != nil {
		return nil, err
	}
	return g.tables, nil
}

func (g *fakeGateway) LoadPage(_ context.Context, schema, table string, page, pageSize int) ([]string, [][]string, error) {
	if err := g.errs["page:"+table]; err != nil {
		return nil, nil, err
	}
	return []string{"page"}, [][]string{{fmt.Sprint(page)}}, nil
}

func (g *fakeGateway) ExecuteSQL(_ context.Context, sql string) (query.Result, error) {
	if err := g.errs["exec:"+sql]; err != nil {
		return query.Result{}, err
	}
	return g.execs[sql], nil
}

func (g *fakeGateway) ListColumns(_ context.Context, schema string) (map[string][]string, error) {
	return g.columns, nil
}

func (g *fakeGateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
}

func (g *fakeGateway) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

func connectTo(gw Gateway) Connector {
	return func(context.Context, string) (Gateway, error) { return gw, nil }
}

type fakeHistory struct {
	entries []history.Entry
}

func (h *fakeHistory) Add(e history.Entry) error {
	h.entries = append([]history.Entry{e}, h.entries...)
	return nil
}

func (h *fakeHistory) Recent(limit int) ([]history.Entry, error) {
	if limit < len(h.entries) {
		return h.entries[:limit], nil
	}
	return h.entries, nil
}

func (h *fakeHistory) Search(text string, limit int) ([]history.Entry, error) {
	var found []history.Entry
	for _, e := range h.entries {
		if strings.Contains(e.Query, text) && len(found) < limit {
			found = append(found, e)
		}
	}
	return found, nil
}

type harness struct {
	cmds   chan Command
	events chan Event
	done   chan error
	cancel context.CancelFunc
}

func startWorker(t *testing.T, connect Connector, eventQueue int, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		cmds:   make(chan Command, DefaultCommandQueueSize),
		events: make(chan Event, eventQueue),
		done:   make(chan error, 1),
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	w := New(connect, h.cmds, h.events, opts...)
	go func() { h.done <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

// next returns the next event or fails after a second
func (h *harness) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev, ok := <-h.events:
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return nil
}

func (h *harness) connect(t *testing.T) {
	t.Helper()
	h.cmds <- Connect{URL: "postgres://localhost/app"}
	if ev := h.next(t); ev != (Status{Text: MsgConnecting}) {
		t.Fatalf("expected connecting status, got %#v", ev)
	}
	if ev := h.next(t); ev != (Status{Text: MsgConnected}) {
		t.Fatalf("expected connected status, got %#v", ev)
	}
}

func TestNotConnected(t *testing.T) {
	h := startWorker(t, connectTo(newFakeGateway()), DefaultEventQueueSize)

	cmds := []Command{
		LoadTables{Schema: "public"},
		LoadTablePage{Schema: "public", Table: "users", PageSize: 10},
		ExecuteSQL{SQL: "SELECT 1"},
		LoadCatalog{Schema: "public"},
	}
	for _, cmd := range cmds {
		h.cmds <- cmd
	}
	for _, cmd := range cmds {
		ev := h.next(t)
		if ev != (Error{Text: MsgNotConnected}) {
			t.Errorf("%s: expected not connected error, got %#v", cmd.Name(), ev)
		}
	}

	// The worker is still serving commands
	h.connect(t)
	h.cmds <- LoadTables{Schema: "public"}
	if _, ok := h.next(t).(TablesLoaded); !ok {
		t.Error("expected tables after connecting")
	}
}

func TestEventsFollowCommandOrder(t *testing.T) {
	h := startWorker(t, connectTo(newFakeGateway()), DefaultEventQueueSize)
	h.connect(t)

	const probes = 20
	for i := 0; i < probes; i++ {
		h.cmds <- LoadTablePage{Schema: "public", Table: "users", Page: i, PageSize: 10}
	}
	for i := 0; i < probes; i++ {
		ev, ok := h.next(t).(QueryResult)
		if !ok {
			t.Fatalf("probe %d: expected query result", i)
		}
		if ev.Info != fmt.Sprintf("Loaded page %d", i+1) {
			t.Errorf("probe %d: got %s", i, ev.Info)
		}
		if ev.Rows[0][0] != fmt.Sprint(i) {
			t.Errorf("probe %d: rows out of order: %v", i, ev.Rows)
		}
		if ev.Table != "users" || ev.Page != i {
			t.Errorf("expected users page %d, got %s page %d", i, ev.Table, ev.Page)
		}
	}
}

func TestFullEventQueueBlocksWithoutDropping(t *testing.T) {
	h := startWorker(t, connectTo(newFakeGateway()), 1)
	h.connect(t)

	const n = 30
	for i := 0; i < n; i++ {
		h.cmds <- LoadTablePage{Schema: "public", Table: "users", Page: i, PageSize: 10}
	}
	// Let the worker fill the queue and block
	time.Sleep(20 * time.Millisecond)

	for i := 0; i < n; i++ {
		ev := h.next(t).(QueryResult)
		if ev.Info != fmt.Sprintf("Loaded page %d", i+1) {
			t.Fatalf("expected page %d, got %s", i+1, ev.Info)
		}
	}
}

func TestConnectTimeout(t *testing.T) {
	tests := []struct {
		name    string
		connect Connector
	}{
		{
			name: "connector honors context",
			connect: func(ctx context.Context, _ string) (Gateway, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		},
		{
			name: "connector ignores context",
			connect: func(context.Context, string) (Gateway, error) {
				time.Sleep(200 * time.Millisecond)
				return newFakeGateway(), nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := startWorker(t, tt.connect, DefaultEventQueueSize, WithConnectTimeout(20*time.Millisecond))

			h.cmds <- Connect{URL: "postgres://unreachable/app"}
			h.next(t) // connecting
			if ev := h.next(t); ev != (Error{Text: MsgConnectTimedOut}) {
				t.Fatalf("expected timeout error, got %#v", ev)
			}

			// No gateway is kept after a timeout
			h.cmds <- LoadTables{Schema: "public"}
			if ev := h.next(t); ev != (Error{Text: MsgNotConnected}) {
				t.Errorf("expected not connected after timeout, got %#v", ev)
			}
		})
	}
}

func TestConnectFailure(t *testing.T) {
	connect := func(context.Context, string) (Gateway, error) {
		return nil, errors.New("password authentication failed")
	}
	h := startWorker(t, connect, DefaultEventQueueSize)

	h.cmds <- Connect{URL: "postgres://localhost/app"}
	h.next(t)
	ev, ok := h.next(t).(Error)
	if !ok {
		t.Fatal("expected error event")
	}
	if ev.Text != "DB connect failed: password authentication failed" {
		t.Errorf("unexpected error text: %s", ev.Text)
	}
}

func TestReconnectClosesPreviousGateway(t *testing.T) {
	first, second := newFakeGateway(), newFakeGateway()
	gateways := []Gateway{first, second}
	connect := func(context.Context, string) (Gateway, error) {
		gw := gateways[0]
		gateways = gateways[1:]
		return gw, nil
	}
	h := startWorker(t, connect, DefaultEventQueueSize)

	h.connect(t)
	h.connect(t)

	if !first.isClosed() {
		t.Error("expected first gateway to be closed")
	}
	if second.isClosed() {
		t.Error("expected second gateway to stay open")
	}
}

func TestExecuteSQL(t *testing.T) {
	gw := newFakeGateway()
	gw.execs["UPDATE users SET active = true"] = query.Result{IsCommand: true, RowsAffected: 3}
	gw.execs["SELECT id FROM users"] = query.Result{Columns: []string{"id"}, Rows: [][]string{{"1"}}, RowsAffected: 1}
	gw.errs["exec:SELEC 1"] = &pgconn.PgError{Code: "42601", Message: "syntax error"}
	hist := &fakeHistory{}

	h := startWorker(t, connectTo(gw), DefaultEventQueueSize, WithHistory(hist))
	h.connect(t)

	h.cmds <- ExecuteSQL{SQL: "UPDATE users SET active = true"}
	if ev := h.next(t); ev != (SQLExecuted{Info: "OK. 3 rows affected."}) {
		t.Errorf("unexpected event: %#v", ev)
	}

	h.cmds <- ExecuteSQL{SQL: "SELECT id FROM users"}
	res, ok := h.next(t).(QueryResult)
	if !ok || res.Info != "Query OK" || len(res.Rows) != 1 || res.Table != "" {
		t.Errorf("unexpected result: %#v", res)
	}

	h.cmds <- ExecuteSQL{SQL: "SELEC 1"}
	errEv, ok := h.next(t).(Error)
	if !ok || errEv.Code != "42601" {
		t.Errorf("expected syntax error with code, got %#v", errEv)
	}

	// Wait for the history load so all three records are visible
	h.cmds <- LoadHistory{Limit: 10}
	loaded := h.next(t).(HistoryLoaded)
	if len(loaded.Entries) != 3 || loaded.Entries[0] != "SELEC 1" {
		t.Errorf("unexpected history: %v", loaded.Entries)
	}
	if hist.entries[0].Success || hist.entries[1].RowsAffected != 1 {
		t.Errorf("unexpected recorded entries: %+v", hist.entries)
	}
	if hist.entries[0].Connection != "postgres://localhost/app" {
		t.Errorf("expected connection label, got %s", hist.entries[0].Connection)
	}
}

func TestSchemaErrorCarriesSQLState(t *testing.T) {
	gw := newFakeGateway()
	pgErr := &pgconn.PgError{Code: "3F000", Message: `schema "nope" does not exist`}
	gw.errs["tables:nope"] = fmt.Errorf("failed to list tables: %w", pgErr)

	h := startWorker(t, connectTo(gw), DefaultEventQueueSize)
	h.connect(t)

	h.cmds <- LoadTables{Schema: "nope"}
	ev, ok := h.next(t).(Error)
	if !ok {
		t.Fatal("expected error event")
	}
	if ev.Code != "3F000" {
		t.Errorf("expected 3F000, got %q", ev.Code)
	}
	if !strings.Contains(ev.Text, "does not exist") {
		t.Errorf("expected server message in text, got %s", ev.Text)
	}
}

func TestLoadCatalog(t *testing.T) {
	h := startWorker(t, connectTo(newFakeGateway()), DefaultEventQueueSize)
	h.connect(t)

	h.cmds <- LoadCatalog{Schema: "public"}
	ev, ok := h.next(t).(CatalogLoaded)
	if !ok {
		t.Fatal("expected catalog event")
	}
	if ev.Schema != "public" || len(ev.Columns["users"]) != 2 {
		t.Errorf("unexpected catalog: %#v", ev)
	}
}

func TestLoadHistoryMatch(t *testing.T) {
	hist := &fakeHistory{}
	for _, q := range []string{"SELECT * FROM users", "SELECT * FROM orders", "DELETE FROM users"} {
		_ = hist.Add(history.Entry{Query: q})
	}
	h := startWorker(t, connectTo(newFakeGateway()), DefaultEventQueueSize, WithHistory(hist))

	h.cmds <- LoadHistory{Limit: 10, Match: "users"}
	ev, ok := h.next(t).(HistoryLoaded)
	if !ok {
		t.Fatal("expected history event")
	}
	want := []string{"DELETE FROM users", "SELECT * FROM users"}
	if ev.Match != "users" || !reflect.DeepEqual(ev.Entries, want) {
		t.Errorf("expected %v for users, got %#v", want, ev)
	}
}

func TestLoadHistoryWithoutStore(t *testing.T) {
	h := startWorker(t, connectTo(newFakeGateway()), DefaultEventQueueSize)

	h.cmds <- LoadHistory{Limit: 10}
	ev, ok := h.next(t).(HistoryLoaded)
	if !ok || len(ev.Entries) != 0 {
		t.Errorf("expected empty history, got %#v", ev)
	}
}

func TestExportResults(t *testing.T) {
	dir := t.TempDir()
	h := startWorker(t, connectTo(newFakeGateway()), DefaultEventQueueSize, WithExporter(export.NewExporter(dir)))

	h.cmds <- ExportResults{
		Target:  "users_page1.csv",
		Columns: []string{"id"},
		Rows:    [][]string{{"1"}, {"2"}},
	}
	ev := h.next(t)
	want := Status{Text: "Exported 2 rows to " + filepath.Join(dir, "users_page1.csv")}
	if ev != want {
		t.Errorf("expected %#v, got %#v", want, ev)
	}

	h.cmds <- ExportResults{Target: "query_results.json", Columns: []string{"id"}, Rows: [][]string{{"1"}}}
	want = Status{Text: "Exported 1 rows to " + filepath.Join(dir, "query_results.json")}
	if ev := h.next(t); ev != want {
		t.Errorf("expected %#v, got %#v", want, ev)
	}

	h.cmds <- ExportResults{Target: "../escape.csv", Columns: []string{"id"}, Rows: [][]string{{"1"}}}
	if _, ok := h.next(t).(Error); !ok {
		t.Error("expected an error for a target outside the export directory")
	}
}

func TestRunClosesEventsWhenCommandsClose(t *testing.T) {
	cmds := make(chan Command)
	events := make(chan Event, 1)
	gw := newFakeGateway()
	w := New(connectTo(gw), cmds, events)

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	cmds <- Connect{URL: "postgres://localhost/app"}
	<-events
	<-events
	close(cmds)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean exit, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}

	if _, ok := <-events; ok {
		t.Error("expected events to be closed")
	}
	if !gw.isClosed() {
		t.Error("expected gateway to be closed on exit")
	}
}
