package app

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rebeliceyang/pglens/internal/db/worker"
	"github.com/rebeliceyang/pglens/internal/models"
)

func newApp(cmdSize, eventSize int) (*App, chan worker.Command, chan worker.Event) {
	cmds := make(chan worker.Command, cmdSize)
	events := make(chan worker.Event, eventSize)
	return New(newState("public"), cmds, events), cmds, events
}

func receive(t *testing.T, cmds <-chan worker.Command) worker.Command {
	t.Helper()
	select {
	case c := <-cmds:
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a command")
		return nil
	}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestInitSendsInitialCommands(t *testing.T) {
	a, cmds, _ := newApp(worker.DefaultCommandQueueSize, worker.DefaultEventQueueSize)

	if cmd := a.Init(); cmd == nil {
		t.Fatal("expected a tick command")
	}

	want := InitialCommands(a.State())
	for i, w := range want {
		if got := receive(t, cmds); !reflect.DeepEqual(got, w) {
			t.Errorf("command %d: expected %v, got %v", i, w, got)
		}
	}
}

func TestTickDrainsAvailableEvents(t *testing.T) {
	a, cmds, events := newApp(8, 8)
	events <- worker.Status{Text: "Connected."}
	events <- worker.TablesLoaded{Tables: []string{"orders", "users"}}

	_, cmd := a.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("expected the next tick to be scheduled")
	}

	s := a.State()
	if len(s.Tables) != 2 || s.OpenedTable != "orders" {
		t.Errorf("expected tables loaded and orders opened, got %v / %q", s.Tables, s.OpenedTable)
	}
	want := worker.LoadTablePage{Schema: "public", Table: "orders", Page: 0, PageSize: 50}
	if got := receive(t, cmds); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDispatchParksEventsWhileCommandQueueIsFull(t *testing.T) {
	a, cmds, events := newApp(1, 4)
	cmds <- worker.LoadTables{Schema: "public"}
	events <- worker.Status{Text: "first"}
	events <- worker.Status{Text: "second"}

	done := make(chan bool)
	go func() {
		done <- a.dispatch([]worker.Command{worker.LoadCatalog{Schema: "public"}})
	}()

	// the worker side is stalled until both events are taken
	deadline := time.Now().Add(time.Second)
	for len(events) > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if len(events) != 0 {
		t.Fatal("expected dispatch to drain events while blocked")
	}

	receive(t, cmds)
	receive(t, cmds)
	if ok := <-done; !ok {
		t.Fatal("expected dispatch to succeed")
	}

	if len(a.backlog) != 2 {
		t.Fatalf("expected 2 parked events, got %d", len(a.backlog))
	}

	events <- worker.Status{Text: "third"}
	if !a.drain() {
		t.Fatal("expected drain to succeed")
	}
	if len(a.backlog) != 0 || len(events) != 0 {
		t.Error("expected backlog and channel to be empty")
	}
	if a.State().Status != "third" {
		t.Errorf("expected events applied in order ending with third, got %q", a.State().Status)
	}
}

func TestClosedEventChannelIsFatal(t *testing.T) {
	a, _, events := newApp(4, 4)
	close(events)

	_, cmd := a.Update(tickMsg(time.Now()))
	if !isQuit(cmd) {
		t.Error("expected the program to quit")
	}
	if !errors.Is(a.Err(), ErrWorkerGone) {
		t.Errorf("expected ErrWorkerGone, got %v", a.Err())
	}
}

func TestClosedEventChannelDuringDispatch(t *testing.T) {
	a, _, events := newApp(0, 0)
	close(events)

	cmd := a.apply(Outcome{Commands: []worker.Command{worker.LoadTables{Schema: "public"}}})
	if !isQuit(cmd) {
		t.Error("expected the program to quit")
	}
	if !errors.Is(a.Err(), ErrWorkerGone) {
		t.Errorf("expected ErrWorkerGone, got %v", a.Err())
	}
}

func TestKeysDriveIntents(t *testing.T) {
	a, cmds, _ := newApp(8, 8)

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyF3})
	if cmd != nil || a.State().Tab != models.SQLTab {
		t.Fatalf("expected SQL tab, got %v", a.State().Tab)
	}

	// q is text inside the editor
	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("select 1 q")})
	if a.State().SQLText != "select 1 q" {
		t.Errorf("expected typed text, got %q", a.State().SQLText)
	}

	a.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	if got := receive(t, cmds); got != (worker.ExecuteSQL{SQL: "select 1 q"}) {
		t.Errorf("expected execute command, got %v", got)
	}

	a.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	if got := receive(t, cmds); got != (worker.LoadHistory{Limit: HistoryLimit, Match: "select 1 q"}) {
		t.Errorf("expected history search, got %v", got)
	}

	// alt+s exports instead of typing
	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}, Alt: true})
	if a.State().SQLText != "select 1 q" || a.State().Status != MsgNoRows {
		t.Errorf("expected json export request, got %q / %q", a.State().SQLText, a.State().Status)
	}

	a.Update(tea.KeyMsg{Type: tea.KeyF2})
	if _, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}); !isQuit(cmd) {
		t.Error("expected q to quit outside the editor")
	}
	if _, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); !isQuit(cmd) {
		t.Error("expected ctrl+c to quit")
	}
}

func TestTabAcceptsVisibleCompletion(t *testing.T) {
	a, _, _ := newApp(8, 8)
	a.Update(tea.KeyMsg{Type: tea.KeyF3})
	a.State().Tables = []string{"users"}

	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("SELECT * FROM us")})
	a.Update(tea.KeyMsg{Type: tea.KeyTab})

	s := a.State()
	if s.SQLText != "SELECT * FROM users" {
		t.Errorf("expected accepted completion, got %q", s.SQLText)
	}
	if s.Focus != models.FocusSQLEditor {
		t.Errorf("expected focus to stay in the editor, got %v", s.Focus)
	}

	a.Update(tea.KeyMsg{Type: tea.KeyTab})
	if s.Focus != models.FocusResults {
		t.Errorf("expected tab to toggle focus without a popup, got %v", s.Focus)
	}
}

func TestViewRendersBothTabs(t *testing.T) {
	a, _, _ := newApp(8, 8)
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	s := a.State()
	s.Tables = []string{"orders", "users"}
	s.OpenedTable = "orders"
	s.Columns = []string{"id", "total"}
	s.Rows = [][]string{{"1", "9.99"}}

	out := a.View()
	for _, want := range []string{"Tables (2)", "public.orders", "9.99"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected browse view to contain %q", want)
		}
	}

	a.Update(tea.KeyMsg{Type: tea.KeyF3})
	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("SELECT 1")})
	if out := a.View(); !strings.Contains(out, "SQL") {
		t.Error("expected SQL view")
	}

	a.Update(tea.KeyMsg{Type: tea.KeyF2})
	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	if out := a.View(); !strings.Contains(out, "pglens keys") {
		t.Error("expected help overlay")
	}
	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if out := a.View(); strings.Contains(out, "pglens keys") {
		t.Error("expected help overlay to close")
	}
}

func TestIntentMessagesAreApplied(t *testing.T) {
	a, _, _ := newApp(8, 8)
	a.Update(SetTheme{Name: "catppuccin-mocha"})
	if a.State().ThemeName != "catppuccin-mocha" {
		t.Errorf("expected theme change, got %s", a.State().ThemeName)
	}
}
