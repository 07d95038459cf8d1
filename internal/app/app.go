package app

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rebeliceyang/pglens/internal/db/worker"
	"github.com/rebeliceyang/pglens/internal/models"
	"github.com/rs/zerolog"
)

// DefaultTickRate is how often pending worker events are drained
const DefaultTickRate = 50 * time.Millisecond

// ErrWorkerGone means the event channel closed while the session was
// running. The worker is gone and nothing can be recovered.
var ErrWorkerGone = errors.New("db worker terminated unexpectedly")

// tickMsg drives the event drain
type tickMsg time.Time

// App is the bubbletea model. It owns the session state and is the only
// side of the program that talks to the worker channels.
type App struct {
	state *models.SessionState
	keys  KeyMap
	log   zerolog.Logger

	cmds    chan<- worker.Command
	events  <-chan worker.Event
	backlog []worker.Event
	tick    time.Duration

	width, height int
	showHelp      bool
	err           error
}

// Option configures an App
type Option func(*App)

// WithTickRate overrides DefaultTickRate
func WithTickRate(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.tick = d
		}
	}
}

// WithKeyMap replaces the default bindings
func WithKeyMap(k KeyMap) Option {
	return func(a *App) { a.keys = k }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(a *App) { a.log = l }
}

// New creates an App for state talking to a worker over cmds and events
func New(state *models.SessionState, cmds chan<- worker.Command, events <-chan worker.Event, opts ...Option) *App {
	a := &App{
		state:  state,
		keys:   DefaultKeyMap(),
		log:    zerolog.Nop(),
		cmds:   cmds,
		events: events,
		tick:   DefaultTickRate,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State exposes the session state for inspection
func (a *App) State() *models.SessionState {
	return a.state
}

// Err reports why the program stopped, or nil after a normal quit
func (a *App) Err() error {
	return a.err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	if !a.dispatch(InitialCommands(a.state)) {
		return tea.Quit
	}
	return a.nextTick()
}

func (a *App) nextTick() tea.Cmd {
	return tea.Tick(a.tick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if !a.drain() {
			return a, tea.Quit
		}
		return a, a.nextTick()

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case Intent:
		return a, a.apply(ApplyIntent(a.state, msg))
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if a.showHelp {
		switch {
		case key.Matches(msg, a.keys.ForceQuit):
			return a.apply(ApplyIntent(a.state, Quit{}))
		case key.Matches(msg, a.keys.Help, a.keys.Dismiss, a.keys.Quit):
			a.showHelp = false
		}
		return nil
	}

	if a.state.Focus != models.FocusSQLEditor && key.Matches(msg, a.keys.Help) {
		a.showHelp = true
		return nil
	}

	for _, in := range a.keys.Decode(msg, a.state) {
		if cmd := a.apply(ApplyIntent(a.state, in)); cmd != nil {
			return cmd
		}
	}
	return nil
}

// apply sends the outcome's commands and turns a quit request into tea.Quit
func (a *App) apply(out Outcome) tea.Cmd {
	if !a.dispatch(out.Commands) {
		return tea.Quit
	}
	if out.Quit {
		return tea.Quit
	}
	return nil
}

// drain reduces every event that is available right now without blocking.
// Events parked in the backlog come first so ordering is preserved.
func (a *App) drain() bool {
	for {
		var ev worker.Event
		if len(a.backlog) > 0 {
			ev = a.backlog[0]
			a.backlog = a.backlog[1:]
		} else {
			select {
			case e, ok := <-a.events:
				if !ok {
					a.fail()
					return false
				}
				ev = e
			default:
				return true
			}
		}

		out := ApplyEvent(a.state, ev)
		if !a.dispatch(out.Commands) {
			return false
		}
	}
}

// dispatch sends commands in order. A send blocks while the command queue
// is full; meanwhile incoming events are parked in the backlog so the
// worker is never stuck on a full event queue waiting for us.
func (a *App) dispatch(cmds []worker.Command) bool {
	for _, cmd := range cmds {
		a.log.Debug().Str("cmd", cmd.Name()).Msg("dispatch")
		for sent := false; !sent; {
			select {
			case a.cmds <- cmd:
				sent = true
			case ev, ok := <-a.events:
				if !ok {
					a.fail()
					return false
				}
				a.backlog = append(a.backlog, ev)
			}
		}
	}
	return true
}

func (a *App) fail() {
	a.err = ErrWorkerGone
	a.state.Status = "Error: " + ErrWorkerGone.Error()
	a.log.Error().Err(ErrWorkerGone).Msg("event channel closed")
}
