// Package boardview is the interactive terminal front end of `board watch`:
// a live, newest-first list of listings with filtering and a submission form.
package boardview

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/board/pkg/board"
	"github.com/grovetools/board/pkg/models"
)

// Board is the part of *board.Board the view drives.
type Board interface {
	View() *board.View
	Activate(ctx context.Context) error
	Reconnect(ctx context.Context) error
	Submit(ctx context.Context, form *board.Form) error
	Synchronizer() *board.Synchronizer
}

type mode int

const (
	modeBrowse mode = iota
	modeFilter
	modeCompose
)

// Form field order in compose mode.
var formFields = []string{"title", "description", "price", "image_url"}

// Model represents the state of the board view.
type Model struct {
	board          Board
	ctx            context.Context
	changes        <-chan board.Change
	reconnectDelay time.Duration

	keys   KeyMap
	help   help.Model
	filter textinput.Model
	inputs []textinput.Model
	focus  int
	mode   mode

	items    []models.Item // newest first, unfiltered
	visible  []models.Item
	cursor   int
	offset   int
	width    int
	height   int
	state    board.State
	status   string
	lastErr  error
	quitting bool
}

// New creates the model. It subscribes to the board's view immediately so
// the snapshot installed by activation is not missed.
func New(ctx context.Context, b Board, reconnectDelay time.Duration) *Model {
	filter := textinput.New()
	filter.Placeholder = "search titles"
	filter.Prompt = "/ "

	inputs := make([]textinput.Model, len(formFields))
	for i, field := range formFields {
		in := textinput.New()
		in.Placeholder = field
		in.Prompt = ""
		in.CharLimit = 512
		inputs[i] = in
	}

	return &Model{
		board:          b,
		ctx:            ctx,
		changes:        b.View().Subscribe(),
		reconnectDelay: reconnectDelay,
		keys:           DefaultKeyMap,
		help:           help.New(),
		filter:         filter,
		inputs:         inputs,
		state:          board.StateConnecting,
	}
}

// Init activates the board and starts listening for view changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.activate(), waitForChange(m.changes))
}

// Items returns the listings currently shown, after filtering.
func (m *Model) Items() []models.Item {
	return m.visible
}

// State returns the last known channel state.
func (m *Model) State() board.State {
	return m.state
}

// Status returns the last status line.
func (m *Model) Status() string {
	return m.status
}

func (m *Model) form() *board.Form {
	form := &board.Form{}
	for i, field := range formFields {
		_ = form.Set(field, m.inputs[i].Value())
	}
	return form
}

func (m *Model) clearForm() {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	m.focus = 0
}

func (m *Model) refresh() {
	m.visible = board.Search(m.items, m.filter.Value())
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
