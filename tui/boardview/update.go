package boardview

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/board/pkg/board"
)

// changeMsg carries one view change; ok is false once the view is torn down.
type changeMsg struct {
	change board.Change
	ok     bool
}

type activatedMsg struct{ err error }

type channelClosedMsg struct {
	syncer *board.Synchronizer
	err    error
}

type reconnectMsg struct{}

type reconnectedMsg struct{ err error }

type submittedMsg struct{ err error }

func waitForChange(ch <-chan board.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		return changeMsg{change: c, ok: ok}
	}
}

func watchChannel(s *board.Synchronizer) tea.Cmd {
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		<-s.Done()
		return channelClosedMsg{syncer: s, err: s.Err()}
	}
}

func (m *Model) activate() tea.Cmd {
	return func() tea.Msg {
		return activatedMsg{err: m.board.Activate(m.ctx)}
	}
}

func (m *Model) reconnect() tea.Cmd {
	return func() tea.Msg {
		return reconnectedMsg{err: m.board.Reconnect(m.ctx)}
	}
}

func (m *Model) submit(form *board.Form) tea.Cmd {
	return func() tea.Msg {
		return submittedMsg{err: m.board.Submit(m.ctx, form)}
	}
}

// Update handles messages and updates the model accordingly.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case changeMsg:
		if !msg.ok {
			return m, nil
		}
		m.items = m.board.View().Items()
		m.refresh()
		return m, waitForChange(m.changes)

	case activatedMsg:
		m.lastErr = msg.err
		return m, m.afterConnect()

	case reconnectedMsg:
		m.lastErr = msg.err
		return m, m.afterConnect()

	case channelClosedMsg:
		if msg.syncer != m.board.Synchronizer() {
			return m, nil
		}
		m.state = board.StateClosed
		if msg.err == nil {
			return m, nil
		}
		m.lastErr = msg.err
		if m.reconnectDelay <= 0 {
			m.status = "channel closed"
			return m, nil
		}
		m.status = "channel closed, reconnecting in " + m.reconnectDelay.String()
		return m, tea.Tick(m.reconnectDelay, func(time.Time) tea.Msg { return reconnectMsg{} })

	case reconnectMsg:
		m.state = board.StateConnecting
		m.status = "reconnecting"
		return m, m.reconnect()

	case submittedMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			m.status = "submission failed"
			return m, nil
		}
		m.clearForm()
		m.mode = modeBrowse
		m.status = "listing submitted"
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeFilter:
			return m.updateFilter(msg)
		case modeCompose:
			return m.updateCompose(msg)
		}
		return m.updateBrowse(msg)
	}

	return m, nil
}

func (m *Model) afterConnect() tea.Cmd {
	syncer := m.board.Synchronizer()
	if syncer == nil {
		return nil
	}
	m.state = syncer.State()
	switch m.state {
	case board.StateOpen:
		m.status = "live"
	case board.StateClosed:
		if m.reconnectDelay > 0 {
			m.status = "channel unavailable, retrying in " + m.reconnectDelay.String()
			return tea.Tick(m.reconnectDelay, func(time.Time) tea.Msg { return reconnectMsg{} })
		}
		m.status = "channel unavailable"
		return nil
	}
	return watchChannel(syncer)
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		if len(m.visible) > 0 {
			m.cursor = len(m.visible) - 1
		}
	case key.Matches(msg, m.keys.Filter):
		m.mode = modeFilter
		return m, m.filter.Focus()
	case key.Matches(msg, m.keys.New):
		m.mode = modeCompose
		m.lastErr = nil
		return m, m.focusInput(0)
	case key.Matches(msg, m.keys.Reconnect):
		if m.state == board.StateClosed {
			return m, func() tea.Msg { return reconnectMsg{} }
		}
	}
	return m, nil
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.filter.SetValue("")
		m.filter.Blur()
		m.mode = modeBrowse
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		m.filter.Blur()
		m.mode = modeBrowse
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.cursor = 0
	m.refresh()
	return m, cmd
}

func (m *Model) updateCompose(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		// Keep what was typed; the form is only cleared by a successful submit.
		m.inputs[m.focus].Blur()
		m.mode = modeBrowse
		return m, nil
	case key.Matches(msg, m.keys.Next):
		step := 1
		if msg.String() == "shift+tab" {
			step = len(m.inputs) - 1
		}
		return m, m.focusInput((m.focus + step) % len(m.inputs))
	case key.Matches(msg, m.keys.Submit):
		form := m.form()
		if err := form.Validate(); err != nil {
			m.lastErr = err
			return m, nil
		}
		m.status = "submitting"
		return m, m.submit(form)
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) focusInput(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return tea.Batch(m.inputs[i].Focus(), textinput.Blink)
}
