package boardview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/board/pkg/board"
	"github.com/grovetools/board/pkg/models"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	priceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	labelStyle    = lipgloss.NewStyle().Width(13).Foreground(lipgloss.Color("141"))
	formBox       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	stateStyles = map[board.State]lipgloss.Style{
		board.StateConnecting: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		board.StateOpen:       lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		board.StateClosed:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// rowHeight is the number of lines one listing takes.
const rowHeight = 2

// View renders the model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if m.mode == modeFilter || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}

	if m.mode == modeCompose {
		b.WriteString(m.renderForm())
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderList())
	}

	if m.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.lastErr.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderHeader() string {
	state := stateStyles[m.state].Render("● " + m.state.String())
	countText := fmt.Sprintf("%d listings", len(m.items))
	if !m.board.View().Loaded() {
		// Pushed items can show before the snapshot does.
		countText += ", snapshot pending"
	}
	count := mutedStyle.Render(countText)
	header := fmt.Sprintf("%s  %s  %s", titleStyle.Render("LISTINGS"), state, count)
	if m.status != "" {
		header += "  " + mutedStyle.Render(m.status)
	}
	return header
}

func (m *Model) renderList() string {
	if len(m.visible) == 0 {
		if len(m.items) == 0 {
			return mutedStyle.Render("No listings yet.") + "\n"
		}
		return mutedStyle.Render("No listings match the filter.") + "\n"
	}

	rows := m.pageSize()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	end := m.offset + rows
	if end > len(m.visible) {
		end = len(m.visible)
	}

	var b strings.Builder
	for i := m.offset; i < end; i++ {
		b.WriteString(renderItem(m.visible[i], i == m.cursor))
	}
	return b.String()
}

func (m *Model) pageSize() int {
	// Header, blank line, help line and some slack.
	available := m.height - 6
	if m.filter.Value() != "" {
		available -= 2
	}
	if available < rowHeight {
		return len(m.visible)
	}
	return available / rowHeight
}

func renderItem(item models.Item, selected bool) string {
	marker := "  "
	title := item.Title
	if selected {
		marker = "▸ "
		title = selectedStyle.Render(title)
	}
	id := "new"
	if item.Assigned() {
		id = fmt.Sprintf("#%d", item.ID)
	}
	line := fmt.Sprintf("%s%s %s  %s", marker, mutedStyle.Render(id), title, priceStyle.Render(item.FormatPrice()))
	desc := "    " + mutedStyle.Render(item.Description)
	if item.ImageURL != "" {
		desc += mutedStyle.Render("  [" + item.ImageURL + "]")
	}
	return line + "\n" + desc + "\n"
}

func (m *Model) renderForm() string {
	labels := []string{"Title", "Description", "Price", "Image URL"}
	var b strings.Builder
	b.WriteString(titleStyle.Render("New listing"))
	b.WriteString("\n")
	for i, in := range m.inputs {
		b.WriteString(labelStyle.Render(labels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	return formBox.Render(strings.TrimRight(b.String(), "\n"))
}
