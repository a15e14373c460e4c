package logging

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Console prints short human-facing status lines for commands. It is not a
// log sink; structured logs go through NewLogger.
type Console struct {
	out    io.Writer
	styles consoleStyles
}

type consoleStyles struct {
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	key     lipgloss.Style
	value   lipgloss.Style
}

// NewConsole writes to out.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out: out,
		styles: consoleStyles{
			success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true), // Green
			warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),            // Yellow
			failure: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),  // Red
			key:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
			value:   lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		},
	}
}

// Success prints message with a check mark.
func (c *Console) Success(message string) {
	fmt.Fprintf(c.out, "%s %s\n", c.styles.success.Render("✓"), c.styles.success.Render(message))
}

// Warn prints message with a warning sign.
func (c *Console) Warn(message string) {
	fmt.Fprintf(c.out, "%s %s\n", c.styles.warning.Render("⚠"), c.styles.warning.Render(message))
}

// Failure prints message and, if set, err.
func (c *Console) Failure(message string, err error) {
	line := c.styles.failure.Render("✗") + " " + c.styles.failure.Render(message)
	if err != nil {
		line += ": " + c.styles.failure.Render(err.Error())
	}
	fmt.Fprintln(c.out, line)
}

// Field prints an aligned key/value pair.
func (c *Console) Field(key string, value interface{}) {
	fmt.Fprintf(c.out, "  %s %s\n", c.styles.key.Render(fmt.Sprintf("%-6s", key+":")), c.styles.value.Render(fmt.Sprint(value)))
}
