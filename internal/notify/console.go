package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208"))

	bodyStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(lipgloss.Color("252"))
)

// Console prints notifications to a terminal.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a Console notifier writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Notify implements Notifier.
func (c *Console) Notify(_ context.Context, msg Message) error {
	header := titleStyle.Render("✖ " + msg.Title)
	if msg.Subtitle != "" {
		header += " " + subtitleStyle.Render(msg.Subtitle)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "%s\n%s\n", header, bodyStyle.Render(msg.Body))
	return err
}
