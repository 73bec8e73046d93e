package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/dastanaron/movies/internal/service"
)

// LogoutCommand ends the stored session without starting the UI
type LogoutCommand struct {
	session *service.SessionGate
	out     io.Writer
}

// NewLogoutCommand creates a new logout command
func NewLogoutCommand(session *service.SessionGate, out io.Writer) *LogoutCommand {
	return &LogoutCommand{session: session, out: out}
}

// Execute clears the session keys
func (c *LogoutCommand) Execute(ctx context.Context) error {
	if !c.session.Check() {
		fmt.Fprintln(c.out, "No active session.")
	}
	if err := c.session.Logout(ctx); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	color.New(color.FgGreen).Fprintln(c.out, "Signed out.")
	return nil
}
