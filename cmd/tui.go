package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/duskmoth/sidestage/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for browsing events and
// painting the canvas.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	model := ui.NewModel(ctx, r.apiClient(cmd))
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
