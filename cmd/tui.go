package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/dhunjam/internal/shared"
	"github.com/desertthunder/dhunjam/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive admin console.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.UI.LogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.logger = fileLogger

	mgr, err := r.sessions()
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Options{
		API:           r.adminAPI(),
		Sessions:      mgr,
		Logger:        fileLogger,
		ToastDuration: r.config.UI.ToastDuration,
		BarWidth:      r.config.UI.BarWidth,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
