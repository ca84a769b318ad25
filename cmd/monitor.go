package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/auxd/internal/sessions"
	"github.com/desertthunder/auxd/internal/shared"
	"github.com/desertthunder/auxd/internal/ui"
	"github.com/urfave/cli/v3"
)

// Monitor launches the interactive session monitor TUI.
func (r *Runner) Monitor(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/auxd-monitor.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	d, err := r.buildDeps(cmd.String("config"))
	if err != nil {
		return err
	}
	defer d.Close()

	creds := sessions.Credentials{
		Code:     cmd.String("code"),
		Password: cmd.String("password"),
		CallerID: cmd.String("as-host"),
	}

	if _, err := d.actions.Resolve(creds); err != nil {
		return fmt.Errorf("failed to join session: %w", err)
	}

	model := ui.NewModel(ctx, d.actions, creds, ui.DefaultPollInterval)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running monitor: %w", err)
	}

	return nil
}
