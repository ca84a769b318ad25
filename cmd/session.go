package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/auxd/internal/models"
	"github.com/desertthunder/auxd/internal/shared"
	"github.com/urfave/cli/v3"
)

// SessionCreate creates a listening session and prints its join code.
func (r *Runner) SessionCreate(ctx context.Context, cmd *cli.Command) error {
	d, err := r.buildDeps(cmd.String("config"))
	if err != nil {
		return err
	}
	defer d.Close()

	hostID, err := r.resolveHost(d, cmd.String("host"))
	if err != nil {
		return err
	}

	permissions := models.DefaultPermissions()
	permissions.PlayPause = cmd.Bool("allow-play-pause")
	permissions.Skip = cmd.Bool("allow-skip")
	permissions.SkipQueue = cmd.Bool("allow-skip-queue")
	if cmd.Bool("no-queue") {
		permissions.AddToQueue = false
	}

	session, err := d.actions.CreateSession(hostID, cmd.String("name"), cmd.String("password"), cmd.String("market"), permissions)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	r.writePlain("✓ Session created\n")
	r.writePlain("  Name: %s\n", session.Name())
	r.writePlain("  Code: %s\n", session.Code())
	r.writePlain("  Guests join with the code and password\n")
	printPermissions(r, session.Permissions())

	return nil
}

// SessionList lists the host's sessions.
func (r *Runner) SessionList(ctx context.Context, cmd *cli.Command) error {
	d, err := r.buildDeps(cmd.String("config"))
	if err != nil {
		return err
	}
	defer d.Close()

	hostID, err := r.resolveHost(d, cmd.String("host"))
	if err != nil {
		return err
	}

	sessions, err := d.actions.ListSessions(hostID)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if cmd.Bool("json") {
		type row struct {
			ID          string             `json:"id"`
			Code        string             `json:"code"`
			Name        string             `json:"name"`
			Market      string             `json:"market"`
			Permissions models.Permissions `json:"permissions"`
		}
		rows := make([]row, len(sessions))
		for i, s := range sessions {
			rows[i] = row{ID: s.ID(), Code: s.Code(), Name: s.Name(), Market: s.Market(), Permissions: s.Permissions()}
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(sessions) == 0 {
		return r.writePlain("No sessions. Create one with 'auxd session create'.\n")
	}

	r.writePlain("Found %d sessions:\n\n", len(sessions))
	for i, s := range sessions {
		r.writePlain("%d. %s\n", i+1, s.Name())
		r.writePlain("   Code: %s\n", s.Code())
		r.writePlain("   ID: %s\n", s.ID())
		printPermissions(r, s.Permissions())
		r.writePlain("\n")
	}

	return nil
}

// SessionDelete deletes a session by id or code.
func (r *Runner) SessionDelete(ctx context.Context, cmd *cli.Command) error {
	target := cmd.StringArg("session")
	if target == "" {
		return fmt.Errorf("%w: session id or code is required", shared.ErrMissingArgument)
	}

	d, err := r.buildDeps(cmd.String("config"))
	if err != nil {
		return err
	}
	defer d.Close()

	hostID, err := r.resolveHost(d, cmd.String("host"))
	if err != nil {
		return err
	}

	if err := d.actions.DeleteSession(hostID, target); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return r.writePlain("✓ Session %s deleted\n", target)
}

func printPermissions(r *Runner, p models.Permissions) {
	granted := []string{}
	for _, entry := range []struct {
		key     string
		allowed bool
	}{
		{"add_to_queue", p.AddToQueue},
		{"play_pause", p.PlayPause},
		{"skip", p.Skip},
		{"skip_queue", p.SkipQueue},
	} {
		if entry.allowed {
			granted = append(granted, entry.key)
		}
	}
	if len(granted) == 0 {
		r.writePlain("   Guests: view only\n")
		return
	}
	r.writePlain("   Guests may: %s\n", strings.Join(granted, ", "))
}
