package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/auxd/internal/formatter"
	"github.com/desertthunder/auxd/internal/sessions"
	"github.com/desertthunder/auxd/internal/shared"
	"github.com/urfave/cli/v3"
)

// SessionHistory prints or exports the host's recently played tracks.
func (r *Runner) SessionHistory(ctx context.Context, cmd *cli.Command) error {
	d, err := r.buildDeps(cmd.String("config"))
	if err != nil {
		return err
	}
	defer d.Close()

	creds := sessions.Credentials{
		Code:     cmd.String("code"),
		Password: cmd.String("password"),
	}

	history, err := d.actions.GetHistory(ctx, creds)
	if err != nil {
		return fmt.Errorf("failed to fetch history: %w", err)
	}

	rows := formatter.HistoryRows(history)

	if format := cmd.String("format"); format != "" {
		path, err := formatter.WriteExport(rows, "Recently Played", format, cmd.String("output"))
		if err != nil {
			return fmt.Errorf("failed to export history: %w", err)
		}
		return r.writePlain("✓ History exported to %s\n", path)
	}

	if len(rows) == 0 {
		return r.writePlain("No recently played tracks\n")
	}

	r.writePlainHeader("Recently Played")
	for i, row := range rows {
		r.writePlain("%d. %s - %s\n", i+1, row.Artists, row.Title)
		if row.Timestamp != "" {
			r.writePlain("   Played: %s\n", row.Timestamp)
		}
	}

	return nil
}

// LibraryFavourites lists or exports the host's saved tracks.
func (r *Runner) LibraryFavourites(ctx context.Context, cmd *cli.Command) error {
	d, err := r.buildDeps(cmd.String("config"))
	if err != nil {
		return err
	}
	defer d.Close()

	hostID, err := r.resolveHost(d, cmd.String("host"))
	if err != nil {
		return err
	}

	page, err := d.actions.GetFavourites(ctx, hostID, int(cmd.Int("limit")), int(cmd.Int("offset")))
	if err != nil {
		return fmt.Errorf("failed to fetch favourites: %w", err)
	}

	rows := formatter.FavouriteRows(page)

	if format := cmd.String("format"); format != "" {
		path, err := formatter.WriteExport(rows, "Favourites", format, cmd.String("output"))
		if err != nil {
			return fmt.Errorf("failed to export favourites: %w", err)
		}
		return r.writePlain("✓ Favourites exported to %s\n", path)
	}

	if len(rows) == 0 {
		return r.writePlain("No saved tracks\n")
	}

	r.writePlainHeader(fmt.Sprintf("Favourites (%d total)", page.Total))
	for i, row := range rows {
		r.writePlain("%d. %s - %s\n", i+1, row.Artists, row.Title)
	}

	return nil
}

// LibraryCheck reports whether a track is in the host's library.
func (r *Runner) LibraryCheck(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track")
	if trackID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrMissingArgument)
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

	saved, err := d.actions.HasSavedTrack(ctx, hostID, trackID)
	if err != nil {
		return fmt.Errorf("failed to check track: %w", err)
	}

	if saved {
		return r.writePlain("✓ Track %s is saved\n", trackID)
	}
	return r.writePlain("✗ Track %s is not saved\n", trackID)
}

// LibrarySave saves a track to the host's library.
func (r *Runner) LibrarySave(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track")
	if trackID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrMissingArgument)
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

	if err := d.actions.SaveTrack(ctx, hostID, trackID); err != nil {
		return fmt.Errorf("failed to save track: %w", err)
	}

	return r.writePlain("✓ Track %s saved\n", trackID)
}

// LibraryRemove removes a track from the host's library.
func (r *Runner) LibraryRemove(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track")
	if trackID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrMissingArgument)
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

	if err := d.actions.RemoveSavedTrack(ctx, hostID, trackID); err != nil {
		return fmt.Errorf("failed to remove track: %w", err)
	}

	return r.writePlain("✓ Track %s removed\n", trackID)
}
