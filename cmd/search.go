package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/auxd/internal/shared"
	"github.com/desertthunder/auxd/internal/spotify"
	"github.com/urfave/cli/v3"
)

// Search queries the Spotify catalog using app credentials, no host
// account required.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}

	d, err := r.buildDeps(cmd.String("config"))
	if err != nil {
		return err
	}
	defer d.Close()

	types := strings.Split(cmd.String("type"), ",")
	for i := range types {
		types[i] = strings.TrimSpace(types[i])
	}

	r.logger.Infof("searching catalog for %q", query)

	results, err := d.actions.Search(ctx, query, types, cmd.String("market"), int(cmd.Int("page")))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, cmd.Bool("pretty"))
	}

	printed := false
	if results.Tracks != nil && len(results.Tracks.Items) > 0 {
		printed = true
		r.writePlainHeader(fmt.Sprintf("Tracks (%d total)", results.Tracks.Total))
		for i, track := range results.Tracks.Items {
			r.writePlain("%d. %s — %s\n", i+1, track.Name, artistNames(track.Artists))
			r.writePlain("   URI: %s\n", track.URI)
		}
	}
	if results.Albums != nil && len(results.Albums.Items) > 0 {
		printed = true
		r.writePlainHeader(fmt.Sprintf("Albums (%d total)", results.Albums.Total))
		for i, album := range results.Albums.Items {
			r.writePlain("%d. %s\n", i+1, album.Name)
		}
	}
	if results.Artists != nil && len(results.Artists.Items) > 0 {
		printed = true
		r.writePlainHeader(fmt.Sprintf("Artists (%d total)", results.Artists.Total))
		for i, artist := range results.Artists.Items {
			r.writePlain("%d. %s\n", i+1, artist.Name)
		}
	}

	if !printed {
		return r.writePlain("No results for %q\n", query)
	}

	return nil
}

func artistNames(artists []spotify.Artist) string {
	names := make([]string, len(artists))
	for i, artist := range artists {
		names[i] = artist.Name
	}
	return strings.Join(names, ", ")
}
