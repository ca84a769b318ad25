// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func hostFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "host",
		Usage: "Host account to operate as (Spotify user id)",
	}
}

// setupCommand handles database initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// authCommand handles host account linking and token state.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the linked Spotify account",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Link a Spotify account using OAuth2",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show linked accounts and token state",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthStatus,
			},
			{
				Name:   "check",
				Usage:  "Probe the upstream API and recover an expired token",
				Flags:  []cli.Flag{configFlag(), hostFlag()},
				Action: r.AuthCheck,
			},
		},
	}
}

// serveCommand starts the guest-facing HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the playback sharing API server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// sessionCommand manages listening sessions for the host.
func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sess"},
		Usage:   "Manage listening sessions",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a session guests can join with its code and password",
				Flags: []cli.Flag{
					configFlag(),
					hostFlag(),
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Session name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Password guests must present (min 4 characters)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "market",
						Usage: "Market used for catalog search",
						Value: "DE",
					},
					&cli.BoolFlag{
						Name:  "allow-play-pause",
						Usage: "Let guests pause and resume playback",
					},
					&cli.BoolFlag{
						Name:  "allow-skip",
						Usage: "Let guests skip forward and backward",
					},
					&cli.BoolFlag{
						Name:  "allow-skip-queue",
						Usage: "Let guests jump ahead to a queued track",
					},
					&cli.BoolFlag{
						Name:  "no-queue",
						Usage: "Forbid guests from adding tracks to the queue",
					},
				},
				Action: r.SessionCreate,
			},
			{
				Name:  "list",
				Usage: "List sessions for the host",
				Flags: []cli.Flag{
					configFlag(),
					hostFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.SessionList,
			},
			{
				Name:  "history",
				Usage: "Show or export the host's recently played tracks",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "code",
						Usage:    "Session code",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Session password",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, text)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.SessionHistory,
			},
			{
				Name:  "delete",
				Usage: "Delete a session by id or code",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "session"},
				},
				Flags:  []cli.Flag{configFlag(), hostFlag()},
				Action: r.SessionDelete,
			},
		},
	}
}

// libraryCommand manages the host's liked tracks.
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Manage the host's saved tracks",
		Commands: []*cli.Command{
			{
				Name:    "favourites",
				Aliases: []string{"favorites", "liked"},
				Usage:   "List or export the host's saved tracks",
				Flags: []cli.Flag{
					configFlag(),
					hostFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of tracks per page",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Pagination offset",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, text)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.LibraryFavourites,
			},
			{
				Name:  "check",
				Usage: "Check whether a track is saved",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track"},
				},
				Flags:  []cli.Flag{configFlag(), hostFlag()},
				Action: r.LibraryCheck,
			},
			{
				Name:  "save",
				Usage: "Save a track to the host's library",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track"},
				},
				Flags:  []cli.Flag{configFlag(), hostFlag()},
				Action: r.LibrarySave,
			},
			{
				Name:  "remove",
				Usage: "Remove a track from the host's library",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track"},
				},
				Flags:  []cli.Flag{configFlag(), hostFlag()},
				Action: r.LibraryRemove,
			},
		},
	}
}

// searchCommand searches the catalog with app credentials.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the Spotify catalog",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "type",
				Usage: "Comma-separated result types (track, album, artist)",
				Value: "track",
			},
			&cli.StringFlag{
				Name:  "market",
				Usage: "Market to search in",
				Value: "DE",
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Zero-based result page",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Search,
	}
}

// monitorCommand returns the interactive session monitor.
func monitorCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "monitor",
		Aliases: []string{"tui"},
		Usage:   "Watch and control a session from the terminal",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "code",
				Usage:    "Session code",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Usage:    "Session password",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "as-host",
				Usage: "Control the session as its host (Spotify user id)",
			},
		},
		Action: r.Monitor,
	}
}
