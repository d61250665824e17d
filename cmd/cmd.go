// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// configFlag is shared by commands that read config.toml overrides.
func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// tokenFlag is shared by commands that talk to a running server as an
// authenticated actor.
func tokenFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "token",
		Usage: "Session token (defaults to SIDESTAGE_TOKEN)",
	}
}

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// serveCommand runs the HTTP server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the event companion HTTP server",
		Action: r.Serve,
	}
}

// authCommand handles local identity operations.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage users and session tokens",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create a user and print a session token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Display name for the new user",
						Required: true,
					},
				},
				Action: r.AuthRegister,
			},
		},
	}
}

// eventsCommand handles event management against the local database.
func eventsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "events",
		Aliases: []string{"event"},
		Usage:   "Manage events",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create an event",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Event display name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "slug",
						Usage:    "URL slug (lowercase letters, digits, hyphens)",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "ends-in",
						Usage: "How long until the event ends",
						Value: defaultEventDuration,
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "List the event publicly",
						Value: true,
					},
					&cli.IntFlag{
						Name:  "width",
						Usage: "Canvas width in cells",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "height",
						Usage: "Canvas height in cells",
						Value: 32,
					},
					&cli.StringFlag{
						Name:  "palette",
						Usage: "Comma-separated hex colors for the canvas",
						Value: defaultPalette,
					},
					&cli.StringFlag{
						Name:  "default",
						Usage: "Default cell color (first palette color if empty)",
					},
				},
				Action: r.EventsCreate,
			},
			{
				Name:  "list",
				Usage: "List events",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Include unlisted events",
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
				Action: r.EventsList,
			},
			{
				Name:  "delete",
				Usage: "Delete an event and everything attached to it",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "slug",
						Usage:    "Event slug",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Skip the confirmation prompt",
					},
				},
				Action: r.EventsDelete,
			},
			{
				Name:  "admin",
				Usage: "Grant a user admin rights on an event",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "slug",
						Usage:    "Event slug",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "user",
						Usage:    "User ID to promote",
						Required: true,
					},
				},
				Action: r.EventsAddAdmin,
			},
			{
				Name:  "webhook-secret",
				Usage: "Set the GitHub webhook secret for an event",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "slug",
						Usage:    "Event slug",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "secret",
						Usage:    "HMAC secret shared with GitHub",
						Required: true,
					},
				},
				Action: r.EventsSetWebhookSecret,
			},
		},
	}
}

// placeCommand handles canvas operations.
func placeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "place",
		Usage: "Collaborative canvas operations",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Render the canvas as character art",
				Flags:  []cli.Flag{slugFlag()},
				Action: r.PlaceShow,
			},
			{
				Name:  "export",
				Usage: "Export a canvas snapshot to a file",
				Flags: []cli.Flag{
					slugFlag(),
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: csv, markdown, or text",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (format-specific default if empty)",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Title for markdown exports",
					},
				},
				Action: r.PlaceExport,
			},
			{
				Name:  "journal",
				Usage: "Export the commit journal to CSV",
				Flags: []cli.Flag{
					slugFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of commits (0 for all)",
					},
				},
				Action: r.PlaceJournal,
			},
			{
				Name:  "reset",
				Usage: "Replace the canvas with a fresh one (admin only)",
				Flags: []cli.Flag{
					slugFlag(),
					tokenFlag(),
					&cli.IntFlag{
						Name:  "width",
						Usage: "New canvas width",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "height",
						Usage: "New canvas height",
						Value: 32,
					},
					&cli.StringFlag{
						Name:  "palette",
						Usage: "Comma-separated hex colors",
						Value: defaultPalette,
					},
					&cli.StringFlag{
						Name:  "default",
						Usage: "Default cell color (first palette color if empty)",
					},
				},
				Action: r.PlaceReset,
			},
			{
				Name:   "watch",
				Usage:  "Stream accepted writes from a running server",
				Flags:  []cli.Flag{slugFlag()},
				Action: r.PlaceWatch,
			},
			{
				Name:  "seed",
				Usage: "Paint a starter pattern onto the canvas",
				Flags: []cli.Flag{
					slugFlag(),
					&cli.StringFlag{
						Name:     "actor",
						Usage:    "User ID to write as (must be an event admin)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "pattern",
						Usage: "Pattern: checkerboard or border",
						Value: "checkerboard",
					},
					&cli.StringFlag{
						Name:  "colors",
						Usage: "Comma-separated pattern colors",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Writes per second",
						Value: 20,
					},
				},
				Action: r.PlaceSeed,
			},
		},
	}
}

// spotifyCommand handles the organizer's Spotify integration.
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify now-playing integration",
		Commands: []*cli.Command{
			{
				Name:   "connect",
				Usage:  "Authenticate with Spotify using OAuth2",
				Action: r.SpotifyConnect,
			},
			{
				Name:  "poll",
				Usage: "Authenticate and poll playback into an event's now-playing feed",
				Flags: []cli.Flag{
					slugFlag(),
					&cli.DurationFlag{
						Name:  "interval",
						Usage: "Polling interval",
						Value: defaultPollInterval,
					},
				},
				Action: r.SpotifyPoll,
			},
			{
				Name:   "now-playing",
				Usage:  "Show the stored now-playing snapshot for an event",
				Flags:  []cli.Flag{slugFlag()},
				Action: r.SpotifyNowPlaying,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive canvas painting.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for browsing events and painting",
		Flags:   []cli.Flag{tokenFlag()},
		Action:  r.TUI,
	}
}

func slugFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "slug",
		Usage:    "Event slug",
		Required: true,
	}
}
