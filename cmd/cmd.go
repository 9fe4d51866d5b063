// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml template to the current directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path for the config file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// searchCommand searches the public catalog.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the public catalog for tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "term",
			},
		},
		Flags: []cli.Flag{
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

// likesCommand manages the liked-track set.
func likesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "likes",
		Aliases: []string{"liked"},
		Usage:   "Manage liked tracks",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List liked tracks",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.LikesList,
			},
			{
				Name:  "add",
				Usage: "Search the catalog and like the best match",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "term",
					},
				},
				Action: r.LikesAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a track from the liked set by track ID",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.LikesRemove,
			},
			{
				Name:  "export",
				Usage: "Export liked tracks to CSV, Markdown or plain text",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format (csv, md or txt)",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file or directory path",
					},
				},
				Action: r.LikesExport,
			},
		},
	}
}

// curateCommand turns a natural-language prompt into a playlist.
func curateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "curate",
		Usage: "Generate a playlist from a natural-language prompt",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "prompt",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save the resolved playlist to the local database",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Curate,
	}
}

// playlistsCommand manages saved playlists.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Manage saved playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "show",
				Usage: "Show a saved playlist and its tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.PlaylistsShow,
			},
			{
				Name:  "delete",
				Usage: "Delete a saved playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.PlaylistsDelete,
			},
			{
				Name:  "export",
				Usage: "Export a saved playlist to CSV, Markdown or plain text",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format (csv, md or txt)",
						Value: "md",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file or directory path",
					},
				},
				Action: r.PlaylistsExport,
			},
		},
	}
}

// loginCommand signs in to the hosted profile store.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Sign in to sync likes and listening time to your profile",
		Action: r.Login,
	}
}

// logoutCommand clears the stored access token.
func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Sign out and return to local-only operation",
		Action: r.Logout,
	}
}

// profileCommand shows the remote listening profile.
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show the signed-in listening profile",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Profile,
	}
}

// playCommand launches the interactive player.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "play",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive player",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "socket",
				Usage: "Control socket of the media backend (overrides config)",
			},
		},
		Action: r.Play,
	}
}
