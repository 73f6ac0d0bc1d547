// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/tracklib/internal/formatter"
	"github.com/urfave/cli/v3"
)

// app builds the root command; config is loaded by [Runner.Configure] before any action runs.
func app(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tracklib",
		Usage:   "Ingest Spotify track metadata by ISRC",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("TRACKLIB_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with credentials",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Before:   r.Configure,
		Commands: r.register(),
	}
}

func formatFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: " + strings.Join(formatter.Formats, ", "),
			Value:   formatter.FormatText,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to a file instead of stdout",
		},
	}
}

// serveCommand runs the HTTP service
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP ingestion service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (default from config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (default from config or $PORT)",
			},
		},
		Action: r.Serve,
	}
}

// ingestCommand ingests one or more ISRCs
func ingestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Fetch tracks from Spotify by ISRC and store them",
		ArgsUsage: "<isrc> [isrc...]",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "Read ISRCs from a file, one per line",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent ingests for multiple ISRCs",
				Value: 4,
			},
		}, formatFlags()...),
		Action: r.Ingest,
	}
}

// trackCommand shows a stored track
func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "track",
		Usage:     "Show a stored track by ISRC",
		ArgsUsage: "<isrc>",
		Flags:     formatFlags(),
		Action:    r.Track,
	}
}

// tracksCommand lists stored tracks for an artist
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "List stored tracks by artist name",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "artist",
				Aliases:  []string{"a"},
				Usage:    "Artist name (case-insensitive exact match)",
				Required: true,
			},
		}, formatFlags()...),
		Action: r.Tracks,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the database (sqlite migrations or mongo indexes)",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent sqlite migration",
				Action: r.SetupRollback,
			},
		},
	}
}
