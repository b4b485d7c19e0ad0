package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/okra-platform/stitch/internal/commands"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	ctrl := &commands.Controller{
		Flags: &commands.Flags{},
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	schemaFlag := &cli.StringFlag{
		Name:    "schema",
		Aliases: []string{"s"},
		Usage:   "overall schema file (default: the default namespace of stitch.json)",
	}

	app := &cli.Command{
		Name:    "stitch",
		Usage:   "Record which schema definitions every field, argument and value of a GraphQL operation resolves to",
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (trace, debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("STITCH_LOG_LEVEL"),
				Value:       "info",
				Destination: &ctrl.Flags.LogLevel,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return ctx, fmt.Errorf("failed to parse log level: %w", err)
			}

			log.Logger = log.Level(level)

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create a new gateway project from a template",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Init(ctx)
				},
			},
			{
				Name:      "annotate",
				Usage:     "Record type information for a query and print it",
				ArgsUsage: "QUERY_FILE (- for stdin)",
				Flags: []cli.Flag{
					schemaFlag,
					&cli.StringFlag{
						Name:  "type",
						Usage: "record the query's selection set against this output type",
					},
					&cli.StringFlag{
						Name:  "ids",
						Usage: "identifier generator (counter, uuid)",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "output format (json, dump)",
						Value: commands.FormatJSON,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Annotate(ctx, commands.AnnotateOptions{
						Schema: c.String("schema"),
						Type:   c.String("type"),
						IDs:    c.String("ids"),
						Format: c.String("format"),
						Query:  c.Args().First(),
					})
				},
			},
			{
				Name:  "inspect",
				Usage: "List the services and field transformations of an overall schema",
				Flags: []cli.Flag{schemaFlag},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Inspect(ctx, commands.InspectOptions{
						Schema: c.String("schema"),
					})
				},
			},
			{
				Name:  "serve",
				Usage: "Serve type information for every configured namespace over HTTP",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "port",
						Usage: "port to listen on (default: serve.port of stitch.json)",
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "reload schemas when they change",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Serve(ctx, commands.ServeOptions{
						Port:  int(c.Int("port")),
						Watch: c.Bool("watch"),
					})
				},
			},
		},
	}

	ctx := context.Background()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run stitch")
	}
}
