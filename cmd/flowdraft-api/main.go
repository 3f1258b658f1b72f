package main

import (
	"context"
	"os"
	"time"

	"github.com/dukex/flowdraft/pkg/cmd"
	"github.com/dukex/flowdraft/pkg/editor"
	"github.com/dukex/flowdraft/pkg/log"
	"github.com/dukex/flowdraft/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "flowdraft-api"
	defaultPort = 9091
)

func main() {
	logger := log.WithModule("api")

	err := newCommand().Run(context.Background(), os.Args)
	if err != nil {
		logger.Error("Flowdraft API stopped", "error", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:                  serviceName,
		Usage:                 "Edit workflow graphs and browse document history",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Persistence URL (file://<dir> or postgres://...)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "cache-url",
				Usage:   "Role roster cache (empty for memory, none, or redis://...)",
				Sources: cli.EnvVars("CACHE_URL"),
			},
			&cli.DurationFlag{
				Name:    "cache-ttl",
				Usage:   "How long a cached role roster stays valid",
				Value:   5 * time.Minute,
				Sources: cli.EnvVars("CACHE_TTL"),
			},
			&cli.DurationFlag{
				Name:    "draft-ttl",
				Usage:   "Idle time after which an editing session is closed",
				Value:   30 * time.Minute,
				Sources: cli.EnvVars("DRAFT_TTL"),
			},
			&cli.DurationFlag{
				Name:    "save-timeout",
				Usage:   "Maximum time a draft save may take",
				Value:   editor.DefaultSaveTimeout,
				Sources: cli.EnvVars("SAVE_TIMEOUT"),
			},
			&cli.DurationFlag{
				Name:    "cleanup-interval",
				Usage:   "How often expired drafts and cache entries are swept",
				Value:   time.Minute,
				Sources: cli.EnvVars("CACHE_CLEANUP_INTERVAL"),
			},
			&cli.IntFlag{
				Name:    "diff-max-cells",
				Usage:   "Largest word table compared word by word before falling back to lines",
				Value:   0,
				Sources: cli.EnvVars("DIFF_MAX_CELLS"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP (configured by OTEL_* variables)",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log output format (text, json)",
				Value:   log.FormatText,
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing Flowdraft API")

			tracer := otelhelper.NoopTracer()

			if command.Bool("tracing") {
				var (
					shutdown otelhelper.Shutdown
					err      error
				)

				tracer, shutdown, err = otelhelper.NewTracer(ctx, serviceName)
				if err != nil {
					return err
				}

				defer func() {
					if err := shutdown(context.Background()); err != nil {
						logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
					}
				}()
			}

			return run(ctx, command, tracer)
		},
	}
}

func run(ctx context.Context, command *cli.Command, tracer trace.Tracer) error {
	logger := log.WithModule("api")

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), serviceName, logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	rosterCache, err := cmd.NewCache(ctx, command.String("cache-url"), command.Duration("cache-ttl"))
	if err != nil {
		return err
	}

	defer func() {
		if err := rosterCache.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close cache", "error", err)
		}
	}()

	api, err := NewAPI(logger, persistence, eventBus, rosterCache, tracer, configFromCommand(command))
	if err != nil {
		return err
	}

	return api.Start(ctx, command.Int("port"))
}

func configFromCommand(command *cli.Command) Config {
	return Config{
		CacheTTL:        command.Duration("cache-ttl"),
		DraftTTL:        command.Duration("draft-ttl"),
		SaveTimeout:     command.Duration("save-timeout"),
		CleanupInterval: command.Duration("cleanup-interval"),
		DiffMaxCells:    command.Int("diff-max-cells"),
	}
}
