package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ktpapi/internal/app"
	"ktpapi/internal/config"
	"ktpapi/internal/logging"
)

// deps lets tests replace the wiring behind the commands.
type deps struct {
	build func(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*app.Stack, error)
}

func defaultDeps() deps {
	return deps{
		build: func(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*app.Stack, error) {
			return app.Build(ctx, cfg, logger, nil)
		},
	}
}

func newRootCmd(cfg *config.AppConfig, d deps) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "ktpctl",
		Short:         "ktpctl runs KTP extraction and database maintenance without the HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level to stderr")
	cmd.PersistentFlags().StringVar(&cfg.Database.URL, "database-url", cfg.Database.URL, "storage connection string")

	logger := func() *slog.Logger {
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			level = slog.LevelInfo
		}
		if verbose {
			level = slog.LevelDebug
		} else if level < slog.LevelWarn {
			level = slog.LevelWarn
		}
		return logging.New(os.Stderr, level, logging.LoadLocation(cfg.Timezone))
	}

	cmd.AddCommand(
		newMigrateCmd(cfg, logger),
		newExtractCmd(cfg, d, logger),
		newTypesCmd(),
	)

	return cmd
}
