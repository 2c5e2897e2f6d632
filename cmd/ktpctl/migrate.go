package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"ktpapi/internal/app"
	"ktpapi/internal/config"
)

func newMigrateCmd(cfg *config.AppConfig, logger func() *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the ktp_records table and its indexes if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Same as what happens on server start.
			db, dialect, err := app.OpenDatabase(cmd.Context(), cfg.Database, logger())
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			defer db.Close()

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date (%s).\n", dialect)
			return err
		},
	}
}
