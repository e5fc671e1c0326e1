package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cimillas/eventtix/migrations"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !e.cfg.StoreConfigured() {
				return errStoreNotConfigured
			}
			pool, err := connect(cmd.Context(), e.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := migrations.Apply(cmd.Context(), pool)
			if err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			for _, name := range applied {
				e.logger.Info("migration applied", slog.String("name", name))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied\n", len(applied))
			return nil
		},
	}
}
