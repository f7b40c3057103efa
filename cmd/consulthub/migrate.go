package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"consulthub/internal/platform/database"
	"consulthub/migrations"
)

func newMigrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPool(cmd, a, func(pool *database.Pool) error {
				if err := migrations.Down(pool.DB().DB, steps); err != nil {
					return err
				}
				a.logger.Info("migrations rolled back", "steps", steps)
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withPool(cmd, a, func(pool *database.Pool) error {
					if err := migrations.Up(pool.DB().DB); err != nil {
						return err
					}
					a.logger.Info("migrations applied")
					return nil
				})
			},
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withPool(cmd, a, func(pool *database.Pool) error {
					v, dirty, err := migrations.Version(pool.DB().DB)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
					return err
				})
			},
		},
	)
	return cmd
}

// withPool runs fn against the configured database. Commands that need one
// fail when no database URL is set.
func withPool(cmd *cobra.Command, a *app, fn func(*database.Pool) error) error {
	pool, err := database.New(cmd.Context(), database.Config{
		URL:             a.cfg.Database.URL,
		MaxOpenConns:    a.cfg.Database.MaxOpenConns,
		MaxIdleConns:    a.cfg.Database.MaxIdleConns,
		ConnMaxLifetime: a.cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if pool == nil {
		return fmt.Errorf("database.url is required for %s", cmd.CommandPath())
	}
	defer pool.Close() //nolint:errcheck // best-effort on exit
	return fn(pool)
}
