package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sportsbuddy/config"
	"sportsbuddy/internal/repository/postgres"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.Store != config.StorePostgres {
				return errors.New("migrate requires STORE=postgres")
			}
			db, err := postgres.Open(cmd.Context(), c.cfg.DBUrl)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := postgres.Migrate(cmd.Context(), db)
			if err != nil {
				return err
			}
			for _, name := range applied {
				fmt.Fprintln(c.out, "applied", name)
			}
			if len(applied) == 0 {
				fmt.Fprintln(c.out, "schema is up to date")
			}
			return nil
		},
	}
}
