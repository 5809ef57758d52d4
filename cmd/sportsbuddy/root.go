package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"sportsbuddy/config"
)

// cli holds what the persistent pre-run loads for every subcommand.
type cli struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

func newRootCmd() *cobra.Command {
	c := &cli{out: os.Stdout}
	root := &cobra.Command{
		Use:           "sportsbuddy",
		Short:         "SportsBuddy event API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if store, _ := cmd.Flags().GetString("store"); store != "" {
				if store != config.StorePostgres && store != config.StoreMemory {
					return fmt.Errorf("--store must be %q or %q", config.StorePostgres, config.StoreMemory)
				}
				cfg.Store = store
			}
			c.cfg = cfg
			c.logger = cfg.Logger(cmd.ErrOrStderr())
			slog.SetDefault(c.logger)
			return nil
		},
	}
	root.PersistentFlags().String("store", "", `override STORE ("postgres" or "memory")`)
	root.AddCommand(c.serveCmd(), c.migrateCmd(), c.promoteCmd())
	return root
}
