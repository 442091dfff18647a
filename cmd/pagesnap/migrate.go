package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate command.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Re-apply storage defaults and upgrade old queue items",
		Long: `Migrate seeds any missing storage defaults and upgrades queued
snapshots written by older versions to the current schema. It is
idempotent: running it against current data changes nothing.`,
		Args: cobra.NoArgs,
		RunE: runMigrateCmd,
	}

	addCommonFlags(cmd)
	cmd.Flags().String("from", "",
		"Version the stored data was written by (informational, recorded in logs)")

	return cmd
}

// runMigrateCmd executes the migrate command.
func runMigrateCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	from, err := cmd.Flags().GetString("from")
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	components, err := openPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	if err := components.manager.Migrate(ctx, from); err != nil {
		return fmt.Errorf("failed to migrate storage: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "migration complete")
	return nil
}
