package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// NewFlushCmd creates the flush command.
func NewFlushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Deliver pending snapshots to the collector",
		Long: `Flush runs one delivery pass over the pending queue.

Items are submitted in arrival order. Delivered items leave the queue,
permanently rejected items are dropped, and the first transient failure
stops the pass; the next flush resumes from there.`,
		Args: cobra.NoArgs,
		RunE: runFlushCmd,
	}

	addCommonFlags(cmd)
	return cmd
}

// runFlushCmd executes the flush command.
func runFlushCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
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

	result, err := components.dispatcher.FlushQueue(ctx)
	if err != nil {
		return fmt.Errorf("failed to flush queue: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "sent=%d pending=%d\n", result.Sent, result.Pending)
	return nil
}
