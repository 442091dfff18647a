package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pagesnap/pagesnap/internal/report"
)

// NewQueueCmd creates the queue command.
func NewQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show or clear the pending snapshot queue",
		Long: `Queue lists the snapshots waiting for delivery.

Examples:
  # List pending items
  pagesnap queue

  # Machine-readable output
  pagesnap queue --json

  # Markdown report written to a file
  pagesnap queue --markdown --output queue.md

  # Drop everything that is pending
  pagesnap queue --clear`,
		Args: cobra.NoArgs,
		RunE: runQueueCmd,
	}

	addCommonFlags(cmd)
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to the specified file path (creates directories if needed)")
	cmd.Flags().Bool("clear", false,
		"Empty the queue instead of listing it")

	return cmd
}

// runQueueCmd executes the queue command.
func runQueueCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOut && markdownOut {
		return errors.New("--json and --markdown are mutually exclusive")
	}

	clearQueue, err := cmd.Flags().GetBool("clear")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
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

	if clearQueue {
		if err := components.queue.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear queue: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "queue cleared")
		return nil
	}

	items, err := components.queue.GetQueue(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue: %w", err)
	}

	output := cmd.OutOrStdout()
	if outputPath != "" {
		if dir := filepath.Dir(outputPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		output = file
	}

	writer := selectWriter(output, jsonOut, markdownOut)
	if _, err := writer.Write(items); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// selectWriter picks the report format from the flags.
func selectWriter(output io.Writer, jsonOut, markdownOut bool) report.Writer {
	switch {
	case jsonOut:
		return report.NewJSONWriter(output)
	case markdownOut:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output)
	}
}
