package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pagesnap.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagesnap",
		Short: "Capture, sanitize, and deliver web page snapshots",
		Long: `pagesnap captures web page content into sanitized, versioned snapshots.

Captured pages are reduced to their main article content, stripped of
scripts and unsafe markup, scrubbed of email addresses and card numbers,
and stored in a bounded local queue. Queued snapshots are delivered to a
remote collector with retry accounting; items the collector rejects
permanently are dropped, and transient failures back off until the next
flush.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCaptureCmd())
	cmd.AddCommand(NewFlushCmd())
	cmd.AddCommand(NewQueueCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
