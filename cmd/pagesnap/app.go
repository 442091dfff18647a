package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pagesnap/pagesnap/internal/config"
	"github.com/pagesnap/pagesnap/internal/dispatcher"
	"github.com/pagesnap/pagesnap/internal/log"
	"github.com/pagesnap/pagesnap/internal/queue"
	"github.com/pagesnap/pagesnap/internal/storage"
	"github.com/pagesnap/pagesnap/internal/uploader"
)

// addCommonFlags registers the flags shared by every pipeline command.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pagesnap in current or home directory)")
	cmd.Flags().String("base-url", config.DefaultBaseURL,
		"Collector API base URL")
	cmd.Flags().String("data-dir", "",
		"Directory holding the local queue database (default: XDG data dir)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates a redacting structured logger based on verbosity.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// buildConfig creates a Config from defaults, the optional config file,
// and command flags, in that precedence order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly named a config file, it must exist. Without
	// an explicit path a missing file just means defaults.
	explicitConfigPath := configPath != ""
	foundPath := config.FindConfigFile(configPath)
	if foundPath != "" {
		file, err := config.LoadConfigFile(foundPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", foundPath, err)
		}
		cfg.ApplyFile(file)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	// Flags override the file.
	if cmd.Flags().Changed("base-url") {
		cfg.BaseURL, err = cmd.Flags().GetString("base-url")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, err = cmd.Flags().GetString("data-dir")
		if err != nil {
			return nil, err
		}
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// pipelineComponents bundles the wired storage and delivery components
// behind one open/close pair.
type pipelineComponents struct {
	store      *storage.KVStore
	manager    *storage.Manager
	queue      *queue.Store
	dispatcher *dispatcher.Dispatcher
}

// openPipeline opens the local database and wires the queue, uploader,
// and dispatcher over it.
func openPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipelineComponents, error) {
	store, err := storage.Open(cfg.DataDir, storage.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	manager := storage.NewManager(store, storage.WithLogger(logger))
	if err := manager.Bootstrap(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to bootstrap storage: %w", err)
	}

	queueStore := queue.New(manager,
		queue.WithLogger(logger),
		queue.WithMaxItems(cfg.MaxQueueItems),
		queue.WithMaxBytes(cfg.MaxSnapshotBytes),
	)
	client := uploader.NewClient(cfg, uploader.WithLogger(logger))
	d := dispatcher.New(queueStore, client,
		dispatcher.WithLogger(logger),
		dispatcher.WithMaxAttempts(cfg.MaxAttempts),
	)

	return &pipelineComponents{
		store:      store,
		manager:    manager,
		queue:      queueStore,
		dispatcher: d,
	}, nil
}

// Close waits for background flushes and closes the database.
func (p *pipelineComponents) Close() error {
	p.dispatcher.Wait()
	return p.store.Close()
}
