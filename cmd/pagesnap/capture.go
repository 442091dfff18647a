package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pagesnap/pagesnap/internal/config"
	"github.com/pagesnap/pagesnap/internal/notify"
	"github.com/pagesnap/pagesnap/internal/queue"
	"github.com/pagesnap/pagesnap/internal/snapshot"
)

// NewCaptureCmd creates the capture command.
func NewCaptureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture [url]...",
		Short: "Capture pages into sanitized snapshots and queue them",
		Long: `Capture fetches each page, extracts its main article content, sanitizes
and redacts it, and appends the snapshot to the local delivery queue.
Queued snapshots are flushed to the collector in the background.

Examples:
  # Capture a single page
  pagesnap capture https://example.com/article

  # Capture several pages concurrently
  pagesnap capture https://example.com/a https://example.com/b

  # Capture a locally saved page
  pagesnap capture --file saved.html https://example.com/article

  # Queue only, without contacting the collector
  pagesnap capture --no-flush https://example.com/article`,
		Args: cobra.ArbitraryArgs,
		RunE: runCaptureCmd,
	}

	addCommonFlags(cmd)
	cmd.Flags().StringP("file", "f", "",
		"Read page HTML from a local file instead of fetching (requires exactly one url)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent captures")
	cmd.Flags().Bool("no-flush", false,
		"Queue snapshots without triggering delivery")

	return cmd
}

// runCaptureCmd executes the capture command.
func runCaptureCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return errors.New("no urls provided (specify one or more urls as arguments)")
	}

	filePath, err := cmd.Flags().GetString("file")
	if err != nil {
		return err
	}
	if filePath != "" && len(args) != 1 {
		return errors.New("--file requires exactly one url argument")
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return err
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}

	noFlush, err := cmd.Flags().GetBool("no-flush")
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

	enabled, err := components.manager.GetEnabled(ctx)
	if err != nil {
		return fmt.Errorf("failed to read enabled state: %w", err)
	}
	if !enabled {
		return errors.New("capturing is disabled (run 'pagesnap migrate' or enable it in storage)")
	}

	// Result lines flow through the mailbox so capture goroutines never
	// write to the terminal directly.
	var outMu sync.Mutex
	mailbox := notify.New()
	mailbox.Register(func(msg notify.Message) {
		outMu.Lock()
		defer outMu.Unlock()

		out := cmd.OutOrStdout()
		if msg.Level == notify.LevelError {
			out = cmd.ErrOrStderr()
		}
		fmt.Fprintln(out, msg.Text)
	})
	defer mailbox.Unregister()

	builder := snapshot.NewBuilder(snapshot.WithLogger(logger))

	var failedMu sync.Mutex
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.BatchSize)
	for _, pageURL := range args {
		pageURL := pageURL
		g.Go(func() error {
			if err := captureOne(gctx, cfg, components, builder, mailbox, pageURL, filePath, noFlush); err != nil {
				mailbox.Publish(notify.Message{
					Level: notify.LevelError,
					Text:  fmt.Sprintf("✗ %s: %v", pageURL, err),
				})
				failedMu.Lock()
				failed++
				failedMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Let fire-and-forget flushes finish before reporting what is left.
	components.dispatcher.Wait()

	items, err := components.queue.GetQueue(ctx)
	if err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d item(s) pending delivery\n", len(items))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d capture(s) failed", failed, len(args))
	}
	return nil
}

// captureOne captures a single page and queues its snapshot.
func captureOne(
	ctx context.Context,
	cfg *config.Config,
	components *pipelineComponents,
	builder *snapshot.Builder,
	mailbox *notify.Mailbox,
	pageURL, filePath string,
	noFlush bool,
) error {
	var rawHTML string
	var err error
	if filePath != "" {
		rawHTML, err = readLocalPage(filePath)
	} else {
		rawHTML, err = fetchPage(ctx, cfg, pageURL)
	}
	if err != nil {
		return err
	}

	page, err := builder.Capture(ctx, rawHTML, pageURL)
	if err != nil {
		return err
	}
	crawlSnapshot := builder.ToCrawlSnapshot(ctx, page)

	var result queue.EnqueueResult
	if noFlush {
		result = components.queue.Enqueue(ctx, crawlSnapshot)
	} else {
		result = components.dispatcher.AddSnapshotAndFlush(ctx, crawlSnapshot)
	}

	switch {
	case result.Status == queue.StatusQueued:
		mailbox.Publish(notify.Message{
			Level: notify.LevelSuccess,
			Text:  fmt.Sprintf("✓ %s (id=%s source=%s)", pageURL, result.Item.ID, page.Source),
		})
	case result.Reason == queue.ReasonTooLarge:
		return errors.New("snapshot too large for the queue")
	default:
		return errors.New("storage failure while queuing snapshot")
	}

	// Activity history is best effort; a full log never blocks a capture.
	if err := components.manager.RecordActivity(ctx, time.Now().UnixMilli(), "capture "+pageURL); err != nil {
		slog.Default().Warn("failed to record activity", "url", pageURL, "error", err)
	}
	return nil
}

// fetchPage retrieves the page body over HTTP, bounded by the configured
// body size limit.
func fetchPage(ctx context.Context, cfg *config.Config, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	client := &http.Client{Timeout: cfg.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d fetching page", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, cfg.MaxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read page body: %w", err)
	}
	return string(body), nil
}

// readLocalPage reads page HTML from a file on disk.
func readLocalPage(path string) (string, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read page file: %w", err)
	}
	return string(body), nil
}
