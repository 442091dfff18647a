package dispatcher

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/pagesnap/pagesnap/internal/config"
	"github.com/pagesnap/pagesnap/internal/model"
	"github.com/pagesnap/pagesnap/internal/queue"
	"github.com/pagesnap/pagesnap/internal/uploader"
)

// Submitter submits one queue item to the collector.
type Submitter interface {
	SubmitSnapshot(ctx context.Context, item model.CrawlQueueItem) uploader.Result
}

// FlushResult summarizes one flush pass.
type FlushResult struct {
	// Sent is the number of items delivered in this pass.
	Sent int

	// Pending is the number of items left in the queue after this pass.
	Pending int
}

// Dispatcher connects the queue store to the uploader.
type Dispatcher struct {
	queue       *queue.Store
	submitter   Submitter
	logger      *slog.Logger
	maxAttempts int

	// group coalesces concurrent flush triggers into one pass.
	group singleflight.Group

	// mu serializes the queue's read-modify-write window against
	// concurrent enqueues.
	mu sync.Mutex

	// background tracks fire-and-forget flushes so tests and shutdown
	// can wait for them.
	background sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMaxAttempts overrides the per-item retry ceiling.
func WithMaxAttempts(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// New creates a Dispatcher over the given queue store and submitter.
func New(queueStore *queue.Store, submitter Submitter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:       queueStore,
		submitter:   submitter,
		maxAttempts: config.DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// AddSnapshotAndFlush enqueues a snapshot and, when it was queued,
// triggers a background flush. The caller gets the enqueue result
// immediately; delivery happens asynchronously.
func (d *Dispatcher) AddSnapshotAndFlush(ctx context.Context, snapshot model.CrawlSnapshot) queue.EnqueueResult {
	d.mu.Lock()
	result := d.queue.Enqueue(ctx, snapshot)
	d.mu.Unlock()

	if result.Status != queue.StatusQueued {
		return result
	}

	flushCtx := context.WithoutCancel(ctx)
	d.background.Add(1)
	go func() {
		defer d.background.Done()
		if _, err := d.FlushQueue(flushCtx); err != nil {
			d.logger.Warn("background flush failed", "error", err)
		}
	}()

	return result
}

// FlushQueue runs one flush pass. Concurrent calls share a single pass.
func (d *Dispatcher) FlushQueue(ctx context.Context) (FlushResult, error) {
	v, err, _ := d.group.Do("flush", func() (any, error) {
		return d.flushOnce(ctx)
	})
	if err != nil {
		return FlushResult{}, err
	}
	return v.(FlushResult), nil
}

// Wait blocks until all background flushes triggered so far have finished.
func (d *Dispatcher) Wait() {
	d.background.Wait()
}

// flushOnce walks the queue in order, submitting each item and applying
// the retry policy. The queue is persisted once at the end, and only when
// something changed.
func (d *Dispatcher) flushOnce(ctx context.Context) (FlushResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	items, err := d.queue.GetQueue(ctx)
	if err != nil {
		return FlushResult{}, err
	}

	working := slices.Clone(items)
	sent := 0
	changed := false

	i := 0
	for i < len(working) {
		item := working[i]
		result := d.submitter.SubmitSnapshot(ctx, item)

		if result.OK {
			working = slices.Delete(working, i, i+1)
			sent++
			changed = true
			d.logger.Debug("snapshot delivered", "item", item.ID)
			continue
		}

		if !result.Retryable {
			working = slices.Delete(working, i, i+1)
			changed = true
			d.logger.Warn("snapshot rejected permanently, dropping",
				"item", item.ID,
				"status", statusValue(result.Status),
			)
			continue
		}

		// Retryable failure: bump the attempt count, give up at the
		// ceiling, and stop this pass either way.
		item.Attempts++
		changed = true
		if item.Attempts >= d.maxAttempts {
			working = slices.Delete(working, i, i+1)
			d.logger.Warn("snapshot exhausted retries, dropping",
				"item", item.ID,
				"attempts", item.Attempts,
			)
		} else {
			working[i] = item
			d.logger.Debug("snapshot submission failed, will retry",
				"item", item.ID,
				"attempts", item.Attempts,
			)
		}
		break
	}

	if changed {
		if err := d.queue.SetQueue(ctx, working); err != nil {
			return FlushResult{}, err
		}
	}

	return FlushResult{Sent: sent, Pending: len(working)}, nil
}

func statusValue(status *int) int {
	if status == nil {
		return 0
	}
	return *status
}
