package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pagesnap/pagesnap/internal/config"
	"github.com/pagesnap/pagesnap/internal/model"
	"github.com/pagesnap/pagesnap/internal/storage"
)

// EnqueueStatus is the outcome class of an enqueue attempt.
type EnqueueStatus string

const (
	// StatusQueued means the snapshot was appended to the queue.
	StatusQueued EnqueueStatus = "queued"

	// StatusSkipped means the snapshot was not stored; Reason says why.
	StatusSkipped EnqueueStatus = "skipped"
)

// SkipReason explains a skipped enqueue.
type SkipReason string

const (
	// ReasonTooLarge means the serialized snapshot exceeded the size cap.
	ReasonTooLarge SkipReason = "too_large"

	// ReasonStorageError means a storage read or write failed.
	ReasonStorageError SkipReason = "storage_error"
)

// EnqueueResult reports the outcome of an enqueue attempt.
type EnqueueResult struct {
	Status EnqueueStatus
	Reason SkipReason
	Item   *model.CrawlQueueItem
}

// Store is the queue store over the persistent storage manager. It is the
// only component that touches the queue key.
type Store struct {
	manager  *storage.Manager
	logger   *slog.Logger
	maxItems int
	maxBytes int
	now      func() time.Time
	newID    func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMaxItems overrides the queue bound.
func WithMaxItems(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxItems = n
		}
	}
}

// WithMaxBytes overrides the per-snapshot serialized size cap.
func WithMaxBytes(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator overrides the item ID source. Used by tests.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// New creates a queue store over the given storage manager.
func New(manager *storage.Manager, opts ...Option) *Store {
	s := &Store{
		manager:  manager,
		maxItems: config.DefaultMaxQueueItems,
		maxBytes: config.DefaultMaxSnapshotBytes,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Enqueue appends a snapshot to the persistent queue. Oversized snapshots
// are skipped without touching storage; storage failures are logged and
// reported as skipped. Enqueue never panics or returns an error.
func (s *Store) Enqueue(ctx context.Context, snapshot model.CrawlSnapshot) EnqueueResult {
	size, err := serializedSize(snapshot)
	if err != nil {
		s.logger.Warn("failed to serialize snapshot for size check", "error", err)
		return EnqueueResult{Status: StatusSkipped, Reason: ReasonStorageError}
	}
	if size > s.maxBytes {
		s.logger.Debug("snapshot exceeds size cap, skipping",
			"bytes", size,
			"limit", s.maxBytes,
		)
		return EnqueueResult{Status: StatusSkipped, Reason: ReasonTooLarge}
	}

	items, err := s.manager.GetQueue(ctx)
	if err != nil {
		s.logger.Warn("failed to read queue", "error", err)
		return EnqueueResult{Status: StatusSkipped, Reason: ReasonStorageError}
	}

	item := model.CrawlQueueItem{
		ID:            s.newID(),
		CreatedAt:     s.now().UnixMilli(),
		Attempts:      0,
		SchemaVersion: model.SchemaVersionCurrent,
		Snapshot:      snapshot,
	}
	items = append(items, item)

	// Evict from the front (oldest first) until within the bound.
	if len(items) > s.maxItems {
		items = items[len(items)-s.maxItems:]
	}

	if err := s.manager.SetQueue(ctx, items); err != nil {
		s.logger.Warn("failed to persist queue", "error", err)
		return EnqueueResult{Status: StatusSkipped, Reason: ReasonStorageError}
	}

	return EnqueueResult{Status: StatusQueued, Item: &item}
}

// GetQueue returns the pending items in arrival order.
func (s *Store) GetQueue(ctx context.Context) ([]model.CrawlQueueItem, error) {
	return s.manager.GetQueue(ctx)
}

// SetQueue replaces the entire persisted queue.
func (s *Store) SetQueue(ctx context.Context, items []model.CrawlQueueItem) error {
	return s.manager.SetQueue(ctx, items)
}

// Clear empties the queue.
func (s *Store) Clear(ctx context.Context) error {
	return s.manager.SetQueue(ctx, []model.CrawlQueueItem{})
}

// serializedSize returns the UTF-8 byte length of the snapshot's JSON
// encoding, which is what the storage layer will actually persist.
func serializedSize(snapshot model.CrawlSnapshot) (int, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}
