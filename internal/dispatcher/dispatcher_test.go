package dispatcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/pagesnap/pagesnap/internal/model"
	"github.com/pagesnap/pagesnap/internal/queue"
	"github.com/pagesnap/pagesnap/internal/storage"
	"github.com/pagesnap/pagesnap/internal/uploader"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedSubmitter returns canned results per item URL and records the
// order of submissions.
type scriptedSubmitter struct {
	mu      sync.Mutex
	results map[string][]uploader.Result
	calls   []string
}

func newScriptedSubmitter() *scriptedSubmitter {
	return &scriptedSubmitter{results: map[string][]uploader.Result{}}
}

// on queues results for a URL; each submission consumes one, and the last
// result repeats once the script runs out.
func (s *scriptedSubmitter) on(url string, results ...uploader.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[url] = append(s.results[url], results...)
}

func (s *scriptedSubmitter) SubmitSnapshot(_ context.Context, item model.CrawlQueueItem) uploader.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	url := item.Snapshot.Metadata.Core.URL
	s.calls = append(s.calls, url)

	script := s.results[url]
	if len(script) == 0 {
		return ok()
	}
	result := script[0]
	if len(script) > 1 {
		s.results[url] = script[1:]
	}
	return result
}

func (s *scriptedSubmitter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func ok() uploader.Result {
	status := http.StatusOK
	return uploader.Result{OK: true, Status: &status}
}

func failure(status int, retryable bool) uploader.Result {
	return uploader.Result{OK: false, Status: &status, Retryable: retryable}
}

func testSnapshot(url string) model.CrawlSnapshot {
	return model.CrawlSnapshot{
		SchemaVersion: model.SchemaVersionV3,
		Metadata: model.NewBaseMetadata(model.BaseMetadataParams{
			URL:        url,
			CapturedAt: 1700000000000,
			Source:     model.SourceReadability,
		}),
		Content:    model.Content{Title: "t", Text: "body", SanitizedHTML: "<p>body</p>"},
		Processing: model.Processing{Redactions: []model.Redaction{}},
	}
}

func newTestDispatcher(t *testing.T, submitter Submitter) (*Dispatcher, *queue.Store) {
	t.Helper()

	manager := storage.NewManager(storage.NewMemoryStore(), storage.WithLogger(discardLogger()))
	store := queue.New(manager, queue.WithLogger(discardLogger()))
	return New(store, submitter, WithLogger(discardLogger())), store
}

// TestDispatcher_FlushQueue tests the flush pass policy.
func TestDispatcher_FlushQueue(t *testing.T) {
	t.Parallel()

	t.Run("all successes empty the queue", func(t *testing.T) {
		t.Parallel()

		submitter := newScriptedSubmitter()
		d, store := newTestDispatcher(t, submitter)
		ctx := context.Background()

		for i := 1; i <= 3; i++ {
			store.Enqueue(ctx, testSnapshot(fmt.Sprintf("https://example.com/%d", i)))
		}

		result, err := d.FlushQueue(ctx)
		if err != nil {
			t.Fatalf("failed to flush: %v", err)
		}
		if result.Sent != 3 || result.Pending != 0 {
			t.Errorf("result = %+v, want sent 3 pending 0", result)
		}

		items, err := store.GetQueue(ctx)
		if err != nil {
			t.Fatalf("failed to get queue: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("expected empty queue, got %d items", len(items))
		}
	})

	t.Run("retryable failure stops the pass and bumps attempts", func(t *testing.T) {
		t.Parallel()

		submitter := newScriptedSubmitter()
		submitter.on("https://example.com/1", failure(http.StatusServiceUnavailable, true))
		d, store := newTestDispatcher(t, submitter)
		ctx := context.Background()

		store.Enqueue(ctx, testSnapshot("https://example.com/1"))
		store.Enqueue(ctx, testSnapshot("https://example.com/2"))

		result, err := d.FlushQueue(ctx)
		if err != nil {
			t.Fatalf("failed to flush: %v", err)
		}
		if result.Sent != 0 || result.Pending != 2 {
			t.Errorf("result = %+v, want sent 0 pending 2", result)
		}
		if submitter.callCount() != 1 {
			t.Errorf("expected 1 submission, got %d", submitter.callCount())
		}

		items, err := store.GetQueue(ctx)
		if err != nil {
			t.Fatalf("failed to get queue: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected both items kept, got %d", len(items))
		}
		if items[0].Attempts != 1 {
			t.Errorf("first item attempts = %d, want 1", items[0].Attempts)
		}
		if items[1].Attempts != 0 {
			t.Errorf("second item attempts = %d, want untouched", items[1].Attempts)
		}
	})

	t.Run("permanent rejection drops the item and continues", func(t *testing.T) {
		t.Parallel()

		submitter := newScriptedSubmitter()
		submitter.on("https://example.com/1", failure(http.StatusUnprocessableEntity, false))
		d, store := newTestDispatcher(t, submitter)
		ctx := context.Background()

		store.Enqueue(ctx, testSnapshot("https://example.com/1"))
		store.Enqueue(ctx, testSnapshot("https://example.com/2"))

		result, err := d.FlushQueue(ctx)
		if err != nil {
			t.Fatalf("failed to flush: %v", err)
		}
		if result.Sent != 1 || result.Pending != 0 {
			t.Errorf("result = %+v, want sent 1 pending 0", result)
		}
		if submitter.callCount() != 2 {
			t.Errorf("expected both items attempted, got %d", submitter.callCount())
		}
	})

	t.Run("third retryable failure removes the item", func(t *testing.T) {
		t.Parallel()

		submitter := newScriptedSubmitter()
		submitter.on("https://example.com/1",
			failure(http.StatusServiceUnavailable, true),
			failure(http.StatusServiceUnavailable, true),
			failure(http.StatusServiceUnavailable, true),
		)
		d, store := newTestDispatcher(t, submitter)
		ctx := context.Background()

		store.Enqueue(ctx, testSnapshot("https://example.com/1"))

		for pass := 1; pass <= 2; pass++ {
			if _, err := d.FlushQueue(ctx); err != nil {
				t.Fatalf("pass %d failed: %v", pass, err)
			}
			items, err := store.GetQueue(ctx)
			if err != nil {
				t.Fatalf("failed to get queue: %v", err)
			}
			if len(items) != 1 || items[0].Attempts != pass {
				t.Fatalf("pass %d: items = %+v", pass, items)
			}
		}

		result, err := d.FlushQueue(ctx)
		if err != nil {
			t.Fatalf("third pass failed: %v", err)
		}
		if result.Pending != 0 {
			t.Errorf("pending = %d, want item dropped on third failure", result.Pending)
		}

		items, err := store.GetQueue(ctx)
		if err != nil {
			t.Fatalf("failed to get queue: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("expected empty queue after retry ceiling, got %d items", len(items))
		}
	})

	t.Run("flush resumes where the previous pass stopped", func(t *testing.T) {
		t.Parallel()

		submitter := newScriptedSubmitter()
		submitter.on("https://example.com/1",
			failure(http.StatusServiceUnavailable, true),
			ok(),
		)
		d, store := newTestDispatcher(t, submitter)
		ctx := context.Background()

		store.Enqueue(ctx, testSnapshot("https://example.com/1"))
		store.Enqueue(ctx, testSnapshot("https://example.com/2"))

		if _, err := d.FlushQueue(ctx); err != nil {
			t.Fatalf("first pass failed: %v", err)
		}

		result, err := d.FlushQueue(ctx)
		if err != nil {
			t.Fatalf("second pass failed: %v", err)
		}
		if result.Sent != 2 || result.Pending != 0 {
			t.Errorf("result = %+v, want sent 2 pending 0", result)
		}
	})

	t.Run("empty queue is a no-op", func(t *testing.T) {
		t.Parallel()

		submitter := newScriptedSubmitter()
		d, _ := newTestDispatcher(t, submitter)

		result, err := d.FlushQueue(context.Background())
		if err != nil {
			t.Fatalf("failed to flush: %v", err)
		}
		if result.Sent != 0 || result.Pending != 0 {
			t.Errorf("result = %+v", result)
		}
		if submitter.callCount() != 0 {
			t.Errorf("expected no submissions, got %d", submitter.callCount())
		}
	})
}

// TestDispatcher_AddSnapshotAndFlush tests the fire-and-forget path.
func TestDispatcher_AddSnapshotAndFlush(t *testing.T) {
	t.Parallel()

	t.Run("queued snapshot triggers a background flush", func(t *testing.T) {
		t.Parallel()

		submitter := newScriptedSubmitter()
		d, store := newTestDispatcher(t, submitter)
		ctx := context.Background()

		result := d.AddSnapshotAndFlush(ctx, testSnapshot("https://example.com/1"))
		if result.Status != queue.StatusQueued {
			t.Fatalf("expected queued, got %+v", result)
		}
		d.Wait()

		if submitter.callCount() != 1 {
			t.Errorf("expected 1 background submission, got %d", submitter.callCount())
		}
		items, err := store.GetQueue(ctx)
		if err != nil {
			t.Fatalf("failed to get queue: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("expected delivered queue, got %d items", len(items))
		}
	})

	t.Run("skipped snapshot does not flush", func(t *testing.T) {
		t.Parallel()

		submitter := newScriptedSubmitter()
		manager := storage.NewManager(storage.NewMemoryStore(), storage.WithLogger(discardLogger()))
		store := queue.New(manager, queue.WithLogger(discardLogger()), queue.WithMaxBytes(10))
		d := New(store, submitter, WithLogger(discardLogger()))

		result := d.AddSnapshotAndFlush(context.Background(), testSnapshot("https://example.com/1"))
		if result.Status != queue.StatusSkipped || result.Reason != queue.ReasonTooLarge {
			t.Fatalf("expected skipped/too_large, got %+v", result)
		}
		d.Wait()

		if submitter.callCount() != 0 {
			t.Errorf("expected no submissions, got %d", submitter.callCount())
		}
	})

	t.Run("cancelled caller context does not cancel the flush", func(t *testing.T) {
		t.Parallel()

		submitter := newScriptedSubmitter()
		d, _ := newTestDispatcher(t, submitter)

		ctx, cancel := context.WithCancel(context.Background())
		result := d.AddSnapshotAndFlush(ctx, testSnapshot("https://example.com/1"))
		cancel()
		if result.Status != queue.StatusQueued {
			t.Fatalf("expected queued, got %+v", result)
		}

		deadline := time.After(5 * time.Second)
		for submitter.callCount() == 0 {
			select {
			case <-deadline:
				t.Fatal("background flush never ran")
			default:
				time.Sleep(10 * time.Millisecond)
			}
		}
	})
}
