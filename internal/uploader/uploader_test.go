package uploader

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pagesnap/pagesnap/internal/config"
	"github.com/pagesnap/pagesnap/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := config.NewConfig()
	cfg.BaseURL = baseURL
	cfg.Timeout = 5 * time.Second
	return NewClient(cfg, WithLogger(discardLogger()))
}

func testItem(url string) model.CrawlQueueItem {
	byline := "Jordan Writer"
	lang := "en"
	return model.CrawlQueueItem{
		ID:            "item-1",
		CreatedAt:     1700000000000,
		SchemaVersion: model.SchemaVersionV3,
		Snapshot: model.CrawlSnapshot{
			SchemaVersion: model.SchemaVersionV3,
			Metadata: model.NewBaseMetadata(model.BaseMetadataParams{
				URL:        url,
				CapturedAt: 1700000000000,
				Source:     model.SourceReadability,
			}),
			Content: model.Content{
				Title:         "Article Title",
				Text:          "Body text.",
				SanitizedHTML: "<p>Body text.</p>",
				Byline:        &byline,
			},
			Processing: model.Processing{
				Lang:       &lang,
				Redactions: []model.Redaction{{Type: model.RedactionEmail, Count: 1}},
			},
		},
	}
}

// TestClient_SubmitSnapshot tests the wire format and outcome classification.
func TestClient_SubmitSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("sends the reduced gzip payload", func(t *testing.T) {
		t.Parallel()

		var (
			gotPath     string
			gotEncoding string
			gotDigest   string
			gotPayload  SubmitPayload
		)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotEncoding = r.Header.Get("Content-Encoding")
			gotDigest = r.Header.Get("X-Snapshot-Digest")

			zr, err := gzip.NewReader(r.Body)
			if err != nil {
				t.Errorf("failed to open gzip body: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if err := json.NewDecoder(zr).Decode(&gotPayload); err != nil {
				t.Errorf("failed to decode payload: %v", err)
			}
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		result := newTestClient(t, server.URL).SubmitSnapshot(context.Background(), testItem("https://example.com/a"))

		if !result.OK {
			t.Fatalf("expected ok, got %+v", result)
		}
		if result.Status == nil || *result.Status != http.StatusAccepted {
			t.Errorf("status = %v", result.Status)
		}
		if result.Retryable {
			t.Error("success must not be retryable")
		}
		if gotPath != "/crawl/submit" {
			t.Errorf("path = %s", gotPath)
		}
		if gotEncoding != "gzip" {
			t.Errorf("content-encoding = %q", gotEncoding)
		}
		if len(gotDigest) != 64 {
			t.Errorf("expected hex sha3-256 digest, got %q", gotDigest)
		}
		if gotPayload.URL != "https://example.com/a" || gotPayload.Title != "Article Title" {
			t.Errorf("payload = %+v", gotPayload)
		}
		if gotPayload.Content.HTML != "<p>Body text.</p>" || gotPayload.Content.Text != "Body text." {
			t.Errorf("content = %+v", gotPayload.Content)
		}
		if gotPayload.Metadata.Byline == nil || *gotPayload.Metadata.Byline != "Jordan Writer" {
			t.Errorf("byline = %v", gotPayload.Metadata.Byline)
		}
		if len(gotPayload.Metadata.Redactions) != 1 || gotPayload.Metadata.Redactions[0].Type != model.RedactionEmail {
			t.Errorf("redactions = %+v", gotPayload.Metadata.Redactions)
		}
	})

	t.Run("classifies server errors as retryable", func(t *testing.T) {
		t.Parallel()

		for _, status := range []int{408, 429, 500, 502, 503, 504} {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))

			result := newTestClient(t, server.URL).SubmitSnapshot(context.Background(), testItem("https://example.com/a"))
			server.Close()

			if result.OK {
				t.Errorf("status %d: expected failure", status)
			}
			if result.Status == nil || *result.Status != status {
				t.Errorf("status %d: got %v", status, result.Status)
			}
			if !result.Retryable {
				t.Errorf("status %d: expected retryable", status)
			}
		}
	})

	t.Run("classifies client rejections as permanent", func(t *testing.T) {
		t.Parallel()

		for _, status := range []int{400, 403, 404, 422} {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))

			result := newTestClient(t, server.URL).SubmitSnapshot(context.Background(), testItem("https://example.com/a"))
			server.Close()

			if result.OK || result.Retryable {
				t.Errorf("status %d: expected permanent failure, got %+v", status, result)
			}
		}
	})

	t.Run("transport failure is retryable with no status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		server.Close()

		result := newTestClient(t, server.URL).SubmitSnapshot(context.Background(), testItem("https://example.com/a"))
		if result.OK {
			t.Fatal("expected failure against closed server")
		}
		if result.Status != nil {
			t.Errorf("expected no status, got %d", *result.Status)
		}
		if !result.Retryable {
			t.Error("expected retryable")
		}
	})

	t.Run("nil redactions serialize as an empty list", func(t *testing.T) {
		t.Parallel()

		item := testItem("https://example.com/a")
		item.Snapshot.Processing.Redactions = nil

		payload := buildPayload(item.Snapshot)
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		if string(raw) == "" || !json.Valid(raw) {
			t.Fatal("invalid payload json")
		}
		if payload.Metadata.Redactions == nil {
			t.Error("expected non-nil redactions")
		}
	})
}
