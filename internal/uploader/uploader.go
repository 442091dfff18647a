package uploader

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/pagesnap/pagesnap/internal/config"
	"github.com/pagesnap/pagesnap/internal/model"
)

// retryableStatuses are the HTTP statuses worth retrying later. Anything
// else that is not 2xx is a permanent rejection.
var retryableStatuses = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// PayloadContent is the content section of the wire payload.
type PayloadContent struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

// PayloadMetadata is the reduced metadata section of the wire payload.
type PayloadMetadata struct {
	Byline     *string           `json:"byline"`
	Lang       *string           `json:"lang"`
	Redactions []model.Redaction `json:"redactions"`
}

// SubmitPayload is the collector's snapshot submission body.
type SubmitPayload struct {
	URL        string               `json:"url"`
	Title      string               `json:"title"`
	CapturedAt int64                `json:"capturedAt"`
	Source     model.SnapshotSource `json:"source"`
	Content    PayloadContent       `json:"content"`
	Metadata   PayloadMetadata      `json:"metadata"`
}

// Result is the outcome of one submission attempt.
type Result struct {
	// OK is true when the collector accepted the snapshot (any 2xx).
	OK bool

	// Status is the HTTP status code, when a response was received.
	Status *int

	// Retryable is true when a failed submission is worth retrying later.
	// Always false when OK is true.
	Retryable bool
}

// Client submits snapshots to the collector.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Used by tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a submission client for the configured collector.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// SubmitSnapshot POSTs one queue item's snapshot to the collector. It
// never returns an error: transport failures come back as a retryable
// Result with no status.
func (c *Client) SubmitSnapshot(ctx context.Context, item model.CrawlQueueItem) Result {
	raw, err := json.Marshal(buildPayload(item.Snapshot))
	if err != nil {
		c.logger.Warn("failed to serialize submit payload", "item", item.ID, "error", err)
		return Result{OK: false, Retryable: false}
	}

	body, encoding := compressBody(raw, c.logger)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+config.SubmitPath, bytes.NewReader(body))
	if err != nil {
		c.logger.Warn("failed to build submit request", "item", item.ID, "error", err)
		return Result{OK: false, Retryable: false}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Snapshot-Digest", bodyDigest(raw))
	if encoding != "" {
		req.Header.Set("Content-Encoding", encoding)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("snapshot submission failed", "item", item.ID, "error", err)
		return Result{OK: false, Retryable: true}
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	if status >= 200 && status < 300 {
		return Result{OK: true, Status: &status}
	}

	c.logger.Warn("collector rejected snapshot",
		"item", item.ID,
		"status", status,
		"retryable", retryableStatuses[status],
	)
	return Result{OK: false, Status: &status, Retryable: retryableStatuses[status]}
}

// buildPayload reduces a snapshot to the wire shape. The full metadata
// envelope stays local.
func buildPayload(snapshot model.CrawlSnapshot) SubmitPayload {
	redactions := snapshot.Processing.Redactions
	if redactions == nil {
		redactions = []model.Redaction{}
	}
	return SubmitPayload{
		URL:        snapshot.Metadata.Core.URL,
		Title:      snapshot.Content.Title,
		CapturedAt: snapshot.Metadata.Core.CapturedAt,
		Source:     snapshot.Metadata.Core.Source,
		Content: PayloadContent{
			HTML: snapshot.Content.SanitizedHTML,
			Text: snapshot.Content.Text,
		},
		Metadata: PayloadMetadata{
			Byline:     snapshot.Content.Byline,
			Lang:       snapshot.Processing.Lang,
			Redactions: redactions,
		},
	}
}

// compressBody gzips the serialized payload. When compression fails the
// raw JSON is sent instead; a failed submit over a compression hiccup is
// never worth it.
func compressBody(raw []byte, logger *slog.Logger) (body []byte, encoding string) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		logger.Warn("failed to compress submit body, sending raw json", "error", err)
		return raw, ""
	}
	if err := zw.Close(); err != nil {
		logger.Warn("failed to compress submit body, sending raw json", "error", err)
		return raw, ""
	}
	return buf.Bytes(), "gzip"
}

// bodyDigest returns the SHA3-256 digest of the uncompressed JSON body,
// letting the collector verify integrity after decompression.
func bodyDigest(raw []byte) string {
	sum := sha3.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
