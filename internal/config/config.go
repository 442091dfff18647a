package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. The queue and upload limits mirror the
// collector's ingestion contract and must not be raised casually: the
// collector rejects oversized submissions, and the queue bound caps local
// storage use on machines that are offline for long stretches.
const (
	// DefaultBaseURL is the collector API base URL.
	DefaultBaseURL = "https://api.example.com/v1"

	// SubmitPath is the collector's snapshot submission endpoint, relative
	// to the base URL.
	SubmitPath = "/crawl/submit"

	// DefaultMaxQueueItems bounds the pending snapshot queue. When a new
	// item would exceed the bound, the oldest items are evicted first.
	DefaultMaxQueueItems = 5

	// DefaultMaxSnapshotBytes is the per-snapshot serialized size limit.
	// Larger snapshots are skipped at enqueue time rather than stored.
	DefaultMaxSnapshotBytes = 250_000

	// DefaultMaxAttempts is the retry ceiling per queue item. An item that
	// fails retryably this many times is dropped.
	DefaultMaxAttempts = 3

	// DefaultTimeout is the per-request timeout for fetches and submits.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits the response body read when fetching a
	// page for capture. 5MB covers effectively all article pages while
	// bounding memory use.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultUserAgent identifies pagesnap in HTTP requests.
	DefaultUserAgent = "pagesnap/1.0 (+https://github.com/pagesnap/pagesnap)"

	// DefaultBatchSize is the number of concurrent captures when multiple
	// URLs are given on the command line.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "pagesnap"
)

// Config holds all configuration options for pagesnap. It is populated from
// defaults, the optional config file, and CLI flags, then passed to
// components by dependency injection.
type Config struct {
	// BaseURL is the collector API base URL.
	BaseURL string

	// MaxQueueItems bounds the pending snapshot queue.
	MaxQueueItems int

	// MaxSnapshotBytes is the per-snapshot serialized size limit.
	MaxSnapshotBytes int

	// MaxAttempts is the retry ceiling per queue item.
	MaxAttempts int

	// Timeout is the per-request timeout for fetches and submits.
	Timeout time.Duration

	// MaxBodySize limits the response body read when fetching a page.
	MaxBodySize int64

	// UserAgent is the User-Agent header for all HTTP requests.
	UserAgent string

	// BatchSize is the number of concurrent captures.
	BatchSize int

	// DataDir is the directory holding the local queue database.
	DataDir string

	// Verbose enables debug-level log output.
	Verbose bool
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		BaseURL:          DefaultBaseURL,
		MaxQueueItems:    DefaultMaxQueueItems,
		MaxSnapshotBytes: DefaultMaxSnapshotBytes,
		MaxAttempts:      DefaultMaxAttempts,
		Timeout:          DefaultTimeout,
		MaxBodySize:      DefaultMaxBodySize,
		UserAgent:        DefaultUserAgent,
		BatchSize:        DefaultBatchSize,
		DataDir:          DefaultDataDir(),
	}
}

// DefaultDataDir returns the XDG data directory for pagesnap
// (typically ~/.local/share/pagesnap on Linux).
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// ApplyFile overlays values from a loaded config file onto c. Only fields
// the file actually set are applied.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if f.BaseURL != "" {
		c.BaseURL = f.BaseURL
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.Timeout > 0 {
		c.Timeout = f.Timeout
	}
	if f.MaxQueueItems > 0 {
		c.MaxQueueItems = f.MaxQueueItems
	}
	if f.MaxAttempts > 0 {
		c.MaxAttempts = f.MaxAttempts
	}
	if f.DataDir != "" {
		c.DataDir = f.DataDir
	}
}
