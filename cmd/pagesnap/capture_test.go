package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// TestNewCaptureCmd tests the capture command creation.
func TestNewCaptureCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCaptureCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "capture [url]..." {
			t.Errorf("expected use 'capture [url]...', got %q", cmd.Use)
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"file", "batch", "no-flush", "config", "base-url", "data-dir", "timeout"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %q flag", name)
			}
		}
	})

	t.Run("rejects empty arguments", func(t *testing.T) {
		t.Parallel()

		cmd := NewCaptureCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--data-dir", t.TempDir()})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error for missing urls")
		}
	})

	t.Run("rejects --file with multiple urls", func(t *testing.T) {
		t.Parallel()

		cmd := NewCaptureCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{
			"--data-dir", t.TempDir(),
			"--file", "page.html",
			"https://example.com/a", "https://example.com/b",
		})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error for --file with multiple urls")
		}
	})
}

// TestCaptureCmd_LocalFile tests the full capture pipeline against a
// local page and a fake collector.
func TestCaptureCmd_LocalFile(t *testing.T) {
	t.Parallel()

	var submissions atomic.Int32
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crawl/submit" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		submissions.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	pagePath := filepath.Join(t.TempDir(), "page.html")
	page := `<html lang="en"><head><title>Saved Article</title></head><body>
		<main><p>The saved article body mentions alice@example.com once.</p></main>
	</body></html>`
	if err := os.WriteFile(pagePath, []byte(page), 0o600); err != nil {
		t.Fatalf("failed to write page file: %v", err)
	}

	var out, errOut bytes.Buffer
	cmd := NewCaptureCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{
		"--data-dir", t.TempDir(),
		"--base-url", collector.URL,
		"--file", pagePath,
		"https://example.com/article",
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("capture failed: %v (stderr: %s)", err, errOut.String())
	}

	if submissions.Load() != 1 {
		t.Errorf("expected 1 submission to the collector, got %d", submissions.Load())
	}
	if !strings.Contains(out.String(), "✓ https://example.com/article") {
		t.Errorf("output missing success line:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "0 item(s) pending delivery") {
		t.Errorf("expected delivered queue, got:\n%s", out.String())
	}
}

// TestCaptureCmd_NoFlush tests that --no-flush leaves items queued.
func TestCaptureCmd_NoFlush(t *testing.T) {
	t.Parallel()

	collector := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("collector must not be contacted with --no-flush")
	}))
	defer collector.Close()

	pagePath := filepath.Join(t.TempDir(), "page.html")
	page := `<html><head><title>Queued Article</title></head><body><main><p>Body.</p></main></body></html>`
	if err := os.WriteFile(pagePath, []byte(page), 0o600); err != nil {
		t.Fatalf("failed to write page file: %v", err)
	}

	var out bytes.Buffer
	cmd := NewCaptureCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--data-dir", t.TempDir(),
		"--base-url", collector.URL,
		"--no-flush",
		"--file", pagePath,
		"https://example.com/article",
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if !strings.Contains(out.String(), "1 item(s) pending delivery") {
		t.Errorf("expected 1 pending item, got:\n%s", out.String())
	}
}
