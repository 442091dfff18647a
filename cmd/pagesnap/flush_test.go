package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestNewFlushCmd tests the flush command.
func TestNewFlushCmd(t *testing.T) {
	t.Parallel()

	cmd := NewFlushCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "flush" {
			t.Errorf("expected use 'flush', got %q", cmd.Use)
		}
	})

	t.Run("empty queue reports nothing sent", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		cmd := NewFlushCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--data-dir", t.TempDir()})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("flush failed: %v", err)
		}
		if !strings.Contains(out.String(), "sent=0 pending=0") {
			t.Errorf("output = %q", out.String())
		}
	})
}
