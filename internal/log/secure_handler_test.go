package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestSecureHandler_SanitizesSensitiveKeys tests that sensitive keys are masked.
func TestSecureHandler_SanitizesSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{
			name:     "cookie key is masked",
			key:      "cookie",
			value:    "session=abc123",
			wantMask: true,
		},
		{
			name:     "Authorization key (mixed case) is masked",
			key:      "Authorization",
			value:    "Bearer token123",
			wantMask: true,
		},
		{
			name:     "password key is masked",
			key:      "password",
			value:    "hunter2-long-value",
			wantMask: true,
		},
		{
			name:     "api_key key is masked",
			key:      "api_key",
			value:    "sk_live_123456789",
			wantMask: true,
		},
		{
			name:     "url key is not masked",
			key:      "url",
			value:    "https://example.com/article",
			wantMask: false,
		},
		{
			name:     "pending count key is not masked",
			key:      "pending",
			value:    "3",
			wantMask: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))
			logger.Info("test", tt.key, tt.value)

			output := buf.String()
			if tt.wantMask {
				if strings.Contains(output, tt.value) {
					t.Errorf("sensitive value leaked: %s", output)
				}
				if !strings.Contains(output, MaskValue) {
					t.Errorf("expected mask in output: %s", output)
				}
			} else {
				if !strings.Contains(output, tt.value) {
					t.Errorf("benign value missing from output: %s", output)
				}
			}
		})
	}
}

// TestSecureHandler_SanitizesSensitiveValues tests value-pattern masking.
func TestSecureHandler_SanitizesSensitiveValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		wantMask bool
	}{
		{
			name:     "email address value is masked",
			value:    "alice@example.com",
			wantMask: true,
		},
		{
			name:     "card-like digit run is masked",
			value:    "4111 1111 1111 1111",
			wantMask: true,
		},
		{
			name:     "jwt value is masked",
			value:    "eyJhbGciOi.eyJzdWIiOi.sig",
			wantMask: true,
		},
		{
			name:     "bearer value is masked",
			value:    "Bearer abc123",
			wantMask: true,
		},
		{
			name:     "page title is not masked",
			value:    "A perfectly ordinary headline",
			wantMask: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))
			logger.Info("test", "field", tt.value)

			output := buf.String()
			masked := strings.Contains(output, MaskValue)
			if masked != tt.wantMask {
				t.Errorf("masked = %v, want %v (output: %s)", masked, tt.wantMask, output)
			}
		})
	}
}

// TestSecureHandler_Groups tests that grouped attributes are sanitized.
func TestSecureHandler_Groups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))
	logger.Info("test", slog.Group("request",
		slog.String("cookie", "session=abc"),
		slog.String("url", "https://example.com"),
	))

	output := buf.String()
	if strings.Contains(output, "session=abc") {
		t.Errorf("grouped sensitive value leaked: %s", output)
	}
	if !strings.Contains(output, "https://example.com") {
		t.Errorf("grouped benign value missing: %s", output)
	}
}

// TestNewSecureLogger tests logger construction and level selection.
func TestNewSecureLogger(t *testing.T) {
	t.Parallel()

	t.Run("default level suppresses info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, false)
		logger.Info("should not appear")
		if buf.Len() != 0 {
			t.Errorf("expected no output at info level, got %s", buf.String())
		}
	})

	t.Run("verbose enables debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true)
		logger.Debug("visible")
		if !strings.Contains(buf.String(), "visible") {
			t.Errorf("expected debug output, got %s", buf.String())
		}
	})
}
