// Package log provides structured logging with PII-safe output.
//
// pagesnap's whole purpose is handling page content that may contain
// personal data, so its own diagnostics must not leak what the sanitizer
// masks. SecureHandler wraps any slog.Handler and masks attribute values
// whose key names or value shapes look sensitive (credentials, session
// identifiers, email addresses, card-number-like digit runs) before the
// record reaches the underlying handler.
package log
