// Package schema owns the versioned persisted-data formats and their
// migration chain.
//
// # Snapshot versions
//
// Three shapes of CrawlSnapshot have existed:
//
//   - legacy: a flat record with no schemaVersion tag
//   - v2: nested metadata/content/processing sections, still unenriched
//   - v3: the current shape with the full metadata envelope
//
// Each older version has a pure, total transform to the next version, and
// decoding composes them until reaching v3. Migration is idempotent: a v3
// record passes through unchanged, and no upgrade loses the original
// redaction list, byline, or language. Inputs matching no known shape are
// rejected rather than coerced.
//
// # Storage keys
//
// Every key the storage layer persists is declared here together with its
// default value and validation. Reads always flow through Validate, so
// unknown or malformed stored values degrade to defaults instead of
// surfacing errors to callers.
package schema
