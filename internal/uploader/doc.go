// Package uploader submits queued snapshots to the remote collector.
//
// A submission reduces the snapshot to a minimal wire payload (never the
// full metadata envelope), gzip-compresses the JSON body when possible,
// and POSTs it to the collector's submit endpoint. Failures are never
// returned as errors: every outcome is a Result with the HTTP status when
// one was received and a retryable classification that drives the
// dispatcher's queue policy.
package uploader
