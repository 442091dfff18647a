// Package queue implements the bounded persistent FIFO of pending
// snapshots.
//
// The queue lives under a single storage key and is always read and
// written as the full ordered list. Enqueue enforces two limits: a
// per-snapshot serialized size cap (oversized snapshots are skipped before
// touching storage) and a maximum item count (the oldest items are evicted
// from the front when the bound is exceeded). Enqueue never returns an
// error; storage failures surface as a skipped result so a capture path
// can never crash on queue trouble.
package queue
