// Package dispatcher drives snapshot delivery from the queue to the
// collector.
//
// AddSnapshotAndFlush enqueues a snapshot and, when it was accepted,
// triggers a flush in the background. A flush pass walks the queue in
// order: delivered items leave the queue, permanently rejected items are
// dropped, and the first retryable failure stops the pass after bumping
// that item's attempt count. Stopping on the first retryable failure is
// deliberate backpressure: a struggling collector should not receive the
// rest of the queue in the same pass.
//
// Overlapping flush triggers are coalesced through singleflight, and a
// mutex serializes the queue's read-modify-write window.
package dispatcher
