package model

// CrawlQueueItem is a snapshot plus its delivery bookkeeping. Items are
// created by the queue store on enqueue and removed by the dispatcher on
// successful submit, on a non-retryable failure, or once the attempt
// ceiling is reached.
type CrawlQueueItem struct {
	// ID is a unique opaque identifier for the item.
	ID string `json:"id"`

	// CreatedAt is the enqueue time as Unix epoch milliseconds.
	CreatedAt int64 `json:"createdAt"`

	// Attempts counts retryable submission failures so far. Starts at 0.
	Attempts int `json:"attempts"`

	// SchemaVersion tags the item shape, mirroring the snapshot's version.
	SchemaVersion int `json:"schemaVersion"`

	// Snapshot is the captured content being delivered.
	Snapshot CrawlSnapshot `json:"snapshot"`
}
