package report

import (
	"io"

	"github.com/pagesnap/pagesnap/internal/model"
)

// Writer renders the pending queue to a destination.
type Writer interface {
	// Write outputs the queue items in the writer's format.
	// Returns the number of bytes written and any error encountered.
	Write(items []model.CrawlQueueItem) (int, error)
}

// baseWriter provides the shared output destination for writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
