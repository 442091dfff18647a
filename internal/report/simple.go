package report

import (
	"fmt"
	"io"
	"time"

	"github.com/pagesnap/pagesnap/internal/model"
)

// SimpleWriter outputs the queue as plain text for the terminal.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs one line per pending item plus a summary line.
func (w *SimpleWriter) Write(items []model.CrawlQueueItem) (int, error) {
	total := 0

	if len(items) == 0 {
		n, err := fmt.Fprintln(w.output, "queue is empty")
		return n, err
	}

	for i, item := range items {
		created := time.UnixMilli(item.CreatedAt).UTC().Format(time.RFC3339)
		n, err := fmt.Fprintf(w.output, "%d. %s\n   id=%s attempts=%d created=%s\n",
			i+1,
			item.Snapshot.Metadata.Core.URL,
			item.ID,
			item.Attempts,
			created,
		)
		total += n
		if err != nil {
			return total, err
		}
	}

	n, err := fmt.Fprintf(w.output, "\n%d item(s) pending\n", len(items))
	total += n
	return total, err
}
