package report

import (
	"encoding/json"
	"io"

	"github.com/pagesnap/pagesnap/internal/model"
)

// JSONWriter outputs the queue as indented JSON for scripting.
type JSONWriter struct {
	baseWriter
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{baseWriter: newBaseWriter(output)}
}

// queueReport is the JSON document shape.
type queueReport struct {
	Count int                    `json:"count"`
	Items []model.CrawlQueueItem `json:"items"`
}

// Write outputs the full queue as a single JSON document.
func (w *JSONWriter) Write(items []model.CrawlQueueItem) (int, error) {
	if items == nil {
		items = []model.CrawlQueueItem{}
	}

	raw, err := json.MarshalIndent(queueReport{Count: len(items), Items: items}, "", "  ")
	if err != nil {
		return 0, err
	}
	raw = append(raw, '\n')
	return w.output.Write(raw)
}
