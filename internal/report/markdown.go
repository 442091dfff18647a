package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/pagesnap/pagesnap/internal/model"
)

// MarkdownWriter outputs the queue in Markdown format for documentation
// and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the queue as a Markdown document with a summary table.
func (w *MarkdownWriter) Write(items []model.CrawlQueueItem) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Pending Crawl Queue")
	md.PlainText("")

	if len(items) == 0 {
		md.PlainText("The queue is empty.")
		return len(md.String()), md.Build()
	}

	md.PlainTextf("%d item(s) pending delivery.", len(items))
	md.PlainText("")

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		created := time.UnixMilli(item.CreatedAt).UTC().Format("2006-01-02 15:04:05 MST")
		rows = append(rows, []string{
			"`" + item.ID + "`",
			item.Snapshot.Metadata.Core.URL,
			item.Snapshot.Content.Title,
			strconv.Itoa(item.Attempts),
			created,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "URL", "Title", "Attempts", "Created"},
		Rows:   rows,
	})

	return len(md.String()), md.Build()
}
