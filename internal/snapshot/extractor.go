package snapshot

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/pagesnap/pagesnap/internal/model"
)

// Extraction is the article extractor's result for one document.
type Extraction struct {
	// Title is the extracted article title, possibly empty.
	Title string

	// HTML is the extracted article markup.
	HTML string

	// Text is the extracted article plain text.
	Text string

	// Byline is the article byline when one was found.
	Byline *string

	// Lang is the article language when the extractor detected one.
	Lang *string

	// Length is the extracted text length in characters.
	Length int
}

// Extractor produces the main article content from raw document markup.
// A nil result (with nil error) means the document yielded nothing usable
// and the caller should fall back to heuristic extraction.
type Extractor interface {
	Extract(ctx context.Context, rawHTML, pageURL string) (*Extraction, error)
}

// ReadabilityExtractor is the default Extractor, backed by the
// go-readability port of Mozilla's article extraction algorithm.
type ReadabilityExtractor struct{}

// NewReadabilityExtractor creates the default article extractor.
func NewReadabilityExtractor() *ReadabilityExtractor {
	return &ReadabilityExtractor{}
}

// Extract runs readability over the raw markup.
func (e *ReadabilityExtractor) Extract(_ context.Context, rawHTML, pageURL string) (*Extraction, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page url: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to extract article: %w", err)
	}

	return &Extraction{
		Title:  article.Title,
		HTML:   article.Content,
		Text:   article.TextContent,
		Byline: model.StringOrNil(article.Byline),
		Lang:   model.StringOrNil(article.Language),
		Length: article.Length,
	}, nil
}
