package snapshot

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagesnap/pagesnap/internal/model"
	"github.com/pagesnap/pagesnap/internal/sanitizer"
)

// capture is the shared state a capture pipeline mutates.
type capture struct {
	url     string
	rawHTML string
	doc     *goquery.Document
	page    model.PageSnapshot
}

// step is one phase of building a PageSnapshot. Steps run in order; a
// step error degrades the capture (logged by the builder, next step still
// runs) rather than failing it.
type step interface {
	do(ctx context.Context, c *capture) error
	name() string
}

// extractStep runs the article extractor. An unusable result (nil, error,
// or blank html/text) leaves the capture untouched for the fallback step.
type extractStep struct {
	extractor Extractor
}

func (s *extractStep) name() string { return "extract" }

func (s *extractStep) do(ctx context.Context, c *capture) error {
	if s.extractor == nil {
		return nil
	}

	result, err := s.extractor.Extract(ctx, c.rawHTML, c.url)
	if err != nil {
		return fmt.Errorf("article extraction failed: %w", err)
	}
	if result == nil {
		return nil
	}
	if strings.TrimSpace(result.HTML) == "" || strings.TrimSpace(result.Text) == "" {
		return nil
	}

	c.page.Title = result.Title
	c.page.HTML = result.HTML
	c.page.Text = result.Text
	c.page.Byline = result.Byline
	c.page.Lang = result.Lang
	c.page.Length = result.Length
	c.page.Source = model.SourceReadability
	return nil
}

// fallbackStep fills the capture heuristically when extraction produced
// nothing: strip non-content elements, then take main, article, or
// [role=main], or else the whole body.
type fallbackStep struct{}

func (s *fallbackStep) name() string { return "fallback" }

func (s *fallbackStep) do(_ context.Context, c *capture) error {
	if strings.TrimSpace(c.page.HTML) != "" && strings.TrimSpace(c.page.Text) != "" {
		return nil
	}

	c.doc.Find("script,style,noscript,iframe,object,embed").Remove()

	region := c.doc.Find("main").First()
	if region.Length() == 0 {
		region = c.doc.Find("article").First()
	}
	if region.Length() == 0 {
		region = c.doc.Find(`[role="main"]`).First()
	}
	if region.Length() == 0 {
		region = c.doc.Find("body").First()
	}

	regionHTML, err := region.Html()
	if err != nil {
		return fmt.Errorf("failed to render fallback region: %w", err)
	}

	c.page.HTML = regionHTML
	c.page.Text = strings.TrimSpace(region.Text())
	c.page.Source = model.SourceFallback
	return nil
}

// titleStep picks the first non-blank of extractor title, document title,
// and URL.
type titleStep struct{}

func (s *titleStep) name() string { return "title" }

func (s *titleStep) do(_ context.Context, c *capture) error {
	if strings.TrimSpace(c.page.Title) == "" {
		c.page.Title = strings.TrimSpace(c.doc.Find("title").First().Text())
	}
	if c.page.Title == "" {
		c.page.Title = c.url
	}
	return nil
}

// sanitizeStep always sanitizes the captured HTML, whichever path
// produced it.
type sanitizeStep struct{}

func (s *sanitizeStep) name() string { return "sanitize" }

func (s *sanitizeStep) do(_ context.Context, c *capture) error {
	result, err := sanitizer.Sanitize(c.page.HTML)
	if err != nil {
		return fmt.Errorf("failed to sanitize captured html: %w", err)
	}
	c.page.SanitizedHTML = result.HTML
	c.page.Redactions = result.Redactions
	return nil
}
