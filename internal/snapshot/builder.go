package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagesnap/pagesnap/internal/metadata"
	"github.com/pagesnap/pagesnap/internal/model"
)

// Builder captures pages into snapshots.
type Builder struct {
	extractor Extractor
	runner    metadata.Runner
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithExtractor replaces the default readability extractor.
func WithExtractor(extractor Extractor) Option {
	return func(b *Builder) {
		b.extractor = extractor
	}
}

// WithMetadataRunner sets the optional external metadata-scraping pass.
func WithMetadataRunner(runner metadata.Runner) Option {
	return func(b *Builder) {
		b.runner = runner
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a Builder with the given options.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		extractor: NewReadabilityExtractor(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Capture builds a PageSnapshot from raw document markup. Extraction and
// sanitization failures degrade the result; only an unparseable document
// or a cancelled context fails the capture.
func (b *Builder) Capture(ctx context.Context, rawHTML, pageURL string) (model.PageSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return model.PageSnapshot{}, fmt.Errorf("failed to parse document: %w", err)
	}

	c := &capture{
		url:     pageURL,
		rawHTML: rawHTML,
		doc:     doc,
		page: model.PageSnapshot{
			URL:        pageURL,
			CapturedAt: b.now().UnixMilli(),
			Source:     model.SourceFallback,
			Redactions: []model.Redaction{},
		},
	}

	steps := []step{
		&extractStep{extractor: b.extractor},
		&fallbackStep{},
		&titleStep{},
		&sanitizeStep{},
	}
	for _, s := range steps {
		select {
		case <-ctx.Done():
			return c.page, ctx.Err()
		default:
		}

		if err := s.do(ctx, c); err != nil {
			b.logger.Warn("capture step failed",
				"step", s.name(),
				"url", pageURL,
				"error", err,
			)
		}
	}

	return c.page, nil
}

// ToCrawlSnapshot lifts a captured page into the current snapshot shape,
// enriching its metadata from the captured HTML. Enrichment failures
// degrade to the base metadata; the snapshot itself always comes out.
func (b *Builder) ToCrawlSnapshot(ctx context.Context, page model.PageSnapshot) model.CrawlSnapshot {
	start := time.Now()

	var contentType *string
	if page.Length > 0 {
		article := "article"
		contentType = &article
	}

	base := model.NewBaseMetadata(model.BaseMetadataParams{
		URL:         page.URL,
		CapturedAt:  page.CapturedAt,
		Source:      page.Source,
		Language:    page.Lang,
		ContentType: contentType,
	})

	meta := base
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		b.logger.Warn("failed to parse captured html for metadata", "url", page.URL, "error", err)
	} else {
		parseMs := float64(time.Since(start).Milliseconds())
		base.Timings.ParseMs = &parseMs

		result := metadata.Extract(ctx, metadata.Input{
			Document: doc,
			HTML:     page.HTML,
			URL:      page.URL,
			Base:     base,
			Runner:   b.runner,
			Logger:   b.logger,
		})
		meta = result.Metadata
	}

	if meta.MetaTags.Author == nil {
		meta.MetaTags.Author = page.Byline
	}

	totalMs := float64(time.Since(start).Milliseconds())
	meta.Timings.TotalMs = &totalMs

	lang := meta.Core.Language
	if lang == nil {
		lang = page.Lang
	}

	redactions := page.Redactions
	if redactions == nil {
		redactions = []model.Redaction{}
	}

	return model.CrawlSnapshot{
		SchemaVersion: model.SchemaVersionCurrent,
		Metadata:      meta,
		Content: model.Content{
			Title:         page.Title,
			Text:          page.Text,
			SanitizedHTML: page.SanitizedHTML,
			Byline:        page.Byline,
		},
		Processing: model.Processing{
			Lang:       lang,
			Redactions: redactions,
		},
	}
}
