package schema

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/pagesnap/pagesnap/internal/model"
)

// ErrUnknownShape is returned when a persisted record matches none of the
// known schema versions.
var ErrUnknownShape = errors.New("record matches no known schema version")

// legacySnapshot is the original flat snapshot shape. It carries no
// schemaVersion tag; its absence is what identifies a legacy record.
type legacySnapshot struct {
	URL           string            `json:"url"`
	Title         string            `json:"title"`
	CapturedAt    int64             `json:"capturedAt"`
	Source        string            `json:"source"`
	SanitizedHTML string            `json:"sanitizedHtml"`
	Text          string            `json:"text"`
	Byline        *string           `json:"byline"`
	Lang          *string           `json:"lang"`
	Redactions    []model.Redaction `json:"redactions"`
}

// snapshotV2 is the nested-but-unenriched snapshot shape.
type snapshotV2 struct {
	SchemaVersion int `json:"schemaVersion"`
	Metadata      struct {
		URL        string `json:"url"`
		CapturedAt int64  `json:"capturedAt"`
		Source     string `json:"source"`
	} `json:"metadata"`
	Content    model.Content    `json:"content"`
	Processing model.Processing `json:"processing"`
}

// migrateLegacyToV2 lifts a flat legacy snapshot into the v2 nested shape.
func migrateLegacyToV2(legacy legacySnapshot) snapshotV2 {
	var v2 snapshotV2
	v2.SchemaVersion = model.SchemaVersionV2
	v2.Metadata.URL = legacy.URL
	v2.Metadata.CapturedAt = legacy.CapturedAt
	v2.Metadata.Source = legacy.Source
	v2.Content = model.Content{
		Title:         legacy.Title,
		Text:          legacy.Text,
		SanitizedHTML: legacy.SanitizedHTML,
		Byline:        legacy.Byline,
	}
	v2.Processing = model.Processing{
		Lang:       legacy.Lang,
		Redactions: legacy.Redactions,
	}
	if v2.Processing.Redactions == nil {
		v2.Processing.Redactions = []model.Redaction{}
	}
	return v2
}

// migrateV2ToV3 enriches a v2 snapshot into the current shape. The content
// and processing sections carry over verbatim; the metadata envelope is
// rebuilt from base defaults with the byline back-filled as author and the
// content type marked "article".
func migrateV2ToV3(v2 snapshotV2) model.CrawlSnapshot {
	metadata := model.NewBaseMetadata(model.BaseMetadataParams{
		URL:         v2.Metadata.URL,
		CapturedAt:  v2.Metadata.CapturedAt,
		Source:      model.SnapshotSource(v2.Metadata.Source),
		Language:    v2.Processing.Lang,
		ContentType: model.StringOrNil("article"),
	})
	metadata.MetaTags.Author = v2.Content.Byline

	snapshot := model.CrawlSnapshot{
		SchemaVersion: model.SchemaVersionV3,
		Metadata:      metadata,
		Content:       v2.Content,
		Processing:    v2.Processing,
	}
	normalizeSnapshot(&snapshot)
	return snapshot
}

// normalizeSnapshot applies post-decode defaults: every optional list is
// non-nil so it round-trips as [] rather than null.
func normalizeSnapshot(s *model.CrawlSnapshot) {
	if s.Metadata.MetaTags.Keywords == nil {
		s.Metadata.MetaTags.Keywords = []string{}
	}
	if s.Metadata.OpenGraph.Images == nil {
		s.Metadata.OpenGraph.Images = []model.OpenGraphImage{}
	}
	if s.Metadata.StructuredData == nil {
		s.Metadata.StructuredData = []model.StructuredDataNode{}
	}
	if s.Metadata.Media.Images == nil {
		s.Metadata.Media.Images = []model.MediaResource{}
	}
	if s.Metadata.Media.Videos == nil {
		s.Metadata.Media.Videos = []model.MediaResource{}
	}
	if s.Metadata.Media.Favicons == nil {
		s.Metadata.Media.Favicons = []model.FaviconResource{}
	}
	if s.Processing.Redactions == nil {
		s.Processing.Redactions = []model.Redaction{}
	}
}

// validateSnapshotV3 checks the invariants every current snapshot must hold.
func validateSnapshotV3(s model.CrawlSnapshot) error {
	if s.SchemaVersion != model.SchemaVersionV3 {
		return fmt.Errorf("unexpected schema version %d", s.SchemaVersion)
	}
	if err := validateCore(s.Metadata.Core.URL, s.Metadata.Core.CapturedAt, string(s.Metadata.Core.Source)); err != nil {
		return err
	}
	return nil
}

// validateCore checks the url/capturedAt/source invariants shared by all
// snapshot versions.
func validateCore(rawURL string, capturedAt int64, source string) error {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("url %q is not a well-formed absolute URL", rawURL)
	}
	if capturedAt <= 0 {
		return fmt.Errorf("capturedAt %d is not a valid epoch millisecond timestamp", capturedAt)
	}
	switch model.SnapshotSource(source) {
	case model.SourceReadability, model.SourceFallback:
		return nil
	default:
		return fmt.Errorf("unknown snapshot source %q", source)
	}
}
