package model

import "strings"

// Schema version tags for CrawlSnapshot.
//
// Version 1 (the legacy flat shape) predates the tag itself: legacy records
// carry no schemaVersion field at all, which is how the schema package
// recognizes them.
const (
	// SchemaVersionV2 is the nested-but-unenriched snapshot shape.
	SchemaVersionV2 = 2

	// SchemaVersionV3 is the current shape with the full metadata envelope.
	SchemaVersionV3 = 3

	// SchemaVersionCurrent is the version new snapshots are written at.
	SchemaVersionCurrent = SchemaVersionV3
)

// SnapshotSource identifies which extraction path produced a snapshot.
type SnapshotSource string

const (
	// SourceReadability means the article extractor produced the content.
	SourceReadability SnapshotSource = "readability"

	// SourceFallback means the heuristic main/article/body fallback was used.
	SourceFallback SnapshotSource = "fallback"
)

// RedactionType identifies a PII pattern class detected by the sanitizer.
type RedactionType string

const (
	// RedactionEmail is an email address match.
	RedactionEmail RedactionType = "email"

	// RedactionCreditCard is a 13-16 digit card-number-like match.
	RedactionCreditCard RedactionType = "credit-card"
)

// Redaction records how many times one PII pattern was masked in a document.
type Redaction struct {
	// Type is the pattern class that matched.
	Type RedactionType `json:"type"`

	// Count is the number of occurrences replaced. Always positive;
	// patterns with zero matches are omitted from redaction lists.
	Count int `json:"count"`
}

// MetadataCore holds the always-present capture facts.
type MetadataCore struct {
	// URL is the absolute URL of the captured page.
	URL string `json:"url"`

	// CapturedAt is the capture time as Unix epoch milliseconds.
	CapturedAt int64 `json:"capturedAt"`

	// Source records which extraction path produced the content.
	Source SnapshotSource `json:"source"`

	// ContentType is a best-effort content classification (e.g. "article").
	ContentType *string `json:"contentType"`

	// Language is the detected document language tag.
	Language *string `json:"language"`

	// Charset is the document character set, when declared.
	Charset *string `json:"charset"`
}

// MetaTags holds values read from standard <meta name="..."> tags.
type MetaTags struct {
	Description *string  `json:"description"`
	Keywords    []string `json:"keywords"`
	Author      *string  `json:"author"`
	Viewport    *string  `json:"viewport"`
	Robots      *string  `json:"robots"`
}

// OpenGraphImage is a structured og:image* record.
type OpenGraphImage struct {
	URL       *string `json:"url"`
	SecureURL *string `json:"secureUrl"`
	Type      *string `json:"type"`
	Width     *int    `json:"width"`
	Height    *int    `json:"height"`
}

// OpenGraph holds Open Graph protocol metadata.
type OpenGraph struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Type        *string          `json:"type"`
	URL         *string          `json:"url"`
	SiteName    *string          `json:"siteName"`
	Locale      *string          `json:"locale"`
	Images      []OpenGraphImage `json:"images"`
}

// Twitter holds Twitter card metadata.
type Twitter struct {
	Card        *string `json:"card"`
	Site        *string `json:"site"`
	Creator     *string `json:"creator"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
}

// StructuredDataNode is one JSON-LD block found in the document.
// Malformed blocks are kept with Parsed nil and the raw text preserved.
type StructuredDataNode struct {
	// Type lists the @type values of the parsed node, if any.
	Type []string `json:"type"`

	// Raw is the verbatim script text.
	Raw *string `json:"raw"`

	// Parsed is the decoded JSON value, or nil when decoding failed.
	Parsed any `json:"parsed"`

	// Source tags where the node came from (currently always "json-ld").
	Source *string `json:"source"`
}

// MediaResource describes one referenced media asset.
type MediaResource struct {
	URL    *string `json:"url"`
	Type   *string `json:"type"`
	Width  *int    `json:"width"`
	Height *int    `json:"height"`
	Size   *int    `json:"size"`
}

// FaviconResource is a MediaResource with the link rel that declared it.
type FaviconResource struct {
	MediaResource
	Rel *string `json:"rel"`
}

// Media groups the media assets discovered during metadata extraction.
type Media struct {
	Images   []MediaResource   `json:"images"`
	Videos   []MediaResource   `json:"videos"`
	Favicons []FaviconResource `json:"favicons"`
	Logo     *MediaResource    `json:"logo"`
}

// Timings records wall-clock durations of capture phases, in milliseconds.
type Timings struct {
	ParseMs    *float64 `json:"parseMs"`
	MetadataMs *float64 `json:"metadataMs"`
	TotalMs    *float64 `json:"totalMs"`
}

// Metadata is the full v3 metadata envelope.
type Metadata struct {
	Core           MetadataCore         `json:"core"`
	MetaTags       MetaTags             `json:"metaTags"`
	OpenGraph      OpenGraph            `json:"openGraph"`
	Twitter        Twitter              `json:"twitter"`
	StructuredData []StructuredDataNode `json:"structuredData"`
	Media          Media                `json:"media"`
	Timings        Timings              `json:"timings"`
}

// Content is the extracted and sanitized article body.
type Content struct {
	Title         string  `json:"title"`
	Text          string  `json:"text"`
	SanitizedHTML string  `json:"sanitizedHtml"`
	Byline        *string `json:"byline"`
}

// Processing holds derived processing results for a snapshot.
type Processing struct {
	// Lang is the detected content language.
	Lang *string `json:"lang"`

	// Redactions lists the PII patterns masked in the sanitized HTML.
	Redactions []Redaction `json:"redactions"`
}

// CrawlSnapshot is a single versioned capture of a page's content and
// metadata. This is the unit that flows through the queue to the collector.
type CrawlSnapshot struct {
	// SchemaVersion tags the record shape and drives migration.
	SchemaVersion int `json:"schemaVersion"`

	Metadata   Metadata   `json:"metadata"`
	Content    Content    `json:"content"`
	Processing Processing `json:"processing"`
}

// NewMetaTags returns MetaTags with empty-but-non-nil defaults.
func NewMetaTags() MetaTags {
	return MetaTags{Keywords: []string{}}
}

// NewOpenGraph returns OpenGraph with empty-but-non-nil defaults.
func NewOpenGraph() OpenGraph {
	return OpenGraph{Images: []OpenGraphImage{}}
}

// NewMedia returns Media with empty-but-non-nil defaults.
func NewMedia() Media {
	return Media{
		Images:   []MediaResource{},
		Videos:   []MediaResource{},
		Favicons: []FaviconResource{},
	}
}

// BaseMetadataParams are the inputs for NewBaseMetadata.
type BaseMetadataParams struct {
	URL         string
	CapturedAt  int64
	Source      SnapshotSource
	Language    *string
	ContentType *string
	Charset     *string
}

// NewBaseMetadata builds a Metadata envelope with the core facts filled in
// and every enrichment section set to its default value. The metadata
// extractor layers document-derived values on top of this.
func NewBaseMetadata(p BaseMetadataParams) Metadata {
	return Metadata{
		Core: MetadataCore{
			URL:         p.URL,
			CapturedAt:  p.CapturedAt,
			Source:      p.Source,
			ContentType: p.ContentType,
			Language:    p.Language,
			Charset:     p.Charset,
		},
		MetaTags:       NewMetaTags(),
		OpenGraph:      NewOpenGraph(),
		Twitter:        Twitter{},
		StructuredData: []StructuredDataNode{},
		Media:          NewMedia(),
		Timings:        Timings{},
	}
}

// StringOrNil returns a pointer to the trimmed string, or nil when the
// trimmed value is empty. It is the normalization helper used wherever a
// scraped value feeds a nullable field.
func StringOrNil(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
