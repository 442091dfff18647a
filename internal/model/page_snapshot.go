package model

// PageSnapshot is the intermediate result of capturing a page, before the
// metadata extractor enriches it into a CrawlSnapshot. It keeps both the
// main extracted HTML and the sanitized rendition side by side.
type PageSnapshot struct {
	// URL is the absolute URL of the captured page.
	URL string

	// Title is the first non-blank of extractor title, document title, URL.
	Title string

	// HTML is the extracted article HTML (unsanitized).
	HTML string

	// Text is the extracted article plain text.
	Text string

	// Byline is the article byline when the extractor found one.
	Byline *string

	// Lang is the article or document language when known.
	Lang *string

	// Length is the extracted text length in characters.
	Length int

	// SanitizedHTML is the sanitizer's output for the captured HTML.
	SanitizedHTML string

	// Redactions lists the PII patterns masked while sanitizing.
	Redactions []Redaction

	// CapturedAt is the capture time as Unix epoch milliseconds.
	CapturedAt int64

	// Source records which extraction path produced the content.
	Source SnapshotSource
}
