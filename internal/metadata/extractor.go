package metadata

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/language"

	"github.com/pagesnap/pagesnap/internal/model"
)

// Runner is an optional external metadata-scraping pass. It receives the
// raw document HTML and URL and returns a flat key/value result (keys like
// "author", "og:title", "twitter:card"). Runners are best-effort: a nil
// runner or a failing runner contributes nothing.
type Runner func(ctx context.Context, html, url string) (map[string]any, error)

// Input carries everything the extractor needs for one document.
type Input struct {
	// Document is the parsed page.
	Document *goquery.Document

	// HTML is the raw document markup, handed to the runner.
	HTML string

	// URL is the page URL, handed to the runner.
	URL string

	// Base is the metadata envelope to enrich. It is not modified.
	Base model.Metadata

	// Runner is the optional external scraping pass.
	Runner Runner

	// Logger receives warnings about runner failures and malformed
	// structured data. Defaults to slog.Default().
	Logger *slog.Logger
}

// Result is the extractor output.
type Result struct {
	// Metadata is the enriched envelope.
	Metadata model.Metadata

	// DurationMs is the runner-reported duration, when it provided one.
	DurationMs *float64
}

// Extract enriches the base metadata from the document and the optional
// runner. The whole operation's wall-clock duration lands in
// metadata.timings.metadataMs unless something already set it.
func Extract(ctx context.Context, in Input) Result {
	logger := in.Logger
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	results := runRunner(ctx, in, logger)

	metadata := in.Base
	metadata.MetaTags = mergeMetaTags(in.Base.MetaTags, in.Document, results)
	metadata.OpenGraph = mergeOpenGraph(in.Base.OpenGraph, in.Document, results)
	metadata.Twitter = mergeTwitter(in.Base.Twitter, in.Document, results)
	metadata.StructuredData = extractStructuredData(in.Document, in.Base.StructuredData, logger)
	metadata.Media = mergeMedia(in.Base.Media, in.Document, results)

	runnerDuration := numberValue(results["__duration"])
	if runnerDuration != nil {
		metadata.Timings.MetadataMs = runnerDuration
	}

	if metadata.Core.Language == nil {
		metadata.Core.Language = normalizeLanguage(firstString(
			stringValue(results["lang"]),
			documentLanguage(in.Document),
		))
	}
	if metadata.Core.ContentType == nil {
		metadata.Core.ContentType = firstString(
			stringValue(results["type"]),
			stringValue(results["og:type"]),
		)
	}
	if metadata.Core.Charset == nil {
		metadata.Core.Charset = documentCharset(in.Document)
	}

	if metadata.Timings.MetadataMs == nil {
		elapsed := float64(time.Since(start).Milliseconds())
		metadata.Timings.MetadataMs = &elapsed
	}

	return Result{Metadata: metadata, DurationMs: runnerDuration}
}

// runRunner executes the optional runner, converting any failure into an
// empty result with a logged warning.
func runRunner(ctx context.Context, in Input, logger *slog.Logger) map[string]any {
	if in.Runner == nil {
		return map[string]any{}
	}
	results, err := in.Runner(ctx, in.HTML, in.URL)
	if err != nil {
		logger.Warn("metadata runner failed", "url", in.URL, "error", err)
		return map[string]any{}
	}
	if results == nil {
		return map[string]any{}
	}
	return results
}

func mergeMetaTags(existing model.MetaTags, doc *goquery.Document, results map[string]any) model.MetaTags {
	merged := model.MetaTags{
		Description: firstString(
			stringValue(results["description"]),
			metaContent(doc, "description"),
			existing.Description,
		),
		Keywords: existing.Keywords,
		Author: firstString(
			stringValue(results["author"]),
			metaContent(doc, "author"),
			existing.Author,
		),
		Viewport: firstString(metaContent(doc, "viewport"), existing.Viewport),
		Robots:   firstString(metaContent(doc, "robots"), existing.Robots),
	}

	if keywords := extractKeywords(doc); len(keywords) > 0 {
		merged.Keywords = keywords
	}
	if merged.Keywords == nil {
		merged.Keywords = []string{}
	}
	return merged
}

func mergeOpenGraph(existing model.OpenGraph, doc *goquery.Document, results map[string]any) model.OpenGraph {
	merged := model.OpenGraph{
		Title: firstString(
			stringValue(results["og:title"]),
			metaProperty(doc, "og:title"),
			stringValue(results["title"]),
			existing.Title,
		),
		Description: firstString(
			stringValue(results["og:description"]),
			metaProperty(doc, "og:description"),
			stringValue(results["description"]),
			existing.Description,
		),
		Type: firstString(
			stringValue(results["og:type"]),
			metaProperty(doc, "og:type"),
			stringValue(results["type"]),
			existing.Type,
		),
		URL: firstString(
			stringValue(results["og:url"]),
			metaProperty(doc, "og:url"),
			stringValue(results["url"]),
			existing.URL,
		),
		SiteName: firstString(
			stringValue(results["og:site_name"]),
			metaProperty(doc, "og:site_name"),
			stringValue(results["publisher"]),
			existing.SiteName,
		),
		Locale: firstString(
			stringValue(results["og:locale"]),
			metaProperty(doc, "og:locale"),
			existing.Locale,
		),
		Images: existing.Images,
	}

	var fallback *model.OpenGraphImage
	if len(existing.Images) > 0 {
		fallback = &existing.Images[0]
	}
	if image := extractPrimaryImage(doc, results, fallback); image != nil {
		merged.Images = []model.OpenGraphImage{*image}
	}
	if merged.Images == nil {
		merged.Images = []model.OpenGraphImage{}
	}
	return merged
}

func mergeTwitter(existing model.Twitter, doc *goquery.Document, results map[string]any) model.Twitter {
	return model.Twitter{
		Card: firstString(
			stringValue(results["twitter:card"]),
			metaProperty(doc, "twitter:card"),
			existing.Card,
		),
		Site: firstString(
			stringValue(results["twitter:site"]),
			metaProperty(doc, "twitter:site"),
			existing.Site,
		),
		Creator: firstString(
			stringValue(results["twitter:creator"]),
			metaProperty(doc, "twitter:creator"),
			existing.Creator,
		),
		Title: firstString(
			stringValue(results["twitter:title"]),
			metaProperty(doc, "twitter:title"),
			stringValue(results["title"]),
			existing.Title,
		),
		Description: firstString(
			stringValue(results["twitter:description"]),
			metaProperty(doc, "twitter:description"),
			stringValue(results["description"]),
			existing.Description,
		),
		Image: firstString(
			stringValue(results["twitter:image"]),
			stringValue(results["twitter:image:src"]),
			metaProperty(doc, "twitter:image"),
			metaProperty(doc, "twitter:image:src"),
			existing.Image,
		),
	}
}

// extractStructuredData collects every JSON-LD block. Blocks that fail to
// parse are kept with their raw text and a nil parsed value.
func extractStructuredData(doc *goquery.Document, existing []model.StructuredDataNode, logger *slog.Logger) []model.StructuredDataNode {
	source := "json-ld"
	nodes := make([]model.StructuredDataNode, 0)

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}

		var parsed any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			logger.Warn("failed to parse json-ld block", "error", err)
			nodes = append(nodes, model.StructuredDataNode{
				Type:   []string{},
				Raw:    &raw,
				Parsed: nil,
				Source: &source,
			})
			return
		}

		nodes = append(nodes, model.StructuredDataNode{
			Type:   jsonLDTypes(parsed),
			Raw:    &raw,
			Parsed: parsed,
			Source: &source,
		})
	})

	if len(nodes) == 0 {
		return existing
	}
	return nodes
}

// jsonLDTypes reads the @type values from a parsed JSON-LD node.
func jsonLDTypes(parsed any) []string {
	obj, ok := parsed.(map[string]any)
	if !ok {
		return []string{}
	}
	switch typ := obj["@type"].(type) {
	case string:
		return []string{typ}
	case []any:
		types := make([]string, 0, len(typ))
		for _, v := range typ {
			if s, ok := v.(string); ok {
				types = append(types, s)
			}
		}
		return types
	default:
		return []string{}
	}
}

func mergeMedia(existing model.Media, doc *goquery.Document, results map[string]any) model.Media {
	merged := model.Media{
		Images:   existing.Images,
		Videos:   existing.Videos,
		Favicons: existing.Favicons,
		Logo:     existing.Logo,
	}

	if imageURL := stringValue(results["image"]); imageURL != nil {
		merged.Images = []model.MediaResource{{URL: imageURL}}
	}
	if logoURL := stringValue(results["logo"]); logoURL != nil {
		merged.Logo = &model.MediaResource{URL: logoURL}
	}
	if favicons := extractFavicons(doc); len(favicons) > 0 {
		merged.Favicons = favicons
	}

	if merged.Images == nil {
		merged.Images = []model.MediaResource{}
	}
	if merged.Videos == nil {
		merged.Videos = []model.MediaResource{}
	}
	if merged.Favicons == nil {
		merged.Favicons = []model.FaviconResource{}
	}
	return merged
}

// extractPrimaryImage builds the structured og:image record from runner
// results and the document, keeping the fallback when no URL is found.
func extractPrimaryImage(doc *goquery.Document, results map[string]any, fallback *model.OpenGraphImage) *model.OpenGraphImage {
	url := firstString(
		stringValue(results["image"]),
		stringValue(results["og:image"]),
		metaProperty(doc, "og:image"),
	)
	if url == nil {
		return fallback
	}

	image := model.OpenGraphImage{URL: url}
	image.SecureURL = firstString(
		stringValue(results["og:image:secure_url"]),
		metaProperty(doc, "og:image:secure_url"),
	)
	image.Type = firstString(
		stringValue(results["og:image:type"]),
		metaProperty(doc, "og:image:type"),
	)
	image.Width = firstInt(
		parseDimension(results["og:image:width"]),
		parseDimensionString(metaProperty(doc, "og:image:width")),
	)
	image.Height = firstInt(
		parseDimension(results["og:image:height"]),
		parseDimensionString(metaProperty(doc, "og:image:height")),
	)

	if fallback != nil {
		if image.SecureURL == nil {
			image.SecureURL = fallback.SecureURL
		}
		if image.Type == nil {
			image.Type = fallback.Type
		}
		if image.Width == nil {
			image.Width = fallback.Width
		}
		if image.Height == nil {
			image.Height = fallback.Height
		}
	}
	return &image
}

// extractFavicons reads link[rel~=icon] elements into favicon records.
func extractFavicons(doc *goquery.Document) []model.FaviconResource {
	favicons := make([]model.FaviconResource, 0)
	doc.Find(`link[rel~="icon"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		favicon := model.FaviconResource{}
		favicon.URL = model.StringOrNil(href)
		favicon.Type = model.StringOrNil(s.AttrOr("type", ""))
		favicon.Rel = model.StringOrNil(s.AttrOr("rel", ""))
		favicons = append(favicons, favicon)
	})
	return favicons
}

// metaContent reads the content of <meta name="...">.
func metaContent(doc *goquery.Document, name string) *string {
	node := doc.Find(`meta[name="` + name + `"]`).First()
	if node.Length() == 0 {
		return nil
	}
	return model.StringOrNil(node.AttrOr("content", ""))
}

// metaProperty reads <meta property="...">, falling back to name=.
func metaProperty(doc *goquery.Document, property string) *string {
	node := doc.Find(`meta[property="` + property + `"]`).First()
	if node.Length() == 0 {
		node = doc.Find(`meta[name="` + property + `"]`).First()
	}
	if node.Length() == 0 {
		return nil
	}
	return model.StringOrNil(node.AttrOr("content", ""))
}

// extractKeywords splits the keywords meta tag on commas.
func extractKeywords(doc *goquery.Document) []string {
	content := metaContent(doc, "keywords")
	if content == nil {
		return nil
	}
	parts := strings.Split(*content, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if keyword := strings.TrimSpace(part); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}

// documentLanguage reads the root element's lang attribute.
func documentLanguage(doc *goquery.Document) *string {
	return model.StringOrNil(doc.Find("html").AttrOr("lang", ""))
}

// documentCharset reads the declared character set.
func documentCharset(doc *goquery.Document) *string {
	if charset := doc.Find("meta[charset]").AttrOr("charset", ""); charset != "" {
		return model.StringOrNil(charset)
	}
	return nil
}

// normalizeLanguage canonicalizes a language tag via BCP 47 parsing,
// keeping the raw value when it does not parse.
func normalizeLanguage(raw *string) *string {
	if raw == nil {
		return nil
	}
	tag, err := language.Parse(*raw)
	if err != nil {
		return raw
	}
	return model.StringOrNil(tag.String())
}

// stringValue converts a runner result value into a trimmed non-empty
// string, or nil.
func stringValue(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return model.StringOrNil(s)
}

// numberValue converts a runner result value into a float, or nil.
func numberValue(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	default:
		return nil
	}
}

// parseDimension parses a numeric dimension from a runner value.
func parseDimension(v any) *int {
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case int:
		return &n
	case string:
		return parseDimensionString(&n)
	default:
		return nil
	}
}

// parseDimensionString leniently parses a numeric dimension string;
// non-numeric values yield nil.
func parseDimensionString(s *string) *int {
	if s == nil {
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(*s))
	if err != nil {
		return nil
	}
	return &parsed
}

// firstString returns the first non-nil candidate.
func firstString(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

// firstInt returns the first non-nil candidate.
func firstInt(candidates ...*int) *int {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}
