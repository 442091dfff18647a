// Package model defines the core data structures shared across pagesnap.
//
// The central type is CrawlSnapshot, the versioned record produced by the
// snapshot builder and persisted in the crawl queue. Its JSON encoding is
// the storage and wire format, so the field tags here are load-bearing:
// changing a tag is a schema change and must go through the schema
// package's migration chain.
//
// Optional scalar fields are pointers so they encode as JSON null rather
// than being omitted; optional lists are always non-nil so they encode as
// []. The schema package relies on these conventions when applying
// defaults.
package model
