// Package metadata enriches a base metadata envelope with values mined
// from the captured document.
//
// Sources are merged per field with a fixed precedence: an optional
// external runner's result wins, then the document's own meta tags, then
// whatever the base metadata already holds. The runner is any function
// that maps (html, url) to a flat key/value result; it is treated as
// best-effort and its failures never propagate.
//
// Beyond plain meta tags the extractor reads Open Graph and Twitter card
// properties, link[rel~=icon] favicons, and all JSON-LD blocks. Malformed
// JSON-LD is kept with its raw text preserved rather than dropped.
package metadata
