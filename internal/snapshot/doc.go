// Package snapshot builds page snapshots from raw document markup.
//
// A capture runs as a short pipeline of steps: article extraction through
// a pluggable Extractor (go-readability by default), a heuristic
// main/article/body fallback when extraction yields nothing usable, title
// selection, and sanitization. Step failures degrade the capture instead
// of aborting it; the fallback path guarantees a snapshot always comes
// out, tagged with the extraction path that produced it.
//
// ToCrawlSnapshot lifts a captured page into the current versioned
// snapshot shape, enriching it through the metadata extractor.
package snapshot
