// Package main provides the entry point for the pagesnap CLI.
//
// pagesnap captures web pages into sanitized, versioned snapshots, queues
// them in a local database, and delivers them to a remote collector.
//
// Usage:
//
//	pagesnap capture <url>...
//	pagesnap flush
//	pagesnap queue --json
//
// See --help for all available options.
package main

// main is the entry point for pagesnap.
func main() {
	Execute()
}
