// Package report renders the pending crawl queue in several output
// formats: plain text for the terminal, JSON for scripting, and Markdown
// for documentation and sharing.
package report
