// Package notify provides a capacity-1 mailbox for user-facing status
// messages.
//
// Pipeline components publish messages without knowing whether anything
// is listening yet. While no handler is registered the mailbox buffers
// exactly one message, last write wins; registering a handler delivers
// the buffered message immediately and routes later publishes directly.
package notify
