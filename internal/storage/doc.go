// Package storage persists pagesnap's local state.
//
// The layout has two layers. KVStore is a plain key-value store backed by a
// single SQLite file (modernc.org/sqlite, CGO-free); it knows nothing about
// what it stores beyond raw JSON values. Manager sits on top and is the
// only component the rest of the application talks to: every read flows
// through the schema package's validation, so missing keys and malformed
// values degrade to schema defaults instead of errors, and the queue
// migration chain runs transparently on read.
//
// Manager accepts any Store implementation; MemoryStore provides an
// in-memory one for tests.
package storage
