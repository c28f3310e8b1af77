// Package store persists session state under a hard per-document size
// ceiling. The ChunkedStore presents opaque Put/Get/ListKeys semantics while
// transparently sharding oversized values across multiple physical documents
// and reassembling them on read; values the canonical JSON encoding cannot
// represent fall back to a binary-safe gob encoding. Physical documents are
// written through a pluggable Backend (in-memory here, DynamoDB and SQLite in
// subpackages).
package store
