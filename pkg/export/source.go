package export

import "context"

// Cursor is a pagination cursor: either a last-seen key (keyset) or an
// integer offset (skip/limit), carried forward between PageNodes /
// PageRelationships calls. Constant size regardless of dataset size.
type Cursor struct {
	// Key is the last-seen element_id for keyset pagination. Empty at the
	// start of a kind and whenever Offset-based pagination is in use.
	Key string

	// Offset is the skip/limit cursor; only meaningful when the source
	// falls back to skip/limit pagination.
	Offset int

	// Keyset reports which strategy produced this cursor, so the
	// Paginator doesn't need to be told out-of-band which mode is active.
	Keyset bool
}

// Batch is one fetch's worth of records from a GraphSource, plus whether
// further batches remain.
type Batch[T any] struct {
	Items   []T
	HasMore bool
}

// SourceInfo is the result of Preflight: connectivity and version
// information used to select a pagination strategy.
type SourceInfo struct {
	// SupportsKeyset reports whether the source advertises stable
	// identifier ordering. NornicDB's own
	// storage engines always support keyset ordering over their label/type
	// indexes, so both source_badger.go and source_memory.go report true;
	// the field exists so a future non-NornicDB GraphSource (e.g. an older
	// wire protocol) can report false and fall back to skip/limit.
	SupportsKeyset bool

	ProducerName    string
	ProducerVersion string
	SourceType      string
	SourceVersion   string
	SourceEdition   string
	DatabaseName    string
}

// Schema is the result of SchemaSnapshot: the distinct labels and
// relationship types present at snapshot time, used to size the header
// reservation and to drive the Orchestrator's per-label, per-type loops.
type Schema struct {
	Labels []string
	Types  []string

	NodeCount int64
	EdgeCount int64
}

// GraphSource is the core's sole collaborator interface onto a storage
// engine. It is intentionally narrow: connect/version (Preflight),
// schema discovery, and the two paging operations; everything else (wire
// protocol, credentials, TLS) lives behind the concrete implementation.
type GraphSource interface {
	Preflight(ctx context.Context) (SourceInfo, error)
	SchemaSnapshot(ctx context.Context) (Schema, error)
	PageNodes(ctx context.Context, label string, cur Cursor, batchSize int) (Batch[*Node], Cursor, error)
	PageRelationships(ctx context.Context, relType string, cur Cursor, batchSize int) (Batch[*Relationship], Cursor, error)
}
