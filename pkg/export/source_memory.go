package export

import (
	"context"
	"sort"

	"github.com/nornicdb/graphexport/pkg/storage"
)

// MemorySource adapts a storage.MemoryEngine into a GraphSource. Grounded
// on storage.MemoryEngine's slice-backed in-memory indexes; it still pages
// by sorted element_id (a degenerate keyset, since memory IDs are
// comparable strings) rather than a raw integer skip/limit cursor, because
// MemoryEngine's label/type indexes are already ID-sets with no natural
// insertion order to offset into.
type MemorySource struct {
	engine   *storage.MemoryEngine
	errSink  *Accumulator
	producer string
	version  string
}

// NewMemorySource wraps engine, routing property-conversion failures to errSink.
func NewMemorySource(engine *storage.MemoryEngine, errSink *Accumulator, producer, version string) *MemorySource {
	return &MemorySource{engine: engine, errSink: errSink, producer: producer, version: version}
}

func (s *MemorySource) Preflight(ctx context.Context) (SourceInfo, error) {
	return SourceInfo{
		SupportsKeyset:  true,
		ProducerName:    s.producer,
		ProducerVersion: s.version,
		SourceType:      "nornicdb",
		SourceVersion:   s.version,
		SourceEdition:   "memory",
		DatabaseName:    "default",
	}, nil
}

func (s *MemorySource) SchemaSnapshot(ctx context.Context) (Schema, error) {
	labels, err := s.engine.Labels()
	if err != nil {
		return Schema{}, err
	}
	types, err := s.engine.RelationshipTypes()
	if err != nil {
		return Schema{}, err
	}
	sort.Strings(labels)
	sort.Strings(types)

	nodeCount, err := s.engine.NodeCount()
	if err != nil {
		return Schema{}, err
	}
	edgeCount, err := s.engine.EdgeCount()
	if err != nil {
		return Schema{}, err
	}

	return Schema{
		Labels:    labels,
		Types:     types,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}, nil
}

func (s *MemorySource) PageNodes(ctx context.Context, label string, cur Cursor, batchSize int) (Batch[*Node], Cursor, error) {
	nodes, next, err := s.engine.PageNodesByLabel(label, storage.NodeID(cur.Key), batchSize)
	if err != nil {
		return Batch[*Node]{}, cur, AsRetryable(err)
	}

	items := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		items = append(items, nodeFromStorage(n, s.errSink))
	}

	nextCursor := Cursor{Key: string(next), Keyset: true}
	return Batch[*Node]{Items: items, HasMore: next != ""}, nextCursor, nil
}

func (s *MemorySource) PageRelationships(ctx context.Context, relType string, cur Cursor, batchSize int) (Batch[*Relationship], Cursor, error) {
	edges, next, err := s.engine.PageEdgesByType(relType, storage.EdgeID(cur.Key), batchSize)
	if err != nil {
		return Batch[*Relationship]{}, cur, AsRetryable(err)
	}

	items := make([]*Relationship, 0, len(edges))
	for _, e := range edges {
		items = append(items, relationshipFromStorage(e, s.errSink))
	}

	nextCursor := Cursor{Key: string(next), Keyset: true}
	return Batch[*Relationship]{Items: items, HasMore: next != ""}, nextCursor, nil
}
