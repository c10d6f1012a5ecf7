package export

import (
	"context"
	"sort"
	"strings"

	"github.com/nornicdb/graphexport/pkg/storage"
)

// BadgerSource adapts a storage.BadgerEngine into a GraphSource, the
// preferred implementation: badger's label/type secondary
// indexes already carry stable, seekable key order, so pagination here is
// true keyset pagination rather than a skip/limit fallback.
type BadgerSource struct {
	engine   *storage.BadgerEngine
	errSink  *Accumulator
	producer string
	version  string
}

// NewBadgerSource wraps engine. errSink receives property-conversion
// failures encountered while adapting storage.Node/storage.Edge into
// export.Node/export.Relationship.
func NewBadgerSource(engine *storage.BadgerEngine, errSink *Accumulator, producer, version string) *BadgerSource {
	return &BadgerSource{engine: engine, errSink: errSink, producer: producer, version: version}
}

func (s *BadgerSource) Preflight(ctx context.Context) (SourceInfo, error) {
	return SourceInfo{
		SupportsKeyset:  true,
		ProducerName:    s.producer,
		ProducerVersion: s.version,
		SourceType:      "nornicdb",
		SourceVersion:   s.version,
		SourceEdition:   "badger",
		DatabaseName:    "default",
	}, nil
}

func (s *BadgerSource) SchemaSnapshot(ctx context.Context) (Schema, error) {
	labels, err := s.engine.Labels()
	if err != nil {
		return Schema{}, err
	}
	types, err := s.engine.RelationshipTypes()
	if err != nil {
		return Schema{}, err
	}
	// The indexes hold names lowercased; take each name's stored spelling
	// from one element that carries it.
	for i, l := range labels {
		if nodes, _, err := s.engine.PageNodesByLabel(l, "", 1); err == nil && len(nodes) == 1 {
			for _, orig := range nodes[0].Labels {
				if strings.EqualFold(orig, l) {
					labels[i] = orig
					break
				}
			}
		}
	}
	for i, t := range types {
		if edges, _, err := s.engine.PageEdgesByType(t, "", 1); err == nil && len(edges) == 1 {
			types[i] = edges[0].Type
		}
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

func (s *BadgerSource) PageNodes(ctx context.Context, label string, cur Cursor, batchSize int) (Batch[*Node], Cursor, error) {
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

func (s *BadgerSource) PageRelationships(ctx context.Context, relType string, cur Cursor, batchSize int) (Batch[*Relationship], Cursor, error) {
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
