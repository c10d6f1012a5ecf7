package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/nornicdb/graphexport/pkg/storage"
)

// FromNative converts a value as stored in storage.Node.Properties /
// storage.Edge.Properties (NornicDB's native map[string]any property
// representation) into the Graph Value tagged union. Unrecognized Go types
// produce an error rather than a best-effort string coercion, mirroring
// 06e22cf1_zero-day-ai-sdk's normalizeValue type switch (the closest analog
// in the retrieved pack to content-addressed, type-tagged value handling).
func FromNative(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null, nil
	case bool:
		return Value{Kind: KindBool, Bool: val}, nil
	case string:
		return Value{Kind: KindString, String: val}, nil
	case []byte:
		return Value{Kind: KindBytes, Bytes: val}, nil
	case int:
		return Value{Kind: KindInt64, Int64: int64(val)}, nil
	case int8:
		return Value{Kind: KindInt64, Int64: int64(val)}, nil
	case int16:
		return Value{Kind: KindInt64, Int64: int64(val)}, nil
	case int32:
		return Value{Kind: KindInt64, Int64: int64(val)}, nil
	case int64:
		return Value{Kind: KindInt64, Int64: val}, nil
	case uint:
		return Value{Kind: KindInt64, Int64: int64(val)}, nil
	case uint8:
		return Value{Kind: KindInt64, Int64: int64(val)}, nil
	case uint16:
		return Value{Kind: KindInt64, Int64: int64(val)}, nil
	case uint32:
		return Value{Kind: KindInt64, Int64: int64(val)}, nil
	case uint64:
		return Value{Kind: KindInt64, Int64: int64(val)}, nil
	case float32:
		return Value{Kind: KindFloat64, Float64: float64(val)}, nil
	case float64:
		return Value{Kind: KindFloat64, Float64: val}, nil
	case time.Time:
		return Value{Kind: KindDateTime, Time: val}, nil
	case time.Duration:
		return Value{Kind: KindDuration, Duration: val}, nil
	case Point:
		if val.Z != nil {
			return Value{Kind: KindPoint3D, Point: val}, nil
		}
		return Value{Kind: KindPoint2D, Point: val}, nil
	case *Node:
		return Value{Kind: KindNode, Node: val}, nil
	case *Relationship:
		return Value{Kind: KindRelationship, Relationship: val}, nil
	case *Path:
		return Value{Kind: KindPath, Path: val}, nil
	case []any:
		items := make([]Value, 0, len(val))
		for _, item := range val {
			iv, err := FromNative(item)
			if err != nil {
				return Null, err
			}
			items = append(items, iv)
		}
		return Value{Kind: KindList, List: items}, nil
	case map[string]any:
		m := make(map[string]Value, len(val))
		for k, item := range val {
			iv, err := FromNative(item)
			if err != nil {
				return Null, err
			}
			m[k] = iv
		}
		return Value{Kind: KindMap, Map: m}, nil
	default:
		return Null, fmt.Errorf("%w: unsupported property type %T", ErrDataCorruption, v)
	}
}

// dedupeLabels sorts and deduplicates a label set before emission. Ties in
// later truncation are broken lexicographically, so sorting here also
// establishes the tie-break order.
func dedupeLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// nodeFromStorage converts a storage.Node into an export.Node, converting
// each property via FromNative. A property conversion failure is recorded
// on errSink (keyed by the node's element_id) and the property is dropped
// rather than failing the whole node, since properties are independent of one
// another, only individual values are ever malformed.
func nodeFromStorage(n *storage.Node, errSink *Accumulator) *Node {
	out := &Node{
		ElementID:  string(n.ID),
		Labels:     dedupeLabels(n.Labels),
		Properties: make(map[string]Value, len(n.Properties)),
	}

	for k, v := range n.Properties {
		pv, err := FromNative(v)
		if err != nil {
			if errSink != nil {
				errSink.Record(ErrorInfo{
					TypeName: "InvalidValue",
					Message:  err.Error(),
				}, out.ElementID)
			}
			continue
		}
		out.Properties[k] = pv
	}

	return out
}

// relationshipFromStorage converts a storage.Edge into an export.Relationship.
func relationshipFromStorage(e *storage.Edge, errSink *Accumulator) *Relationship {
	out := &Relationship{
		ElementID:      string(e.ID),
		Type:           e.Type,
		StartElementID: string(e.StartNode),
		EndElementID:   string(e.EndNode),
		Properties:     make(map[string]Value, len(e.Properties)),
	}

	for k, v := range e.Properties {
		pv, err := FromNative(v)
		if err != nil {
			if errSink != nil {
				errSink.Record(ErrorInfo{
					TypeName: "InvalidValue",
					Message:  err.Error(),
				}, out.ElementID)
			}
			continue
		}
		out.Properties[k] = pv
	}

	return out
}
