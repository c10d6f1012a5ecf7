package export

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	c := DefaultConfig()
	return &c
}

func TestSerializeNodeBasicShape(t *testing.T) {
	n := &Node{
		ElementID: "n1",
		Labels:    []string{"Person"},
		Properties: map[string]Value{
			"name": {Kind: KindString, String: "Alice"},
			"age":  {Kind: KindInt64, Int64: 30},
		},
	}

	out := SerializeNode(n, testConfig(), nil)
	require.Equal(t, "node", out["type"])
	require.Equal(t, "n1", out["element_id"])
	require.Equal(t, []string{"Person"}, out["labels"])

	props := out["properties"].(map[string]any)
	require.Equal(t, "Alice", props["name"])
	require.Equal(t, int64(30), props["age"])

	// Must round-trip as valid JSON.
	buf, err := json.Marshal(out)
	require.NoError(t, err)
	var probe map[string]any
	require.NoError(t, json.Unmarshal(buf, &probe))
}

func TestSerializeRelationshipShape(t *testing.T) {
	r := &Relationship{
		ElementID:      "r1",
		Type:           "KNOWS",
		StartElementID: "n1",
		EndElementID:   "n2",
		Properties:     map[string]Value{},
	}
	out := SerializeRelationship(r, testConfig(), nil)
	require.Equal(t, "relationship", out["type"])
	require.Equal(t, "KNOWS", out["label"])
	require.Equal(t, "n1", out["start_element_id"])
	require.Equal(t, "n2", out["end_element_id"])
}

func TestSerializeStableIDOnlyWhenEnabled(t *testing.T) {
	n := &Node{ElementID: "n1", StableID: "deadbeef", Properties: map[string]Value{}}
	cfg := testConfig()

	cfg.EnableHashedIDs = false
	out := SerializeNode(n, cfg, nil)
	_, present := out["stable_id"]
	require.False(t, present)

	cfg.EnableHashedIDs = true
	out = SerializeNode(n, cfg, nil)
	require.Equal(t, "deadbeef", out["stable_id"])
}

func TestSerializeNonFiniteFloatBecomesNullWithWarning(t *testing.T) {
	errSink := NewAccumulator()
	n := &Node{
		ElementID: "n1",
		Properties: map[string]Value{
			"bad": {Kind: KindFloat64, Float64: math.NaN()},
		},
	}
	out := SerializeNode(n, testConfig(), errSink)
	props := out["properties"].(map[string]any)
	require.Nil(t, props["bad"])
	require.Greater(t, errSink.TotalCount(), 0)
}

func TestSerializeDepthExceededProducesNullAndOneError(t *testing.T) {
	cfg := testConfig()
	cfg.MaxNestedDepth = 2
	cfg.NestedShallowDepth = 2
	cfg.NestedReferenceDepth = 2

	// Build a chain of nested nodes deeper than MaxNestedDepth.
	leaf := &Node{ElementID: "leaf", Properties: map[string]Value{}}
	mid := &Node{ElementID: "mid", Properties: map[string]Value{"child": {Kind: KindNode, Node: leaf}}}
	top := &Node{ElementID: "top", Properties: map[string]Value{"child": {Kind: KindNode, Node: mid}}}

	errSink := NewAccumulator()
	out := SerializeNode(top, cfg, errSink)

	buf, err := json.Marshal(out)
	require.NoError(t, err)
	var probe map[string]any
	require.NoError(t, json.Unmarshal(buf, &probe))

	midOut := out["properties"].(map[string]any)["child"].(map[string]any)
	require.Nil(t, midOut["properties"].(map[string]any)["child"], "the node past max_nested_depth must become null")

	entries := errSink.Flush(1)
	depthErrors := 0
	for _, e := range entries {
		if e.TypeName == "DepthExceeded" {
			depthErrors += e.Count
		}
	}
	require.Equal(t, 1, depthErrors, "expected exactly one DepthExceeded error to be recorded")
}

func TestSerializeListTruncation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxCollectionItems = 3

	items := make([]Value, 10)
	for i := range items {
		items[i] = Value{Kind: KindInt64, Int64: int64(i)}
	}
	n := &Node{ElementID: "n1", Properties: map[string]Value{"xs": {Kind: KindList, List: items}}}

	out := SerializeNode(n, cfg, nil)
	props := out["properties"].(map[string]any)
	truncated := props["xs"].(map[string]any)
	require.Equal(t, true, truncated["truncated"])
	require.Equal(t, 10, truncated["original_length"])
	require.Len(t, truncated["items"].([]any), 3)
}

func TestSerializeLabelTruncation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLabelsPerNode = 2

	n := &Node{ElementID: "n1", Labels: []string{"A", "B", "C", "D"}, Properties: map[string]Value{}}
	out := SerializeNode(n, cfg, nil)
	require.Len(t, out["labels"], 2)
}

func TestSerializeBytesBase64(t *testing.T) {
	n := &Node{
		ElementID:  "n1",
		Properties: map[string]Value{"blob": {Kind: KindBytes, Bytes: []byte("hi")}},
	}
	out := SerializeNode(n, testConfig(), nil)
	props := out["properties"].(map[string]any)
	blob := props["blob"].(map[string]any)
	require.Equal(t, "base64", blob["encoding"])
	require.Equal(t, "aGk=", blob["value"])
}

func TestSerializePathModes(t *testing.T) {
	cfg := testConfig()
	cfg.PathFullLimit = 2
	cfg.PathCompactLimit = 4
	cfg.MaxPathLength = 10

	mkPath := func(n int) *Path {
		nodes := make([]*Node, n)
		rels := make([]*Relationship, n-1)
		for i := 0; i < n; i++ {
			nodes[i] = &Node{ElementID: idOf(i), Properties: map[string]Value{}}
		}
		for i := 0; i < n-1; i++ {
			rels[i] = &Relationship{ElementID: "r" + idOf(i), Type: "NEXT", StartElementID: idOf(i), EndElementID: idOf(i + 1)}
		}
		return &Path{Nodes: nodes, Relationships: rels}
	}

	full := SerializePath(mkPath(2), cfg, nil).(map[string]any)
	require.IsType(t, []any{}, full["nodes"])

	compact := SerializePath(mkPath(3), cfg, nil).(map[string]any)
	compactNodes := compact["nodes"].([]any)
	require.Len(t, compactNodes, 3)

	idsOnly := SerializePath(mkPath(5), cfg, nil).(map[string]any)
	require.IsType(t, []string{}, idsOnly["nodes"])

	errSink := NewAccumulator()
	tooLong := SerializePath(mkPath(11), cfg, errSink).(map[string]any)
	require.Equal(t, true, tooLong["truncated"])
	require.Equal(t, "path_too_long", tooLong["reason"])
}

func idOf(i int) string {
	return string(rune('a' + i))
}

func TestSerializePathFullModePropertyDepthCap(t *testing.T) {
	cfg := testConfig()
	cfg.PathFullLimit = 10
	cfg.PathPropertyDepth = 2

	// Three levels of nested map under a path node's property; the ceiling
	// of 2 cuts the tree off well before max_nested_depth (10) would, and
	// below nested_shallow_depth (3), where the ordinary bands would still
	// serialize in full.
	leaf := Value{Kind: KindMap, Map: map[string]Value{"v": {Kind: KindInt64, Int64: 1}}}
	mid := Value{Kind: KindMap, Map: map[string]Value{"leaf": leaf}}
	top := Value{Kind: KindMap, Map: map[string]Value{"mid": mid}}

	p := &Path{
		Nodes: []*Node{
			{ElementID: "a", Properties: map[string]Value{"tree": top}},
			{ElementID: "b", Properties: map[string]Value{}},
		},
		Relationships: []*Relationship{
			{ElementID: "r1", Type: "NEXT", StartElementID: "a", EndElementID: "b", Properties: map[string]Value{}},
		},
	}

	errSink := NewAccumulator()
	out := SerializePath(p, cfg, errSink).(map[string]any)

	nodes := out["nodes"].([]any)
	props := nodes[0].(map[string]any)["properties"].(map[string]any)
	tree := props["tree"].(map[string]any)
	require.Nil(t, tree["mid"], "a map at path_property_depth must demote to null")

	entries := errSink.Flush(1)
	found := false
	for _, e := range entries {
		if e.TypeName == "DepthExceeded" {
			found = true
		}
	}
	require.True(t, found, "the path property cap must record DepthExceeded")
}

func TestSerializePathPropertyCapDoesNotLeakOutsidePath(t *testing.T) {
	cfg := testConfig()
	cfg.PathFullLimit = 10
	cfg.PathPropertyDepth = 1

	path := &Path{
		Nodes: []*Node{{ElementID: "a", Properties: map[string]Value{}}},
	}
	inner := Value{Kind: KindMap, Map: map[string]Value{"v": {Kind: KindInt64, Int64: 1}}}
	n := &Node{
		ElementID: "n1",
		Properties: map[string]Value{
			"p":     {Kind: KindPath, Path: path},
			"after": {Kind: KindMap, Map: map[string]Value{"inner": inner}},
		},
	}

	out := SerializeNode(n, cfg, NewAccumulator())
	props := out["properties"].(map[string]any)
	after := props["after"].(map[string]any)
	require.NotNil(t, after["inner"], "the path ceiling must be restored once the path value is done")
}
