package export

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nornicdb/graphexport/pkg/storage"
)

func newBadgerFixture(t *testing.T) *storage.BadgerEngine {
	t.Helper()
	engine, err := storage.NewBadgerEngineInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestBadgerSourceSchemaSnapshot(t *testing.T) {
	engine := newBadgerFixture(t)
	require.NoError(t, engine.CreateNode(&storage.Node{ID: "n1", Labels: []string{"Person"}, Properties: map[string]any{}}))
	require.NoError(t, engine.CreateNode(&storage.Node{ID: "n2", Labels: []string{"Company"}, Properties: map[string]any{}}))
	require.NoError(t, engine.CreateEdge(&storage.Edge{ID: "e1", StartNode: "n1", EndNode: "n2", Type: "WORKS_AT", Properties: map[string]any{}}))

	source := NewBadgerSource(engine, NewAccumulator(), "t", "0")
	schema, err := source.SchemaSnapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Company", "Person"}, schema.Labels)
	require.Equal(t, []string{"WORKS_AT"}, schema.Types)
	require.Equal(t, int64(2), schema.NodeCount)
	require.Equal(t, int64(1), schema.EdgeCount)
}

func TestBadgerSourceKeysetPagingIsOrderedAndComplete(t *testing.T) {
	engine := newBadgerFixture(t)
	const n = 17
	want := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("node-%02d", i)
		want = append(want, id)
		require.NoError(t, engine.CreateNode(&storage.Node{ID: storage.NodeID(id), Labels: []string{"Item"}, Properties: map[string]any{}}))
	}
	sort.Strings(want)

	source := NewBadgerSource(engine, NewAccumulator(), "t", "0")
	info, err := source.Preflight(context.Background())
	require.NoError(t, err)
	require.True(t, info.SupportsKeyset)

	var got []string
	cur := Cursor{}
	for {
		batch, next, err := source.PageNodes(context.Background(), "Item", cur, 5)
		require.NoError(t, err)
		for _, node := range batch.Items {
			got = append(got, node.ElementID)
		}
		if !batch.HasMore || len(batch.Items) == 0 {
			break
		}
		cur = next
	}

	require.Equal(t, want, got, "keyset paging must yield every node exactly once, element_id-ascending")
}

func TestBadgerSourcePageRelationships(t *testing.T) {
	engine := newBadgerFixture(t)
	require.NoError(t, engine.CreateNode(&storage.Node{ID: "a", Labels: []string{"X"}, Properties: map[string]any{}}))
	require.NoError(t, engine.CreateNode(&storage.Node{ID: "b", Labels: []string{"X"}, Properties: map[string]any{}}))
	require.NoError(t, engine.CreateEdge(&storage.Edge{ID: "e1", StartNode: "a", EndNode: "b", Type: "NEXT", Properties: map[string]any{"w": 1.5}}))

	source := NewBadgerSource(engine, NewAccumulator(), "t", "0")
	batch, _, err := source.PageRelationships(context.Background(), "NEXT", Cursor{}, 10)
	require.NoError(t, err)
	require.Len(t, batch.Items, 1)

	rel := batch.Items[0]
	require.Equal(t, "e1", rel.ElementID)
	require.Equal(t, "a", rel.StartElementID)
	require.Equal(t, "b", rel.EndElementID)
	require.Equal(t, 1.5, rel.Properties["w"].Float64)
}
