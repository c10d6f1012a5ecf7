package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nornicdb/graphexport/pkg/storage"
)

func TestFromNativeScalars(t *testing.T) {
	cases := []struct {
		in   any
		kind ValueKind
	}{
		{nil, KindNull},
		{true, KindBool},
		{"s", KindString},
		{[]byte{1}, KindBytes},
		{int(1), KindInt64},
		{int32(1), KindInt64},
		{int64(1), KindInt64},
		{uint16(1), KindInt64},
		{float32(1.5), KindFloat64},
		{float64(1.5), KindFloat64},
		{time.Now(), KindDateTime},
		{time.Second, KindDuration},
	}
	for _, c := range cases {
		v, err := FromNative(c.in)
		require.NoError(t, err)
		require.Equal(t, c.kind, v.Kind, "input %T", c.in)
	}
}

func TestFromNativePointDimensions(t *testing.T) {
	v, err := FromNative(Point{SRID: 4326, X: 1, Y: 2})
	require.NoError(t, err)
	require.Equal(t, KindPoint2D, v.Kind)

	z := 3.0
	v, err = FromNative(Point{SRID: 4979, X: 1, Y: 2, Z: &z})
	require.NoError(t, err)
	require.Equal(t, KindPoint3D, v.Kind)
}

func TestFromNativeContainersRecurse(t *testing.T) {
	v, err := FromNative(map[string]any{
		"list": []any{int64(1), "two", map[string]any{"three": 3.0}},
	})
	require.NoError(t, err)
	require.Equal(t, KindMap, v.Kind)

	list := v.Map["list"]
	require.Equal(t, KindList, list.Kind)
	require.Len(t, list.List, 3)
	require.Equal(t, KindMap, list.List[2].Kind)
}

func TestFromNativeUnsupportedTypeErrors(t *testing.T) {
	_, err := FromNative(struct{ X int }{X: 1})
	require.ErrorIs(t, err, ErrDataCorruption)
}

func TestDedupeLabels(t *testing.T) {
	require.Equal(t, []string{"A", "B"}, dedupeLabels([]string{"B", "A", "B", "A"}))
	require.Empty(t, dedupeLabels(nil))
}

func TestNodeFromStorageDropsBadPropertyAndRecords(t *testing.T) {
	errSink := NewAccumulator()
	n := nodeFromStorage(&storage.Node{
		ID:     "n1",
		Labels: []string{"X", "X"},
		Properties: map[string]any{
			"good": "keep",
			"bad":  struct{}{},
		},
	}, errSink)

	require.Equal(t, []string{"X"}, n.Labels)
	require.Contains(t, n.Properties, "good")
	require.NotContains(t, n.Properties, "bad")
	require.Equal(t, 1, errSink.TotalCount())

	entries := errSink.Flush(1)
	require.Equal(t, "InvalidValue", entries[0].TypeName)
	require.Equal(t, []string{"n1"}, entries[0].SampleIDs)
}

func TestRelationshipFromStorageShape(t *testing.T) {
	r := relationshipFromStorage(&storage.Edge{
		ID:         "e1",
		Type:       "KNOWS",
		StartNode:  "a",
		EndNode:    "b",
		Properties: map[string]any{"since": int64(2020)},
	}, nil)

	require.Equal(t, "e1", r.ElementID)
	require.Equal(t, "KNOWS", r.Type)
	require.Equal(t, "a", r.StartElementID)
	require.Equal(t, "b", r.EndElementID)
	require.Equal(t, int64(2020), r.Properties["since"].Int64)
}
