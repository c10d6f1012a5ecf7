package export

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccumulatorDeduplicationBound(t *testing.T) {
	a := NewAccumulator()
	for i := 0; i < 1000; i++ {
		a.Record(ErrorInfo{TypeName: "DepthExceeded", Message: "too deep"}, fmt.Sprintf("node-%d", i))
	}

	entries := a.Flush(1000)
	require.Len(t, entries, 1, "identical errors must collapse to one kind")
	require.Equal(t, 1000, entries[0].Count)
	require.LessOrEqual(t, len(entries[0].SampleIDs), sampleCap)
	require.Equal(t, 100.0, entries[0].PercentOfBatch)
}

func TestAccumulatorNoDuplicateSampleIDs(t *testing.T) {
	a := NewAccumulator()
	for i := 0; i < 20; i++ {
		a.Record(ErrorInfo{TypeName: "X", Message: "m"}, "same-id")
	}
	entries := a.Flush(20)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].SampleIDs, 1)
}

func TestAccumulatorDistinctKindsIndependent(t *testing.T) {
	a := NewAccumulator()
	a.Record(ErrorInfo{TypeName: "A", Message: "one"}, "n1")
	a.Record(ErrorInfo{TypeName: "B", Message: "two"}, "n2")
	a.Record(ErrorInfo{TypeName: "A", Message: "one"}, "n3")

	entries := a.Flush(3)
	require.Len(t, entries, 2)

	total := 0
	for _, e := range entries {
		total += e.Count
	}
	require.Equal(t, 3, total)
	require.Equal(t, 3, a.TotalCount())
}

func TestAccumulatorClearResetsState(t *testing.T) {
	a := NewAccumulator()
	a.Record(ErrorInfo{TypeName: "A", Message: "m"}, "n1")
	a.Clear()
	require.Equal(t, 0, a.TotalCount())
	require.Empty(t, a.Flush(0))
}

func TestAccumulatorEmptyElementIDNotSampled(t *testing.T) {
	a := NewAccumulator()
	a.Record(ErrorInfo{TypeName: "A", Message: "m"}, "")
	entries := a.Flush(1)
	require.Len(t, entries, 1)
	require.Empty(t, entries[0].SampleIDs)
}
