package export

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProgressThrottlesReports(t *testing.T) {
	var events []ProgressEvent
	sink := ProgressSinkFunc(func(e ProgressEvent) { events = append(events, e) })

	p := NewProgress(time.Hour, sink)
	ctx := context.Background()

	p.RecordBatch(ctx, "node:Person", 10, 100, time.Millisecond)
	p.RecordBatch(ctx, "node:Person", 10, 100, time.Millisecond)
	p.RecordBatch(ctx, "node:Person", 10, 100, time.Millisecond)

	require.Len(t, events, 1, "within the interval only the first batch reports")
	require.Equal(t, int64(10), events[0].RecordsEmitted)
}

func TestProgressNoOpReturnsPreviousTimestamp(t *testing.T) {
	var events []ProgressEvent
	sink := ProgressSinkFunc(func(e ProgressEvent) { events = append(events, e) })

	p := NewProgress(time.Hour, sink)
	ctx := context.Background()

	first := p.RecordBatch(ctx, "node:X", 1, 1, 0)
	second := p.RecordBatch(ctx, "node:X", 1, 1, 0)
	require.Equal(t, first, second, "a throttled call returns the previous report timestamp")
}

func TestProgressCountersAccumulateEvenWhenThrottled(t *testing.T) {
	p := NewProgress(time.Hour, nil)
	ctx := context.Background()

	p.RecordBatch(ctx, "node:Person", 5, 50, time.Millisecond)
	p.RecordBatch(ctx, "node:Person", 7, 70, time.Millisecond)
	p.RecordBatch(ctx, "rel:KNOWS", 3, 30, time.Millisecond)

	stats := p.Stats()
	require.Equal(t, int64(12), stats["node:Person"].Records)
	require.Equal(t, int64(120), stats["node:Person"].Bytes)
	require.Equal(t, int64(3), stats["rel:KNOWS"].Records)
}

func TestProgressNilSinkIsSafe(t *testing.T) {
	p := NewProgress(0, nil)
	p.RecordBatch(context.Background(), "node:X", 1, 1, 0)
	require.Equal(t, int64(1), p.Stats()["node:X"].Records)
}

func TestRecordsByKindFiltersPrefix(t *testing.T) {
	stats := map[string]labelStats{
		"node:Person": {Records: 4},
		"rel:KNOWS":   {Records: 2},
	}
	nodes := recordsByKind(stats, "node:", []string{"Person", "Company"})
	require.Equal(t, map[string]int64{"Person": 4}, nodes)
	require.Equal(t, int64(4), sumCounts(nodes))
}
