package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHeaderByteExactness(t *testing.T) {
	schema := Schema{Labels: []string{"Person", "Company"}, Types: []string{"KNOWS"}, NodeCount: 10, EdgeCount: 3}
	info := SourceInfo{ProducerName: "test", ProducerVersion: "0.1.0", SourceType: "nornicdb"}
	cfg := DefaultConfig()
	h := NewHeader(info, schema, cfg, time.Now())

	target := estimateHeaderSize(schema)
	require.Contains(t, []int{16384, 32768, 65536}, target)

	var buf bytes.Buffer
	reserved, err := WriteReservation(&buf, h, target)
	require.NoError(t, err)
	require.Equal(t, target, reserved)
	require.Equal(t, reserved, buf.Len())

	var probe map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &probe))
}

func TestHeaderRewritePreservesSize(t *testing.T) {
	schema := Schema{Labels: []string{"Person"}, Types: nil}
	info := SourceInfo{ProducerName: "test", ProducerVersion: "0.1.0"}
	cfg := DefaultConfig()
	h := NewHeader(info, schema, cfg, time.Now())

	target := estimateHeaderSize(schema)
	var buf bytes.Buffer
	reserved, err := WriteReservation(&buf, h, target)
	require.NoError(t, err)

	// Phase 2: add final statistics, which lengthens the JSON body, then
	// rewrite against the same reserved size.
	h.ErrorSummary = &ErrorSummary{TotalErrors: 3, TotalWarnings: 1, HasErrors: true}
	h.RecordTypeStartLines = map[string]int{"node": 2, "KNOWS": 500}
	h.ExportManifest = &ExportManifest{NodesExported: 100, RelationshipsExported: 50, DurationMS: 1234}

	buf2 := &boundedWriterAt{data: make([]byte, reserved)}
	require.NoError(t, WriteRewrite(buf2, h, reserved))
	require.Len(t, buf2.data, reserved)

	var probe map[string]any
	require.NoError(t, json.Unmarshal(buf2.data, &probe))
	require.Equal(t, "1.0", probe["format_version"])
}

func TestHeaderOverflowRebuckets(t *testing.T) {
	// A huge schema should force a bucket bigger than the smallest fixed size.
	labels := make([]string, 2000)
	for i := range labels {
		labels[i] = "Label"
	}
	schema := Schema{Labels: labels}
	target := estimateHeaderSize(schema)
	require.Greater(t, target, 16384)
}

// boundedWriterAt is a minimal io.WriterAt over a fixed-size byte slice, used
// to exercise WriteRewrite without a real file.
type boundedWriterAt struct {
	data []byte
}

func (b *boundedWriterAt) WriteAt(p []byte, off int64) (int, error) {
	n := copy(b.data[off:], p)
	return n, nil
}
