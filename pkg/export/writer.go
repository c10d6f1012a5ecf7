package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Writer composes per-record JSONL lines, tracking byte and line counters
// through the shared Coordinator. It never buffers more than one record at
// a time: memory is O(largest record).
type Writer struct {
	sink    *bufio.Writer
	coord   *Coordinator
	cfg     *Config
	errSink *Accumulator

	bytesWritten int64
	wroteFirst   bool
}

// NewWriter wraps sink in a buffered writer sized by cfg.JSONBufferSizeKB.
func NewWriter(sink io.Writer, coord *Coordinator, cfg *Config, errSink *Accumulator) *Writer {
	bufSize := cfg.JSONBufferSizeKB * 1024
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	return &Writer{
		sink:    bufio.NewWriterSize(sink, bufSize),
		coord:   coord,
		cfg:     cfg,
		errSink: errSink,
	}
}

// WriteNode writes one node record: a leading newline (unless this is the
// very first post-metadata record), the serialized JSON object, advances
// the line counter, and marks the record-type's start line if this is the
// first node seen.
func (w *Writer) WriteNode(n *Node) error {
	return w.writeRecord("node", SerializeNode(n, w.cfg, w.errSink))
}

// WriteRelationship writes one relationship record, marking the start line
// for its specific relationship type the first time that type is seen.
func (w *Writer) WriteRelationship(r *Relationship) error {
	return w.writeRecord(r.Type, SerializeRelationship(r, w.cfg, w.errSink))
}

// WriteDiagnostic writes one inline "error" or "warning" record for a
// flushed accumulator entry. Deduplicated stats (count, batch percentage,
// first-occurrence index, sampled element_ids) travel in a details object;
// the line number attached is the diagnostic record's own line.
func (w *Writer) WriteDiagnostic(entry ErrorSummaryEntry, ts time.Time) error {
	kind := "error"
	if entry.Warning {
		kind = "warning"
	}

	rec := map[string]any{
		"type":      kind,
		"timestamp": ts.UTC().Format(time.RFC3339Nano),
		"message":   entry.TypeName + ": " + entry.Message,
		"line":      w.coord.CurrentLine() + 1,
		"details": map[string]any{
			"count":            entry.Count,
			"percent_of_batch": entry.PercentOfBatch,
			"first_index":      entry.FirstIndex,
		},
	}
	if len(entry.SampleIDs) > 0 {
		rec["element_id"] = entry.SampleIDs[0]
		rec["details"].(map[string]any)["sample_ids"] = entry.SampleIDs
	}
	return w.writeRecord(kind, rec)
}

// writeRecord marshals rec, validates it if configured, and emits it as
// one line: newline-then-object, never a trailing newline after the very
// last record (the file's trailing LF is appended once by Finish, not
// per-record here).
func (w *Writer) writeRecord(recordType string, rec map[string]any) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: marshaling record: %v", ErrExport, err)
	}

	if w.cfg.ValidateJSONOutput {
		var probe any
		if err := json.Unmarshal(buf, &probe); err != nil {
			return fmt.Errorf("%w: validating record output: %v", ErrExport, err)
		}
	}

	if w.wroteFirst {
		if n, err := w.sink.Write([]byte{'\n'}); err != nil {
			return fmt.Errorf("%w: %v", ErrFileSystem, err)
		} else {
			w.bytesWritten += int64(n)
		}
	}
	w.wroteFirst = true

	n, err := w.sink.Write(buf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileSystem, err)
	}
	w.bytesWritten += int64(n)

	w.coord.NextLine()
	w.coord.MarkTypeStart(recordType)
	return nil
}

// Finish writes the trailing LF required after the final record and
// flushes the underlying buffer. Called once, after all nodes and
// relationships have been written.
func (w *Writer) Finish() error {
	if w.wroteFirst {
		if n, err := w.sink.Write([]byte{'\n'}); err != nil {
			return fmt.Errorf("%w: %v", ErrFileSystem, err)
		} else {
			w.bytesWritten += int64(n)
		}
	}
	return w.Flush()
}

// Flush flushes the underlying buffered writer without appending anything.
func (w *Writer) Flush() error {
	if err := w.sink.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrFileSystem, err)
	}
	return nil
}

// BytesWritten returns the total number of body bytes written so far
// (excludes the metadata header, whose reserved size WriteReservation
// returns separately).
func (w *Writer) BytesWritten() int64 {
	return w.bytesWritten
}
