package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Result summarizes a completed (or partially completed) export run,
// returned to the CLI for its final log line.
type Result struct {
	OutputPath            string
	NodesExported         int64
	RelationshipsExported int64
	TotalErrors           int
	TotalWarnings         int
	HasErrors             bool
	Duration              time.Duration
}

// Orchestrator drives preflight -> header reservation -> nodes ->
// relationships -> header rewrite, matching the phase structure of
// cmd/nornicdb's runServe/runInit command bodies: gather config, open
// collaborator, run phases, defer close.
type Orchestrator struct {
	source  GraphSource
	cfg     Config
	logger  Logger
	sink    ProgressSink
	errSink *Accumulator

	producerName    string
	producerVersion string
}

// NewOrchestrator constructs an Orchestrator against source, configured by
// cfg. errSink is the batch-scoped error accumulator, shared with the
// source so property-conversion failures land in the same summary as
// serialization errors; passing nil creates a private one.
// producerName/producerVersion populate the header's producer identity
// fields.
func NewOrchestrator(source GraphSource, cfg Config, logger Logger, sink ProgressSink, errSink *Accumulator, producerName, producerVersion string) *Orchestrator {
	if logger == nil {
		logger = DefaultLogger()
	}
	if errSink == nil {
		errSink = NewAccumulator()
	}
	return &Orchestrator{
		source:          source,
		cfg:             cfg,
		logger:          logger,
		sink:            sink,
		errSink:         errSink,
		producerName:    producerName,
		producerVersion: producerVersion,
	}
}

// runState carries the per-run collaborators and counters threaded through
// the export phases, so the shutdown path can finalize the header from
// whatever state the run reached.
type runState struct {
	retrier  *Retrier
	coord    *Coordinator
	progress *Progress
	writer   *Writer

	totalErrors   int
	totalWarnings int
	failedKinds   []string
	perf          []PaginationPerformance
	lastBytes     int64
}

// Run executes the full export: preflight, schema snapshot, header
// reservation, per-label node paging, per-type relationship paging, and
// header rewrite. It fails before any body is written on an invalid
// configuration, a failed preflight or schema snapshot, or an output file
// that cannot be created or reserved. Cancellation and file-system errors
// during the body are fatal: paging stops and that error is returned, but a
// phase-2 header rewrite with the data so far is still attempted first. A
// per-kind pagination failure is recorded in the header's error summary
// and the next kind proceeds; when the run completes, the failed kinds are
// returned together as an AggregateError wrapping ErrPagination.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	if err := o.cfg.Validate(); err != nil {
		return Result{}, err
	}

	startedAt := time.Now()
	st := &runState{
		retrier:  NewRetrier(o.cfg, o.logger),
		coord:    NewCoordinator(),
		progress: NewProgress(o.cfg.ProgressInterval, o.sink),
	}

	var info SourceInfo
	if err := st.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		info, err = o.source.Preflight(ctx)
		return AsRetryable(err)
	}); err != nil {
		return Result{}, fmt.Errorf("%w: preflight failed: %v", ErrConnection, err)
	}
	info.ProducerName = o.producerName
	info.ProducerVersion = o.producerVersion

	var schema Schema
	if err := st.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		schema, err = o.source.SchemaSnapshot(ctx)
		return AsRetryable(err)
	}); err != nil {
		return Result{}, fmt.Errorf("%w: schema snapshot failed: %v", ErrQuery, err)
	}

	if err := os.MkdirAll(o.cfg.OutputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("%w: creating output dir: %v", ErrFileSystem, err)
	}
	outputPath := filepath.Join(o.cfg.OutputDir, "export.jsonl")

	f, err := os.Create(outputPath)
	if err != nil {
		return Result{}, fmt.Errorf("%w: creating output file: %v", ErrFileSystem, err)
	}
	defer f.Close()

	header := NewHeader(info, schema, o.cfg, startedAt)
	reservedSize, err := WriteReservation(f, header, estimateHeaderSize(schema))
	if err != nil {
		return Result{}, fmt.Errorf("%w: reserving header: %v", ErrExport, err)
	}

	st.writer = NewWriter(f, st.coord, &o.cfg, o.errSink)

	bodyErr := o.exportBody(ctx, info, schema, st)

	// Pending errors from a failed batch still belong in the file and the
	// summary, even on the shutdown path.
	o.flushDiagnostics(st, o.cfg.BatchSize)

	if err := st.writer.Finish(); err != nil && bodyErr == nil {
		bodyErr = err
	}

	stats := st.progress.Stats()
	nodesByLabel := recordsByKind(stats, "node:", schema.Labels)
	relsByType := recordsByKind(stats, "rel:", schema.Types)
	nodeTotal := sumCounts(nodesByLabel)
	relTotal := sumCounts(relsByType)

	header.RecordTypeStartLines = st.coord.RecordTypeStartLines()
	summary := &ErrorSummary{
		TotalErrors:   st.totalErrors,
		TotalWarnings: st.totalWarnings,
		HasErrors:     st.totalErrors > 0 || len(st.failedKinds) > 0,
	}
	header.ErrorSummary = summary
	header.ExportManifest = &ExportManifest{
		NodesExported:         nodeTotal,
		RelationshipsExported: relTotal,
		FailedKinds:           st.failedKinds,
		DurationMS:            time.Since(startedAt).Milliseconds(),
	}
	header.PaginationPerformance = st.perf
	header.DatabaseStatistics.NodesByLabel = nodesByLabel
	header.DatabaseStatistics.RelationshipsByType = relsByType

	if err := WriteRewrite(f, header, reservedSize); err != nil {
		if bodyErr != nil {
			return Result{}, bodyErr
		}
		return Result{}, err
	}
	if err := f.Sync(); err != nil && bodyErr == nil {
		bodyErr = fmt.Errorf("%w: %v", ErrFileSystem, err)
	}

	result := Result{
		OutputPath:            outputPath,
		NodesExported:         nodeTotal,
		RelationshipsExported: relTotal,
		TotalErrors:           summary.TotalErrors,
		TotalWarnings:         summary.TotalWarnings,
		HasErrors:             summary.HasErrors,
		Duration:              time.Since(startedAt),
	}

	if bodyErr != nil {
		return result, bodyErr
	}

	var aggErrs []error
	for _, k := range st.failedKinds {
		aggErrs = append(aggErrs, fmt.Errorf("%w: %s", ErrPagination, k))
	}
	return result, NewAggregateError(aggErrs)
}

// exportBody runs the node and relationship phases. A per-kind pagination
// failure is recorded and the next kind proceeds; cancellation and
// file-system errors stop the whole body early.
func (o *Orchestrator) exportBody(ctx context.Context, info SourceInfo, schema Schema, st *runState) error {
	labels := append([]string(nil), schema.Labels...)
	sort.Strings(labels)
	for _, label := range labels {
		if err := o.exportKind(ctx, "node:"+label, info, st); err != nil {
			if errors.Is(err, ErrCancelled) || errors.Is(err, ErrFileSystem) {
				return err
			}
			o.logger.Printf("export: pagination failed for label %q: %v", label, err)
			st.failedKinds = append(st.failedKinds, "node:"+label)
			o.errSink.Record(ErrorInfo{TypeName: "PaginationError", Message: err.Error()}, "")
		}
	}

	types := append([]string(nil), schema.Types...)
	sort.Strings(types)
	for _, relType := range types {
		if err := o.exportKind(ctx, "rel:"+relType, info, st); err != nil {
			if errors.Is(err, ErrCancelled) || errors.Is(err, ErrFileSystem) {
				return err
			}
			o.logger.Printf("export: pagination failed for relationship type %q: %v", relType, err)
			st.failedKinds = append(st.failedKinds, "rel:"+relType)
			o.errSink.Record(ErrorInfo{TypeName: "PaginationError", Message: err.Error()}, "")
		}
	}
	return nil
}

// exportKind pages through one entity kind ("node:<label>" or
// "rel:<type>"), writing each record, flushing the batch-scoped error
// accumulator at every batch boundary, and updating progress.
func (o *Orchestrator) exportKind(ctx context.Context, kind string, info SourceInfo, st *runState) error {
	isNode := strings.HasPrefix(kind, "node:")
	name := strings.TrimPrefix(strings.TrimPrefix(kind, "node:"), "rel:")

	paginator := NewPaginator(o.source, st.retrier, o.cfg.BatchSize, info.SupportsKeyset)
	defer func() {
		if timings := paginator.Timings(); len(timings) > 0 {
			st.perf = append(st.perf, PaginationPerformance{Kind: kind, BatchSamples: timings})
		}
	}()
	cur := Cursor{}

	for {
		if err := checkCancelled(ctx); err != nil {
			return err
		}

		start := time.Now()
		var written int
		var hasMore bool
		var next Cursor

		if isNode {
			batch, n, err := paginator.PageNodes(ctx, name, cur)
			if err != nil {
				return err
			}
			for _, node := range batch.Items {
				if err := checkCancelled(ctx); err != nil {
					return err
				}
				if o.cfg.EnableHashedIDs {
					node.StableID = stableNodeID(node)
				}
				if err := st.writer.WriteNode(node); err != nil {
					return err
				}
			}
			written, hasMore, next = len(batch.Items), batch.HasMore, n
		} else {
			batch, n, err := paginator.PageRelationships(ctx, name, cur)
			if err != nil {
				return err
			}
			for _, rel := range batch.Items {
				if err := checkCancelled(ctx); err != nil {
					return err
				}
				if o.cfg.EnableHashedIDs {
					rel.StableID = stableRelationshipID(rel)
				}
				if err := st.writer.WriteRelationship(rel); err != nil {
					return err
				}
			}
			written, hasMore, next = len(batch.Items), batch.HasMore, n
		}

		// Batch boundary: flush deduplicated diagnostics inline, then
		// clear the accumulator for the next batch.
		o.flushDiagnostics(st, written)

		delta := st.writer.BytesWritten() - st.lastBytes
		st.lastBytes = st.writer.BytesWritten()
		st.progress.RecordBatch(ctx, kind, int64(written), delta, time.Since(start))

		if !hasMore || written == 0 {
			return nil
		}
		cur = next
	}
}

// flushDiagnostics drains the accumulator into inline error/warning
// records and the running totals, then clears it. Write failures here are
// logged rather than propagated: a diagnostic line is never worth aborting
// the export over.
func (o *Orchestrator) flushDiagnostics(st *runState, batchSize int) {
	entries := o.errSink.Flush(batchSize)
	if len(entries) == 0 {
		return
	}
	st.totalErrors += o.errSink.TotalErrors()
	st.totalWarnings += o.errSink.TotalWarnings()
	now := time.Now()
	for _, entry := range entries {
		if err := st.writer.WriteDiagnostic(entry, now); err != nil {
			o.logger.Printf("export: writing diagnostic record: %v", err)
			break
		}
	}
	o.errSink.Clear()
}

func recordsByKind(stats map[string]labelStats, prefix string, names []string) map[string]int64 {
	out := make(map[string]int64, len(names))
	for _, name := range names {
		if s, ok := stats[prefix+name]; ok {
			out[name] = s.Records
		}
	}
	return out
}

func sumCounts(m map[string]int64) int64 {
	var total int64
	for _, v := range m {
		total += v
	}
	return total
}

// checkCancelled surfaces ctx's cancellation as ErrCancelled at every batch
// boundary and between records.
func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	default:
		return nil
	}
}

// stableNodeID/stableRelationshipID adapt idhash's hashing to the export.Node/
// Relationship shape, converting Graph Values back to native Go values for
// canonicalization (idhash.go operates on map[string]any).
func stableNodeID(n *Node) string {
	props := valuesToNative(n.Properties)
	id, err := NodeID(n.Labels, props)
	if err != nil {
		return ""
	}
	return id
}

func stableRelationshipID(r *Relationship) string {
	props := valuesToNative(r.Properties)
	id, err := RelationshipID(r.Type, r.StartElementID, r.EndElementID, props)
	if err != nil {
		return ""
	}
	return id
}

func valuesToNative(props map[string]Value) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = valueToNative(v)
	}
	return out
}

func valueToNative(v Value) any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt64:
		return v.Int64
	case KindFloat64:
		return v.Float64
	case KindString:
		return v.String
	case KindBytes:
		return v.Bytes
	case KindList:
		out := make([]any, 0, len(v.List))
		for _, item := range v.List {
			out = append(out, valueToNative(item))
		}
		return out
	case KindMap:
		return valuesToNative(v.Map)
	default:
		return fmt.Sprintf("%v", v)
	}
}
