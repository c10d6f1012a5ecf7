package export

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracer emits one span per batch of the export run.
var tracer = otel.Tracer("nornicdb/export")

// ProgressEvent is one throttled progress report.
type ProgressEvent struct {
	Kind           string // "node:<label>" or "rel:<type>"
	RecordsEmitted int64
	BytesWritten   int64
	Elapsed        time.Duration
}

// ProgressSink receives throttled progress reports. The CLI's default
// implementation prints a single status line; tests can supply a recording
// sink.
type ProgressSink interface {
	Report(ProgressEvent)
}

// ProgressSinkFunc adapts a function to ProgressSink.
type ProgressSinkFunc func(ProgressEvent)

func (f ProgressSinkFunc) Report(e ProgressEvent) { f(e) }

// labelStats accumulates per-label/per-type counters and aggregate timings.
type labelStats struct {
	Records  int64
	Bytes    int64
	Duration time.Duration
}

// Progress is a pure throttle: RecordBatch is a no-op (beyond updating
// counters) unless at least interval has elapsed since the last invocation
// that actually reported. It also owns the per-label counters, since both
// concerns are driven by the same batch-completion event in the
// orchestrator.
type Progress struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	sink     ProgressSink
	start    time.Time

	stats map[string]*labelStats
}

// NewProgress constructs a Progress throttle. sink may be nil, in which
// case RecordBatch still updates per-label counters but never calls out.
func NewProgress(interval time.Duration, sink ProgressSink) *Progress {
	return &Progress{
		interval: interval,
		sink:     sink,
		start:    time.Now(),
		stats:    make(map[string]*labelStats),
	}
}

// RecordBatch updates kind's counters and, if interval has elapsed since
// the last report, invokes the sink. Returns the timestamp of the last
// actual report; otherwise it is a no-op returning the previous timestamp.
func (p *Progress) RecordBatch(ctx context.Context, kind string, records, bytesWritten int64, batchDuration time.Duration) time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.stats[kind]
	if !ok {
		s = &labelStats{}
		p.stats[kind] = s
	}
	s.Records += records
	s.Bytes += bytesWritten
	s.Duration += batchDuration

	_, span := tracer.Start(ctx, "page",
		trace.WithAttributes(
			attribute.String("export.kind", kind),
			attribute.Int64("export.records", records),
		),
	)
	span.End()

	now := time.Now()
	if p.sink == nil || now.Sub(p.last) < p.interval {
		return p.last
	}
	p.last = now

	p.sink.Report(ProgressEvent{
		Kind:           kind,
		RecordsEmitted: s.Records,
		BytesWritten:   s.Bytes,
		Elapsed:        now.Sub(p.start),
	})
	return now
}

// Stats returns a snapshot of per-kind counters, for the final manifest.
func (p *Progress) Stats() map[string]labelStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]labelStats, len(p.stats))
	for k, v := range p.stats {
		out[k] = *v
	}
	return out
}
