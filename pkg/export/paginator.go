package export

import (
	"context"
	"time"
)

// BatchTiming is one retained batch-duration sample: every 10th sample is
// kept, so the header can later report a rough constant/linear/exponential
// trend without retaining every sample.
type BatchTiming struct {
	BatchIndex int           `json:"batch_index"`
	Duration   time.Duration `json:"duration_ns"`
}

// timingSampleInterval is the retained-sample cadence.
const timingSampleInterval = 10

// Paginator drives keyset (preferred) or skip/limit pagination over a
// single entity kind (all nodes of one label, or all relationships of one
// type). The strategy is fixed at the start of the kind
// from the SourceInfo reported by Preflight and never changes mid-kind.
type Paginator struct {
	source    GraphSource
	retrier   *Retrier
	batchSize int
	useKeyset bool

	batchIndex int
	timings    []BatchTiming
}

// NewPaginator constructs a Paginator. useKeyset should come from
// SourceInfo.SupportsKeyset: every NornicDB
// GraphSource reports true today, so the skip/limit path exists for a
// future non-NornicDB source.
func NewPaginator(source GraphSource, retrier *Retrier, batchSize int, useKeyset bool) *Paginator {
	return &Paginator{source: source, retrier: retrier, batchSize: batchSize, useKeyset: useKeyset}
}

// PageNodes fetches the next batch of nodes for label, advancing cur. It
// returns the batch, the cursor to pass on the next call, and whether more
// batches remain. Database calls go through the Retrier, so a
// transient failure is retried transparently before this ever returns an
// error to the caller.
func (p *Paginator) PageNodes(ctx context.Context, label string, cur Cursor) (Batch[*Node], Cursor, error) {
	var batch Batch[*Node]
	var next Cursor

	start := time.Now()
	err := p.retrier.Do(ctx, func(ctx context.Context) error {
		var callErr error
		batch, next, callErr = p.source.PageNodes(ctx, label, cur, p.batchSize)
		return callErr
	})
	p.recordTiming(time.Since(start))

	if err != nil {
		return Batch[*Node]{}, cur, err
	}
	if !p.useKeyset {
		next.Offset = cur.Offset + len(batch.Items)
	}
	return batch, next, nil
}

// PageRelationships is PageNodes's relationship-kind counterpart.
func (p *Paginator) PageRelationships(ctx context.Context, relType string, cur Cursor) (Batch[*Relationship], Cursor, error) {
	var batch Batch[*Relationship]
	var next Cursor

	start := time.Now()
	err := p.retrier.Do(ctx, func(ctx context.Context) error {
		var callErr error
		batch, next, callErr = p.source.PageRelationships(ctx, relType, cur, p.batchSize)
		return callErr
	})
	p.recordTiming(time.Since(start))

	if err != nil {
		return Batch[*Relationship]{}, cur, err
	}
	if !p.useKeyset {
		next.Offset = cur.Offset + len(batch.Items)
	}
	return batch, next, nil
}

func (p *Paginator) recordTiming(d time.Duration) {
	p.batchIndex++
	if p.batchIndex%timingSampleInterval == 0 {
		p.timings = append(p.timings, BatchTiming{BatchIndex: p.batchIndex, Duration: d})
	}
}

// Timings returns the retained batch-duration samples collected so far.
func (p *Paginator) Timings() []BatchTiming {
	return p.timings
}
