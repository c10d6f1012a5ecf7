package export

import (
	"github.com/cespare/xxhash/v2"
)

// sampleCap bounds the number of element_ids retained per error kind to a
// fixed-size sample.
const sampleCap = 5

// messagePrefixLen bounds how much of an error message participates in the
// dedup key.
const messagePrefixLen = 100

// ErrorInfo is the input to Accumulator.Record: the classification and
// message of one serialization error. Warning marks recoverable conditions
// (non-finite floats, circular references, truncations) that are counted
// separately from errors in the header summary.
type ErrorInfo struct {
	TypeName string
	Message  string
	Warning  bool
}

// errorKey is the (hash(exception_type_name), hash(message_prefix)) pair
// that keys the accumulator.
type errorKey struct {
	typeHash    uint32
	messageHash uint32
}

// errorStats is the per-key bookkeeping the accumulator retains: O(1) per
// unique kind regardless of how many times it recurs.
type errorStats struct {
	info          ErrorInfo
	count         int
	firstIndex    int
	sampleIDs     []string
	sampleIDsSeen map[string]struct{}
}

// Accumulator is the batch-scoped, bounded-sample error deduplicator.
// It is not safe for concurrent use; the exporter is single-threaded and
// the accumulator is owned exclusively by the batch currently executing.
type Accumulator struct {
	order     []errorKey
	stats     map[errorKey]*errorStats
	nextIndex int
}

// NewAccumulator returns an empty Accumulator ready for a new batch.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		stats: make(map[errorKey]*errorStats),
	}
}

// Record registers one occurrence of info against elementID. Memory is
// O(unique error kinds x sample cap), independent of total error count.
// No element_id is sampled more than once per key.
func (a *Accumulator) Record(info ErrorInfo, elementID string) {
	key := errorKey{
		typeHash:    hash32(info.TypeName),
		messageHash: hash32(truncate(info.Message, messagePrefixLen)),
	}

	stats, exists := a.stats[key]
	if !exists {
		stats = &errorStats{
			info:          info,
			firstIndex:    a.nextIndex,
			sampleIDsSeen: make(map[string]struct{}),
		}
		a.stats[key] = stats
		a.order = append(a.order, key)
	}

	stats.count++
	a.nextIndex++

	if elementID == "" {
		return
	}
	if _, seen := stats.sampleIDsSeen[elementID]; seen {
		return
	}
	if len(stats.sampleIDs) < sampleCap {
		stats.sampleIDs = append(stats.sampleIDs, elementID)
		stats.sampleIDsSeen[elementID] = struct{}{}
	}
}

// ErrorSummaryEntry is one flushed line: a deduplicated error kind plus its
// stats, ready for rendering as a JSONL "error" record or a header summary
// line.
type ErrorSummaryEntry struct {
	TypeName       string
	Message        string
	Warning        bool
	Count          int
	PercentOfBatch float64
	FirstIndex     int
	SampleIDs      []string
}

// Flush emits one ErrorSummaryEntry per unique error kind, in insertion
// order (deterministic given insertion order). batchSize is
// the total record count the batch processed, used for PercentOfBatch.
func (a *Accumulator) Flush(batchSize int) []ErrorSummaryEntry {
	entries := make([]ErrorSummaryEntry, 0, len(a.order))
	for _, key := range a.order {
		s := a.stats[key]
		pct := 0.0
		if batchSize > 0 {
			pct = float64(s.count) / float64(batchSize) * 100
		}
		entries = append(entries, ErrorSummaryEntry{
			TypeName:       s.info.TypeName,
			Message:        s.info.Message,
			Warning:        s.info.Warning,
			Count:          s.count,
			PercentOfBatch: pct,
			FirstIndex:     s.firstIndex,
			SampleIDs:      s.sampleIDs,
		})
	}
	return entries
}

// TotalCount returns the sum of counts across all recorded kinds, errors
// and warnings alike.
func (a *Accumulator) TotalCount() int {
	total := 0
	for _, s := range a.stats {
		total += s.count
	}
	return total
}

// TotalErrors returns the occurrence count across non-warning kinds only.
func (a *Accumulator) TotalErrors() int {
	total := 0
	for _, s := range a.stats {
		if !s.info.Warning {
			total += s.count
		}
	}
	return total
}

// TotalWarnings returns the occurrence count across warning kinds only.
func (a *Accumulator) TotalWarnings() int {
	total := 0
	for _, s := range a.stats {
		if s.info.Warning {
			total += s.count
		}
	}
	return total
}

// Clear resets the accumulator to an empty state,
// called at each batch boundary after flushing.
func (a *Accumulator) Clear() {
	a.order = nil
	a.stats = make(map[errorKey]*errorStats)
	a.nextIndex = 0
}

func hash32(s string) uint32 {
	return uint32(xxhash.Sum64String(s))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
