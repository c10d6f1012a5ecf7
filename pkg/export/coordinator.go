package export

// Coordinator is the single source of truth for the current output line
// number and the per-record-type starting line map. It is the only
// component permitted to mutate either piece of state; everything else
// (the Writer, including for flushed diagnostics) reads through it. The header
// line (line 1) and the first data record (line 2) share one counter;
// there is no separate offset between the writer's line count and the
// error tracker's.
type Coordinator struct {
	line                 int
	recordTypeStartLines map[string]int
}

// NewCoordinator returns a Coordinator with the line counter positioned at
// the metadata header (line 1).
func NewCoordinator() *Coordinator {
	return &Coordinator{
		line:                 1,
		recordTypeStartLines: make(map[string]int),
	}
}

// NextLine advances the line counter by one and returns the new line
// number. Called exactly once per emitted record.
func (c *Coordinator) NextLine() int {
	c.line++
	return c.line
}

// CurrentLine returns the line number last assigned, without advancing.
// Consulted by Writer.WriteDiagnostic, which adds one to it to number the
// error or warning record it is about to write.
func (c *Coordinator) CurrentLine() int {
	return c.line
}

// MarkTypeStart records the first line at which recordType (e.g. "node",
// or a specific relationship type) begins, if it has not already been
// recorded. Subsequent calls for the same type are no-ops.
func (c *Coordinator) MarkTypeStart(recordType string) {
	if _, exists := c.recordTypeStartLines[recordType]; exists {
		return
	}
	c.recordTypeStartLines[recordType] = c.line
}

// RecordTypeStartLines returns a copy of the recorded start-line map, ready
// for inclusion in the phase-2 header rewrite.
func (c *Coordinator) RecordTypeStartLines() map[string]int {
	out := make(map[string]int, len(c.recordTypeStartLines))
	for k, v := range c.recordTypeStartLines {
		out[k] = v
	}
	return out
}
