package export

import (
	"fmt"
	"time"
)

// Config holds every tuning option the core reads. It is populated by an
// external collaborator (pkg/config.ExportConfig via environment variables,
// or a YAML file) and validated there; the core never parses flags or env
// vars itself.
type Config struct {
	OutputDir string

	BatchSize int

	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	QueryTimeout  time.Duration

	SkipSchemaCollection bool
	ValidateJSONOutput   bool
	AllowInsecure        bool
	JSONBufferSizeKB     int

	MaxPathLength     int
	PathFullLimit     int
	PathCompactLimit  int
	PathPropertyDepth int

	MaxNestedDepth       int
	NestedShallowDepth   int
	NestedReferenceDepth int

	MaxCollectionItems int

	MaxLabelsPerNode         int
	MaxLabelsInReferenceMode int
	MaxLabelsInPathCompact   int

	EnableHashedIDs bool

	MaxMemoryMB int

	ProgressInterval time.Duration
}

// DefaultConfig returns the option defaults. Path-mode thresholds are
// configuration fields rather than hard-coded constants in the serializer,
// so a deployment can retune them without a rebuild.
func DefaultConfig() Config {
	return Config{
		OutputDir: ".",

		BatchSize: 1000,

		MaxRetries:    5,
		RetryDelay:    200 * time.Millisecond,
		MaxRetryDelay: 30 * time.Second,
		QueryTimeout:  60 * time.Second,

		SkipSchemaCollection: false,
		ValidateJSONOutput:   false,
		AllowInsecure:        false,
		JSONBufferSizeKB:     64,

		MaxPathLength:     20000,
		PathFullLimit:     1000,
		PathCompactLimit:  10000,
		PathPropertyDepth: 3,

		MaxNestedDepth:       10,
		NestedShallowDepth:   3,
		NestedReferenceDepth: 6,

		MaxCollectionItems: 1000,

		MaxLabelsPerNode:         50,
		MaxLabelsInReferenceMode: 5,
		MaxLabelsInPathCompact:   3,

		EnableHashedIDs: false,

		MaxMemoryMB: 1024,

		ProgressInterval: 2 * time.Second,
	}
}

// Validate checks the invariants the core itself depends on: a positive
// batch size, depth-band ordering and path-limit ordering. Other
// field-level validation is performed by pkg/config before the core ever
// sees a Config value.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive", ErrConfiguration)
	}
	if c.NestedShallowDepth > c.NestedReferenceDepth || c.NestedReferenceDepth > c.MaxNestedDepth {
		return fmt.Errorf("%w: depth bands must satisfy nested_shallow_depth <= nested_reference_depth <= max_nested_depth", ErrConfiguration)
	}
	if c.PathFullLimit > c.PathCompactLimit {
		return fmt.Errorf("%w: path_full_limit must be <= path_compact_limit", ErrConfiguration)
	}
	if c.PathCompactLimit > c.MaxPathLength {
		return fmt.Errorf("%w: path_compact_limit must be <= max_path_length", ErrConfiguration)
	}
	return nil
}
