package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlExportConfig mirrors ExportConfig field-for-field with yaml tags, so a
// tuning file only needs to set the fields it wants to override; the zero
// value of every other field is distinguished from "explicitly zero" via a
// pointer, matching the env-var layer's "unset means keep the default"
// semantics.
type yamlExportConfig struct {
	OutputDir *string `yaml:"output_dir"`

	BatchSize *int `yaml:"batch_size"`

	MaxRetries          *int   `yaml:"max_retries"`
	RetryDelayMS        *int64 `yaml:"retry_delay_ms"`
	MaxRetryDelayMS     *int64 `yaml:"max_retry_delay_ms"`
	QueryTimeoutSeconds *int64 `yaml:"query_timeout_seconds"`

	SkipSchemaCollection *bool `yaml:"skip_schema_collection"`
	ValidateJSONOutput   *bool `yaml:"validate_json_output"`
	AllowInsecure        *bool `yaml:"allow_insecure"`
	JSONBufferSizeKB     *int  `yaml:"json_buffer_size_kb"`

	MaxPathLength     *int `yaml:"max_path_length"`
	PathFullLimit     *int `yaml:"path_full_limit"`
	PathCompactLimit  *int `yaml:"path_compact_limit"`
	PathPropertyDepth *int `yaml:"path_property_depth"`

	MaxNestedDepth       *int `yaml:"max_nested_depth"`
	NestedShallowDepth   *int `yaml:"nested_shallow_depth"`
	NestedReferenceDepth *int `yaml:"nested_reference_depth"`

	MaxCollectionItems       *int `yaml:"max_collection_items"`
	MaxLabelsPerNode         *int `yaml:"max_labels_per_node"`
	MaxLabelsInReferenceMode *int `yaml:"max_labels_in_reference_mode"`
	MaxLabelsInPathCompact   *int `yaml:"max_labels_in_path_compact"`

	EnableHashedIDs *bool `yaml:"enable_hashed_ids"`
	MaxMemoryMB     *int  `yaml:"max_memory_mb"`

	ProgressIntervalMS *int64 `yaml:"progress_interval_ms"`
}

// yamlDocument is the top-level shape of an export tuning file: a single
// `export:` section layered on top of the env-derived Config, the same
// layering NornicDB's other configuration surfaces use (env defaults, then
// an optional file, then CLI flags taking final precedence).
type yamlDocument struct {
	Export yamlExportConfig `yaml:"export"`
}

// LoadYAMLOverrides reads the export tuning section of a YAML file at path
// and applies any fields it sets on top of cfg.Export, leaving every field
// the file omits untouched. A missing or unreadable file is an error; the
// caller only passes a path when one was explicitly requested (e.g. via a
// --config flag).
func LoadYAMLOverrides(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading export config file %q: %w", path, err)
	}

	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing export config file %q: %w", path, err)
	}

	e := &doc.Export
	dst := &cfg.Export

	if e.OutputDir != nil {
		dst.OutputDir = *e.OutputDir
	}
	if e.BatchSize != nil {
		dst.BatchSize = *e.BatchSize
	}
	if e.MaxRetries != nil {
		dst.MaxRetries = *e.MaxRetries
	}
	if e.RetryDelayMS != nil {
		dst.RetryDelay = time.Duration(*e.RetryDelayMS) * time.Millisecond
	}
	if e.MaxRetryDelayMS != nil {
		dst.MaxRetryDelay = time.Duration(*e.MaxRetryDelayMS) * time.Millisecond
	}
	if e.QueryTimeoutSeconds != nil {
		dst.QueryTimeout = time.Duration(*e.QueryTimeoutSeconds) * time.Second
	}
	if e.SkipSchemaCollection != nil {
		dst.SkipSchemaCollection = *e.SkipSchemaCollection
	}
	if e.ValidateJSONOutput != nil {
		dst.ValidateJSONOutput = *e.ValidateJSONOutput
	}
	if e.AllowInsecure != nil {
		dst.AllowInsecure = *e.AllowInsecure
	}
	if e.JSONBufferSizeKB != nil {
		dst.JSONBufferSizeKB = *e.JSONBufferSizeKB
	}
	if e.MaxPathLength != nil {
		dst.MaxPathLength = *e.MaxPathLength
	}
	if e.PathFullLimit != nil {
		dst.PathFullLimit = *e.PathFullLimit
	}
	if e.PathCompactLimit != nil {
		dst.PathCompactLimit = *e.PathCompactLimit
	}
	if e.PathPropertyDepth != nil {
		dst.PathPropertyDepth = *e.PathPropertyDepth
	}
	if e.MaxNestedDepth != nil {
		dst.MaxNestedDepth = *e.MaxNestedDepth
	}
	if e.NestedShallowDepth != nil {
		dst.NestedShallowDepth = *e.NestedShallowDepth
	}
	if e.NestedReferenceDepth != nil {
		dst.NestedReferenceDepth = *e.NestedReferenceDepth
	}
	if e.MaxCollectionItems != nil {
		dst.MaxCollectionItems = *e.MaxCollectionItems
	}
	if e.MaxLabelsPerNode != nil {
		dst.MaxLabelsPerNode = *e.MaxLabelsPerNode
	}
	if e.MaxLabelsInReferenceMode != nil {
		dst.MaxLabelsInReferenceMode = *e.MaxLabelsInReferenceMode
	}
	if e.MaxLabelsInPathCompact != nil {
		dst.MaxLabelsInPathCompact = *e.MaxLabelsInPathCompact
	}
	if e.EnableHashedIDs != nil {
		dst.EnableHashedIDs = *e.EnableHashedIDs
	}
	if e.MaxMemoryMB != nil {
		dst.MaxMemoryMB = *e.MaxMemoryMB
	}
	if e.ProgressIntervalMS != nil {
		dst.ProgressInterval = time.Duration(*e.ProgressIntervalMS) * time.Millisecond
	}

	return nil
}
