package export

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/user"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// headerPaddingOverhead is the constant length of the `,"padding":""}`
// wrapper that follows the provisional header body in place of its own
// closing brace (14 bytes).
const headerPaddingOverhead = len(`,"padding":""}`)

// headerPaddingBuckets are the fixed sizes the first line may occupy,
// chosen from {16384, 32768, 65536, 32768*m | m>=2}.
var headerPaddingBuckets = []int{16384, 32768, 65536}

// bucketStep is the multiple used once the fixed buckets are exhausted.
const bucketStep = 32768

// FormatVersion is the fixed schema version stamped into every header.
const FormatVersion = "1.0"

// supportedRecordTypes is the static list of record types a reader must
// recognize.
var supportedRecordTypes = []string{"node", "relationship", "error", "warning"}

// minReaderVersion / breakingChangeVersion describe reader compatibility.
const (
	minReaderVersion      = "1.0"
	breakingChangeVersion = "2.0"
)

// DatabaseStatistics is the header's database_statistics block.
type DatabaseStatistics struct {
	NodeCount           int64            `json:"node_count"`
	RelationshipCount   int64            `json:"relationship_count"`
	LabelCount          int              `json:"label_count"`
	TypeCount           int              `json:"type_count"`
	NodesByLabel        map[string]int64 `json:"nodes_by_label,omitempty"`
	RelationshipsByType map[string]int64 `json:"relationships_by_type,omitempty"`
}

// DatabaseSchema is the header's database_schema block.
type DatabaseSchema struct {
	Labels []string `json:"labels"`
	Types  []string `json:"types"`
}

// Environment is the header's environment block.
type Environment struct {
	Host     string `json:"host"`
	OS       string `json:"os"`
	User     string `json:"user"`
	Runtime  string `json:"runtime"`
	CPUCount int    `json:"cpu_count"`
	MemoryMB int    `json:"memory_mb"`
}

// SecurityFlags is the header's security block.
type SecurityFlags struct {
	EncryptionEnabled bool   `json:"encryption_enabled"`
	AuthMethod        string `json:"auth_method"`
	ValidationEnabled bool   `json:"validation_enabled"`
}

// Compatibility is the header's compatibility block.
type Compatibility struct {
	MinReaderVersion      string   `json:"min_reader_version"`
	BreakingChangeVersion string   `json:"breaking_change_version"`
	DeprecatedFields      []string `json:"deprecated_fields"`
}

// ErrorSummary holds total counts plus has_errors, filled in phase 2 from
// the Accumulator.
type ErrorSummary struct {
	TotalErrors   int  `json:"total_errors"`
	TotalWarnings int  `json:"total_warnings"`
	HasErrors     bool `json:"has_errors"`
}

// PaginationPerformance holds the retained batch-timing samples, reported
// per entity kind.
type PaginationPerformance struct {
	Kind         string        `json:"kind"`
	BatchSamples []BatchTiming `json:"batch_samples"`
}

// ExportManifest is a final summary of what was emitted, including any
// kinds that failed pagination partway through.
type ExportManifest struct {
	NodesExported         int64    `json:"nodes_exported"`
	RelationshipsExported int64    `json:"relationships_exported"`
	FailedKinds           []string `json:"failed_kinds,omitempty"`
	DurationMS            int64    `json:"duration_ms"`
}

// Header is the full metadata header object. Fields populated only at
// phase 2 are zero-valued during the phase-1 reservation write.
type Header struct {
	FormatVersion   string `json:"format_version"`
	ExportID        string `json:"export_id"`
	ExportTimestamp string `json:"export_timestamp"`

	ProducerName     string `json:"producer_name"`
	ProducerVersion  string `json:"producer_version"`
	ProducerChecksum string `json:"producer_checksum"`
	ProducerRuntime  string `json:"producer_runtime"`

	SourceType    string `json:"source_type"`
	SourceVersion string `json:"source_version"`
	SourceEdition string `json:"source_edition"`
	DatabaseName  string `json:"database_name"`

	DatabaseStatistics DatabaseStatistics `json:"database_statistics"`
	DatabaseSchema     DatabaseSchema     `json:"database_schema"`
	Environment        Environment        `json:"environment"`
	Security           SecurityFlags      `json:"security"`

	SupportedRecordTypes []string      `json:"supported_record_types"`
	Compatibility        Compatibility `json:"compatibility"`
	CompressionHints     string        `json:"compression_hints"`

	RecordTypeStartLines  map[string]int          `json:"record_type_start_lines,omitempty"`
	ErrorSummary          *ErrorSummary           `json:"error_summary,omitempty"`
	PaginationPerformance []PaginationPerformance `json:"pagination_performance,omitempty"`
	ExportManifest        *ExportManifest         `json:"export_manifest,omitempty"`
}

// NewHeader builds the phase-1 provisional header from preflight/schema
// results. Phase-2-only fields (RecordTypeStartLines, ErrorSummary,
// PaginationPerformance, ExportManifest) are left nil.
func NewHeader(info SourceInfo, schema Schema, cfg Config, now time.Time) *Header {
	labels := schema.Labels
	types := schema.Types
	if cfg.SkipSchemaCollection {
		labels = nil
		types = nil
	}

	return &Header{
		FormatVersion:   FormatVersion,
		ExportID:        uuid.New().String(),
		ExportTimestamp: now.UTC().Format(time.RFC3339Nano),

		ProducerName:     info.ProducerName,
		ProducerVersion:  info.ProducerVersion,
		ProducerChecksum: producerChecksum(),
		ProducerRuntime:  runtime.Version(),

		SourceType:    info.SourceType,
		SourceVersion: info.SourceVersion,
		SourceEdition: info.SourceEdition,
		DatabaseName:  info.DatabaseName,

		DatabaseStatistics: DatabaseStatistics{
			NodeCount:         schema.NodeCount,
			RelationshipCount: schema.EdgeCount,
			LabelCount:        len(schema.Labels),
			TypeCount:         len(schema.Types),
		},
		DatabaseSchema: DatabaseSchema{Labels: labels, Types: types},
		Environment: Environment{
			Host:     hostname(),
			OS:       runtime.GOOS,
			User:     currentUser(),
			Runtime:  runtime.Version(),
			CPUCount: runtime.NumCPU(),
			MemoryMB: cfg.MaxMemoryMB,
		},
		Security: SecurityFlags{
			EncryptionEnabled: !cfg.AllowInsecure,
			AuthMethod:        "none",
			ValidationEnabled: cfg.ValidateJSONOutput,
		},

		SupportedRecordTypes: supportedRecordTypes,
		Compatibility: Compatibility{
			MinReaderVersion:      minReaderVersion,
			BreakingChangeVersion: breakingChangeVersion,
		},
		CompressionHints: "none",
	}
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

func currentUser() string {
	u, err := user.Current()
	if err != nil {
		return os.Getenv("USER")
	}
	return u.Username
}

// producerChecksum hashes the running binary so a reader can pin the exact
// producer build. Computed once per export; any failure degrades to
// "unknown" rather than failing the header.
func producerChecksum() string {
	path, err := os.Executable()
	if err != nil {
		return "unknown"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// estimateHeaderSize buckets a target header byte size from the label/type
// count and a fixed per-entry byte estimate. The exact constants only need
// to keep the phase-1 reservation strictly larger than phase-2 need.
func estimateHeaderSize(schema Schema) int {
	const baseEstimate = 2048
	const perEntryEstimate = 48

	estimate := baseEstimate + (len(schema.Labels)+len(schema.Types))*perEntryEstimate

	for _, bucket := range headerPaddingBuckets {
		if estimate <= bucket {
			return bucket
		}
	}

	m := 2
	for {
		bucket := bucketStep * m
		if estimate <= bucket {
			return bucket
		}
		m++
	}
}

// nextBucket returns the smallest valid bucket strictly larger than size,
// used when a reservation turns out to be too small at phase 2: the writer
// re-buckets up one size on overflow rather than failing outright.
func nextBucket(size int) int {
	for _, bucket := range headerPaddingBuckets {
		if bucket > size {
			return bucket
		}
	}
	m := size/bucketStep + 1
	return bucketStep * m
}

// renderHeader serializes h and pads it to exactly targetSize bytes
// (including the trailing LF): base_json_without_closing +
// `,"padding":"` + spaces + `"}` + `\n`. Returns ErrMetadataOverflow if
// base_len+overhead+1 (the LF) exceeds targetSize.
func renderHeader(h *Header, targetSize int) ([]byte, error) {
	body, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling header: %v", ErrExport, err)
	}

	// body ends with '}'; base is everything before that closing brace.
	base := body[:len(body)-1]
	baseLen := len(base)

	if baseLen+headerPaddingOverhead+1 > targetSize { // +1 for the trailing LF
		return nil, ErrMetadataOverflow
	}

	padLen := targetSize - baseLen - headerPaddingOverhead - 1
	var b strings.Builder
	b.Grow(targetSize)
	b.Write(base)
	b.WriteString(`,"padding":"`)
	for i := 0; i < padLen; i++ {
		b.WriteByte(' ')
	}
	b.WriteString(`"}`)
	b.WriteByte('\n')

	out := []byte(b.String())
	if len(out) != targetSize {
		return nil, fmt.Errorf("%w: rendered header is %d bytes, wanted %d", ErrMetadataOverflow, len(out), targetSize)
	}
	return out, nil
}

// WriteReservation performs phase 1: write a provisional, padded header of
// exactly targetSize bytes. Returns the size actually reserved, which may
// exceed the requested size if targetSize was itself too small to hold the
// provisional content: WriteReservation then moves up to the next bucket
// itself and tries again, returning ErrMetadataOverflow only when none of
// the buckets it tries fits.
func WriteReservation(w io.Writer, h *Header, targetSize int) (int, error) {
	for attempt := 0; attempt < len(headerPaddingBuckets)+8; attempt++ {
		buf, err := renderHeader(h, targetSize)
		if err == nil {
			if _, werr := w.Write(buf); werr != nil {
				return 0, fmt.Errorf("%w: %v", ErrFileSystem, werr)
			}
			return targetSize, nil
		}
		targetSize = nextBucket(targetSize)
	}
	return 0, ErrMetadataOverflow
}

// WriteRewrite performs phase 2: seek to offset 0 and overwrite the header
// with final statistics, recomputing padding so the total still matches
// reservedSize exactly. w must support io.WriterAt (a regular *os.File
// does).
func WriteRewrite(w io.WriterAt, h *Header, reservedSize int) error {
	buf, err := renderHeader(h, reservedSize)
	if err != nil {
		return err
	}
	if _, err := w.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrFileSystem, err)
	}
	return nil
}
