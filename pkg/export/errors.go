// Package export streams the full contents of a NornicDB graph (nodes and
// relationships) into a single JSON-Lines file: a fixed-size metadata header
// on line 1, followed by one record per element in a deterministic order.
package export

import "errors"

// Sentinel error categories, mirroring pkg/storage/types.go's Err* block.
// Callers classify a returned error with errors.Is against these to decide
// exit codes and retry eligibility.
var (
	ErrConfiguration  = errors.New("export: configuration error")
	ErrConnection     = errors.New("export: connection error")
	ErrAuthentication = errors.New("export: authentication error")
	ErrQuery          = errors.New("export: query error")
	ErrDataCorruption = errors.New("export: data corruption")
	ErrDiskSpace      = errors.New("export: disk space error")
	ErrMemory         = errors.New("export: memory error")
	ErrExport         = errors.New("export: export error")
	ErrFileSystem     = errors.New("export: file system error")
	ErrSecurity       = errors.New("export: security error")
	ErrTimeout        = errors.New("export: timeout")
	ErrPagination     = errors.New("export: pagination error")

	// ErrBreakerOpen is returned by the circuit breaker when a call is
	// short-circuited without contacting the database.
	ErrBreakerOpen = errors.New("export: circuit breaker open")

	// ErrMetadataOverflow signals that the reserved header size was
	// insufficient even after re-bucketing to the largest practical size.
	ErrMetadataOverflow = errors.New("export: metadata header overflow")

	// ErrCancelled is surfaced when the process-wide cancellation token
	// fires between batches or records.
	ErrCancelled = errors.New("export: cancelled")
)

// AggregateError wraps a non-empty list of errors encountered across
// independent phases (e.g. one per relationship type that failed pagination)
// where no single cause should mask the others.
type AggregateError struct {
	Errors []error
}

// NewAggregateError returns nil if errs is empty, otherwise an *AggregateError.
// Callers should always go through this constructor rather than building the
// struct directly, so an empty slice never becomes a non-nil error value.
func NewAggregateError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: errs}
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := e.Errors[0].Error()
	for _, sub := range e.Errors[1:] {
		msg += "; " + sub.Error()
	}
	return msg
}

// Unwrap exposes the wrapped errors to errors.Is/errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// ExitCode maps a returned error to the process exit code: 0 success;
// 2 connection; 3 resource; 5 data/export/timeout;
// 6 configuration/auth/security/aggregate; 7 query/pagination.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch {
	case errors.Is(err, ErrConnection):
		return 2
	case errors.Is(err, ErrDiskSpace), errors.Is(err, ErrMemory), errors.Is(err, ErrFileSystem):
		return 3
	case errors.Is(err, ErrDataCorruption), errors.Is(err, ErrExport), errors.Is(err, ErrTimeout):
		return 5
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrAuthentication), errors.Is(err, ErrSecurity):
		return 6
	case errors.Is(err, ErrQuery), errors.Is(err, ErrPagination):
		return 7
	}

	var agg *AggregateError
	if errors.As(err, &agg) {
		return 6
	}

	return 1
}
