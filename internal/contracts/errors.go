package contracts

import (
	"errors"
	"fmt"
)

// Error kinds of the dataset pipeline
// ⭐ SSOT: callers classify failures with errors.Is against these values
var (
	// ErrSchema means a required column is missing. Not retried.
	ErrSchema = errors.New("schema error")

	// ErrSourceUnavailable means the source table could not be read
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrDurableStore means the persistence layer rejected a read or write
	ErrDurableStore = errors.New("durable store error")
)

// SchemaError names the first missing required column
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing column: %s", e.Column)
}

// Unwrap lets errors.Is(err, ErrSchema) match
func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// SourceError wraps an I/O failure with the source it came from
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

// Unwrap exposes both the sentinel and the cause
func (e *SourceError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}
