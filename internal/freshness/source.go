package freshness

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wonny/dietdash/internal/contracts"
)

// Source is where the raw dataset comes from
type Source interface {
	// Name identifies the source in logs and errors
	Name() string

	// Fingerprint is a cheap change marker; equal fingerprints mean equal content
	Fingerprint(ctx context.Context) (string, error)

	// Open returns a reader over the full source
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource is a CSV file on local disk, fingerprinted by mtime and size
type FileSource struct {
	Path string
}

// NewFileSource creates a source for path
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Name returns the file path
func (s *FileSource) Name() string {
	return s.Path
}

// Fingerprint stats the file
func (s *FileSource) Fingerprint(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &contracts.SourceError{Source: s.Path, Err: err}
	}

	info, err := os.Stat(s.Path)
	if err != nil {
		return "", &contracts.SourceError{Source: s.Path, Err: err}
	}
	return fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size()), nil
}

// Open opens the file for reading
func (s *FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, &contracts.SourceError{Source: s.Path, Err: err}
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, &contracts.SourceError{Source: s.Path, Err: err}
	}
	return f, nil
}
