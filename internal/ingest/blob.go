package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/dietdash/pkg/httputil"
)

// BlobFetcher downloads a named blob
type BlobFetcher interface {
	Fetch(ctx context.Context, container, blob string) ([]byte, error)
}

// HTTPBlobFetcher reads blobs from an HTTP blob endpoint laid out as
// <endpoint>/<container>/<blob>
type HTTPBlobFetcher struct {
	endpoint string
	client   *httputil.Client
}

// NewHTTPBlobFetcher creates a fetcher for endpoint
func NewHTTPBlobFetcher(endpoint string, client *httputil.Client) *HTTPBlobFetcher {
	return &HTTPBlobFetcher{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
	}
}

// Fetch downloads the blob, retrying transient failures
func (f *HTTPBlobFetcher) Fetch(ctx context.Context, container, blob string) ([]byte, error) {
	if f.endpoint == "" {
		return nil, fmt.Errorf("blob endpoint is not configured")
	}

	u := fmt.Sprintf("%s/%s/%s", f.endpoint, url.PathEscape(container), url.PathEscape(blob))
	data, err := f.client.GetBytes(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch blob %s/%s: %w", container, blob, err)
	}
	return data, nil
}
