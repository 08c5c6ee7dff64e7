package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/pkg/httputil"
	"github.com/wonny/dietdash/pkg/logger"
)

const ingestCSV = `Diet_type,Recipe_name,Cuisine_type,Protein (g),Carbs (g),Fat (g)
vegan,Lentil Soup,indian,18,40,
paleo,Steak Salad,american,40,5,30
paleo,Salmon Bowl,japanese,20,10,20
vegan,Tofu Bowl,chinese,,30,10
`

const wantJSON = `[
  {"Diet_type": "paleo", "Protein(g)": 30, "Carbs(g)": 7.5, "Fat(g)": 25},
  {"Diet_type": "vegan", "Protein(g)": 22, "Carbs(g)": 35, "Fat(g)": 15}
]`

func blobServer(t *testing.T, body string, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/datasets/All_Diets.csv" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newFetcher(endpoint string) *HTTPBlobFetcher {
	return NewHTTPBlobFetcher(endpoint, httputil.New(logger.Nop()).DisableRetry())
}

func TestHandle_UsesPayload(t *testing.T) {
	srv, hits := blobServer(t, "", http.StatusOK)
	out := filepath.Join(t.TempDir(), "simulated_nosql", "results.json")
	p := NewProcessor(newFetcher(srv.URL), out, logger.Nop())

	records, err := p.Handle(context.Background(), Event{Payload: []byte(ingestCSV), Container: "datasets", Blob: "All_Diets.csv"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int32(0), hits.Load())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, wantJSON, string(data))
	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n    \"Diet_type\": \"paleo\""))
}

func TestHandle_FallsBackToBlob(t *testing.T) {
	srv, hits := blobServer(t, ingestCSV, http.StatusOK)
	out := filepath.Join(t.TempDir(), "results.json")
	p := NewProcessor(newFetcher(srv.URL+"/"), out, logger.Nop())

	records, err := p.Handle(context.Background(), Event{Container: "datasets", Blob: "All_Diets.csv"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, Record{DietType: "paleo", Protein: 30, Carbs: 7.5, Fat: 25}, records[0])
}

func TestHandle_BlobUnavailable(t *testing.T) {
	srv, _ := blobServer(t, "", http.StatusNotFound)
	out := filepath.Join(t.TempDir(), "results.json")
	p := NewProcessor(newFetcher(srv.URL), out, logger.Nop())

	_, err := p.Handle(context.Background(), Event{Container: "datasets", Blob: "All_Diets.csv"})
	assert.ErrorIs(t, err, contracts.ErrSourceUnavailable)

	var statusErr *httputil.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.NoFileExists(t, out)
}

func TestHandle_SchemaErrorDoesNotFetch(t *testing.T) {
	srv, hits := blobServer(t, ingestCSV, http.StatusOK)
	p := NewProcessor(newFetcher(srv.URL), filepath.Join(t.TempDir(), "results.json"), logger.Nop())

	_, err := p.Handle(context.Background(), Event{Payload: []byte("Diet_type,Recipe_name\nketo,Eggs\n")})
	assert.ErrorIs(t, err, contracts.ErrSchema)
	assert.Equal(t, int32(0), hits.Load())
}

func TestHandle_NoFetcher(t *testing.T) {
	p := NewProcessor(nil, filepath.Join(t.TempDir(), "results.json"), nil)

	_, err := p.Handle(context.Background(), Event{Container: "datasets", Blob: "All_Diets.csv"})
	assert.ErrorIs(t, err, contracts.ErrSourceUnavailable)
}

func TestEncode_EmptyIsArray(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestHTTPBlobFetcher_RequiresEndpoint(t *testing.T) {
	_, err := newFetcher("").Fetch(context.Background(), "datasets", "All_Diets.csv")
	assert.Error(t, err)
}
