package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dietdash/internal/aggregate"
	"github.com/wonny/dietdash/internal/api/handlers"
	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/freshness"
	"github.com/wonny/dietdash/internal/metrics"
	"github.com/wonny/dietdash/internal/query"
	"github.com/wonny/dietdash/pkg/config"
	"github.com/wonny/dietdash/pkg/logger"
)

type fixedProvider struct{}

func (fixedProvider) EnsureFresh(ctx context.Context) (*freshness.Snapshot, error) {
	t := &contracts.Table{Rows: []contracts.Row{
		{DietType: "keto", RecipeName: "Egg Cups", CuisineType: "french", Protein: 12, Carbs: 2, Fat: 9},
	}}
	s := aggregate.Summarize(t)
	return &freshness.Snapshot{Generation: "g", Table: t, AvgMacros: s.AvgMacros, RecipeCounts: s.RecipeCounts}, nil
}

func testRouter(t *testing.T, mutate func(*config.Config)) (http.Handler, *metrics.Metrics) {
	t.Helper()
	cfg := &config.Config{
		MetricsEnabled: true,
		Dashboard: config.DashboardConfig{
			PageSize:   10,
			AuthHeader: "X-Forwarded-User",
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	m := metrics.New()
	log := logger.Nop()
	view := query.NewView(query.ViewOptions{PageSize: cfg.Dashboard.PageSize, Metrics: m})
	h := handlers.NewDashboardHandler(fixedProvider{}, view, log)
	return NewRouter(cfg, h, m, log), m
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	r, _ := testRouter(t, nil)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"dietdash"}`, rec.Body.String())
}

func TestRouter_DashboardAndMetrics(t *testing.T) {
	r, _ := testRouter(t, nil)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/dashboard?action=recipes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Egg Cups (keto, french)")

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dietdash_http_request_duration_seconds_count{route="/api/dashboard",status="200"} 1`)
}

func TestRouter_MetricsDisabled(t *testing.T) {
	r, _ := testRouter(t, func(c *config.Config) { c.MetricsEnabled = false })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_FormPostToRoot(t *testing.T) {
	r, _ := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("action=recipes"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Forwarded-User", "ada")

	rec := serve(r, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_name":"ada"`)
}

func TestRouter_AuthRequired(t *testing.T) {
	r, _ := testRouter(t, func(c *config.Config) { c.Dashboard.AuthRequired = true })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("action=recipes"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("X-Forwarded-User", "ada")
	rec = serve(r, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// health stays public
	rec = serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	r, _ := testRouter(t, func(c *config.Config) {
		c.Dashboard.RateLimitRPS = 0.001
		c.Dashboard.RateLimitBurst = 2
	})

	for i := 0; i < 2; i++ {
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/status", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}
