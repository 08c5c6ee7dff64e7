package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/dietdash/internal/aggregate"
	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/freshness"
	"github.com/wonny/dietdash/internal/query"
	"github.com/wonny/dietdash/pkg/logger"
)

// SnapshotProvider returns the current dataset generation
type SnapshotProvider interface {
	EnsureFresh(ctx context.Context) (*freshness.Snapshot, error)
}

// DashboardHandler serves the dashboard actions
// ⭐ SSOT: dashboard request parsing and error mapping live here
type DashboardHandler struct {
	snapshots SnapshotProvider
	view      *query.View
	logger    *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(snapshots SnapshotProvider, view *query.View, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		snapshots: snapshots,
		view:      view,
		logger:    log,
	}
}

// DashboardResponse is the body of every dashboard action
type DashboardResponse struct {
	Action       string          `json:"action"`
	SelectedDiet string          `json:"selected_diet"`
	Keyword      string          `json:"keyword"`
	DietOptions  []string        `json:"diet_options"`
	UserName     string          `json:"user_name,omitempty"`
	Generation   string          `json:"generation"`
	Stale        bool            `json:"stale"`
	CurrentPage  int             `json:"current_page"`
	TotalPages   int             `json:"total_pages"`
	NoResults    bool            `json:"no_results"`
	Messages     []string        `json:"messages,omitempty"`
	Charts       *query.Insights `json:"charts,omitempty"`
}

// Dashboard runs one dashboard action
// GET /api/dashboard?action=recipes&dietType=keto&keyword=egg&page=2
// POST /api/dashboard (form or JSON body)
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := parseRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, stale, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	resp := DashboardResponse{
		Action:       req.Action,
		SelectedDiet: req.Diet,
		Keyword:      req.Keyword,
		DietOptions:  aggregate.DietOptions(snap.Table),
		UserName:     UserFromContext(ctx),
		Generation:   snap.Generation,
		Stale:        stale,
		CurrentPage:  1,
		TotalPages:   1,
	}

	switch req.Action {
	case query.ActionInsights:
		resp.Charts = h.view.Insights(ctx, snap, req)
		resp.NoResults = resp.Charts.NoResults

	case query.ActionRecipes:
		res := h.view.Recipes(snap, req)
		resp.CurrentPage = res.Page.Page
		resp.TotalPages = res.TotalPages
		resp.NoResults = res.NoResults
		resp.Messages = res.Lines
		if res.NoResults {
			resp.Messages = []string{"No recipes found for your search."}
		}

	case query.ActionClusters:
		res := h.view.Clusters(snap, req)
		resp.NoResults = res.NoResults
		if res.NoResults {
			resp.Messages = []string{"No data for selected diet."}
		}
		for _, c := range res.Clusters {
			resp.Messages = append(resp.Messages, fmt.Sprintf("%s dominant: %d recipes", titleCase(string(c.Macro)), c.Count))
		}

	case "":
		// no action: options only

	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Unknown action %q", req.Action))
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// StatusResponse describes the current generation
type StatusResponse struct {
	Generation  string         `json:"generation"`
	Fingerprint string         `json:"fingerprint"`
	BuiltAt     time.Time      `json:"built_at"`
	Rows        int            `json:"rows"`
	RecipeCount map[string]int `json:"recipe_counts"`
	Stale       bool           `json:"stale"`
}

// Status returns the current generation
// GET /api/status
func (h *DashboardHandler) Status(w http.ResponseWriter, r *http.Request) {
	snap, stale, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, StatusResponse{
		Generation:  snap.Generation,
		Fingerprint: snap.Fingerprint,
		BuiltAt:     snap.BuiltAt,
		Rows:        snap.Table.Len(),
		RecipeCount: snap.RecipeCounts,
		Stale:       stale,
	})
}

// snapshot maps freshness failures to HTTP responses. ok is false when a
// response was already written.
func (h *DashboardHandler) snapshot(w http.ResponseWriter, r *http.Request) (snap *freshness.Snapshot, stale bool, ok bool) {
	snap, err := h.snapshots.EnsureFresh(r.Context())
	if err == nil {
		return snap, false, true
	}
	if snap != nil {
		return snap, true, true
	}

	var schemaErr *contracts.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		h.logger.WithError(err).Error("Dataset schema invalid")
		respondError(w, http.StatusUnprocessableEntity, schemaErr.Error())
	case errors.Is(err, contracts.ErrSourceUnavailable):
		h.logger.WithError(err).Error("Dataset unavailable")
		respondError(w, http.StatusServiceUnavailable, "Dataset unavailable")
	default:
		h.logger.WithError(err).Error("Failed to load dataset")
		respondError(w, http.StatusInternalServerError, "Failed to load dataset")
	}
	return nil, false, false
}

type jsonRequest struct {
	Action   string `json:"action"`
	DietType string `json:"dietType"`
	Keyword  string `json:"keyword"`
	Page     int    `json:"page"`
}

func parseRequest(r *http.Request) (query.Request, error) {
	if r.Method == http.MethodPost {
		ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if ct == "application/json" {
			var body jsonRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				return query.Request{}, errors.New("Invalid request body")
			}
			return query.Request{
				Action:  strings.TrimSpace(body.Action),
				Diet:    strings.TrimSpace(body.DietType),
				Keyword: strings.TrimSpace(body.Keyword),
				Page:    max(body.Page, 1),
			}, nil
		}
	}

	if err := r.ParseForm(); err != nil {
		return query.Request{}, errors.New("Invalid form")
	}

	page := 1
	if raw := r.Form.Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return query.Request{}, errors.New("Invalid page")
		}
		page = p
	}

	return query.Request{
		Action:  strings.TrimSpace(r.Form.Get("action")),
		Diet:    strings.TrimSpace(r.Form.Get("dietType")),
		Keyword: strings.TrimSpace(r.Form.Get("keyword")),
		Page:    page,
	}, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
