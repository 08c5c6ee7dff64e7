package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/wonny/dietdash/internal/aggregate"
	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/freshness"
	"github.com/wonny/dietdash/internal/metrics"
	"github.com/wonny/dietdash/internal/store"
	"github.com/wonny/dietdash/pkg/logger"
)

// Dashboard actions
const (
	ActionInsights = "insights"
	ActionRecipes  = "recipes"
	ActionClusters = "clusters"
)

// Request is one dashboard query
type Request struct {
	Action  string `json:"action"`
	Diet    string `json:"diet_type"`
	Keyword string `json:"keyword"`
	Page    int    `json:"page"`
}

// AggregateReader reads persisted aggregate fragments
type AggregateReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

// RecipesResult is a page of formatted recipe lines
type RecipesResult struct {
	Page
	Lines []string `json:"recipes"`
}

// ClustersResult holds dominant-macro counts
type ClustersResult struct {
	Clusters  []aggregate.ClusterCount `json:"clusters"`
	NoResults bool                     `json:"no_results"`
}

// ViewOptions configures a View
type ViewOptions struct {
	PageSize  int
	MemoSize  int
	MemoTTL   time.Duration
	Aggregate AggregateReader
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

// View answers dashboard queries over a snapshot
type View struct {
	pageSize  int
	aggregate AggregateReader
	memo      *expirable.LRU[string, *Insights]
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// NewView creates a view with a filtered-insights memo
func NewView(opts ViewOptions) *View {
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.MemoSize <= 0 {
		opts.MemoSize = 128
	}
	if opts.MemoTTL <= 0 {
		opts.MemoTTL = 10 * time.Minute
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	return &View{
		pageSize:  opts.PageSize,
		aggregate: opts.Aggregate,
		memo:      expirable.NewLRU[string, *Insights](opts.MemoSize, nil, opts.MemoTTL),
		metrics:   opts.Metrics,
		log:       opts.Logger.WithComponent("query"),
	}
}

// PageSize returns the configured page size
func (v *View) PageSize() int {
	return v.pageSize
}

// Recipes filters, searches, sorts by recipe name and paginates
func (v *View) Recipes(snap *freshness.Snapshot, req Request) RecipesResult {
	rows := Search(FilterByDiet(snap.Table.Rows, req.Diet), req.Keyword)

	sorted := make([]contracts.Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RecipeName < sorted[j].RecipeName
	})

	page := Paginate(sorted, req.Page, v.pageSize)
	lines := make([]string, 0, len(page.Items))
	for _, r := range page.Items {
		lines = append(lines, fmt.Sprintf("%s (%s, %s)", r.RecipeName, r.DietType, r.CuisineType))
	}

	return RecipesResult{Page: page, Lines: lines}
}

// Clusters counts dominant macros over the filtered rows
func (v *View) Clusters(snap *freshness.Snapshot, req Request) ClustersResult {
	rows := FilterByDiet(snap.Table.Rows, req.Diet)
	if len(rows) == 0 {
		return ClustersResult{Clusters: []aggregate.ClusterCount{}, NoResults: true}
	}
	return ClustersResult{Clusters: aggregate.ClusterCounts(&contracts.Table{Rows: rows})}
}

// Insights builds chart data. Unfiltered requests use the persisted
// aggregates when available; filtered ones are memoized per generation.
func (v *View) Insights(ctx context.Context, snap *freshness.Snapshot, req Request) *Insights {
	diet := strings.ToLower(strings.TrimSpace(req.Diet))
	if diet == "" {
		avg, counts := v.unfilteredAggregates(ctx, snap)
		return buildInsights(avg, counts, snap.Table.Rows)
	}

	key := snap.Generation + "|" + diet
	if cached, ok := v.memo.Get(key); ok {
		v.metrics.InsightsHits.Inc()
		return cached
	}
	v.metrics.InsightsMisses.Inc()

	rows := FilterByDiet(snap.Table.Rows, diet)
	summary := aggregate.Summarize(&contracts.Table{Rows: rows})
	ins := buildInsights(aggregate.FromSummary(aggregate.Round2(summary.AvgMacros)), aggregate.CountsFromSummary(summary.RecipeCounts), rows)

	v.memo.Add(key, ins)
	return ins
}

// unfilteredAggregates prefers the durable store and falls back to the snapshot
func (v *View) unfilteredAggregates(ctx context.Context, snap *freshness.Snapshot) ([]aggregate.DietMacros, []aggregate.DietCount) {
	memAvg := aggregate.FromSummary(aggregate.Round2(snap.AvgMacros))
	memCounts := aggregate.CountsFromSummary(snap.RecipeCounts)
	if v.aggregate == nil {
		return memAvg, memCounts
	}

	var avg map[string]contracts.MacroAverages
	if err := v.readJSON(ctx, contracts.KeyAvgMacrosByDiet, &avg); err != nil {
		return memAvg, memCounts
	}
	var counts map[string]int
	if err := v.readJSON(ctx, contracts.KeyRecipeCountsByDiet, &counts); err != nil {
		return memAvg, memCounts
	}
	return aggregate.FromSummary(avg), aggregate.CountsFromSummary(counts)
}

func (v *View) readJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := v.aggregate.Read(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			v.log.WithError(err).WithField("key", key).Warn("Durable read failed, using snapshot")
		}
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		v.log.WithError(err).WithField("key", key).Warn("Durable entry unreadable, using snapshot")
		return err
	}
	return nil
}
