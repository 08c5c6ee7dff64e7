package query

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dietdash/internal/aggregate"
	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/freshness"
	"github.com/wonny/dietdash/internal/metrics"
	"github.com/wonny/dietdash/internal/store"
)

func sampleRows() []contracts.Row {
	return []contracts.Row{
		{DietType: "paleo", RecipeName: "Steak Salad", CuisineType: "american", Protein: 40, Carbs: 5, Fat: 30},
		{DietType: "vegan", RecipeName: "Lentil Soup", CuisineType: "indian", Protein: 18, Carbs: 40, Fat: 5},
		{DietType: "Paleo", RecipeName: "Salmon Bowl", CuisineType: "japanese", Protein: 20, Carbs: 10, Fat: 25},
		{DietType: "keto", RecipeName: "Indian Butter Eggs", CuisineType: "french", Protein: 12, Carbs: 2, Fat: 20},
	}
}

func snapshotOf(rows []contracts.Row) *freshness.Snapshot {
	t := &contracts.Table{Rows: rows}
	s := aggregate.Summarize(t)
	return &freshness.Snapshot{
		Fingerprint:  "fp",
		Generation:   "gen-1",
		Table:        t,
		AvgMacros:    s.AvgMacros,
		RecipeCounts: s.RecipeCounts,
	}
}

func manyRows(n int) []contracts.Row {
	rows := make([]contracts.Row, n)
	for i := range rows {
		rows[i] = contracts.Row{DietType: "keto", RecipeName: fmt.Sprintf("Recipe %02d", i)}
	}
	return rows
}

func TestFilterByDiet(t *testing.T) {
	rows := sampleRows()

	assert.Len(t, FilterByDiet(rows, "PALEO"), 2)
	assert.Len(t, FilterByDiet(rows, "  vegan "), 1)
	assert.Empty(t, FilterByDiet(rows, "pale"))
	assert.Equal(t, rows, FilterByDiet(rows, ""))
}

func TestSearch_MatchesNameOrCuisine(t *testing.T) {
	rows := sampleRows()

	got := Search(rows, "INDIAN")
	require.Len(t, got, 2)
	assert.Equal(t, "Lentil Soup", got[0].RecipeName)
	assert.Equal(t, "Indian Butter Eggs", got[1].RecipeName)

	assert.Len(t, Search(rows, "bowl"), 1)
	assert.Empty(t, Search(rows, "pizza"))
	assert.Equal(t, rows, Search(rows, ""))
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name       string
		rows       int
		page       int
		wantPage   int
		wantPages  int
		wantItems  int
		wantNoData bool
	}{
		{"empty", 0, 1, 1, 1, 0, true},
		{"empty page 3", 0, 3, 1, 1, 0, true},
		{"first page", 23, 1, 1, 3, 10, false},
		{"middle page", 23, 2, 2, 3, 10, false},
		{"last partial page", 23, 3, 3, 3, 3, false},
		{"past the end clamps", 23, 5, 3, 3, 3, false},
		{"zero clamps to first", 23, 0, 1, 3, 10, false},
		{"negative clamps to first", 23, -4, 1, 3, 10, false},
		{"exact multiple", 20, 2, 2, 2, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(manyRows(tt.rows), tt.page, 10)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Len(t, p.Items, tt.wantItems)
			assert.Equal(t, tt.rows, p.Total)
			assert.Equal(t, tt.wantNoData, p.NoResults)
		})
	}
}

func TestPaginate_ItemsAreThePageSlice(t *testing.T) {
	p := Paginate(manyRows(23), 3, 10)
	require.Len(t, p.Items, 3)
	assert.Equal(t, "Recipe 20", p.Items[0].RecipeName)
	assert.Equal(t, "Recipe 22", p.Items[2].RecipeName)
}

func TestView_Recipes(t *testing.T) {
	snap := snapshotOf(sampleRows())
	v := NewView(ViewOptions{PageSize: 2})

	res := v.Recipes(snap, Request{Action: ActionRecipes, Diet: "paleo"})
	assert.Equal(t, []string{
		"Salmon Bowl (Paleo, japanese)",
		"Steak Salad (paleo, american)",
	}, res.Lines)
	assert.Equal(t, 1, res.TotalPages)

	res = v.Recipes(snap, Request{Page: 9})
	assert.Equal(t, 2, res.Page.Page)
	assert.Equal(t, []string{
		"Salmon Bowl (Paleo, japanese)",
		"Steak Salad (paleo, american)",
	}, res.Lines)

	// snapshot order untouched
	assert.Equal(t, "Steak Salad", snap.Table.Rows[0].RecipeName)
}

func TestView_RecipesNoResults(t *testing.T) {
	v := NewView(ViewOptions{})
	res := v.Recipes(snapshotOf(sampleRows()), Request{Keyword: "pizza"})

	assert.True(t, res.NoResults)
	assert.Empty(t, res.Lines)
	assert.Equal(t, 1, res.Page.Page)
	assert.Equal(t, 1, res.TotalPages)
}

func TestView_Clusters(t *testing.T) {
	v := NewView(ViewOptions{})
	snap := snapshotOf(sampleRows())

	res := v.Clusters(snap, Request{})
	assert.False(t, res.NoResults)
	assert.Equal(t, []aggregate.ClusterCount{
		{Macro: aggregate.MacroFat, Count: 2},
		{Macro: aggregate.MacroProtein, Count: 1},
		{Macro: aggregate.MacroCarbs, Count: 1},
	}, res.Clusters)

	res = v.Clusters(snap, Request{Diet: "carnivore"})
	assert.True(t, res.NoResults)
	assert.Empty(t, res.Clusters)
}

func TestView_InsightsUnfilteredPrefersDurable(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Upsert(ctx, contracts.KeyAvgMacrosByDiet, []byte(`{"durable":{"Protein(g)":99,"Carbs(g)":1,"Fat(g)":1}}`)))
	require.NoError(t, mem.Upsert(ctx, contracts.KeyRecipeCountsByDiet, []byte(`{"durable":4}`)))

	v := NewView(ViewOptions{Aggregate: readerFunc(func(ctx context.Context, key string) ([]byte, error) {
		e, err := mem.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		return e.Data, nil
	})})

	ins := v.Insights(ctx, snapshotOf(sampleRows()), Request{})
	assert.Equal(t, []BarPoint{{Diet: "durable", Protein: 99}}, ins.Bar)
	assert.Equal(t, []aggregate.DietCount{{Diet: "durable", Count: 4}}, ins.Pie)
	assert.Len(t, ins.Scatter, 4)
}

func TestView_InsightsFallsBackToSnapshot(t *testing.T) {
	v := NewView(ViewOptions{Aggregate: readerFunc(func(ctx context.Context, key string) ([]byte, error) {
		return nil, store.ErrNotFound
	})})

	ins := v.Insights(context.Background(), snapshotOf(sampleRows()), Request{})
	require.Len(t, ins.Bar, 4)
	assert.Equal(t, BarPoint{Diet: "paleo", Protein: 40}, ins.Bar[0])
	assert.Equal(t, BarPoint{Diet: "keto", Protein: 12}, ins.Bar[3])
	assert.NotNil(t, ins.Heatmap)
	assert.False(t, ins.NoResults)
}

func TestView_InsightsFilteredIsMemoized(t *testing.T) {
	m := metrics.New()
	v := NewView(ViewOptions{Metrics: m})
	snap := snapshotOf(sampleRows())

	first := v.Insights(context.Background(), snap, Request{Diet: "Vegan"})
	second := v.Insights(context.Background(), snap, Request{Diet: "vegan"})

	assert.Same(t, first, second)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InsightsMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InsightsHits))
	assert.Equal(t, []BarPoint{{Diet: "vegan", Protein: 18}}, first.Bar)
	// one row: no correlation matrix
	assert.Nil(t, first.Heatmap)

	next := *snap
	next.Generation = "gen-2"
	third := v.Insights(context.Background(), &next, Request{Diet: "vegan"})
	assert.NotSame(t, first, third)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.InsightsMisses))
}

func TestView_InsightsEmptyFilter(t *testing.T) {
	v := NewView(ViewOptions{})
	ins := v.Insights(context.Background(), snapshotOf(sampleRows()), Request{Diet: "carnivore"})

	assert.True(t, ins.NoResults)
	assert.Empty(t, ins.Bar)
	assert.Empty(t, ins.Pie)
	assert.Nil(t, ins.Heatmap)
}

func TestView_HeatmapNullsUndefinedCorrelation(t *testing.T) {
	rows := []contracts.Row{
		{DietType: "keto", Protein: 10, Carbs: 1, Fat: 5},
		{DietType: "keto", Protein: 20, Carbs: 1, Fat: 9},
	}
	v := NewView(ViewOptions{})
	ins := v.Insights(context.Background(), snapshotOf(rows), Request{})
	require.NotNil(t, ins.Heatmap)

	data, err := json.Marshal(ins.Heatmap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels":["Protein(g)","Carbs(g)","Fat(g)"],"values":[[1,null,1],[null,null,null],[1,null,1]]}`, string(data))
}

type readerFunc func(ctx context.Context, key string) ([]byte, error)

func (f readerFunc) Read(ctx context.Context, key string) ([]byte, error) {
	return f(ctx, key)
}
