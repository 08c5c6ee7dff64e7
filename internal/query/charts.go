package query

import (
	"math"

	"github.com/wonny/dietdash/internal/aggregate"
	"github.com/wonny/dietdash/internal/contracts"
)

// BarPoint is one bar of the average-protein chart
type BarPoint struct {
	Diet    string  `json:"diet"`
	Protein float64 `json:"protein"`
}

// ScatterPoint is one recipe on the carbs/fat plane
type ScatterPoint struct {
	Diet  string  `json:"diet"`
	Carbs float64 `json:"carbs"`
	Fat   float64 `json:"fat"`
}

// Heatmap is the macro correlation matrix; undefined cells are null
type Heatmap struct {
	Labels []string     `json:"labels"`
	Values [][]*float64 `json:"values"`
}

// Insights is the chart data of the insights action
type Insights struct {
	Bar       []BarPoint            `json:"bar"`
	Pie       []aggregate.DietCount `json:"pie"`
	Scatter   []ScatterPoint        `json:"scatter"`
	Heatmap   *Heatmap              `json:"heatmap,omitempty"`
	NoResults bool                  `json:"no_results"`
}

func buildInsights(avg []aggregate.DietMacros, counts []aggregate.DietCount, rows []contracts.Row) *Insights {
	ins := &Insights{
		Bar:       make([]BarPoint, 0, len(avg)),
		Pie:       counts,
		Scatter:   make([]ScatterPoint, 0, len(rows)),
		NoResults: len(rows) == 0,
	}
	if ins.Pie == nil {
		ins.Pie = []aggregate.DietCount{}
	}

	for _, a := range aggregate.SortByProteinDesc(avg) {
		ins.Bar = append(ins.Bar, BarPoint{Diet: a.Diet, Protein: a.Protein})
	}
	for _, r := range rows {
		ins.Scatter = append(ins.Scatter, ScatterPoint{Diet: r.DietType, Carbs: r.Carbs, Fat: r.Fat})
	}

	if len(rows) > 1 {
		if m, ok := aggregate.Correlation(&contracts.Table{Rows: rows}); ok {
			ins.Heatmap = newHeatmap(m)
		}
	}
	return ins
}

func newHeatmap(m [3][3]float64) *Heatmap {
	h := &Heatmap{
		Labels: []string{contracts.ColProtein, contracts.ColCarbs, contracts.ColFat},
		Values: make([][]*float64, 3),
	}
	for i := range m {
		h.Values[i] = make([]*float64, 3)
		for j := range m[i] {
			if v := m[i][j]; !math.IsNaN(v) {
				h.Values[i][j] = &v
			}
		}
	}
	return h
}
