package batch

import (
	"github.com/wonny/dietdash/internal/aggregate"
	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/render"
)

// macroValues flattens averages into one value per diet and macro
func macroValues(avg []aggregate.DietMacros) []map[string]interface{} {
	values := make([]map[string]interface{}, 0, len(avg)*3)
	for _, a := range avg {
		for _, col := range contracts.MacroColumns {
			var v float64
			switch col {
			case contracts.ColProtein:
				v = a.Protein
			case contracts.ColCarbs:
				v = a.Carbs
			case contracts.ColFat:
				v = a.Fat
			}
			values = append(values, map[string]interface{}{
				"diet":  a.Diet,
				"macro": col,
				"grams": v,
			})
		}
	}
	return values
}

func barChart(avg []aggregate.DietMacros) render.Chart {
	return render.Chart{
		Name:    ChartBarAvgMacros,
		Title:   "Average Macronutrients by Diet Type",
		Mark:    render.MarkBar,
		Values:  macroValues(avg),
		X:       render.Nominal("diet").Titled("Diet type"),
		Y:       render.Quantitative("grams").Titled("grams"),
		Color:   render.Nominal("macro"),
		XOffset: render.Nominal("macro"),
	}
}

func heatmapChart(avg []aggregate.DietMacros) render.Chart {
	return render.Chart{
		Name:   ChartHeatmapAvgMacros,
		Title:  "Heatmap: Average Macros by Diet Type",
		Mark:   render.MarkRect,
		Values: macroValues(avg),
		X:      render.Nominal("macro"),
		Y:      render.Nominal("diet").Titled("Diet type"),
		Color:  render.Quantitative("grams").Titled("grams"),
	}
}

func scatterChart(top []contracts.Row) render.Chart {
	values := make([]map[string]interface{}, 0, len(top))
	for _, r := range top {
		values = append(values, map[string]interface{}{
			"diet":    r.DietType,
			"recipe":  r.RecipeName,
			"carbs":   r.Carbs,
			"protein": r.Protein,
		})
	}

	return render.Chart{
		Name:   ChartScatterTop,
		Title:  "Top Protein Recipes by Diet",
		Mark:   render.MarkPoint,
		Values: values,
		X:      render.Quantitative("carbs").Titled("Carbs (g)"),
		Y:      render.Quantitative("protein").Titled("Protein (g)"),
		Color:  render.Nominal("diet"),
	}
}
