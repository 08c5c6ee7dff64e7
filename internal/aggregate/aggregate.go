// Package aggregate computes the fixed summary views over a cleaned table.
//
// Every function is pure and total: an empty table yields empty results.
// Iteration order never depends on map ordering, so identical input always
// produces identical output.
package aggregate

import (
	"math"
	"sort"

	"github.com/wonny/dietdash/internal/contracts"
)

// DietMacros is the mean macro profile of one diet
type DietMacros struct {
	Diet string `json:"diet"`
	contracts.MacroAverages
}

// DietCount is the number of recipes of one diet
type DietCount struct {
	Diet  string `json:"diet"`
	Count int    `json:"count"`
}

// DietCuisine is the most common cuisine of one diet
type DietCuisine struct {
	Diet    string `json:"diet"`
	Cuisine string `json:"cuisine"`
	Count   int    `json:"count"`
}

type macroSum struct {
	protein, carbs, fat float64
	n                   int
}

// AvgMacrosByDiet returns per-diet macro means sorted by diet name
func AvgMacrosByDiet(t *contracts.Table) []DietMacros {
	sums := make(map[string]*macroSum)
	for _, r := range t.Rows {
		s, ok := sums[r.DietType]
		if !ok {
			s = &macroSum{}
			sums[r.DietType] = s
		}
		s.protein += r.Protein
		s.carbs += r.Carbs
		s.fat += r.Fat
		s.n++
	}

	out := make([]DietMacros, 0, len(sums))
	for _, diet := range sortedKeys(sums) {
		s := sums[diet]
		n := float64(s.n)
		out = append(out, DietMacros{
			Diet: diet,
			MacroAverages: contracts.MacroAverages{
				Protein: s.protein / n,
				Carbs:   s.carbs / n,
				Fat:     s.fat / n,
			},
		})
	}
	return out
}

// SortByProteinDesc orders averages by protein descending, ties by diet name.
// The input is not modified.
func SortByProteinDesc(avg []DietMacros) []DietMacros {
	out := append([]DietMacros(nil), avg...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Protein != out[j].Protein {
			return out[i].Protein > out[j].Protein
		}
		return out[i].Diet < out[j].Diet
	})
	return out
}

// CountsByDiet returns recipe counts ordered by count desc, then diet name
func CountsByDiet(t *contracts.Table) []DietCount {
	counts := make(map[string]int)
	for _, r := range t.Rows {
		counts[r.DietType]++
	}

	out := make([]DietCount, 0, len(counts))
	for _, diet := range sortedKeys(counts) {
		out = append(out, DietCount{Diet: diet, Count: counts[diet]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// TopNByProtein sorts rows by protein descending (stable, so ties keep
// source order) and keeps the first n rows of every diet.
func TopNByProtein(t *contracts.Table, n int) []contracts.Row {
	if n <= 0 {
		return nil
	}

	sorted := append([]contracts.Row(nil), t.Rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Protein > sorted[j].Protein
	})

	taken := make(map[string]int)
	out := make([]contracts.Row, 0)
	for _, r := range sorted {
		if taken[r.DietType] >= n {
			continue
		}
		taken[r.DietType]++
		out = append(out, r)
	}
	return out
}

// MostCommonCuisine returns, per diet (sorted by name), the cuisine with the
// highest row count. Ties go to the cuisine encountered first in table order.
func MostCommonCuisine(t *contracts.Table) []DietCuisine {
	type tally struct {
		counts map[string]int
		order  []string
	}

	byDiet := make(map[string]*tally)
	for _, r := range t.Rows {
		tl, ok := byDiet[r.DietType]
		if !ok {
			tl = &tally{counts: make(map[string]int)}
			byDiet[r.DietType] = tl
		}
		if _, seen := tl.counts[r.CuisineType]; !seen {
			tl.order = append(tl.order, r.CuisineType)
		}
		tl.counts[r.CuisineType]++
	}

	out := make([]DietCuisine, 0, len(byDiet))
	for _, diet := range sortedKeys(byDiet) {
		tl := byDiet[diet]
		best := DietCuisine{Diet: diet}
		for _, cuisine := range tl.order {
			// strict > keeps the first-encountered value among tied maxima
			if c := tl.counts[cuisine]; c > best.Count {
				best.Cuisine = cuisine
				best.Count = c
			}
		}
		out = append(out, best)
	}
	return out
}

// ProteinSummary combines the single highest-protein recipe with the diet
// that has the highest average protein
type ProteinSummary struct {
	Found bool `json:"found"`

	TopRecipe      contracts.Row `json:"-"`
	TopRecipeDiet  string        `json:"diet_with_highest_single_recipe_protein"`
	TopRecipeValue float64       `json:"highest_single_recipe_protein_g"`

	TopAvgDiet  string  `json:"diet_with_highest_avg_protein"`
	TopAvgValue float64 `json:"highest_avg_protein_g"`
}

// HighestProtein finds the first row with the global maximum protein and the
// diet with the maximum average protein (ties: first diet in name order).
func HighestProtein(t *contracts.Table, avg []DietMacros) ProteinSummary {
	var s ProteinSummary
	if t.Len() == 0 {
		return s
	}

	best := 0
	for i, r := range t.Rows {
		if r.Protein > t.Rows[best].Protein {
			best = i
		}
	}
	s.Found = true
	s.TopRecipe = t.Rows[best]
	s.TopRecipeDiet = t.Rows[best].DietType
	s.TopRecipeValue = t.Rows[best].Protein

	ordered := append([]DietMacros(nil), avg...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Diet < ordered[j].Diet })
	for i, a := range ordered {
		if i == 0 || a.Protein > s.TopAvgValue {
			s.TopAvgDiet = a.Diet
			s.TopAvgValue = a.Protein
		}
	}
	return s
}

// Summarize builds the persisted aggregate for the whole table
func Summarize(t *contracts.Table) contracts.AggregateSummary {
	s := contracts.AggregateSummary{
		AvgMacros:    make(map[string]contracts.MacroAverages),
		RecipeCounts: make(map[string]int),
	}
	for _, a := range AvgMacrosByDiet(t) {
		s.AvgMacros[a.Diet] = a.MacroAverages
	}
	for _, c := range CountsByDiet(t) {
		s.RecipeCounts[c.Diet] = c.Count
	}
	return s
}

// Round2 rounds every average to two decimals (persisted form)
func Round2(avg map[string]contracts.MacroAverages) map[string]contracts.MacroAverages {
	out := make(map[string]contracts.MacroAverages, len(avg))
	for diet, m := range avg {
		out[diet] = contracts.MacroAverages{
			Protein: round(m.Protein, 2),
			Carbs:   round(m.Carbs, 2),
			Fat:     round(m.Fat, 2),
		}
	}
	return out
}

// FromSummary turns a persisted averages map back into a name-sorted slice
func FromSummary(avg map[string]contracts.MacroAverages) []DietMacros {
	out := make([]DietMacros, 0, len(avg))
	for _, diet := range sortedKeys(avg) {
		out = append(out, DietMacros{Diet: diet, MacroAverages: avg[diet]})
	}
	return out
}

// CountsFromSummary turns a persisted counts map into the CountsByDiet order
func CountsFromSummary(counts map[string]int) []DietCount {
	out := make([]DietCount, 0, len(counts))
	for _, diet := range sortedKeys(counts) {
		out = append(out, DietCount{Diet: diet, Count: counts[diet]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// DietOptions returns the distinct diets of t in name order
func DietOptions(t *contracts.Table) []string {
	seen := make(map[string]struct{})
	for _, r := range t.Rows {
		seen[r.DietType] = struct{}{}
	}
	return sortedKeys(seen)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
