package aggregate

import (
	"math"
	"sort"

	"github.com/wonny/dietdash/internal/contracts"
)

// Macro names a macro-nutrient
type Macro string

const (
	MacroProtein Macro = "protein"
	MacroCarbs   Macro = "carbs"
	MacroFat     Macro = "fat"
)

// macroPriority is the tie-break order: protein > carbs > fat
var macroPriority = []Macro{MacroProtein, MacroCarbs, MacroFat}

func (m Macro) rank() int {
	for i, p := range macroPriority {
		if p == m {
			return i
		}
	}
	return len(macroPriority)
}

// DominantMacro returns the macro with the largest value in r.
// On ties the earlier macro in protein, carbs, fat order wins.
func DominantMacro(r contracts.Row) Macro {
	values := []float64{r.Protein, r.Carbs, r.Fat}

	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return macroPriority[best]
}

// ClusterCount is how many rows share one dominant macro
type ClusterCount struct {
	Macro Macro `json:"macro"`
	Count int   `json:"count"`
}

// ClusterCounts labels every row with its dominant macro and counts labels,
// ordered by count desc then macro priority
func ClusterCounts(t *contracts.Table) []ClusterCount {
	counts := make(map[Macro]int)
	for _, r := range t.Rows {
		counts[DominantMacro(r)]++
	}

	out := make([]ClusterCount, 0, len(counts))
	for _, m := range macroPriority {
		if n := counts[m]; n > 0 {
			out = append(out, ClusterCount{Macro: m, Count: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Macro.rank() < out[j].Macro.rank()
	})
	return out
}

// Correlation returns the Pearson correlation matrix of protein, carbs, fat.
// Entries are NaN where a column has zero variance; ok is false for fewer
// than two rows.
func Correlation(t *contracts.Table) (m [3][3]float64, ok bool) {
	n := t.Len()
	if n < 2 {
		return m, false
	}

	cols := make([][]float64, 3)
	for c := range cols {
		cols[c] = make([]float64, n)
	}
	for i, r := range t.Rows {
		cols[0][i] = r.Protein
		cols[1][i] = r.Carbs
		cols[2][i] = r.Fat
	}

	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			v := pearson(cols[i], cols[j])
			m[i][j] = v
			m[j][i] = v
		}
	}
	return m, true
}

func pearson(x, y []float64) float64 {
	n := float64(len(x))
	var mx, my float64
	for i := range x {
		mx += x[i]
		my += y[i]
	}
	mx /= n
	my /= n

	var sxy, sxx, syy float64
	for i := range x {
		dx := x[i] - mx
		dy := y[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	return sxy / math.Sqrt(sxx*syy)
}
