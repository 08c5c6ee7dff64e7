package contracts

import (
	"math"
	"time"
)

// Contract column names of the nutrition dataset
// ⭐ SSOT: column names are defined only here
const (
	ColDietType    = "Diet_type"
	ColRecipeName  = "Recipe_name"
	ColCuisineType = "Cuisine_type"
	ColProtein     = "Protein(g)"
	ColCarbs       = "Carbs(g)"
	ColFat         = "Fat(g)"

	ColProteinToCarbs = "Protein_to_Carbs_ratio"
	ColCarbsToFat     = "Carbs_to_Fat_ratio"
)

// RequiredColumns lists the columns every source table must carry
var RequiredColumns = []string{
	ColDietType,
	ColRecipeName,
	ColCuisineType,
	ColProtein,
	ColCarbs,
	ColFat,
}

// MacroColumns lists the numeric macro columns in declaration order
var MacroColumns = []string{ColProtein, ColCarbs, ColFat}

// Row is one recipe.
// Macro values use NaN for "missing" until the table has been cleaned.
type Row struct {
	DietType    string
	RecipeName  string
	CuisineType string
	Protein     float64
	Carbs       float64
	Fat         float64

	// Ratio columns, NaN when undefined. Only populated by DeriveRatios.
	ProteinToCarbs float64
	CarbsToFat     float64

	// Extra holds non-contract source columns, aligned with Table.ExtraColumns
	Extra []string
}

// Macro returns the value of the named macro column
func (r Row) Macro(col string) float64 {
	switch col {
	case ColProtein:
		return r.Protein
	case ColCarbs:
		return r.Carbs
	case ColFat:
		return r.Fat
	default:
		return math.NaN()
	}
}

// HasMissingMacro reports whether any macro value is still missing
func (r Row) HasMissingMacro() bool {
	return math.IsNaN(r.Protein) || math.IsNaN(r.Carbs) || math.IsNaN(r.Fat)
}

// Table is an ordered sequence of rows.
// Once produced by the cleaner for a cache generation it is never mutated;
// a new generation replaces it wholesale.
type Table struct {
	Rows         []Row
	ExtraColumns []string
	HasRatios    bool
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Clone returns a table with its own copy of the row slice.
// Extra slices are shared; rows never write into them.
func (t *Table) Clone() *Table {
	if t == nil {
		return &Table{}
	}
	rows := make([]Row, len(t.Rows))
	copy(rows, t.Rows)
	extra := make([]string, len(t.ExtraColumns))
	copy(extra, t.ExtraColumns)
	return &Table{Rows: rows, ExtraColumns: extra, HasRatios: t.HasRatios}
}

// MacroAverages holds mean macro values for one diet
type MacroAverages struct {
	Protein float64 `json:"Protein(g)"`
	Carbs   float64 `json:"Carbs(g)"`
	Fat     float64 `json:"Fat(g)"`
}

// AggregateSummary holds the aggregates persisted for the unfiltered population
// Invariant: sum(RecipeCounts) == number of rows of the table it was built from
type AggregateSummary struct {
	AvgMacros    map[string]MacroAverages `json:"avg_macros"`
	RecipeCounts map[string]int           `json:"recipe_counts"`
}

// TotalRecipes returns the sum of all per-diet counts
func (s AggregateSummary) TotalRecipes() int {
	total := 0
	for _, n := range s.RecipeCounts {
		total += n
	}
	return total
}

// Durable cache keys
const (
	KeyAvgMacrosByDiet    = "avg_macros_by_diet"
	KeyRecipeCountsByDiet = "recipe_counts_by_diet"
)

// CacheEntry is one persisted aggregate fragment
type CacheEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}
