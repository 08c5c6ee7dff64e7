package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wonny/dietdash/internal/contracts"
)

// FillPolicy decides what replaces a missing macro value
type FillPolicy int

const (
	// FillZero replaces missing values with 0 (interactive dashboard)
	FillZero FillPolicy = iota
	// FillColumnMean replaces missing values with the column mean (batch, ingest)
	FillColumnMean
)

// String returns the policy name
func (p FillPolicy) String() string {
	switch p {
	case FillZero:
		return "zero"
	case FillColumnMean:
		return "column_mean"
	default:
		return fmt.Sprintf("FillPolicy(%d)", int(p))
	}
}

// ParseFillPolicy parses "zero" or "column_mean" (also "mean")
func ParseFillPolicy(s string) (FillPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zero", "":
		return FillZero, nil
	case "column_mean", "mean":
		return FillColumnMean, nil
	default:
		return FillZero, fmt.Errorf("unknown fill policy %q", s)
	}
}

// CoerceNumeric parses a macro cell. Empty or unparsable input is missing (NaN).
func CoerceNumeric(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

func isMissing(v float64) bool {
	return math.IsNaN(v)
}

// ColumnMean returns the mean of the non-missing values of a macro column.
// ok is false when every value is missing (or the table is empty).
func ColumnMean(t *contracts.Table, col string) (mean float64, ok bool) {
	var sum float64
	var n int
	for _, r := range t.Rows {
		v := r.Macro(col)
		if isMissing(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// FillMissing returns a copy of t with missing macro values replaced.
// Each column is filled independently. Under FillColumnMean an all-missing
// column falls back to zero so the cleaned-row invariant still holds.
func FillMissing(t *contracts.Table, policy FillPolicy) *contracts.Table {
	out := t.Clone()

	fill := map[string]float64{}
	for _, col := range contracts.MacroColumns {
		switch policy {
		case FillColumnMean:
			mean, ok := ColumnMean(t, col)
			if !ok {
				mean = 0
			}
			fill[col] = mean
		default:
			fill[col] = 0
		}
	}

	for i := range out.Rows {
		r := &out.Rows[i]
		if isMissing(r.Protein) {
			r.Protein = fill[contracts.ColProtein]
		}
		if isMissing(r.Carbs) {
			r.Carbs = fill[contracts.ColCarbs]
		}
		if isMissing(r.Fat) {
			r.Fat = fill[contracts.ColFat]
		}
	}

	return out
}

// DeriveRatios returns a copy of t with the two ratio columns computed.
// A zero denominator yields NaN (undefined), never zero or an error.
func DeriveRatios(t *contracts.Table) *contracts.Table {
	out := t.Clone()
	out.HasRatios = true

	for i := range out.Rows {
		r := &out.Rows[i]
		r.ProteinToCarbs = ratio(r.Protein, r.Carbs)
		r.CarbsToFat = ratio(r.Carbs, r.Fat)
	}

	return out
}

func ratio(num, den float64) float64 {
	if den == 0 || isMissing(den) || isMissing(num) {
		return math.NaN()
	}
	return num / den
}

// Clean applies the fill policy and, when withRatios is set, derives ratios
func Clean(t *contracts.Table, policy FillPolicy, withRatios bool) *contracts.Table {
	out := FillMissing(t, policy)
	if withRatios {
		out = DeriveRatios(out)
	}
	return out
}
