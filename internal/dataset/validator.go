package dataset

import (
	"strings"

	"github.com/wonny/dietdash/internal/contracts"
)

// Validate checks that header carries every required column.
// It fails with *contracts.SchemaError naming the first missing column.
func Validate(header []string, required []string) error {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}

	for _, col := range required {
		if _, ok := present[col]; !ok {
			return &contracts.SchemaError{Column: col}
		}
	}

	return nil
}

// NormalizeHeader maps tolerated header variants onto contract names.
// "Protein (g)" becomes "Protein(g)"; whitespace and a UTF-8 BOM are stripped.
// Names that do not normalize onto a contract column are only trimmed.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		h = strings.TrimSpace(h)

		candidate := h
		if idx := strings.Index(h, "("); idx > 0 {
			candidate = strings.TrimRight(h[:idx], " ") + h[idx:]
		}
		if isContractColumn(candidate) {
			h = candidate
		}
		out[i] = h
	}
	return out
}

func isContractColumn(name string) bool {
	for _, col := range contracts.RequiredColumns {
		if col == name {
			return true
		}
	}
	return false
}

// DropUnlabeled removes rows whose diet type is blank.
// Group-by aggregations have no bucket for them, so keeping them would break
// the counts invariant.
func DropUnlabeled(t *contracts.Table) (*contracts.Table, int) {
	kept := make([]contracts.Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if strings.TrimSpace(r.DietType) == "" {
			continue
		}
		kept = append(kept, r)
	}

	out := &contracts.Table{
		Rows:         kept,
		ExtraColumns: t.ExtraColumns,
		HasRatios:    t.HasRatios,
	}
	return out, len(t.Rows) - len(kept)
}
