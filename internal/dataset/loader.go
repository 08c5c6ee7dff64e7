package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/wonny/dietdash/internal/contracts"
)

// LoadStats describes what Load saw in the source
type LoadStats struct {
	RowsRead      int
	RowsDropped   int // blank Diet_type
	MissingMacros int // macro cells that were empty or unparsable

	// ShadowedColumns counts duplicate contract columns ignored after
	// normalization; the first occurrence wins
	ShadowedColumns int
}

// ctxCheckInterval is how many records are parsed between context checks
const ctxCheckInterval = 1024

// Load parses a CSV source into a raw (uncleaned) table.
// Header variants are normalized, the schema is validated, macro cells are
// coerced to numbers (unparsable → NaN) and rows without a diet are dropped.
func Load(ctx context.Context, r io.Reader) (*contracts.Table, LoadStats, error) {
	var stats LoadStats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, &contracts.SchemaError{Column: contracts.RequiredColumns[0]}
		}
		return nil, stats, fmt.Errorf("read header: %w", err)
	}

	header = NormalizeHeader(header)
	if err := Validate(header, contracts.RequiredColumns); err != nil {
		return nil, stats, err
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}

	var extraIdx []int
	var extraCols []string
	for i, h := range header {
		if isContractColumn(h) {
			if idx[h] != i {
				stats.ShadowedColumns++
			}
			continue
		}
		extraIdx = append(extraIdx, i)
		extraCols = append(extraCols, h)
	}

	table := &contracts.Table{ExtraColumns: extraCols}

	for line := 2; ; line++ {
		if line%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read line %d: %w", line, err)
		}
		stats.RowsRead++

		field := func(col string) string {
			i := idx[col]
			if i < len(record) {
				return record[i]
			}
			return ""
		}

		row := contracts.Row{
			DietType:    field(contracts.ColDietType),
			RecipeName:  field(contracts.ColRecipeName),
			CuisineType: field(contracts.ColCuisineType),
			Protein:     CoerceNumeric(field(contracts.ColProtein)),
			Carbs:       CoerceNumeric(field(contracts.ColCarbs)),
			Fat:         CoerceNumeric(field(contracts.ColFat)),
		}
		stats.MissingMacros += countMissing(row)

		if len(extraIdx) > 0 {
			row.Extra = make([]string, len(extraIdx))
			for j, i := range extraIdx {
				if i < len(record) {
					row.Extra[j] = record[i]
				}
			}
		}

		table.Rows = append(table.Rows, row)
	}

	table, stats.RowsDropped = DropUnlabeled(table)
	return table, stats, nil
}

func countMissing(r contracts.Row) int {
	n := 0
	for _, col := range contracts.MacroColumns {
		if isMissing(r.Macro(col)) {
			n++
		}
	}
	return n
}
