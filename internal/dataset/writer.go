package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wonny/dietdash/internal/contracts"
)

// FormatFloat renders a value the same way for every run. NaN is an empty cell.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Header returns the column order used when writing t
func Header(t *contracts.Table) []string {
	header := append([]string{}, contracts.RequiredColumns...)
	header = append(header, t.ExtraColumns...)
	if t.HasRatios {
		header = append(header, contracts.ColProteinToCarbs, contracts.ColCarbsToFat)
	}
	return header
}

// Record converts a row into CSV cells in Header order
func Record(t *contracts.Table, r contracts.Row) []string {
	rec := []string{
		r.DietType,
		r.RecipeName,
		r.CuisineType,
		FormatFloat(r.Protein),
		FormatFloat(r.Carbs),
		FormatFloat(r.Fat),
	}
	for i := range t.ExtraColumns {
		if i < len(r.Extra) {
			rec = append(rec, r.Extra[i])
		} else {
			rec = append(rec, "")
		}
	}
	if t.HasRatios {
		rec = append(rec, FormatFloat(r.ProteinToCarbs), FormatFloat(r.CarbsToFat))
	}
	return rec
}

// WriteCSV writes t as CSV. Output is byte-identical for identical tables.
func WriteCSV(w io.Writer, t *contracts.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(t)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range t.Rows {
		if err := cw.Write(Record(t, r)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFileAtomic writes data to a temp file next to path and renames it over
// path, so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// WriteTableFile writes t as CSV to path atomically
func WriteTableFile(path string, t *contracts.Table) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return err
	}
	return WriteFileAtomic(path, buf.Bytes())
}
