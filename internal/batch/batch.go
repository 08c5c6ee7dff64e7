// Package batch runs the offline analysis: it cleans the dataset with
// column-mean fill, derives ratios and writes the CSV summaries and chart
// artifacts into an output directory.
package batch

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wonny/dietdash/internal/aggregate"
	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
	"github.com/wonny/dietdash/internal/render"
	"github.com/wonny/dietdash/pkg/logger"
)

// Output file names
const (
	FileCleaned       = "cleaned_dataset.csv"
	FileAvgMacros     = "avg_macros_by_diet.csv"
	FileTopProtein    = "top_protein_by_diet.csv"
	FileCommonCuisine = "most_common_cuisine_by_diet.csv"
	FileSummary       = "highest_protein_summary.csv"

	ChartBarAvgMacros     = "01_bar_avg_macros"
	ChartHeatmapAvgMacros = "02_heatmap_avg_macros"
	ChartScatterTop       = "03_scatter_top_protein"
)

// DefaultTopN is the per-diet recipe count of the top-protein table
const DefaultTopN = 5

// Options configures a batch run
type Options struct {
	CSVPath  string
	OutDir   string
	TopN     int
	Renderer render.ChartRenderer
	Logger   *logger.Logger
}

// Result lists what a run produced
type Result struct {
	Rows    int
	Stats   dataset.LoadStats
	Summary aggregate.ProteinSummary
	Files   []string
}

// Run executes the whole analysis
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.Renderer == nil {
		opts.Renderer = render.VegaLite{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	log := opts.Logger.WithComponent("batch")
	start := time.Now()

	f, err := os.Open(opts.CSVPath)
	if err != nil {
		return nil, &contracts.SourceError{Source: opts.CSVPath, Err: err}
	}
	defer f.Close()

	raw, stats, err := dataset.Load(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", opts.CSVPath, err)
	}
	table := dataset.Clean(raw, dataset.FillColumnMean, true)

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	w := &writer{dir: opts.OutDir}

	w.do(FileCleaned, func(path string) error {
		return dataset.WriteTableFile(path, table)
	})

	avg := aggregate.SortByProteinDesc(aggregate.AvgMacrosByDiet(table))
	w.do(FileAvgMacros, func(path string) error {
		return writeRecords(path, avgRecords(avg))
	})

	top := aggregate.TopNByProtein(table, opts.TopN)
	topTable := &contracts.Table{Rows: top, ExtraColumns: table.ExtraColumns, HasRatios: table.HasRatios}
	w.do(FileTopProtein, func(path string) error {
		return dataset.WriteTableFile(path, topTable)
	})

	w.do(FileCommonCuisine, func(path string) error {
		return writeRecords(path, cuisineRecords(aggregate.MostCommonCuisine(table)))
	})

	summary := aggregate.HighestProtein(table, avg)
	w.do(FileSummary, func(path string) error {
		return writeRecords(path, summaryRecords(summary))
	})

	charts := []render.Chart{barChart(avg), heatmapChart(avg)}
	if len(top) > 0 {
		charts = append(charts, scatterChart(top))
	}
	for _, c := range charts {
		w.do(c.Name+opts.Renderer.Extension(), func(path string) error {
			data, err := opts.Renderer.Render(c)
			if err != nil {
				return err
			}
			return dataset.WriteFileAtomic(path, data)
		})
	}

	if w.err != nil {
		return nil, w.err
	}

	log.WithFields(map[string]interface{}{
		"rows":           table.Len(),
		"rows_dropped":   stats.RowsDropped,
		"missing_macros": stats.MissingMacros,
		"shadowed_cols":  stats.ShadowedColumns,
		"files":          len(w.files),
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Info("Batch analysis complete")

	return &Result{Rows: table.Len(), Stats: stats, Summary: summary, Files: w.files}, nil
}

// writer stops at the first failed output
type writer struct {
	dir   string
	files []string
	err   error
}

func (w *writer) do(name string, fn func(path string) error) {
	if w.err != nil {
		return
	}
	path := filepath.Join(w.dir, name)
	if err := fn(path); err != nil {
		w.err = fmt.Errorf("write %s: %w", name, err)
		return
	}
	w.files = append(w.files, path)
}

func writeRecords(path string, records [][]string) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return dataset.WriteFileAtomic(path, buf.Bytes())
}

func avgRecords(avg []aggregate.DietMacros) [][]string {
	records := [][]string{{contracts.ColDietType, contracts.ColProtein, contracts.ColCarbs, contracts.ColFat}}
	for _, a := range avg {
		records = append(records, []string{
			a.Diet,
			dataset.FormatFloat(a.Protein),
			dataset.FormatFloat(a.Carbs),
			dataset.FormatFloat(a.Fat),
		})
	}
	return records
}

func cuisineRecords(mc []aggregate.DietCuisine) [][]string {
	records := [][]string{{contracts.ColDietType, "Most_common_cuisine"}}
	for _, c := range mc {
		records = append(records, []string{c.Diet, c.Cuisine})
	}
	return records
}

func summaryRecords(s aggregate.ProteinSummary) [][]string {
	records := [][]string{{
		"diet_with_highest_single_recipe_protein",
		"highest_single_recipe_protein_g",
		"diet_with_highest_avg_protein",
		"highest_avg_protein_g",
	}}
	if s.Found {
		records = append(records, []string{
			s.TopRecipeDiet,
			dataset.FormatFloat(s.TopRecipeValue),
			s.TopAvgDiet,
			dataset.FormatFloat(s.TopAvgValue),
		})
	}
	return records
}
