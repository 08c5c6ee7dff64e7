package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dietdash/internal/batch"
	"github.com/wonny/dietdash/internal/dataset"
	"github.com/wonny/dietdash/pkg/logger"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the offline dataset analysis",
	Long: `Cleans the dataset (column-mean fill, macro ratios) and writes:

  cleaned_dataset.csv
  avg_macros_by_diet.csv
  top_protein_by_diet.csv
  most_common_cuisine_by_diet.csv
  highest_protein_summary.csv
  01_bar_avg_macros, 02_heatmap_avg_macros, 03_scatter_top_protein charts

Example:
  go run ./cmd/dietdash analyze
  go run ./cmd/dietdash analyze --csv All_Diets.csv --out outputs --topn 5`,
	RunE: runAnalyze,
}

var (
	analyzeCSV  string
	analyzeOut  string
	analyzeTopN int
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeCSV, "csv", "", "input CSV (default DATASET_PATH)")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "outputs", "output directory")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "topn", batch.DefaultTopN, "recipes per diet in the top-protein table")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	if analyzeCSV == "" {
		analyzeCSV = cfg.Dataset.Path
	}

	start := time.Now()
	res, err := batch.Run(cmd.Context(), batch.Options{
		CSVPath: analyzeCSV,
		OutDir:  analyzeOut,
		TopN:    analyzeTopN,
		Logger:  log,
	})
	if err != nil {
		return fmt.Errorf("analyze %s: %w", analyzeCSV, err)
	}

	PrintHeader("Dataset analysis")
	PrintKV("Input", analyzeCSV)
	PrintKV("Rows", res.Rows)
	PrintKV("Rows dropped", res.Stats.RowsDropped)
	PrintKV("Filled cells", res.Stats.MissingMacros)
	if res.Summary.Found {
		PrintKV("Top recipe", fmt.Sprintf("%s (%s, %sg)", res.Summary.TopRecipe.RecipeName, res.Summary.TopRecipeDiet, dataset.FormatFloat(res.Summary.TopRecipeValue)))
		PrintKV("Top avg diet", fmt.Sprintf("%s (%.2fg)", res.Summary.TopAvgDiet, res.Summary.TopAvgValue))
	}
	PrintSeparator()
	for _, f := range res.Files {
		fmt.Printf("  %s\n", filepath.Base(f))
	}
	fmt.Println()
	PrintSuccess(fmt.Sprintf("Saved %d files to %s in %.2fs", len(res.Files), analyzeOut, time.Since(start).Seconds()))
	return nil
}
