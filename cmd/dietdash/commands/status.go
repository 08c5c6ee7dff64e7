package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dietdash/internal/aggregate"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Load the dataset once and print its summary",
	Long: `Runs one freshness check (building and persisting the generation when
needed) and prints per-diet recipe counts and average macros.

Example:
  go run ./cmd/dietdash status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.cache.EnsureFresh(cmd.Context())
	if snap == nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	if err != nil {
		PrintWarning(fmt.Sprintf("serving stale generation: %v", err))
	}

	PrintHeader("Dataset status")
	PrintKV("Source", a.cfg.Dataset.Path)
	PrintKV("Generation", snap.Generation)
	PrintKV("Built at", snap.BuiltAt.Format(time.RFC3339))
	PrintKV("Rows", snap.Table.Len())
	PrintKV("Rows dropped", snap.Stats.RowsDropped)
	PrintKV("Store", a.cfg.Store.Driver)
	PrintSeparator()

	avg := aggregate.Round2(snap.AvgMacros)
	rows := make([][]string, 0, len(snap.RecipeCounts))
	for _, c := range aggregate.CountsFromSummary(snap.RecipeCounts) {
		m := avg[c.Diet]
		rows = append(rows, []string{
			c.Diet,
			fmt.Sprintf("%d", c.Count),
			fmt.Sprintf("%.2f", m.Protein),
			fmt.Sprintf("%.2f", m.Carbs),
			fmt.Sprintf("%.2f", m.Fat),
		})
	}
	PrintTable([]string{"Diet", "Recipes", "Protein(g)", "Carbs(g)", "Fat(g)"}, []int{16, 8, 10, 10, 10}, rows)
	return nil
}
