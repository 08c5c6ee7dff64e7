package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/dietdash/internal/ingest"
	"github.com/wonny/dietdash/pkg/httputil"
	"github.com/wonny/dietdash/pkg/logger"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Process a dataset blob event",
	Long: `Averages macros per diet for a newly uploaded dataset and writes the
result document (SIMULATED_NOSQL_PATH).

The event payload is read from --payload (a file, or - for stdin). When it is
missing or unreadable the blob DATASET_CONTAINER/DATASET_BLOB is fetched from
BLOB_ENDPOINT instead.

Example:
  go run ./cmd/dietdash ingest --payload All_Diets.csv
  cat All_Diets.csv | go run ./cmd/dietdash ingest --payload -
  go run ./cmd/dietdash ingest --container datasets --blob All_Diets.csv`,
	RunE: runIngest,
}

var (
	ingestPayload   string
	ingestContainer string
	ingestBlob      string
	ingestOutput    string
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestPayload, "payload", "", "event payload file, - for stdin")
	ingestCmd.Flags().StringVar(&ingestContainer, "container", "", "blob container (default DATASET_CONTAINER)")
	ingestCmd.Flags().StringVar(&ingestBlob, "blob", "", "blob name (default DATASET_BLOB)")
	ingestCmd.Flags().StringVar(&ingestOutput, "output", "", "result path (default SIMULATED_NOSQL_PATH)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	ev := ingest.Event{
		Container: firstNonEmpty(ingestContainer, cfg.Ingest.Container),
		Blob:      firstNonEmpty(ingestBlob, cfg.Ingest.Blob),
	}
	output := firstNonEmpty(ingestOutput, cfg.Ingest.OutputPath)

	if ingestPayload != "" {
		ev.Payload, err = readPayload(ingestPayload)
		if err != nil {
			// an unreadable payload falls back to the blob
			log.WithError(err).Warn("Failed to read payload")
		}
	}

	fetcher := ingest.NewHTTPBlobFetcher(cfg.Ingest.BlobEndpoint, httputil.New(log))
	p := ingest.NewProcessor(fetcher, output, log)

	records, err := p.Handle(cmd.Context(), ev)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.DietType,
			fmt.Sprintf("%.2f", r.Protein),
			fmt.Sprintf("%.2f", r.Carbs),
			fmt.Sprintf("%.2f", r.Fat),
		})
	}
	PrintHeader("Average macros by diet")
	PrintTable([]string{"Diet_type", "Protein(g)", "Carbs(g)", "Fat(g)"}, []int{16, 10, 10, 10}, rows)
	fmt.Println()
	PrintSuccess(fmt.Sprintf("saved results to %s", output))
	return nil
}

func readPayload(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
