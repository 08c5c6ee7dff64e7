package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/store"
	"github.com/wonny/dietdash/pkg/config"
	"github.com/wonny/dietdash/pkg/database"
	"github.com/wonny/dietdash/pkg/logger"
)

// checkStoreCmd represents the check-store command
var checkStoreCmd = &cobra.Command{
	Use:   "check-store",
	Short: "Test the durable store connection",
	Long: `Connects to the configured durable store and reads the persisted
aggregates. For PostgreSQL the connection pool statistics are shown too.

Example:
  go run ./cmd/dietdash check-store
  STORE_DRIVER=postgres go run ./cmd/dietdash check-store`,
	RunE: runCheckStore,
}

func init() {
	rootCmd.AddCommand(checkStoreCmd)
}

func runCheckStore(cmd *cobra.Command, args []string) error {
	fmt.Println("=== dietdash Store Connection Test ===")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	log := logger.New(cfg)
	fmt.Printf("✅ Config loaded (ENV: %s, driver: %s)\n", cfg.Env, cfg.Store.Driver)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	if cfg.Store.Driver == "postgres" {
		fmt.Printf("   Database URL: %s\n", maskPassword(cfg.Database.URL))
		if err := printPoolHealth(ctx, cfg.Database); err != nil {
			return err
		}
	}

	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("❌ Failed to open store: %w", err)
	}
	defer st.Close()
	fmt.Println("✅ Store opened")

	for _, key := range []string{contracts.KeyAvgMacrosByDiet, contracts.KeyRecipeCountsByDiet} {
		entry, err := st.Get(ctx, key)
		switch {
		case errors.Is(err, store.ErrNotFound):
			PrintWarning(fmt.Sprintf("%s not written yet", key))
		case err != nil:
			return fmt.Errorf("❌ Failed to read %s: %w", key, err)
		default:
			PrintSuccess(fmt.Sprintf("%s (%d bytes, updated %s)", key, len(entry.Data), entry.UpdatedAt.Format(time.RFC3339)))
		}
	}
	return nil
}

func printPoolHealth(ctx context.Context, cfg config.DatabaseConfig) error {
	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("❌ Health check failed: %w", err)
	}

	fmt.Println("📊 Connection Pool Statistics:")
	PrintKV("Healthy", status.Healthy)
	PrintKV("Response", status.ResponseTime)
	PrintKV("Total conns", status.TotalConns)
	PrintKV("Idle conns", status.IdleConns)
	PrintKV("Max conns", status.MaxConns)
	return nil
}

// maskPassword hides the password of a connection URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
