package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dietdash/internal/api"
	"github.com/wonny/dietdash/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the dashboard API server",
	Long: `Starts the dashboard HTTP server.

The dataset is loaded lazily on the first request and rebuilt whenever the
source file changes. Aggregates are persisted to the configured store.

Endpoints:
  GET  /health          - Health check
  GET  /metrics         - Prometheus metrics (METRICS_ENABLED)
  GET  /api/dashboard   - Dashboard action (action, dietType, keyword, page)
  POST /api/dashboard   - Same, form or JSON body
  POST /                - Same, form body
  GET  /api/status      - Current dataset generation

Example:
  go run ./cmd/dietdash api
  go run ./cmd/dietdash api --port 9090`,
	RunE: runAPIServer,
}

var (
	apiPort string
	apiWarm bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
	apiCmd.Flags().BoolVar(&apiWarm, "warm", true, "load the dataset before accepting requests")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== dietdash API Server ===")

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	if apiWarm {
		if _, err := a.cache.EnsureFresh(ctx); err != nil {
			a.log.WithError(err).Warn("Initial dataset load failed; requests will retry")
		}
	}

	dashboard := handlers.NewDashboardHandler(a.cache, a.view, a.log)
	router := api.NewRouter(a.cfg, dashboard, a.metrics, a.log)
	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	if a.cfg.MetricsEnabled {
		fmt.Println("  GET  /metrics")
	}
	fmt.Println("  GET  /api/dashboard")
	fmt.Println("  POST /api/dashboard")
	fmt.Println("  GET  /api/status")
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	a.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
