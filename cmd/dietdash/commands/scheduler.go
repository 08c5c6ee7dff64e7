package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/dietdash/internal/scheduler"
	"github.com/wonny/dietdash/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the warm-refresh scheduler",
	Long: `Checks the dataset fingerprint on REFRESH_SCHEDULE and rebuilds the
generation (and the persisted aggregates) when the source changed.

Example:
  go run ./cmd/dietdash scheduler
  go run ./cmd/dietdash scheduler --once`,
	RunE: runScheduler,
}

var schedulerOnce bool

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().BoolVar(&schedulerOnce, "once", false, "run the refresh once and exit")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s := scheduler.New(a.log, scheduler.WithJobTimeout(a.cfg.Dataset.ReadTimeout*2))
	refresh := jobs.NewRefreshJob(a.cache, a.cfg.Dataset.RefreshCron, a.log)
	if err := s.AddJob(refresh); err != nil {
		return err
	}

	res, err := s.RunNow(ctx, refresh.Name())
	if err != nil {
		return err
	}
	if schedulerOnce {
		if !res.Success {
			return fmt.Errorf("refresh failed: %s", res.Error)
		}
		PrintSuccess(fmt.Sprintf("Refresh completed in %v", res.Duration))
		return nil
	}

	s.Start()
	fmt.Printf("✅ Scheduler running (%s %s)\n", refresh.Name(), refresh.Schedule())
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	s.Stop()

	for name, st := range s.Stats() {
		a.log.WithFields(map[string]interface{}{
			"job":          name,
			"total_runs":   st.TotalRuns,
			"success_rate": st.SuccessRate,
		}).Info("Job summary")
	}
	return nil
}
