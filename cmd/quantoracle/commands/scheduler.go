package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/quantoracle/internal/scheduler"
	"github.com/wonny/quantoracle/internal/scheduler/jobs"
	"github.com/wonny/quantoracle/internal/universe"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the scheduled jobs (EOD pipeline, universe refresh)",
	Long: `Starts the cron scheduler:
  eod_pipeline      18:30 daily  - full ingest/train/rank batch
  universe_refresh  Sun 10:00    - re-scrape index constituents

Example:
  go run ./cmd/quantoracle scheduler`,
	RunE: runScheduler,
}

var schedulerIndex string

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.Flags().StringVar(&schedulerIndex, "index", "NIFTY50", "index for the weekly universe refresh")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	d, err := newDeps()
	if err != nil {
		return err
	}

	s := scheduler.New(d.log)

	pipelineJob := jobs.NewEODPipelineJob(d.newPipeline(nil), d.pipelineOptions(), d.log)
	if err := s.AddJob(pipelineJob); err != nil {
		return err
	}

	scraper := universe.NewNSEScraper(d.httpClient(), d.cfg.NSE.BaseURL, d.log.Zerolog())
	refreshJob := jobs.NewUniverseRefreshJob(scraper, schedulerIndex, d.cfg.Pipeline.UniverseFile, d.log)
	if err := s.AddJob(refreshJob); err != nil {
		return err
	}

	s.Start()
	fmt.Println("✅ Scheduler running (jobs: eod_pipeline, universe_refresh)")
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	s.Stop()
	return nil
}
