package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the full EOD batch once",
	Long: `Runs ingest -> features -> train -> rank as one batch, the same
sequence the scheduler runs every evening.

Example:
  go run ./cmd/quantoracle pipeline
  go run ./cmd/quantoracle pipeline --lookback 400`,
	RunE: runPipeline,
}

var pipelineLookback int

func init() {
	rootCmd.AddCommand(pipelineCmd)
	pipelineCmd.Flags().IntVar(&pipelineLookback, "lookback", 0, "ingest window in calendar days (0 = full history)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	d, err := newDeps()
	if err != nil {
		return err
	}

	opts := d.pipelineOptions()
	opts.LookbackDays = pipelineLookback

	summary, err := d.newPipeline(nil).Run(context.Background(), opts)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Pipeline complete: model %s\n", summary.VersionID)
	fmt.Printf("   symbols=%d ingested=%d skipped=%d feature_rows=%d ranked=%d ic=%.4f\n",
		summary.Symbols, summary.Ingested, summary.Skipped, summary.FeatureRows, summary.Ranked, summary.IC)
	return nil
}
