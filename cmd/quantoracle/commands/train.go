package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/quantoracle/internal/trainer"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the ridge model and publish it to the registry",
	Long: `Fits the cross-sectional ridge model on the feature table, evaluates
it on the held-out tail, and publishes artifact + meta + LATEST pointer.

Example:
  go run ./cmd/quantoracle train
  go run ./cmd/quantoracle train --horizon 5 --alpha 10 --cutoff 2025-06-30`,
	RunE: runTrain,
}

var (
	trainHorizon int
	trainAlpha   float64
	trainCutoff  string
)

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().IntVar(&trainHorizon, "horizon", 0, "forward-return horizon in days (default from config)")
	trainCmd.Flags().Float64Var(&trainAlpha, "alpha", 0, "ridge regularization strength (default from config)")
	trainCmd.Flags().StringVar(&trainCutoff, "cutoff", "", "train/test split date YYYY-MM-DD (default: 80th-percentile date)")
}

func runTrain(cmd *cobra.Command, args []string) error {
	d, err := newDeps()
	if err != nil {
		return err
	}
	ctx := context.Background()

	table, err := d.feats.Read(ctx)
	if err != nil {
		return err
	}

	opts := trainer.Options{
		Horizon:  d.cfg.Pipeline.Horizon,
		Alpha:    d.cfg.Pipeline.Alpha,
		Cutoff:   trainCutoff,
		Universe: d.cfg.Pipeline.UniverseName,
		Provider: d.cfg.Pipeline.Provider,
	}
	if trainHorizon > 0 {
		opts.Horizon = trainHorizon
	}
	if trainAlpha > 0 {
		opts.Alpha = trainAlpha
	}

	res, err := d.trainer().Train(ctx, table, opts)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Published %s@%s\n", res.Meta.FamilyID(), res.VersionID)
	fmt.Printf("   cutoff=%s rows_train=%d rows_test=%d ic=%.4f hit_rate=%.3f\n",
		res.Meta.Cutoff, res.Meta.RowsTrain, res.Meta.RowsTest, res.Meta.IC, res.Meta.HitRate)
	return nil
}
