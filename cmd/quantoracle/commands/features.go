package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/quantoracle/internal/contracts"
	"github.com/wonny/quantoracle/internal/features"
	"github.com/wonny/quantoracle/internal/universe"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Rebuild the feature table from stored OHLCV history",
	Long: `Reads every universe symbol's stored bars, computes the feature
set plus forward-return targets, and writes <data>/features.csv.

Example:
  go run ./cmd/quantoracle features
  go run ./cmd/quantoracle features --horizon 10`,
	RunE: runFeatures,
}

var (
	featuresHorizon  int
	featuresUniverse string
)

func init() {
	rootCmd.AddCommand(featuresCmd)

	featuresCmd.Flags().IntVar(&featuresHorizon, "horizon", 0, "forward-return horizon in days (default from config)")
	featuresCmd.Flags().StringVar(&featuresUniverse, "universe", "", "universe file (default from config)")
}

func runFeatures(cmd *cobra.Command, args []string) error {
	d, err := newDeps()
	if err != nil {
		return err
	}
	ctx := context.Background()

	horizon := featuresHorizon
	if horizon <= 0 {
		horizon = d.cfg.Pipeline.Horizon
	}

	path := featuresUniverse
	if path == "" {
		path = d.cfg.Pipeline.UniverseFile
	}
	symbols, err := universe.Load(path)
	if err != nil {
		return err
	}

	table := &contracts.FeatureTable{}
	skipped := 0
	for _, symbol := range symbols {
		series, err := d.ohlcv.ReadOHLCV(ctx, symbol)
		if err != nil {
			d.log.WithError(err).WithField("symbol", symbol).Warn("No stored history, skipping")
			skipped++
			continue
		}
		table.Rows = append(table.Rows, features.BuildSymbolRows(series, horizon)...)
	}

	if err := d.feats.Write(ctx, table); err != nil {
		return err
	}

	fmt.Printf("✅ %d feature rows written (%d symbols skipped) to %s\n",
		len(table.Rows), skipped, d.cfg.FeaturesPath())
	return nil
}
