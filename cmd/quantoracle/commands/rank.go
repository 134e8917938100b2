package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/quantoracle/internal/rank"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score the latest snapshot with the published model",
	Long: `Loads the latest model from the registry, scores the most recent
feature snapshot, and prints the top/bottom N symbols.

Example:
  go run ./cmd/quantoracle rank --n 20`,
	RunE: runRank,
}

var rankN int

func init() {
	rootCmd.AddCommand(rankCmd)
	rankCmd.Flags().IntVar(&rankN, "n", 10, "number of names per side")
}

func runRank(cmd *cobra.Command, args []string) error {
	d, err := newDeps()
	if err != nil {
		return err
	}
	ctx := context.Background()

	snapshot, err := d.feats.Snapshot(ctx)
	if err != nil {
		return err
	}
	if len(snapshot) == 0 {
		return fmt.Errorf("feature table is empty, run `features` first")
	}

	preds, meta, ok, err := d.predictor().PredictLatest(ctx, d.familyID(), snapshot)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no model published for %s, run `train` first", d.familyID())
	}

	top, bottom := rank.TopBottom(preds, rankN)

	fmt.Printf("Model %s (horizon=%d, ic=%.4f), as of %s\n\n",
		meta.FamilyID(), meta.Horizon, meta.IC, snapshot[0].Date.Format("2006-01-02"))

	fmt.Println("Top:")
	for i, p := range top {
		fmt.Printf("  %2d. %-16s pred=%+.5f risk=%.5f\n", i+1, p.Symbol, p.Pred, p.Risk)
	}
	fmt.Println("Bottom:")
	for i, p := range bottom {
		fmt.Printf("  %2d. %-16s pred=%+.5f risk=%.5f\n", i+1, p.Symbol, p.Pred, p.Risk)
	}
	return nil
}
