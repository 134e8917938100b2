package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wonny/quantoracle/internal/contracts"
	"github.com/wonny/quantoracle/internal/portfolio"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Build a constrained long/short book from the latest model",
	Long: `Scores the latest snapshot and converts predictions into long/short
weights under gross, net, and per-name cap constraints.

Example:
  go run ./cmd/quantoracle portfolio
  go run ./cmd/quantoracle portfolio --long-n 15 --short-n 15 --gross 2.0 --max-w 0.05`,
	RunE: runPortfolio,
}

var (
	portfolioLongN  int
	portfolioShortN int
	portfolioGross  float64
	portfolioNet    float64
	portfolioMaxW   float64
)

func init() {
	rootCmd.AddCommand(portfolioCmd)

	defaults := contracts.DefaultConstraints()
	portfolioCmd.Flags().IntVar(&portfolioLongN, "long-n", defaults.LongN, "long names")
	portfolioCmd.Flags().IntVar(&portfolioShortN, "short-n", defaults.ShortN, "short names")
	portfolioCmd.Flags().Float64Var(&portfolioGross, "gross", defaults.Gross, "gross exposure target")
	portfolioCmd.Flags().Float64Var(&portfolioNet, "net", defaults.Net, "net exposure target")
	portfolioCmd.Flags().Float64Var(&portfolioMaxW, "max-w", defaults.MaxAbsWeight, "per-name absolute weight cap")
}

func runPortfolio(cmd *cobra.Command, args []string) error {
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

	preds, _, ok, err := d.predictor().PredictLatest(ctx, d.familyID(), snapshot)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no model published for %s, run `train` first", d.familyID())
	}

	predMap := make(map[string]float64, len(preds))
	riskMap := make(map[string]float64, len(preds))
	for _, p := range preds {
		predMap[p.Symbol] = p.Pred
		riskMap[p.Symbol] = p.Risk
	}

	c := contracts.Constraints{
		LongN:        portfolioLongN,
		ShortN:       portfolioShortN,
		Gross:        portfolioGross,
		Net:          portfolioNet,
		MaxAbsWeight: portfolioMaxW,
	}
	weights := portfolio.BuildLongShort(predMap, riskMap, c)

	symbols := make([]string, 0, len(weights))
	for symbol := range weights {
		symbols = append(symbols, symbol)
	}
	// longs first, biggest absolute weight first
	sort.Slice(symbols, func(i, j int) bool {
		wi, wj := weights[symbols[i]], weights[symbols[j]]
		if (wi > 0) != (wj > 0) {
			return wi > 0
		}
		if wi != wj {
			if wi > 0 {
				return wi > wj
			}
			return wi < wj
		}
		return symbols[i] < symbols[j]
	})

	fmt.Printf("Book: %d names, gross=%.4f net=%+.4f\n\n", len(weights), weights.Gross(), weights.Net())
	for _, symbol := range symbols {
		fmt.Printf("  %-16s %+.4f\n", symbol, weights[symbol])
	}
	return nil
}
