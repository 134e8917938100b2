package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/quantoracle/internal/universe"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch OHLCV history from the vendor into the local store",
	Long: `Fetches daily OHLCV history from the EODHD API and writes one
CSV file per symbol under <data>/ohlcv/.

Example:
  go run ./cmd/quantoracle ingest --universe data/universe.txt
  go run ./cmd/quantoracle ingest --symbols RELIANCE.NSE,TCS.NSE --lookback 400`,
	RunE: runIngest,
}

var (
	ingestSymbols  string
	ingestUniverse string
	ingestLookback int
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestSymbols, "symbols", "", "comma-separated symbols (overrides --universe)")
	ingestCmd.Flags().StringVar(&ingestUniverse, "universe", "", "universe file (default from config)")
	ingestCmd.Flags().IntVar(&ingestLookback, "lookback", 0, "ingest window in calendar days (0 = full history)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	d, err := newDeps()
	if err != nil {
		return err
	}

	var symbols []string
	if ingestSymbols != "" {
		for _, s := range strings.Split(ingestSymbols, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, s)
			}
		}
	} else {
		path := ingestUniverse
		if path == "" {
			path = d.cfg.Pipeline.UniverseFile
		}
		symbols, err = universe.Load(path)
		if err != nil {
			return err
		}
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols to ingest")
	}

	var from time.Time
	if ingestLookback > 0 {
		from = time.Now().UTC().AddDate(0, 0, -ingestLookback)
	}

	res, err := d.ingestService().IngestSymbols(context.Background(), symbols, from)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Ingested %d symbols (%d bars), skipped %d\n", res.Fetched, res.Bars, res.Skipped)
	return nil
}
