package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/quantoracle/internal/universe"
)

var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Refresh the symbol universe from the exchange",
	Long: `Scrapes the index constituents page and rewrites the universe file.

Example:
  go run ./cmd/quantoracle universe --index NIFTY50
  go run ./cmd/quantoracle universe --index NIFTY50 --out data/universe.txt`,
	RunE: runUniverse,
}

var (
	universeIndex string
	universeOut   string
)

func init() {
	rootCmd.AddCommand(universeCmd)

	universeCmd.Flags().StringVar(&universeIndex, "index", "NIFTY50", "index to scrape")
	universeCmd.Flags().StringVar(&universeOut, "out", "", "output file (default from config)")
}

func runUniverse(cmd *cobra.Command, args []string) error {
	d, err := newDeps()
	if err != nil {
		return err
	}

	out := universeOut
	if out == "" {
		out = d.cfg.Pipeline.UniverseFile
	}

	scraper := universe.NewNSEScraper(d.httpClient(), d.cfg.NSE.BaseURL, d.log.Zerolog())
	symbols, err := scraper.FetchIndex(context.Background(), universeIndex)
	if err != nil {
		return err
	}

	if err := universe.WriteFile(out, symbols); err != nil {
		return err
	}

	fmt.Printf("✅ %d symbols written to %s\n", len(symbols), out)
	return nil
}
