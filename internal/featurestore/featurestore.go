// Package featurestore persists the cross-sectional feature table as a
// single CSV file shared with external analysis tooling.
package featurestore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/quantoracle/internal/contracts"
)

// header is a compatibility surface: column names and order are read by
// notebooks outside this repo. An empty target cell means "null" (the row
// is too recent to have a realized forward return).
var header = []string{
	"Date", "symbol",
	"ret_1d", "ret_5d", "ret_20d", "vol_20d",
	"price_sma20", "price_sma50", "rsi_14",
	"target",
}

const dateLayout = "2006-01-02"

// Store reads and writes the feature table CSV
type Store struct {
	path string
	log  zerolog.Logger
}

// New creates a feature store at path (usually <data>/features.csv)
func New(path string, log zerolog.Logger) *Store {
	return &Store{
		path: path,
		log:  log.With().Str("component", "featurestore").Logger(),
	}
}

// Write replaces the feature table file with the given table
func (s *Store) Write(ctx context.Context, table *contracts.FeatureTable) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("featurestore: %w", err)
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("featurestore: write: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("featurestore: write: %w", err)
	}

	for _, r := range table.Rows {
		target := ""
		if r.Target != nil {
			target = formatFloat(*r.Target)
		}
		record := []string{
			r.Date.Format(dateLayout),
			r.Symbol,
			formatFloat(r.Ret1D),
			formatFloat(r.Ret5D),
			formatFloat(r.Ret20D),
			formatFloat(r.Vol20D),
			formatFloat(r.PriceSMA20),
			formatFloat(r.PriceSMA50),
			formatFloat(r.RSI14),
			target,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("featurestore: write: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("featurestore: write: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("featurestore: write: %w", err)
	}

	s.log.Info().
		Int("rows", len(table.Rows)).
		Str("path", s.path).
		Msg("feature table written")
	return nil
}

// Read loads the full feature table
func (s *Store) Read(ctx context.Context) (*contracts.FeatureTable, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("featurestore: read: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("featurestore: read: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("featurestore: read: empty file")
	}
	for i, col := range header {
		if records[0][i] != col {
			return nil, fmt.Errorf("featurestore: read: column %d is %q, want %q", i, records[0][i], col)
		}
	}

	table := &contracts.FeatureTable{Rows: make([]contracts.FeatureRow, 0, len(records)-1)}
	for i, rec := range records[1:] {
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("featurestore: read line %d: %w", i+2, err)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// Snapshot loads the table and returns only the most recent date's rows
func (s *Store) Snapshot(ctx context.Context) ([]contracts.FeatureRow, error) {
	table, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, nil
	}
	return table.Snapshot(table.LatestDate()), nil
}

func parseRow(rec []string) (contracts.FeatureRow, error) {
	var row contracts.FeatureRow

	date, err := time.Parse(dateLayout, rec[0])
	if err != nil {
		return row, fmt.Errorf("bad date %q: %w", rec[0], err)
	}
	row.Date = date
	row.Symbol = rec[1]
	if row.Symbol == "" {
		return row, fmt.Errorf("empty symbol")
	}

	fields := []*float64{
		&row.Ret1D, &row.Ret5D, &row.Ret20D, &row.Vol20D,
		&row.PriceSMA20, &row.PriceSMA50, &row.RSI14,
	}
	for i, dst := range fields {
		v, err := strconv.ParseFloat(rec[i+2], 64)
		if err != nil {
			return row, fmt.Errorf("bad %s %q: %w", header[i+2], rec[i+2], err)
		}
		*dst = v
	}

	if rec[9] != "" {
		v, err := strconv.ParseFloat(rec[9], 64)
		if err != nil {
			return row, fmt.Errorf("bad target %q: %w", rec[9], err)
		}
		row.Target = &v
	}
	return row, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
