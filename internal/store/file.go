package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/quantoracle/internal/contracts"
)

// CSV layout (compatibility surface, read by external notebooks):
//
//	<dir>/<SAFE_SYMBOL>.csv
//	Date,Open,High,Low,Close,Volume
const csvExt = ".csv"

var ohlcvHeader = []string{"Date", "Open", "High", "Low", "Close", "Volume"}

// unsafeChars matches symbol characters that cannot appear in a filename.
// "RELIANCE.NSE" stays readable; anything exotic degrades to underscores.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FileStore keeps one CSV file per symbol under a single directory
type FileStore struct {
	dir string
	log zerolog.Logger
}

// NewFileStore creates a CSV-backed store rooted at dir (usually <data>/ohlcv)
func NewFileStore(dir string, log zerolog.Logger) *FileStore {
	return &FileStore{
		dir: dir,
		log: log.With().Str("component", "store.file").Logger(),
	}
}

// SafeSymbol maps a symbol to its on-disk file stem
func SafeSymbol(symbol string) string {
	return unsafeChars.ReplaceAllString(symbol, "_")
}

func (s *FileStore) path(symbol string) string {
	return filepath.Join(s.dir, SafeSymbol(symbol)+csvExt)
}

// WriteOHLCV writes the series as a fresh CSV, replacing any previous file
func (s *FileStore) WriteOHLCV(ctx context.Context, series *contracts.PriceSeries) error {
	if series.Symbol == "" {
		return fmt.Errorf("store: series has empty symbol")
	}
	if err := series.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	f, err := os.Create(s.path(series.Symbol))
	if err != nil {
		return fmt.Errorf("store: write %s: %w", series.Symbol, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(ohlcvHeader); err != nil {
		return fmt.Errorf("store: write %s: %w", series.Symbol, err)
	}
	for _, b := range series.Bars {
		record := []string{
			b.Date.Format("2006-01-02"),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			strconv.FormatInt(b.Volume, 10),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("store: write %s: %w", series.Symbol, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("store: write %s: %w", series.Symbol, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("store: write %s: %w", series.Symbol, err)
	}

	s.log.Debug().
		Str("symbol", series.Symbol).
		Int("bars", len(series.Bars)).
		Msg("ohlcv written")
	return nil
}

// ReadOHLCV loads and validates one symbol's history
func (s *FileStore) ReadOHLCV(ctx context.Context, symbol string) (*contracts.PriceSeries, error) {
	f, err := os.Open(s.path(symbol))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", symbol, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(ohlcvHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", symbol, err)
	}
	if len(records) == 0 || !isHeader(records[0]) {
		return nil, fmt.Errorf("store: read %s: missing header", symbol)
	}

	series := &contracts.PriceSeries{Symbol: symbol, Bars: make([]contracts.Bar, 0, len(records)-1)}
	for i, rec := range records[1:] {
		bar, err := parseBar(rec)
		if err != nil {
			return nil, fmt.Errorf("store: read %s line %d: %w", symbol, i+2, err)
		}
		series.Bars = append(series.Bars, bar)
	}

	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("store: read %s: %w", symbol, err)
	}
	return series, nil
}

// Symbols lists stored symbols by their on-disk file stems
func (s *FileStore) Symbols(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}

	var symbols []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), csvExt) {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(e.Name(), csvExt))
	}
	sort.Strings(symbols)
	return symbols, nil
}

// HasOHLCV reports whether the symbol's file exists
func (s *FileStore) HasOHLCV(ctx context.Context, symbol string) (bool, error) {
	_, err := os.Stat(s.path(symbol))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: stat %s: %w", symbol, err)
	}
	return true, nil
}

func isHeader(record []string) bool {
	if len(record) != len(ohlcvHeader) {
		return false
	}
	for i, col := range ohlcvHeader {
		if record[i] != col {
			return false
		}
	}
	return true
}

func parseBar(record []string) (contracts.Bar, error) {
	var bar contracts.Bar

	date, err := time.Parse("2006-01-02", record[0])
	if err != nil {
		return bar, fmt.Errorf("bad date %q: %w", record[0], err)
	}
	bar.Date = date

	fields := []*float64{&bar.Open, &bar.High, &bar.Low, &bar.Close}
	for i, dst := range fields {
		v, err := strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return bar, fmt.Errorf("bad %s %q: %w", strings.ToLower(ohlcvHeader[i+1]), record[i+1], err)
		}
		*dst = v
	}

	vol, err := strconv.ParseInt(record[5], 10, 64)
	if err != nil {
		return bar, fmt.Errorf("bad volume %q: %w", record[5], err)
	}
	bar.Volume = vol
	return bar, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
