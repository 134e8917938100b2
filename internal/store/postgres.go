package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/wonny/quantoracle/internal/contracts"
)

// PostgresStore persists daily bars in a single data.daily_bars table.
// Schema:
//
//	CREATE TABLE data.daily_bars (
//	    symbol      TEXT        NOT NULL,
//	    trade_date  DATE        NOT NULL,
//	    open        DOUBLE PRECISION NOT NULL,
//	    high        DOUBLE PRECISION NOT NULL,
//	    low         DOUBLE PRECISION NOT NULL,
//	    close       DOUBLE PRECISION NOT NULL,
//	    volume      BIGINT      NOT NULL,
//	    PRIMARY KEY (symbol, trade_date)
//	)
type PostgresStore struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewPostgresStore creates a Postgres-backed OHLCV store
func NewPostgresStore(pool *pgxpool.Pool, log zerolog.Logger) *PostgresStore {
	return &PostgresStore{
		pool: pool,
		log:  log.With().Str("component", "store.postgres").Logger(),
	}
}

// ReadOHLCV returns the symbol's full history, ascending by date
func (s *PostgresStore) ReadOHLCV(ctx context.Context, symbol string) (*contracts.PriceSeries, error) {
	query := `
		SELECT trade_date, open, high, low, close, volume
		FROM data.daily_bars
		WHERE symbol = $1
		ORDER BY trade_date ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", symbol, err)
	}
	defer rows.Close()

	series := &contracts.PriceSeries{Symbol: symbol}
	for rows.Next() {
		var b contracts.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("store: read %s: %w", symbol, err)
		}
		series.Bars = append(series.Bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: read %s: %w", symbol, err)
	}

	if series.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	return series, nil
}

// WriteOHLCV upserts every bar of the series
func (s *PostgresStore) WriteOHLCV(ctx context.Context, series *contracts.PriceSeries) error {
	if series.Symbol == "" {
		return fmt.Errorf("store: series has empty symbol")
	}
	if err := series.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	query := `
		INSERT INTO data.daily_bars (symbol, trade_date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`

	for _, b := range series.Bars {
		if _, err := s.pool.Exec(ctx, query,
			series.Symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume,
		); err != nil {
			return fmt.Errorf("store: write %s@%s: %w", series.Symbol, b.Date.Format("2006-01-02"), err)
		}
	}

	s.log.Debug().
		Str("symbol", series.Symbol).
		Int("bars", len(series.Bars)).
		Msg("ohlcv upserted")
	return nil
}

// Symbols lists every stored symbol, sorted
func (s *PostgresStore) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT symbol FROM data.daily_bars ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("store: list: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

// HasOHLCV reports whether the symbol has any stored bars
func (s *PostgresStore) HasOHLCV(ctx context.Context, symbol string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM data.daily_bars WHERE symbol = $1)`, symbol,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: stat %s: %w", symbol, err)
	}
	return exists, nil
}
