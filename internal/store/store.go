// Package store persists per-symbol daily OHLCV history. Two backends:
// a plain per-symbol CSV layout under the data directory, and Postgres
// for deployments that already run one.
package store

import (
	"context"
	"errors"

	"github.com/wonny/quantoracle/internal/contracts"
)

// ErrNotFound means the symbol has no stored history
var ErrNotFound = errors.New("store: symbol not found")

// OHLCVStore is the persistence contract for daily bars.
// Writes replace the symbol's full history; the upstream provider serves
// complete adjusted series, so merge logic lives with the provider, not here.
type OHLCVStore interface {
	// ReadOHLCV returns the symbol's full history, ascending by date.
	// ErrNotFound when the symbol was never written.
	ReadOHLCV(ctx context.Context, symbol string) (*contracts.PriceSeries, error)

	// WriteOHLCV persists the series, replacing any previous history
	WriteOHLCV(ctx context.Context, series *contracts.PriceSeries) error

	// Symbols lists every stored symbol, sorted
	Symbols(ctx context.Context) ([]string, error)

	// HasOHLCV reports whether the symbol has stored history
	HasOHLCV(ctx context.Context, symbol string) (bool, error)
}
