package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/quantoracle/internal/contracts"
	"github.com/wonny/quantoracle/internal/store"
)

// Provider is the vendor-side contract; EODHDClient is the production one
type Provider interface {
	FetchEOD(ctx context.Context, symbol string, from time.Time) (*contracts.PriceSeries, error)
}

// Result summarizes one ingest run
type Result struct {
	Fetched int
	Skipped int
	Bars    int
}

// Service ingests vendor history into the OHLCV store
type Service struct {
	provider Provider
	store    store.OHLCVStore
	log      zerolog.Logger
}

// NewService creates an ingest service
func NewService(provider Provider, st store.OHLCVStore, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		store:    st,
		log:      log.With().Str("component", "ingest.service").Logger(),
	}
}

// IngestSymbols fetches and stores each symbol's history since `from`.
// A failing symbol is logged and skipped: one delisted ticker must not
// sink the evening run. Context cancellation stops the loop.
func (s *Service) IngestSymbols(ctx context.Context, symbols []string, from time.Time) (Result, error) {
	var res Result

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		series, err := s.provider.FetchEOD(ctx, symbol, from)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("fetch failed, skipping")
			res.Skipped++
			continue
		}
		if series.Empty() {
			s.log.Warn().Str("symbol", symbol).Msg("no bars returned, skipping")
			res.Skipped++
			continue
		}

		if err := s.store.WriteOHLCV(ctx, series); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("store write failed, skipping")
			res.Skipped++
			continue
		}

		res.Fetched++
		res.Bars += len(series.Bars)
	}

	s.log.Info().
		Int("fetched", res.Fetched).
		Int("skipped", res.Skipped).
		Int("bars", res.Bars).
		Msg("ingest run complete")
	return res, nil
}
