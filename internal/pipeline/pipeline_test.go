package pipeline

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantoracle/internal/contracts"
	"github.com/wonny/quantoracle/internal/featurestore"
	"github.com/wonny/quantoracle/internal/ingest"
	"github.com/wonny/quantoracle/internal/rank"
	"github.com/wonny/quantoracle/internal/registry"
	"github.com/wonny/quantoracle/internal/store"
	"github.com/wonny/quantoracle/internal/trainer"
	"github.com/wonny/quantoracle/internal/universe"
)

// memorySink records pipeline events
type memorySink struct {
	events []Event
}

func (s *memorySink) Publish(e Event) { s.events = append(s.events, e) }

func (s *memorySink) stages() map[string]int {
	out := make(map[string]int)
	for _, e := range s.events {
		out[e.Stage]++
	}
	return out
}

// walkProvider serves deterministic random-walk price paths
type walkProvider struct {
	days int
	fail map[string]bool
}

func (p *walkProvider) FetchEOD(ctx context.Context, symbol string, from time.Time) (*contracts.PriceSeries, error) {
	if p.fail[symbol] {
		return nil, errors.New("vendor outage")
	}

	seed := uint64(1)
	for _, c := range symbol {
		seed = seed*131 + uint64(c)
	}
	next := func() float64 {
		seed = seed*6364136223846793005 + 1442695040888963407
		return float64(seed>>11)/float64(1<<53) - 0.5
	}

	series := &contracts.PriceSeries{Symbol: symbol}
	price := 100.0
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < p.days; i++ {
		price *= 1 + 0.02*next()
		series.Bars = append(series.Bars, contracts.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   price * 0.999,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 10000,
		})
	}
	return series, nil
}

func newTestPipeline(t *testing.T, provider ingest.Provider) (*Pipeline, *memorySink, string) {
	t.Helper()
	dir := t.TempDir()
	log := zerolog.Nop()

	ohlcv := store.NewFileStore(filepath.Join(dir, "ohlcv"), log)
	featStore := featurestore.New(filepath.Join(dir, "features.csv"), log)
	reg := registry.NewFSRegistry(filepath.Join(dir, "models"), log)
	sink := &memorySink{}

	p := New(
		ingest.NewService(provider, ohlcv, log),
		ohlcv,
		featStore,
		trainer.NewTrainer(reg, log),
		rank.NewPredictor(reg, log),
		sink,
		log,
	)
	return p, sink, dir
}

func writeUniverse(t *testing.T, dir string, symbols []string) string {
	t.Helper()
	path := filepath.Join(dir, "universe.txt")
	require.NoError(t, universe.WriteFile(path, symbols))
	return path
}

func testOptions(universePath string) Options {
	return Options{
		UniversePath: universePath,
		UniverseName: "test",
		Horizon:      5,
		Alpha:        10,
		Provider:     "fake",
	}
}

func TestPipeline_FullRun(t *testing.T) {
	p, sink, dir := newTestPipeline(t, &walkProvider{days: 140})
	path := writeUniverse(t, dir, []string{"AAA.NSE", "BBB.NSE", "CCC.NSE"})

	summary, err := p.Run(context.Background(), testOptions(path))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Symbols)
	assert.Equal(t, 3, summary.Ingested)
	assert.Zero(t, summary.Skipped)
	assert.Positive(t, summary.FeatureRows)
	assert.NotEmpty(t, summary.VersionID)
	assert.Equal(t, 3, summary.Ranked, "one prediction per symbol on the latest date")
	assert.False(t, math.IsNaN(summary.IC))

	stages := sink.stages()
	for _, stage := range []string{"ingest", "features", "train", "rank", "done"} {
		assert.Positive(t, stages[stage], "missing events for stage %s", stage)
	}
}

func TestPipeline_FailingSymbolDoesNotSinkRun(t *testing.T) {
	p, _, dir := newTestPipeline(t, &walkProvider{days: 140, fail: map[string]bool{"BAD.NSE": true}})
	path := writeUniverse(t, dir, []string{"AAA.NSE", "BAD.NSE", "BBB.NSE", "CCC.NSE"})

	summary, err := p.Run(context.Background(), testOptions(path))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Ingested)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 3, summary.Ranked)
}

func TestPipeline_InsufficientHistoryIsHardStop(t *testing.T) {
	// 60 bars leaves ~6 labeled dates after warm-up: not trainable
	p, _, dir := newTestPipeline(t, &walkProvider{days: 60})
	path := writeUniverse(t, dir, []string{"AAA.NSE", "BBB.NSE", "CCC.NSE"})

	_, err := p.Run(context.Background(), testOptions(path))
	require.Error(t, err)
	assert.True(t, errors.Is(err, trainer.ErrInsufficientData), "got %v", err)
}

func TestPipeline_EmptyUniverse(t *testing.T) {
	p, _, dir := newTestPipeline(t, &walkProvider{days: 140})
	path := writeUniverse(t, dir, nil)

	_, err := p.Run(context.Background(), testOptions(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestPipeline_NilSink(t *testing.T) {
	dir := t.TempDir()
	log := zerolog.Nop()
	ohlcv := store.NewFileStore(filepath.Join(dir, "ohlcv"), log)
	reg := registry.NewFSRegistry(filepath.Join(dir, "models"), log)

	p := New(
		ingest.NewService(&walkProvider{days: 140}, ohlcv, log),
		ohlcv,
		featurestore.New(filepath.Join(dir, "features.csv"), log),
		trainer.NewTrainer(reg, log),
		rank.NewPredictor(reg, log),
		nil,
		log,
	)

	path := writeUniverse(t, dir, []string{"AAA.NSE", "BBB.NSE", "CCC.NSE"})
	_, err := p.Run(context.Background(), testOptions(path))
	assert.NoError(t, err, "nil sink must be tolerated")
}
