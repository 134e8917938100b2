// Package pipeline sequences the evening batch: ingest vendor history,
// rebuild the feature table, retrain the model, and score the latest
// cross-section. Stages own their logic; this is only the driver.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/quantoracle/internal/contracts"
	"github.com/wonny/quantoracle/internal/features"
	"github.com/wonny/quantoracle/internal/featurestore"
	"github.com/wonny/quantoracle/internal/ingest"
	"github.com/wonny/quantoracle/internal/rank"
	"github.com/wonny/quantoracle/internal/store"
	"github.com/wonny/quantoracle/internal/trainer"
	"github.com/wonny/quantoracle/internal/universe"
)

// Event is one progress notification from a pipeline run
type Event struct {
	Stage string    `json:"stage"`
	Msg   string    `json:"msg"`
	At    time.Time `json:"at"`
}

// Sink receives pipeline events; the API websocket hub implements it
type Sink interface {
	Publish(Event)
}

// Options configures one pipeline run
type Options struct {
	UniversePath string
	UniverseName string
	Horizon      int
	Alpha        float64
	Provider     string
	LookbackDays int // ingest window; 0 = full history
}

// Summary reports what a completed run produced
type Summary struct {
	Symbols     int
	Ingested    int
	Skipped     int
	FeatureRows int
	VersionID   string
	IC          float64
	HitRate     float64
	Ranked      int
}

// Pipeline wires the batch stages together
type Pipeline struct {
	ingestSvc *ingest.Service
	ohlcv     store.OHLCVStore
	featStore *featurestore.Store
	trainer   *trainer.Trainer
	predictor *rank.Predictor
	sink      Sink
	log       zerolog.Logger
}

// New creates a pipeline. sink may be nil.
func New(
	ingestSvc *ingest.Service,
	ohlcv store.OHLCVStore,
	featStore *featurestore.Store,
	tr *trainer.Trainer,
	predictor *rank.Predictor,
	sink Sink,
	log zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		ingestSvc: ingestSvc,
		ohlcv:     ohlcv,
		featStore: featStore,
		trainer:   tr,
		predictor: predictor,
		sink:      sink,
		log:       log.With().Str("component", "pipeline").Logger(),
	}
}

func (p *Pipeline) emit(stage, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.log.Info().Str("stage", stage).Msg(msg)
	if p.sink != nil {
		p.sink.Publish(Event{Stage: stage, Msg: msg, At: time.Now().UTC()})
	}
}

// Run executes the full batch. ErrInsufficientData from training is a hard
// failure: the previous model stays published and the run reports the error.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Summary, error) {
	summary := &Summary{}

	symbols, err := universe.Load(opts.UniversePath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("pipeline: universe %s is empty", opts.UniversePath)
	}
	summary.Symbols = len(symbols)

	// stage 1: vendor history
	p.emit("ingest", "ingesting %d symbols", len(symbols))
	var from time.Time
	if opts.LookbackDays > 0 {
		from = time.Now().UTC().AddDate(0, 0, -opts.LookbackDays)
	}
	ingestRes, err := p.ingestSvc.IngestSymbols(ctx, symbols, from)
	if err != nil {
		return nil, fmt.Errorf("pipeline: ingest: %w", err)
	}
	summary.Ingested = ingestRes.Fetched
	summary.Skipped = ingestRes.Skipped
	p.emit("ingest", "ingested %d symbols, skipped %d", ingestRes.Fetched, ingestRes.Skipped)

	// stage 2: feature table
	p.emit("features", "building feature table")
	table, err := p.buildFeatureTable(ctx, symbols, opts.Horizon)
	if err != nil {
		return nil, fmt.Errorf("pipeline: features: %w", err)
	}
	summary.FeatureRows = len(table.Rows)
	if err := p.featStore.Write(ctx, table); err != nil {
		return nil, fmt.Errorf("pipeline: features: %w", err)
	}
	p.emit("features", "%d feature rows written", len(table.Rows))

	// stage 3: train + publish
	p.emit("train", "training ridge model, horizon=%d alpha=%g", opts.Horizon, opts.Alpha)
	trainRes, err := p.trainer.Train(ctx, table, trainer.Options{
		Horizon:  opts.Horizon,
		Alpha:    opts.Alpha,
		Universe: opts.UniverseName,
		Provider: opts.Provider,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: train: %w", err)
	}
	summary.VersionID = trainRes.VersionID
	summary.IC = trainRes.Meta.IC
	summary.HitRate = trainRes.Meta.HitRate
	p.emit("train", "published %s (ic=%.4f hit=%.3f)", trainRes.VersionID, trainRes.Meta.IC, trainRes.Meta.HitRate)

	// stage 4: score latest cross-section
	p.emit("rank", "scoring latest snapshot")
	snapshot := table.Snapshot(table.LatestDate())
	preds, _, ok, err := p.predictor.PredictLatest(ctx, trainRes.Meta.FamilyID(), snapshot)
	if err != nil {
		return nil, fmt.Errorf("pipeline: rank: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("pipeline: rank: model %s not readable after publish", trainRes.VersionID)
	}
	summary.Ranked = len(preds)
	p.emit("rank", "scored %d symbols", len(preds))

	p.emit("done", "pipeline complete, model %s", trainRes.VersionID)
	return summary, nil
}

// buildFeatureTable rebuilds the cross-sectional table from stored history.
// Symbols without stored bars are skipped; the trainer decides whether what
// remains is enough.
func (p *Pipeline) buildFeatureTable(ctx context.Context, symbols []string, horizon int) (*contracts.FeatureTable, error) {
	table := &contracts.FeatureTable{}
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		series, err := p.ohlcv.ReadOHLCV(ctx, symbol)
		if err != nil {
			p.log.Warn().Err(err).Str("symbol", symbol).Msg("no stored history, skipping")
			continue
		}
		table.Rows = append(table.Rows, features.BuildSymbolRows(series, horizon)...)
	}
	return table, nil
}
