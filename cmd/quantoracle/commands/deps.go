package commands

import (
	"fmt"

	"github.com/wonny/quantoracle/internal/featurestore"
	"github.com/wonny/quantoracle/internal/ingest"
	"github.com/wonny/quantoracle/internal/pipeline"
	"github.com/wonny/quantoracle/internal/rank"
	"github.com/wonny/quantoracle/internal/registry"
	"github.com/wonny/quantoracle/internal/store"
	"github.com/wonny/quantoracle/internal/trainer"
	"github.com/wonny/quantoracle/pkg/config"
	"github.com/wonny/quantoracle/pkg/database"
	"github.com/wonny/quantoracle/pkg/httputil"
	"github.com/wonny/quantoracle/pkg/logger"
)

// deps bundles the wiring every subcommand needs. One construction path
// keeps the CLI commands down to flag parsing and output.
type deps struct {
	cfg   *config.Config
	log   *logger.Logger
	reg   *registry.FSRegistry
	ohlcv store.OHLCVStore
	feats *featurestore.Store
}

func newDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)
	zlog := log.Zerolog()

	// DATABASE_URL switches the OHLCV backend from per-symbol CSV to Postgres
	var ohlcv store.OHLCVStore
	if cfg.Database.URL != "" {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		ohlcv = store.NewPostgresStore(db.Pool, zlog)
	} else {
		ohlcv = store.NewFileStore(cfg.OHLCVDir(), zlog)
	}

	return &deps{
		cfg:   cfg,
		log:   log,
		reg:   registry.NewFSRegistry(cfg.ModelsDir(), zlog),
		ohlcv: ohlcv,
		feats: featurestore.New(cfg.FeaturesPath(), zlog),
	}, nil
}

// familyID derives the registry family from the configured horizon
func (d *deps) familyID() string {
	return fmt.Sprintf("ridge_h%d", d.cfg.Pipeline.Horizon)
}

func (d *deps) httpClient() *httputil.Client {
	return httputil.New(d.cfg, d.log).WithRateLimit(d.cfg.EODHD.RateLimit)
}

func (d *deps) ingestService() *ingest.Service {
	zlog := d.log.Zerolog()
	client := ingest.NewEODHDClient(d.httpClient(), d.cfg.EODHD.BaseURL, d.cfg.EODHD.APIToken, zlog)
	return ingest.NewService(client, d.ohlcv, zlog)
}

func (d *deps) predictor() *rank.Predictor {
	return rank.NewPredictor(d.reg, d.log.Zerolog())
}

func (d *deps) trainer() *trainer.Trainer {
	return trainer.NewTrainer(d.reg, d.log.Zerolog())
}

func (d *deps) newPipeline(sink pipeline.Sink) *pipeline.Pipeline {
	return pipeline.New(
		d.ingestService(),
		d.ohlcv,
		d.feats,
		d.trainer(),
		d.predictor(),
		sink,
		d.log.Zerolog(),
	)
}

func (d *deps) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		UniversePath: d.cfg.Pipeline.UniverseFile,
		UniverseName: d.cfg.Pipeline.UniverseName,
		Horizon:      d.cfg.Pipeline.Horizon,
		Alpha:        d.cfg.Pipeline.Alpha,
		Provider:     d.cfg.Pipeline.Provider,
	}
}
