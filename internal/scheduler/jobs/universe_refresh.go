package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/quantoracle/internal/universe"
	"github.com/wonny/quantoracle/pkg/logger"
)

// UniverseRefreshJob re-scrapes the index constituents weekly.
// Constituent churn is slow; weekly keeps the universe file honest
// without hammering the exchange site.
type UniverseRefreshJob struct {
	scraper *universe.NSEScraper
	index   string
	path    string
	logger  *logger.Logger
}

// NewUniverseRefreshJob creates the weekly universe refresh job
func NewUniverseRefreshJob(scraper *universe.NSEScraper, index, path string, log *logger.Logger) *UniverseRefreshJob {
	return &UniverseRefreshJob{
		scraper: scraper,
		index:   index,
		path:    path,
		logger:  log,
	}
}

// Name returns the job name
func (j *UniverseRefreshJob) Name() string {
	return "universe_refresh"
}

// Schedule returns the cron schedule (Sunday 10:00, market closed)
func (j *UniverseRefreshJob) Schedule() string {
	return "0 0 10 * * 0" // with seconds
}

// Run scrapes the index and rewrites the universe file
func (j *UniverseRefreshJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled universe refresh")

	symbols, err := j.scraper.FetchIndex(ctx, j.index)
	if err != nil {
		return fmt.Errorf("universe refresh: %w", err)
	}

	if err := universe.WriteFile(j.path, symbols); err != nil {
		return fmt.Errorf("universe refresh: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"index":   j.index,
		"symbols": len(symbols),
		"path":    j.path,
	}).Info("Universe refreshed")
	return nil
}
