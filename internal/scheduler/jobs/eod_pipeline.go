package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/quantoracle/internal/pipeline"
	"github.com/wonny/quantoracle/pkg/logger"
)

// EODPipelineJob runs the full evening batch after the exchange close
// ⭐ SSOT: EOD 파이프라인 스케줄은 이 Job에서만
type EODPipelineJob struct {
	pipeline *pipeline.Pipeline
	opts     pipeline.Options
	logger   *logger.Logger
}

// NewEODPipelineJob creates the evening batch job
func NewEODPipelineJob(p *pipeline.Pipeline, opts pipeline.Options, log *logger.Logger) *EODPipelineJob {
	return &EODPipelineJob{
		pipeline: p,
		opts:     opts,
		logger:   log,
	}
}

// Name returns the job name
func (j *EODPipelineJob) Name() string {
	return "eod_pipeline"
}

// Schedule returns the cron schedule (18:30 daily, after vendor EOD data settles)
func (j *EODPipelineJob) Schedule() string {
	return "0 30 18 * * *" // with seconds
}

// Run executes the full ingest -> features -> train -> rank batch
func (j *EODPipelineJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled EOD pipeline")

	summary, err := j.pipeline.Run(ctx, j.opts)
	if err != nil {
		return fmt.Errorf("eod pipeline: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols":      summary.Symbols,
		"ingested":     summary.Ingested,
		"skipped":      summary.Skipped,
		"feature_rows": summary.FeatureRows,
		"version":      summary.VersionID,
		"ic":           summary.IC,
	}).Info("EOD pipeline finished")
	return nil
}
