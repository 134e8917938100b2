// Package trainer fits the cross-sectional ridge model on a feature table
// and publishes the result to the model registry.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/quantoracle/internal/contracts"
	"github.com/wonny/quantoracle/internal/registry"
	"github.com/wonny/quantoracle/internal/ridge"
)

// ErrInsufficientData means the feature table does not carry enough history
// to fit a trustworthy model. Training stops hard: publishing a model fitted
// on a sliver of data would poison every downstream ranking.
var ErrInsufficientData = errors.New("trainer: insufficient training data")

const (
	// minTrainDates/minTrainRows gate the fit itself
	minTrainDates = 50
	minTrainRows  = 100
	// below this many test rows the IC estimate is noise; report 0 instead
	minTestRows = 10

	dateLayout = "2006-01-02"
)

// Options controls one training run
type Options struct {
	Horizon int     // forward-return horizon in trading days
	Alpha   float64 // ridge regularization strength
	Cutoff  string  // train/test split date (YYYY-MM-DD); empty = 80th-percentile date

	// audit fields copied into meta.json
	Universe string
	Provider string
}

// Result is the outcome of a completed training run
type Result struct {
	VersionID string
	Meta      *contracts.ModelMeta
	Artifact  *contracts.ModelArtifact
}

// Trainer fits and publishes ridge models
type Trainer struct {
	registry registry.Registry
	log      zerolog.Logger
}

// NewTrainer creates a trainer publishing into the given registry
func NewTrainer(reg registry.Registry, log zerolog.Logger) *Trainer {
	return &Trainer{
		registry: reg,
		log:      log.With().Str("component", "trainer").Logger(),
	}
}

// Train fits a ridge model on the table's labeled rows, evaluates it on the
// held-out tail, and publishes artifact + meta + LATEST pointer in that order.
func (t *Trainer) Train(ctx context.Context, table *contracts.FeatureTable, opts Options) (*Result, error) {
	if opts.Horizon <= 0 {
		return nil, fmt.Errorf("trainer: horizon must be positive, got %d", opts.Horizon)
	}
	if opts.Alpha <= 0 {
		return nil, fmt.Errorf("trainer: alpha must be positive, got %g", opts.Alpha)
	}

	labeled := table.TrainingRows()
	if len(labeled) == 0 {
		return nil, fmt.Errorf("%w: no labeled rows", ErrInsufficientData)
	}

	labeledTable := contracts.FeatureTable{Rows: labeled}
	dates := labeledTable.DistinctDates()

	cutoff, err := resolveCutoff(dates, opts.Cutoff)
	if err != nil {
		return nil, err
	}

	var trainRows, testRows []contracts.FeatureRow
	trainDates := make(map[time.Time]bool)
	for _, r := range labeled {
		if !r.Date.After(cutoff) {
			trainRows = append(trainRows, r)
			trainDates[r.Date] = true
		} else {
			testRows = append(testRows, r)
		}
	}

	if len(trainDates) < minTrainDates {
		return nil, fmt.Errorf("%w: %d distinct train dates, need %d",
			ErrInsufficientData, len(trainDates), minTrainDates)
	}
	if len(trainRows) < minTrainRows {
		return nil, fmt.Errorf("%w: %d train rows, need %d",
			ErrInsufficientData, len(trainRows), minTrainRows)
	}

	xTrain, yTrain := designMatrix(trainRows)
	mu, sig := ridge.ZScoreFit(xTrain)

	w, err := ridge.FitRidge(ridge.ZScoreApply(xTrain, mu, sig), yTrain, opts.Alpha)
	if err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}

	artifact := &contracts.ModelArtifact{
		W:        w,
		Mu:       mu,
		Sig:      sig,
		Features: append([]string(nil), contracts.FeatureNames...),
	}

	ic, hitRate := evaluate(artifact, testRows)

	meta := &contracts.ModelMeta{
		Model:        "ridge",
		Horizon:      opts.Horizon,
		Alpha:        opts.Alpha,
		Features:     artifact.Features,
		Cutoff:       cutoff.Format(dateLayout),
		RowsTrain:    len(trainRows),
		RowsTest:     len(testRows),
		IC:           ic,
		HitRate:      hitRate,
		Universe:     opts.Universe,
		UniverseSize: countSymbols(labeled),
		Provider:     opts.Provider,
	}

	versionID := t.registry.GenerateVersionID()
	if err := registry.Publish(ctx, t.registry, meta.FamilyID(), versionID, artifact, meta); err != nil {
		return nil, fmt.Errorf("trainer: publish %s@%s: %w", meta.FamilyID(), versionID, err)
	}

	t.log.Info().
		Str("family", meta.FamilyID()).
		Str("version", versionID).
		Str("cutoff", meta.Cutoff).
		Int("rows_train", meta.RowsTrain).
		Int("rows_test", meta.RowsTest).
		Float64("ic", ic).
		Float64("hit_rate", hitRate).
		Msg("model published")

	return &Result{VersionID: versionID, Meta: meta, Artifact: artifact}, nil
}

// resolveCutoff parses an explicit cutoff or derives the 80th-percentile
// distinct date so roughly the last fifth of history is held out.
func resolveCutoff(dates []time.Time, explicit string) (time.Time, error) {
	if explicit != "" {
		cutoff, err := time.Parse(dateLayout, explicit)
		if err != nil {
			return time.Time{}, fmt.Errorf("trainer: invalid cutoff %q: %w", explicit, err)
		}
		return cutoff, nil
	}

	if len(dates) == 0 {
		return time.Time{}, fmt.Errorf("%w: no dates", ErrInsufficientData)
	}

	idx := len(dates) * 4 / 5
	if idx >= len(dates) {
		idx = len(dates) - 1
	}
	if idx > 0 {
		idx--
	}
	return dates[idx], nil
}

func designMatrix(rows []contracts.FeatureRow) (X [][]float64, y []float64) {
	X = make([][]float64, len(rows))
	y = make([]float64, len(rows))
	for i, r := range rows {
		X[i] = r.Vector()
		y[i] = *r.Target
	}
	return X, y
}

// evaluate scores the held-out rows: IC is the Pearson correlation between
// prediction and realized target, hit rate the sign-agreement fraction.
// Both collapse to 0 when the test set is too small to say anything.
func evaluate(artifact *contracts.ModelArtifact, testRows []contracts.FeatureRow) (ic, hitRate float64) {
	if len(testRows) <= minTestRows {
		return 0, 0
	}

	X, y := designMatrix(testRows)
	yhat := ridge.Predict(ridge.ZScoreApply(X, artifact.Mu, artifact.Sig), artifact.W)

	ic = stat.Correlation(yhat, y, nil)

	hits := 0
	for i := range y {
		if (yhat[i] > 0) == (y[i] > 0) {
			hits++
		}
	}
	hitRate = float64(hits) / float64(len(y))
	return ic, hitRate
}

func countSymbols(rows []contracts.FeatureRow) int {
	seen := make(map[string]bool)
	for _, r := range rows {
		seen[r.Symbol] = true
	}
	return len(seen)
}
