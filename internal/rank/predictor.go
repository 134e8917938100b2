// Package rank scores a cross-sectional feature snapshot with the latest
// registered model and produces ranked top/bottom lists.
package rank

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/wonny/quantoracle/internal/contracts"
	"github.com/wonny/quantoracle/internal/registry"
	"github.com/wonny/quantoracle/internal/ridge"
)

// ErrSchemaMismatch means the snapshot's feature columns do not match the
// artifact's recorded feature names. Proceeding would silently corrupt
// predictions, so this is a hard failure.
var ErrSchemaMismatch = errors.New("rank: snapshot schema does not match model feature names")

// riskFloor guarantees downstream division safety for the risk proxy
const riskFloor = 1e-6

// Predictor scores feature snapshots against registry models
type Predictor struct {
	registry registry.Registry
	log      zerolog.Logger
}

// NewPredictor creates a new cross-sectional predictor
func NewPredictor(reg registry.Registry, log zerolog.Logger) *Predictor {
	return &Predictor{
		registry: reg,
		log:      log.With().Str("component", "rank.predictor").Logger(),
	}
}

// PredictCrossSection scores every symbol in the snapshot with the given
// artifact. The snapshot must serve the feature columns in exactly the
// order the artifact recorded at training time.
func PredictCrossSection(snapshot []contracts.FeatureRow, artifact *contracts.ModelArtifact) ([]contracts.Prediction, error) {
	if len(snapshot) == 0 {
		return nil, nil
	}
	if err := artifact.Validate(); err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}

	// Column order is load-bearing: mu/sig/w are positional
	if len(artifact.Features) != len(contracts.FeatureNames) {
		return nil, fmt.Errorf("%w: artifact has %d features, snapshot serves %d",
			ErrSchemaMismatch, len(artifact.Features), len(contracts.FeatureNames))
	}
	for i, name := range artifact.Features {
		if name != contracts.FeatureNames[i] {
			return nil, fmt.Errorf("%w: position %d is %q, artifact expects %q",
				ErrSchemaMismatch, i, contracts.FeatureNames[i], name)
		}
	}

	X := make([][]float64, len(snapshot))
	for i, row := range snapshot {
		X[i] = row.Vector()
	}

	Xz := ridge.ZScoreApply(X, artifact.Mu, artifact.Sig)
	yhat := ridge.Predict(Xz, artifact.W)

	preds := make([]contracts.Prediction, len(snapshot))
	for i, row := range snapshot {
		risk := row.Vol20D
		if risk < riskFloor {
			risk = riskFloor
		}
		preds[i] = contracts.Prediction{
			Symbol: row.Symbol,
			Pred:   yhat[i],
			Risk:   risk,
		}
	}
	return preds, nil
}

// PredictLatest loads the family's latest model and scores the snapshot.
// Returns ok=false when no model has been published yet; a pointer to a
// missing artifact degrades the same way but is logged as an integrity fault.
func (p *Predictor) PredictLatest(ctx context.Context, familyID string, snapshot []contracts.FeatureRow) ([]contracts.Prediction, *contracts.ModelMeta, bool, error) {
	meta, artifact, ok, err := p.registry.LoadLatest(ctx, familyID)
	if err != nil {
		if errors.Is(err, registry.ErrArtifactMissing) {
			// degrade to "no model available", but keep the discrepancy visible
			p.log.Error().Err(err).Str("family", familyID).Msg("registry integrity fault, serving no model")
			return nil, nil, false, nil
		}
		return nil, nil, false, err
	}
	if !ok {
		return nil, nil, false, nil
	}

	preds, err := PredictCrossSection(snapshot, artifact)
	if err != nil {
		return nil, nil, false, err
	}

	p.log.Info().
		Str("family", familyID).
		Int("symbols", len(preds)).
		Msg("cross-section scored")
	return preds, meta, true, nil
}

// TopBottom returns the n highest-scoring symbols (descending) and the n
// lowest (ascending, most negative first). With fewer than 2n symbols the
// two lists may overlap; the portfolio constructor deduplicates.
func TopBottom(preds []contracts.Prediction, n int) (top, bottom []contracts.Prediction) {
	if len(preds) == 0 || n <= 0 {
		return nil, nil
	}

	sorted := make([]contracts.Prediction, len(preds))
	copy(sorted, preds)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Pred > sorted[j].Pred })

	if n > len(sorted) {
		n = len(sorted)
	}

	top = make([]contracts.Prediction, n)
	copy(top, sorted[:n])

	bottom = make([]contracts.Prediction, n)
	copy(bottom, sorted[len(sorted)-n:])
	// ascending by pred: most negative first
	for i, j := 0, len(bottom)-1; i < j; i, j = i+1, j-1 {
		bottom[i], bottom[j] = bottom[j], bottom[i]
	}
	return top, bottom
}
