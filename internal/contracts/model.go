package contracts

import "fmt"

// ModelArtifact holds the trained ridge model parameters.
// JSON field names are an on-disk compatibility surface
// (models/<family>/<version>/model.json) — do not rename.
type ModelArtifact struct {
	W        []float64 `json:"w"`
	Mu       []float64 `json:"mu"`
	Sig      []float64 `json:"sig"`
	Features []string  `json:"features"` // ordered, must match training feature set
}

// Validate checks internal dimensional consistency
func (a *ModelArtifact) Validate() error {
	n := len(a.Features)
	if n == 0 {
		return fmt.Errorf("model artifact: empty feature list")
	}
	if len(a.W) != n || len(a.Mu) != n || len(a.Sig) != n {
		return fmt.Errorf("model artifact: dimension mismatch (features=%d w=%d mu=%d sig=%d)",
			n, len(a.W), len(a.Mu), len(a.Sig))
	}
	for i, s := range a.Sig {
		// zero-variance columns are normalized to 1.0 at fit time
		if s == 0 {
			return fmt.Errorf("model artifact: sig[%d] is zero", i)
		}
	}
	return nil
}

// ModelMeta is the descriptive/audit record paired 1:1 with an artifact
// (models/<family>/<version>/meta.json)
type ModelMeta struct {
	Model        string   `json:"model"` // "ridge"
	Horizon      int      `json:"horizon"`
	Alpha        float64  `json:"alpha"`
	Features     []string `json:"features"`
	Cutoff       string   `json:"cutoff"` // train cutoff date, YYYY-MM-DD
	RowsTrain    int      `json:"rows_train"`
	RowsTest     int      `json:"rows_test"`
	IC           float64  `json:"ic"`
	HitRate      float64  `json:"hit_rate"`
	Universe     string   `json:"universe,omitempty"`
	UniverseSize int      `json:"universe_size,omitempty"`
	Provider     string   `json:"provider,omitempty"`
}

// FamilyID returns the registry family id for this model, e.g. "ridge_h5"
func (m *ModelMeta) FamilyID() string {
	return fmt.Sprintf("%s_h%d", m.Model, m.Horizon)
}

// Prediction is one symbol's score from the ranking service
type Prediction struct {
	Symbol string  `json:"symbol"`
	Pred   float64 `json:"pred"`
	Risk   float64 `json:"risk"` // vol_20d floored at a small epsilon
}
