package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/wonny/quantoracle/internal/contracts"
	"github.com/wonny/quantoracle/internal/featurestore"
	"github.com/wonny/quantoracle/internal/portfolio"
	"github.com/wonny/quantoracle/internal/rank"
	"github.com/wonny/quantoracle/internal/registry"
	"github.com/wonny/quantoracle/pkg/logger"
	"github.com/wonny/quantoracle/pkg/redis"
)

// PortfolioHandler builds a constrained long/short book from the latest model
type PortfolioHandler struct {
	registry  registry.Registry
	feats     *featurestore.Store
	predictor *rank.Predictor
	cache     *redis.Cache
	familyID  string
	logger    *logger.Logger
}

// NewPortfolioHandler creates a portfolio handler
func NewPortfolioHandler(
	reg registry.Registry,
	feats *featurestore.Store,
	predictor *rank.Predictor,
	cache *redis.Cache,
	familyID string,
	log *logger.Logger,
) *PortfolioHandler {
	return &PortfolioHandler{
		registry:  reg,
		feats:     feats,
		predictor: predictor,
		cache:     cache,
		familyID:  familyID,
		logger:    log,
	}
}

// PortfolioResponse is the GET /api/portfolio payload
type PortfolioResponse struct {
	Version     string               `json:"version"`
	AsOf        string               `json:"as_of"`
	Constraints contracts.Constraints `json:"constraints"`
	Weights     contracts.WeightMap  `json:"weights"`
	Gross       float64              `json:"gross"`
	Net         float64              `json:"net"`
}

// GetPortfolio returns long/short weights under the requested constraints
// GET /api/portfolio?long_n=10&short_n=10&gross=1.0&net=0.0&max_w=0.10
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	c, err := parseConstraints(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	version, ok, err := h.registry.ReadLatest(ctx, h.familyID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read latest model version")
		respondError(w, http.StatusInternalServerError, "Failed to read model registry")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "No model published yet")
		return
	}

	cacheKey := redis.PortfolioKey(version, constraintsHash(c))
	var resp PortfolioResponse
	if found, _ := h.cache.Get(ctx, cacheKey, &resp); found {
		respondJSON(w, http.StatusOK, resp)
		return
	}

	snapshot, err := h.feats.Snapshot(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load feature snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to load feature snapshot")
		return
	}
	if len(snapshot) == 0 {
		respondError(w, http.StatusNotFound, "Feature table is empty")
		return
	}

	preds, _, ok, err := h.predictor.PredictLatest(ctx, h.familyID, snapshot)
	if err != nil {
		h.logger.WithError(err).Error("Prediction failed")
		respondError(w, http.StatusInternalServerError, "Prediction failed")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "No model published yet")
		return
	}

	predMap := make(map[string]float64, len(preds))
	riskMap := make(map[string]float64, len(preds))
	for _, p := range preds {
		predMap[p.Symbol] = p.Pred
		riskMap[p.Symbol] = p.Risk
	}

	weights := portfolio.BuildLongShort(predMap, riskMap, c)
	resp = PortfolioResponse{
		Version:     version,
		AsOf:        snapshot[0].Date.Format("2006-01-02"),
		Constraints: c,
		Weights:     weights,
		Gross:       weights.Gross(),
		Net:         weights.Net(),
	}

	if err := h.cache.Set(ctx, cacheKey, resp, redis.TTLMedium); err != nil {
		h.logger.WithError(err).Warn("Failed to cache portfolio")
	}

	respondJSON(w, http.StatusOK, resp)
}

// parseConstraints reads constraint query params, defaulting each one
func parseConstraints(r *http.Request) (contracts.Constraints, error) {
	c := contracts.DefaultConstraints()
	q := r.URL.Query()

	intParams := map[string]*int{"long_n": &c.LongN, "short_n": &c.ShortN}
	for name, dst := range intParams {
		if raw := q.Get(name); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 0 {
				return c, fmt.Errorf("%s must be a non-negative integer", name)
			}
			*dst = v
		}
	}

	floatParams := map[string]*float64{"gross": &c.Gross, "net": &c.Net, "max_w": &c.MaxAbsWeight}
	for name, dst := range floatParams {
		if raw := q.Get(name); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return c, fmt.Errorf("%s must be a number", name)
			}
			*dst = v
		}
	}

	if c.Gross <= 0 || c.MaxAbsWeight <= 0 {
		return c, fmt.Errorf("gross and max_w must be positive")
	}
	return c, nil
}

func constraintsHash(c contracts.Constraints) string {
	return fmt.Sprintf("%d:%d:%g:%g:%g", c.LongN, c.ShortN, c.Gross, c.Net, c.MaxAbsWeight)
}
