package handlers

import (
	"net/http"
	"strconv"

	"github.com/wonny/quantoracle/internal/contracts"
	"github.com/wonny/quantoracle/internal/featurestore"
	"github.com/wonny/quantoracle/internal/rank"
	"github.com/wonny/quantoracle/internal/registry"
	"github.com/wonny/quantoracle/pkg/logger"
	"github.com/wonny/quantoracle/pkg/redis"
)

const defaultTopN = 10

// RankingsHandler serves the latest cross-sectional ranking
// ⭐ SSOT: 랭킹 API 핸들러는 이 구조체에서만
type RankingsHandler struct {
	registry  registry.Registry
	feats     *featurestore.Store
	predictor *rank.Predictor
	cache     *redis.Cache
	familyID  string
	logger    *logger.Logger
}

// NewRankingsHandler creates a rankings handler. cache may be a disabled client.
func NewRankingsHandler(
	reg registry.Registry,
	feats *featurestore.Store,
	predictor *rank.Predictor,
	cache *redis.Cache,
	familyID string,
	log *logger.Logger,
) *RankingsHandler {
	return &RankingsHandler{
		registry:  reg,
		feats:     feats,
		predictor: predictor,
		cache:     cache,
		familyID:  familyID,
		logger:    log,
	}
}

// RankingsResponse is the GET /api/rankings payload
type RankingsResponse struct {
	Version string            `json:"version"`
	AsOf    string            `json:"as_of"`
	N       int               `json:"n"`
	Top     []RankingsItem    `json:"top"`
	Bottom  []RankingsItem    `json:"bottom"`
}

// RankingsItem is one ranked symbol
type RankingsItem struct {
	Rank   int     `json:"rank"`
	Symbol string  `json:"symbol"`
	Pred   float64 `json:"pred"`
	Risk   float64 `json:"risk"`
}

// GetRankings returns the top/bottom N symbols by predicted return
// GET /api/rankings?n=10
func (h *RankingsHandler) GetRankings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n := defaultTopN
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			respondError(w, http.StatusBadRequest, "n must be an integer in [1, 500]")
			return
		}
		n = parsed
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

	cacheKey := redis.RankingsKey(version, n)
	var resp RankingsResponse
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

	top, bottom := rank.TopBottom(preds, n)
	resp = RankingsResponse{
		Version: version,
		AsOf:    snapshot[0].Date.Format("2006-01-02"),
		N:       n,
		Top:     toItems(top),
		Bottom:  toItems(bottom),
	}

	if err := h.cache.Set(ctx, cacheKey, resp, redis.TTLMedium); err != nil {
		h.logger.WithError(err).Warn("Failed to cache rankings")
	}

	respondJSON(w, http.StatusOK, resp)
}

func toItems(preds []contracts.Prediction) []RankingsItem {
	items := make([]RankingsItem, len(preds))
	for i, p := range preds {
		items[i] = RankingsItem{Rank: i + 1, Symbol: p.Symbol, Pred: p.Pred, Risk: p.Risk}
	}
	return items
}
