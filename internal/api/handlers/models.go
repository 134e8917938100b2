package handlers

import (
	"net/http"

	"github.com/wonny/quantoracle/internal/registry"
	"github.com/wonny/quantoracle/pkg/logger"
)

// ModelsHandler exposes the model registry read side
type ModelsHandler struct {
	registry registry.Registry
	familyID string
	logger   *logger.Logger
}

// NewModelsHandler creates a models handler
func NewModelsHandler(reg registry.Registry, familyID string, log *logger.Logger) *ModelsHandler {
	return &ModelsHandler{registry: reg, familyID: familyID, logger: log}
}

// GetLatest returns the currently published model version and its meta
// GET /api/models/latest
func (h *ModelsHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

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

	meta, _, ok, err := h.registry.LoadLatest(ctx, h.familyID)
	if err != nil || !ok {
		// pointer exists but files are unreadable: integrity fault
		h.logger.WithError(err).Error("Latest pointer references unreadable model")
		respondError(w, http.StatusInternalServerError, "Model registry integrity fault")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"family":  h.familyID,
		"version": version,
		"meta":    meta,
	})
}
