package handlers

import (
	"net/http"

	"hackreg/services"

	"go.uber.org/zap"
)

type StatsHandler struct {
	stats  *services.StatsService
	logger *zap.Logger
}

func NewStatsHandler(stats *services.StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, logger: logger}
}

func (h *StatsHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Collect(r.Context())
	if err != nil {
		h.logger.Error("failed to collect statistics", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
