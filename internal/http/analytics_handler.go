package httpapi

import (
	"net/http"
	"strconv"

	"github.com/MKris124/poultry-manager/internal/analytics"
	"github.com/MKris124/poultry-manager/internal/service"

	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	logger    *zap.Logger
}

func NewAnalyticsHandler(a *service.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: a, logger: logger}
}

// Overview JSON 对象的键为合作方 ID 字符串
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.analytics.Overview(r.Context())
	if err != nil {
		writeError(w, h.logger, "analytics overview", err)
		return
	}
	out := make(map[string]analytics.PartnerStats, len(overview))
	for id, stats := range overview {
		out[strconv.FormatInt(id, 10)] = stats
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *AnalyticsHandler) PartnerStats(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(w, r); ok {
		h.writeStats(w, "partner stats")(h.analytics.PartnerStats(r.Context(), id))
	}
}

func (h *AnalyticsHandler) LocationStats(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(w, r); ok {
		h.writeStats(w, "location stats")(h.analytics.LocationStats(r.Context(), id))
	}
}

func (h *AnalyticsHandler) GrowerStats(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(w, r); ok {
		h.writeStats(w, "grower stats")(h.analytics.GrowerStats(r.Context(), id))
	}
}

func (h *AnalyticsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.analytics.Leaderboard(r.Context())
	if err != nil {
		writeError(w, h.logger, "leaderboard", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(board))
}

func (h *AnalyticsHandler) writeStats(w http.ResponseWriter, op string) func(analytics.PartnerStats, error) {
	return func(stats analytics.PartnerStats, err error) {
		if err != nil {
			writeError(w, h.logger, op, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(stats))
	}
}
