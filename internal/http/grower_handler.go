package httpapi

import (
	"net/http"

	"github.com/MKris124/poultry-manager/internal/service"

	"go.uber.org/zap"
)

type GrowerHandler struct {
	growers *service.GrowerService
	logger  *zap.Logger
}

func NewGrowerHandler(growers *service.GrowerService, logger *zap.Logger) *GrowerHandler {
	return &GrowerHandler{growers: growers, logger: logger}
}

func (h *GrowerHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.growers.List(r.Context())
	if err != nil {
		writeError(w, h.logger, "list growers", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

// ListWithStats 附带各合作方的供货数量
func (h *GrowerHandler) ListWithStats(w http.ResponseWriter, r *http.Request) {
	list, err := h.growers.ListWithStats(r.Context())
	if err != nil {
		writeError(w, h.logger, "list grower stats", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *GrowerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.GrowerRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	g, err := h.growers.Create(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "create grower", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(g))
}

func (h *GrowerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req service.GrowerRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	g, err := h.growers.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, h.logger, "update grower", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(g))
}

func (h *GrowerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.growers.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, "delete grower", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
