package httpapi

import (
	"net/http"

	"github.com/MKris124/poultry-manager/internal/service"

	"go.uber.org/zap"
)

// PartnerHandler 合作方与分组
type PartnerHandler struct {
	partners *service.PartnerService
	logger   *zap.Logger
}

func NewPartnerHandler(partners *service.PartnerService, logger *zap.Logger) *PartnerHandler {
	return &PartnerHandler{partners: partners, logger: logger}
}

func (h *PartnerHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.partners.List(r.Context())
	if err != nil {
		writeError(w, h.logger, "list partners", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *PartnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePartnerRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	p, err := h.partners.Create(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "create partner", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(p))
}

func (h *PartnerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req service.UpdatePartnerRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	p, err := h.partners.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, h.logger, "update partner", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

func (h *PartnerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.partners.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, "delete partner", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *PartnerHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.partners.DeleteAll(r.Context()); err != nil {
		writeError(w, h.logger, "delete all", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *PartnerHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.partners.ListGroups(r.Context())
	if err != nil {
		writeError(w, h.logger, "list groups", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(groups))
}

func (h *PartnerHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req service.CreateGroupRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	g, err := h.partners.CreateGroup(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "create group", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(g))
}

func (h *PartnerHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.partners.DeleteGroup(r.Context(), id); err != nil {
		writeError(w, h.logger, "delete group", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
