package httpapi

import (
	"net/http"

	"github.com/MKris124/poultry-manager/internal/domain"
	"github.com/MKris124/poultry-manager/internal/service"

	"go.uber.org/zap"
)

type ShipmentHandler struct {
	shipments *service.ShipmentService
	logger    *zap.Logger
}

func NewShipmentHandler(shipments *service.ShipmentService, logger *zap.Logger) *ShipmentHandler {
	return &ShipmentHandler{shipments: shipments, logger: logger}
}

func (h *ShipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, "list shipments")(h.shipments.List(r.Context()))
}

func (h *ShipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.ShipmentRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body: "+err.Error()))
		return
	}
	sh, err := h.shipments.Create(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, "create shipment", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(sh))
}

func (h *ShipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req service.ShipmentRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body: "+err.Error()))
		return
	}
	sh, err := h.shipments.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, h.logger, "update shipment", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(sh))
}

func (h *ShipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.shipments.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, "delete shipment", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *ShipmentHandler) HistoryByPartner(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(w, r); ok {
		h.writeList(w, "partner history")(h.shipments.HistoryByPartner(r.Context(), id))
	}
}

// HistoryBatch 请求体为合作方 ID 数组
func (h *ShipmentHandler) HistoryBatch(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	if err := readBodyJSON(r, maxJSONBody, &ids); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("body must be a JSON array of partner ids"))
		return
	}
	h.writeList(w, "batch history")(h.shipments.HistoryByPartners(r.Context(), ids))
}

func (h *ShipmentHandler) HistoryByLocation(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(w, r); ok {
		h.writeList(w, "location history")(h.shipments.HistoryByLocation(r.Context(), id))
	}
}

func (h *ShipmentHandler) HistoryByGrower(w http.ResponseWriter, r *http.Request) {
	if id, ok := pathID(w, r); ok {
		h.writeList(w, "grower history")(h.shipments.HistoryByGrower(r.Context(), id))
	}
}

func (h *ShipmentHandler) writeList(w http.ResponseWriter, op string) func([]domain.Shipment, error) {
	return func(list []domain.Shipment, err error) {
		if err != nil {
			writeError(w, h.logger, op, err)
			return
		}
		if list == nil {
			list = []domain.Shipment{}
		}
		writeJSON(w, http.StatusOK, Ok(list))
	}
}
