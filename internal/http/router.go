package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（Go 1.22 起支持方法与路径参数）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 /metrics 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterImportRoutes Excel 导入、导出与模板
func (r *Router) RegisterImportRoutes(h *ImportHandler) {
	r.Handle("POST /api/import/excel", h.ImportExcel)
	r.Handle("GET /api/import/reports", h.ListReports)
	r.Handle("GET /api/import/reports/{id}", h.GetReport)
	r.Handle("GET /api/import/template", h.Template)
	r.Handle("POST /api/export/selected-partners", h.ExportSelectedPartners)
}

// RegisterPartnerRoutes 合作方与分组
func (r *Router) RegisterPartnerRoutes(h *PartnerHandler) {
	r.Handle("GET /api/partners", h.List)
	r.Handle("POST /api/partners", h.Create)
	r.Handle("PUT /api/partners/{id}", h.Update)
	r.Handle("DELETE /api/partners/{id}", h.Delete)
	r.Handle("DELETE /api/partners/delete-all", h.DeleteAll)

	r.Handle("GET /api/partners/groups", h.ListGroups)
	r.Handle("POST /api/partners/groups", h.CreateGroup)
	r.Handle("DELETE /api/partners/groups/{id}", h.DeleteGroup)
}

// RegisterGrowerRoutes 养殖户
func (r *Router) RegisterGrowerRoutes(h *GrowerHandler) {
	r.Handle("GET /api/growers", h.List)
	r.Handle("GET /api/growers/stats", h.ListWithStats)
	r.Handle("POST /api/growers", h.Create)
	r.Handle("PUT /api/growers/{id}", h.Update)
	r.Handle("DELETE /api/growers/{id}", h.Delete)
}

// RegisterShipmentRoutes 发货记录与历史
func (r *Router) RegisterShipmentRoutes(h *ShipmentHandler) {
	r.Handle("GET /api/shipments", h.List)
	r.Handle("POST /api/shipments", h.Create)
	r.Handle("PUT /api/shipments/{id}", h.Update)
	r.Handle("DELETE /api/shipments/{id}", h.Delete)
	r.Handle("GET /api/shipments/partner/{id}", h.HistoryByPartner)
	r.Handle("POST /api/shipments/history/batch", h.HistoryBatch)
	r.Handle("GET /api/shipments/location/{id}", h.HistoryByLocation)
	r.Handle("GET /api/shipments/grower/{id}", h.HistoryByGrower)
}

// RegisterAnalyticsRoutes 统计与排行
func (r *Router) RegisterAnalyticsRoutes(h *AnalyticsHandler) {
	r.Handle("GET /api/analytics/overview", h.Overview)
	r.Handle("GET /api/analytics/partner/{id}", h.PartnerStats)
	r.Handle("GET /api/analytics/location/{id}", h.LocationStats)
	r.Handle("GET /api/analytics/grower/{id}", h.GrowerStats)
	r.Handle("GET /api/analytics/leaderboard", h.Leaderboard)
}

// RegisterOpsRoutes 健康检查与 Prometheus 指标
func (r *Router) RegisterOpsRoutes() {
	r.Handle("GET /healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
	r.HandleHandler("GET /metrics", promhttp.Handler())
}
