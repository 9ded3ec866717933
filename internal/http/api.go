package httpapi

import (
	"github.com/MKris124/poultry-manager/internal/metrics"
	"github.com/MKris124/poultry-manager/internal/repository"
	"github.com/MKris124/poultry-manager/internal/service"

	"go.uber.org/zap"
)

// Deps 组装全部路由所需的依赖
type Deps struct {
	Store       repository.Store
	Reports     *service.ImportReportStore // nil 时不保存导入报告
	Metrics     *metrics.ImportMetrics
	MaxUploadMB int
	Logger      *zap.Logger
}

// NewAPI 创建服务并注册全部路由
func NewAPI(d Deps) *Router {
	router := NewRouter(d.Logger)

	imports := service.NewImportService(d.Store, d.Reports, d.Metrics, d.Logger.Named("import"))
	exports := service.NewExportService(d.Store, d.Logger.Named("export"))
	router.RegisterImportRoutes(NewImportHandler(imports, d.Reports, exports, d.MaxUploadMB, d.Logger))

	router.RegisterPartnerRoutes(NewPartnerHandler(service.NewPartnerService(d.Store, d.Logger.Named("partner")), d.Logger))
	router.RegisterGrowerRoutes(NewGrowerHandler(service.NewGrowerService(d.Store, d.Logger.Named("grower")), d.Logger))
	router.RegisterShipmentRoutes(NewShipmentHandler(service.NewShipmentService(d.Store, d.Logger.Named("shipment")), d.Logger))
	router.RegisterAnalyticsRoutes(NewAnalyticsHandler(
		service.NewAnalyticsService(d.Store, d.Metrics, d.Logger.Named("analytics")), d.Logger))
	router.RegisterOpsRoutes()
	return router
}
