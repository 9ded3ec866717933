package httpapi

import (
	"net/http"

	"github.com/MKris124/poultry-manager/internal/service"

	"go.uber.org/zap"
)

// ImportHandler Excel 导入/导出
type ImportHandler struct {
	imports   *service.ImportService
	reports   *service.ImportReportStore // 可为 nil
	exports   *service.ExportService
	maxUpload int64
	logger    *zap.Logger
}

func NewImportHandler(imports *service.ImportService, reports *service.ImportReportStore, exports *service.ExportService, maxUploadMB int, logger *zap.Logger) *ImportHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &ImportHandler{
		imports:   imports,
		reports:   reports,
		exports:   exports,
		maxUpload: int64(maxUploadMB) << 20,
		logger:    logger,
	}
}

// ImportExcel multipart 字段 "file"
func (h *ImportHandler) ImportExcel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("failed to parse form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("file not found in request"))
		return
	}
	defer file.Close()

	report, err := h.imports.ImportWorkbook(r.Context(), service.ImportWorkbookRequest{
		FileName: header.Filename,
		Body:     file,
	})
	if err != nil {
		writeError(w, h.logger, "import", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(report))
}

func (h *ImportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		writeJSON(w, http.StatusOK, Ok([]service.ImportReport{}))
		return
	}
	list, err := h.reports.List(r.Context())
	if err != nil {
		writeError(w, h.logger, "list import reports", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *ImportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		writeJSON(w, http.StatusNotFound, Fail("import reports are not kept"))
		return
	}
	report, err := h.reports.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "get import report", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(report))
}

func (h *ImportHandler) Template(w http.ResponseWriter, r *http.Request) {
	data, err := h.exports.Template()
	if err != nil {
		writeError(w, h.logger, "generate template", err)
		return
	}
	writeExcel(w, service.TemplateFileName, data)
}

// ExportSelectedPartners 请求体为合作方 ID 数组
func (h *ImportHandler) ExportSelectedPartners(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	if err := readBodyJSON(r, maxJSONBody, &ids); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("body must be a JSON array of partner ids"))
		return
	}
	data, err := h.exports.ExportSelectedPartners(r.Context(), ids)
	if err != nil {
		writeError(w, h.logger, "export", err)
		return
	}
	writeExcel(w, service.ExportFileName, data)
}
