package handler

import (
	"net/http"
	"strconv"

	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	exportService    *service.ExportService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, exportService *service.ExportService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		exportService:    exportService,
		logger:           logger,
	}
}

// Metrics godoc
// @Summary Dashboard metrics
// @Description Get aggregate counts and pipeline totals for the dashboard landing page
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.DashboardMetrics
// @Failure 500 {object} domain.ErrorResponse
// @Router /dashboard/metrics [get]
func (h *DashboardHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.dashboardService.GetMetrics(r.Context())
	if err != nil {
		h.logger.Error("failed to build dashboard metrics", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to build dashboard metrics",
		})
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}

// DealsReport godoc
// @Summary Export deals report
// @Description Generate an Excel report of all deals and return it as a download
// @Tags Dashboard
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 500 {object} domain.ErrorResponse
// @Router /dashboard/deals-report.xlsx [get]
func (h *DashboardHandler) DealsReport(w http.ResponseWriter, r *http.Request) {
	export, err := h.exportService.DealsReport(r.Context(), nil)
	if err != nil {
		h.logger.Error("failed to export deals report", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to generate deals report",
		})
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	_, _ = w.Write(export.Data)
}
