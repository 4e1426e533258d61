package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/repository"
	"github.com/vietbiz/crm-api/internal/service"
	"go.uber.org/zap"
)

type DealHandler struct {
	dealService   *service.DealService
	exportService *service.ExportService
	logger        *zap.Logger
}

func NewDealHandler(dealService *service.DealService, exportService *service.ExportService, logger *zap.Logger) *DealHandler {
	return &DealHandler{
		dealService:   dealService,
		exportService: exportService,
		logger:        logger,
	}
}

// List godoc
// @Summary List deals
// @Description Get paginated list of deals with optional filters
// @Tags Deals
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param stage query string false "Filter by stage" Enums(NEW, NEGOTIATION, WON, LOST)
// @Param customerId query string false "Filter by customer" format(uuid)
// @Param assignedTo query string false "Filter by assignee" format(uuid)
// @Param search query string false "Search by title or customer name"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.DealDTO}
// @Failure 500 {object} domain.ErrorResponse
// @Router /deals [get]
func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filters := &repository.DealFilters{}
	if s := r.URL.Query().Get("stage"); s != "" {
		stage := domain.DealStage(s)
		filters.Stage = &stage
	}
	if c := r.URL.Query().Get("customerId"); c != "" {
		if customerID, err := uuid.Parse(c); err == nil {
			filters.CustomerID = &customerID
		}
	}
	if a := r.URL.Query().Get("assignedTo"); a != "" {
		if assignedTo, err := uuid.Parse(a); err == nil {
			filters.AssignedTo = &assignedTo
		}
	}
	if q := r.URL.Query().Get("search"); q != "" {
		filters.SearchQuery = &q
	}

	result, err := h.dealService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		h.logger.Error("failed to list deals", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list deals",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get deal by ID
// @Description Get a deal with its quote line items
// @Tags Deals
// @Produce json
// @Param id path string true "Deal ID" format(uuid)
// @Success 200 {object} domain.DealDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /deals/{id} [get]
func (h *DealHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid deal ID format",
		})
		return
	}

	deal, err := h.dealService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrDealNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Deal not found",
			})
			return
		}
		h.logger.Error("failed to get deal", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get deal",
		})
		return
	}

	respondJSON(w, http.StatusOK, deal)
}

// Create godoc
// @Summary Create deal
// @Description Create a deal with its quote line items. The stored total is always computed from the submitted items; catalog lines are re-snapshotted from the live catalog with any submitted price override applied on top.
// @Tags Deals
// @Accept json
// @Produce json
// @Param request body domain.SaveDealRequest true "Deal data"
// @Success 201 {object} domain.DealDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Router /deals [post]
func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.SaveDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	deal, err := h.dealService.Create(r.Context(), &req)
	if err != nil {
		h.respondSaveError(w, err, "failed to create deal")
		return
	}

	w.Header().Set("Location", "/api/v1/deals/"+deal.ID.String())
	respondJSON(w, http.StatusCreated, deal)
}

// Update godoc
// @Summary Update deal
// @Description Replace a deal's header and full line item set atomically. Either the whole save lands or nothing does.
// @Tags Deals
// @Accept json
// @Produce json
// @Param id path string true "Deal ID" format(uuid)
// @Param request body domain.SaveDealRequest true "Deal data"
// @Success 200 {object} domain.DealDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Router /deals/{id} [put]
func (h *DealHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid deal ID format",
		})
		return
	}

	var req domain.SaveDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	deal, err := h.dealService.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrDealNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Deal not found",
			})
			return
		}
		h.respondSaveError(w, err, "failed to update deal")
		return
	}

	respondJSON(w, http.StatusOK, deal)
}

// respondSaveError maps deal save failures to responses. Reference and quote
// problems are the caller's fault; everything else is a 500.
func (h *DealHandler) respondSaveError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrCustomerRequired),
		errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrInvalidStage),
		errors.Is(err, service.ErrInvalidInput):
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: err.Error(),
		})
	default:
		h.logger.Error(logMsg, zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to save deal",
		})
	}
}

// Delete godoc
// @Summary Delete deal
// @Description Delete a deal with its line items and stage history
// @Tags Deals
// @Param id path string true "Deal ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /deals/{id} [delete]
func (h *DealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid deal ID format",
		})
		return
	}

	if err := h.dealService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrDealNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Deal not found",
			})
			return
		}
		h.logger.Error("failed to delete deal", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete deal",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateStage godoc
// @Summary Update deal stage
// @Description Move a deal to a different pipeline stage. The change is recorded in the stage history.
// @Tags Deals
// @Accept json
// @Produce json
// @Param id path string true "Deal ID" format(uuid)
// @Param request body domain.UpdateDealStageRequest true "New stage"
// @Success 200 {object} domain.DealDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /deals/{id}/stage [patch]
func (h *DealHandler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid deal ID format",
		})
		return
	}

	var req domain.UpdateDealStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	deal, err := h.dealService.UpdateStage(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrDealNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Deal not found",
			})
			return
		}
		if errors.Is(err, service.ErrInvalidStage) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid deal stage",
			})
			return
		}
		h.logger.Error("failed to update deal stage", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update deal stage",
		})
		return
	}

	respondJSON(w, http.StatusOK, deal)
}

// StageHistory godoc
// @Summary Get deal stage history
// @Description Get the stage change history for a deal, newest first
// @Tags Deals
// @Produce json
// @Param id path string true "Deal ID" format(uuid)
// @Success 200 {array} domain.DealStageHistoryDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /deals/{id}/stage-history [get]
func (h *DealHandler) StageHistory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid deal ID format",
		})
		return
	}

	history, err := h.dealService.GetStageHistory(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrDealNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Deal not found",
			})
			return
		}
		h.logger.Error("failed to get stage history", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get stage history",
		})
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// ExportPDF godoc
// @Summary Export quote as PDF
// @Description Generate a quotation PDF for the deal and return it as a download
// @Tags Deals
// @Produce application/pdf
// @Param id path string true "Deal ID" format(uuid)
// @Success 200 {file} binary
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /deals/{id}/quote.pdf [get]
func (h *DealHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid deal ID format",
		})
		return
	}

	export, err := h.exportService.QuotePDF(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrDealNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Deal not found",
			})
			return
		}
		h.logger.Error("failed to export quote pdf", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to generate quote PDF",
		})
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	_, _ = w.Write(export.Data)
}

// PrintView godoc
// @Summary Quote print view
// @Description Render the quote as a printable HTML page. The browser's print dialog handles the rest.
// @Tags Deals
// @Produce html
// @Param id path string true "Deal ID" format(uuid)
// @Success 200 {string} string "HTML page"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /deals/{id}/quote/print [get]
func (h *DealHandler) PrintView(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid deal ID format",
		})
		return
	}

	export, err := h.exportService.QuotePrintView(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrDealNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Deal not found",
			})
			return
		}
		h.logger.Error("failed to render quote print view", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to render quote print view",
		})
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	_, _ = w.Write(export.Data)
}
