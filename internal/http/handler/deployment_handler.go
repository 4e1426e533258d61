package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/repository"
	"github.com/vietbiz/crm-api/internal/service"
	"go.uber.org/zap"
)

type DeploymentHandler struct {
	deploymentService *service.DeploymentService
	logger            *zap.Logger
}

func NewDeploymentHandler(deploymentService *service.DeploymentService, logger *zap.Logger) *DeploymentHandler {
	return &DeploymentHandler{
		deploymentService: deploymentService,
		logger:            logger,
	}
}

// List godoc
// @Summary List customer deployments
// @Tags Deployments
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(LIVE, MAINTENANCE, DOWN, DEV)
// @Param customerId query string false "Filter by customer" format(uuid)
// @Param search query string false "Search by domain, server IP or customer"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.DeploymentDTO}
// @Failure 500 {object} domain.ErrorResponse
// @Router /deployments [get]
func (h *DeploymentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filters := &repository.DeploymentFilters{}
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.DeploymentStatus(s)
		filters.Status = &status
	}
	if c := r.URL.Query().Get("customerId"); c != "" {
		if customerID, err := uuid.Parse(c); err == nil {
			filters.CustomerID = &customerID
		}
	}
	if q := r.URL.Query().Get("search"); q != "" {
		filters.SearchQuery = &q
	}

	result, err := h.deploymentService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		h.logger.Error("failed to list deployments", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list deployments",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get deployment by ID
// @Tags Deployments
// @Produce json
// @Param id path string true "Deployment ID" format(uuid)
// @Success 200 {object} domain.DeploymentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /deployments/{id} [get]
func (h *DeploymentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid deployment ID format",
		})
		return
	}

	deployment, err := h.deploymentService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Deployment not found",
			})
			return
		}
		h.logger.Error("failed to get deployment", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get deployment",
		})
		return
	}

	respondJSON(w, http.StatusOK, deployment)
}

// Create godoc
// @Summary Register a deployment
// @Tags Deployments
// @Accept json
// @Produce json
// @Param request body domain.SaveDeploymentRequest true "Deployment data"
// @Success 201 {object} domain.DeploymentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Router /deployments [post]
func (h *DeploymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.SaveDeploymentRequest
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

	deployment, err := h.deploymentService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) || errors.Is(err, service.ErrInvalidConfig) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to create deployment", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create deployment",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/deployments/"+deployment.ID.String())
	respondJSON(w, http.StatusCreated, deployment)
}

// Update godoc
// @Summary Update deployment
// @Tags Deployments
// @Accept json
// @Produce json
// @Param id path string true "Deployment ID" format(uuid)
// @Param request body domain.SaveDeploymentRequest true "Deployment data"
// @Success 200 {object} domain.DeploymentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /deployments/{id} [put]
func (h *DeploymentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid deployment ID format",
		})
		return
	}

	var req domain.SaveDeploymentRequest
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

	deployment, err := h.deploymentService.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Deployment not found",
			})
			return
		}
		if errors.Is(err, service.ErrCustomerNotFound) || errors.Is(err, service.ErrInvalidConfig) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to update deployment", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update deployment",
		})
		return
	}

	respondJSON(w, http.StatusOK, deployment)
}

// Delete godoc
// @Summary Delete deployment
// @Tags Deployments
// @Param id path string true "Deployment ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /deployments/{id} [delete]
func (h *DeploymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid deployment ID format",
		})
		return
	}

	if err := h.deploymentService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Deployment not found",
			})
			return
		}
		h.logger.Error("failed to delete deployment", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete deployment",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
