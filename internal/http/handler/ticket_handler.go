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

type TicketHandler struct {
	ticketService *service.TicketService
	logger        *zap.Logger
}

func NewTicketHandler(ticketService *service.TicketService, logger *zap.Logger) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		logger:        logger,
	}
}

// List godoc
// @Summary List support tickets
// @Tags Tickets
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(OPEN, IN_PROGRESS, RESOLVED, CLOSED)
// @Param priority query string false "Filter by priority" Enums(LOW, NORMAL, HIGH, URGENT)
// @Param customerId query string false "Filter by customer" format(uuid)
// @Param assignedTo query string false "Filter by assignee" format(uuid)
// @Param search query string false "Search by subject"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.TicketDTO}
// @Failure 500 {object} domain.ErrorResponse
// @Router /tickets [get]
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filters := &repository.TicketFilters{}
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.TicketStatus(s)
		filters.Status = &status
	}
	if p := r.URL.Query().Get("priority"); p != "" {
		priority := domain.TicketPriority(p)
		filters.Priority = &priority
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

	result, err := h.ticketService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		h.logger.Error("failed to list tickets", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list tickets",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get ticket by ID
// @Tags Tickets
// @Produce json
// @Param id path string true "Ticket ID" format(uuid)
// @Success 200 {object} domain.TicketDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /tickets/{id} [get]
func (h *TicketHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid ticket ID format",
		})
		return
	}

	ticket, err := h.ticketService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Ticket not found",
			})
			return
		}
		h.logger.Error("failed to get ticket", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get ticket",
		})
		return
	}

	respondJSON(w, http.StatusOK, ticket)
}

// Create godoc
// @Summary Create ticket
// @Tags Tickets
// @Accept json
// @Produce json
// @Param request body domain.CreateTicketRequest true "Ticket data"
// @Success 201 {object} domain.TicketDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Router /tickets [post]
func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTicketRequest
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

	ticket, err := h.ticketService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) || errors.Is(err, service.ErrUserNotFound) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to create ticket", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create ticket",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/tickets/"+ticket.ID.String())
	respondJSON(w, http.StatusCreated, ticket)
}

// Update godoc
// @Summary Update ticket
// @Tags Tickets
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID" format(uuid)
// @Param request body domain.UpdateTicketRequest true "Ticket data"
// @Success 200 {object} domain.TicketDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /tickets/{id} [put]
func (h *TicketHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid ticket ID format",
		})
		return
	}

	var req domain.UpdateTicketRequest
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

	ticket, err := h.ticketService.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Ticket not found",
			})
			return
		}
		h.logger.Error("failed to update ticket", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update ticket",
		})
		return
	}

	respondJSON(w, http.StatusOK, ticket)
}

// Delete godoc
// @Summary Delete ticket
// @Tags Tickets
// @Param id path string true "Ticket ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /tickets/{id} [delete]
func (h *TicketHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid ticket ID format",
		})
		return
	}

	if err := h.ticketService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Ticket not found",
			})
			return
		}
		h.logger.Error("failed to delete ticket", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete ticket",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
