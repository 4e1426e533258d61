package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/vietbiz/crm-api/internal/domain"
	"github.com/vietbiz/crm-api/internal/presence"
	"go.uber.org/zap"
)

// keepAliveInterval keeps idle SSE connections from being dropped by proxies
const keepAliveInterval = 30 * time.Second

type PresenceHandler struct {
	hub     *presence.Hub
	tracker *presence.Tracker
	logger  *zap.Logger
}

func NewPresenceHandler(hub *presence.Hub, tracker *presence.Tracker, logger *zap.Logger) *PresenceHandler {
	return &PresenceHandler{
		hub:     hub,
		tracker: tracker,
		logger:  logger,
	}
}

type heartbeatRequest struct {
	UserID   string `json:"userId" validate:"required"`
	FullName string `json:"fullName" validate:"required"`
	Page     string `json:"page"`
}

type leaveRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// Heartbeat godoc
// @Summary Presence heartbeat
// @Description Mark a user online. Clients call this every few seconds; users who stop age out automatically.
// @Tags Presence
// @Accept json
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Router /presence/heartbeat [post]
func (h *PresenceHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
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

	member := presence.Member{
		UserID:   req.UserID,
		FullName: req.FullName,
		Page:     req.Page,
	}
	if err := h.tracker.Heartbeat(r.Context(), member); err != nil {
		h.logger.Error("failed to record heartbeat", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to record heartbeat",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Leave godoc
// @Summary Presence leave
// @Description Remove a user from the online list immediately, typically on logout or tab close.
// @Tags Presence
// @Accept json
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Router /presence/leave [post]
func (h *PresenceHandler) Leave(w http.ResponseWriter, r *http.Request) {
	var req leaveRequest
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

	if err := h.tracker.Leave(r.Context(), req.UserID); err != nil {
		h.logger.Error("failed to record leave", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to record leave",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Snapshot godoc
// @Summary Current online users
// @Description Get the current online member list without subscribing to the stream
// @Tags Presence
// @Produce json
// @Success 200 {object} presence.Snapshot
// @Failure 500 {object} domain.ErrorResponse
// @Router /presence [get]
func (h *PresenceHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.tracker.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to build presence snapshot", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to build presence snapshot",
		})
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// Stream godoc
// @Summary Presence event stream
// @Description Subscribe to online member list updates over Server-Sent Events. Every event carries the full list; the client replaces its view wholesale.
// @Tags Presence
// @Produce text/event-stream
// @Success 200 {string} string "SSE stream"
// @Router /presence/stream [get]
func (h *PresenceHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Streaming not supported",
		})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	clientID := uuid.New().String()
	client := h.hub.Register(clientID)
	defer h.hub.Unregister(clientID)

	// Send the current list right away so the client doesn't wait for the
	// next change.
	if snapshot, err := h.tracker.Snapshot(r.Context()); err == nil {
		if data, err := json.Marshal(snapshot); err == nil {
			fmt.Fprintf(w, "event: presence\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case data, ok := <-client.Events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: presence\ndata: %s\n\n", data)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}
