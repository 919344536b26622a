package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Artmann/squeal/pkg/services"
)

// CreateConnectionTestRequest for POST body. The parameters have not been
// saved yet - this is the setup-time confidence check before registering.
type CreateConnectionTestRequest struct {
	Type           string         `json:"type"`
	ConnectionInfo map[string]any `json:"connectionInfo"`
}

// CreateConnectionTestResponse reports the outcome. Message carries the
// driver error when the check fails.
type CreateConnectionTestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ConnectionTestsHandler handles connectivity checks.
type ConnectionTestsHandler struct {
	connections services.ConnectionService
	logger      *zap.Logger
}

// NewConnectionTestsHandler creates a new connection tests handler.
func NewConnectionTestsHandler(connections services.ConnectionService, logger *zap.Logger) *ConnectionTestsHandler {
	return &ConnectionTestsHandler{
		connections: connections,
		logger:      logger,
	}
}

// RegisterRoutes registers the handler's routes on the given mux.
func (h *ConnectionTestsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /connection-tests", h.Create)
}

// Create handles POST /connection-tests.
func (h *ConnectionTestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateConnectionTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "Invalid JSON in request body."); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if req.ConnectionInfo == nil {
		if err := ValidationErrorResponse(w, map[string]string{"connectionInfo": "Required."}); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.connections.Test(r.Context(), req.Type, req.ConnectionInfo); err != nil {
		if err := WriteJSON(w, http.StatusInternalServerError, CreateConnectionTestResponse{
			Success: false,
			Message: err.Error(),
		}); err != nil {
			h.logger.Error("Failed to write response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, CreateConnectionTestResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
