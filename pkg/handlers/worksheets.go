package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Artmann/squeal/pkg/apperrors"
	"github.com/Artmann/squeal/pkg/services"
)

// CreateWorksheetRequest for POST body.
type CreateWorksheetRequest struct {
	Name string `json:"name"`
}

// UpdateWorksheetRequest for PATCH body. DatabaseID is a raw message so
// an explicit null (unbind) can be told apart from an absent field.
type UpdateWorksheetRequest struct {
	Name       *string         `json:"name"`
	Content    *string         `json:"content"`
	DatabaseID json.RawMessage `json:"databaseId"`
}

// WorksheetResponse wraps a single worksheet.
type WorksheetResponse struct {
	Worksheet WorksheetDto `json:"worksheet"`
}

// ListWorksheetsResponse wraps the listing.
type ListWorksheetsResponse struct {
	Worksheets []WorksheetDto `json:"worksheets"`
}

// WorksheetsHandler handles worksheet HTTP requests.
type WorksheetsHandler struct {
	worksheets services.WorksheetService
	logger     *zap.Logger
}

// NewWorksheetsHandler creates a new worksheets handler.
func NewWorksheetsHandler(worksheets services.WorksheetService, logger *zap.Logger) *WorksheetsHandler {
	return &WorksheetsHandler{
		worksheets: worksheets,
		logger:     logger,
	}
}

// RegisterRoutes registers the worksheets handler's routes on the given mux.
func (h *WorksheetsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /worksheets", h.Create)
	mux.HandleFunc("GET /worksheets", h.List)
	mux.HandleFunc("PATCH /worksheets/{id}", h.Update)
}

// Create handles POST /worksheets.
func (h *WorksheetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateWorksheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "Invalid JSON in request body."); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	ws, err := h.worksheets.Create(r.Context(), req.Name)
	if err != nil {
		h.logger.Error("Failed to create worksheet", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "Failed to create worksheet"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, WorksheetResponse{Worksheet: toWorksheetDto(ws)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /worksheets.
func (h *WorksheetsHandler) List(w http.ResponseWriter, r *http.Request) {
	worksheets, err := h.worksheets.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list worksheets", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "Failed to list worksheets"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	data := ListWorksheetsResponse{Worksheets: make([]WorksheetDto, len(worksheets))}
	for i, ws := range worksheets {
		data.Worksheets[i] = toWorksheetDto(ws)
	}

	if err := WriteJSON(w, http.StatusOK, data); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PATCH /worksheets/{id}.
func (h *WorksheetsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req UpdateWorksheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "Invalid JSON in request body."); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	serviceReq := &services.UpdateWorksheetRequest{
		Name:    req.Name,
		Content: req.Content,
	}

	if len(req.DatabaseID) > 0 {
		serviceReq.SetDatabaseID = true
		if string(req.DatabaseID) != "null" {
			var databaseID string
			if err := json.Unmarshal(req.DatabaseID, &databaseID); err != nil {
				if err := ValidationErrorResponse(w, map[string]string{"databaseId": "Expected string or null."}); err != nil {
					h.logger.Error("Failed to write error response", zap.Error(err))
				}
				return
			}
			serviceReq.DatabaseID = &databaseID
		}
	}

	ws, err := h.worksheets.Update(r.Context(), id, serviceReq)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "Worksheet not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to update worksheet",
			zap.String("worksheet_id", id),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "Failed to update worksheet"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, WorksheetResponse{Worksheet: toWorksheetDto(ws)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
