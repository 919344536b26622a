package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Artmann/squeal/pkg/apperrors"
	"github.com/Artmann/squeal/pkg/models"
	"github.com/Artmann/squeal/pkg/services"
)

// DatabaseDto matches the client's Database interface.
type DatabaseDto struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	ConnectionInfo map[string]any `json:"connectionInfo"`
	CreatedAt      int64          `json:"createdAt"`
}

// WorksheetDto matches the client's Worksheet interface.
type WorksheetDto struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Content    string  `json:"content"`
	DatabaseID *string `json:"databaseId"`
	CreatedAt  int64   `json:"createdAt"`
}

// CreateDatabaseRequest for POST body.
type CreateDatabaseRequest struct {
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	ConnectionInfo map[string]any `json:"connectionInfo"`
}

// UpdateDatabaseRequest for PATCH body (all fields optional).
type UpdateDatabaseRequest struct {
	Name           *string        `json:"name"`
	ConnectionInfo map[string]any `json:"connectionInfo"`
}

// CreateDatabaseResponse wraps the new record. UpdatedWorksheet is set
// when registering the first database bound the sole unbound worksheet.
type CreateDatabaseResponse struct {
	Database         DatabaseDto   `json:"database"`
	UpdatedWorksheet *WorksheetDto `json:"updatedWorksheet,omitempty"`
}

// UpdateDatabaseResponse wraps the updated record.
type UpdateDatabaseResponse struct {
	Database DatabaseDto `json:"database"`
}

// ListDatabasesResponse wraps the listing.
type ListDatabasesResponse struct {
	Databases []DatabaseDto `json:"databases"`
}

// DeleteDatabaseResponse for delete result.
type DeleteDatabaseResponse struct {
	Success bool `json:"success"`
}

// DatabasesHandler handles database registry HTTP requests.
type DatabasesHandler struct {
	databases services.DatabaseService
	logger    *zap.Logger
}

// NewDatabasesHandler creates a new databases handler.
func NewDatabasesHandler(databases services.DatabaseService, logger *zap.Logger) *DatabasesHandler {
	return &DatabasesHandler{
		databases: databases,
		logger:    logger,
	}
}

// RegisterRoutes registers the databases handler's routes on the given mux.
func (h *DatabasesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /databases", h.Create)
	mux.HandleFunc("GET /databases", h.List)
	mux.HandleFunc("PATCH /databases/{id}", h.Update)
	mux.HandleFunc("DELETE /databases/{id}", h.Delete)
}

// Create handles POST /databases.
func (h *DatabasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDatabaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "Invalid JSON in request body."); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	details := make(map[string]string)
	if req.Name == "" {
		details["name"] = "Required."
	}
	if req.ConnectionInfo == nil {
		details["connectionInfo"] = "Required."
	}
	if len(details) > 0 {
		if err := ValidationErrorResponse(w, details); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	db, boundWorksheet, err := h.databases.Create(r.Context(), &services.CreateDatabaseRequest{
		Name:           req.Name,
		Type:           req.Type,
		ConnectionInfo: req.ConnectionInfo,
	})
	if err != nil {
		h.logger.Error("Failed to create database",
			zap.String("name", req.Name),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "Failed to create database"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := CreateDatabaseResponse{Database: toDatabaseDto(db)}
	if boundWorksheet != nil {
		dto := toWorksheetDto(boundWorksheet)
		response.UpdatedWorksheet = &dto
	}

	if err := WriteJSON(w, http.StatusCreated, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /databases. Soft-deleted databases are not returned.
func (h *DatabasesHandler) List(w http.ResponseWriter, r *http.Request) {
	databases, err := h.databases.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list databases", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "Failed to list databases"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	data := ListDatabasesResponse{Databases: make([]DatabaseDto, len(databases))}
	for i, db := range databases {
		data.Databases[i] = toDatabaseDto(db)
	}

	if err := WriteJSON(w, http.StatusOK, data); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PATCH /databases/{id}.
func (h *DatabasesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req UpdateDatabaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "Invalid JSON in request body."); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	db, err := h.databases.Update(r.Context(), id, &services.UpdateDatabaseRequest{
		Name:           req.Name,
		ConnectionInfo: req.ConnectionInfo,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "Database not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to update database",
			zap.String("database_id", id),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "Failed to update database"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, UpdateDatabaseResponse{Database: toDatabaseDto(db)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /databases/{id} (soft delete).
func (h *DatabasesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.databases.Delete(r.Context(), id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "Database not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to delete database",
			zap.String("database_id", id),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "Failed to delete database"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, DeleteDatabaseResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func toDatabaseDto(db *models.Database) DatabaseDto {
	return DatabaseDto{
		ID:             db.ID,
		Name:           db.Name,
		Type:           db.Type,
		ConnectionInfo: db.ConnectionInfo,
		CreatedAt:      db.CreatedAt.UnixMilli(),
	}
}

func toWorksheetDto(ws *models.Worksheet) WorksheetDto {
	return WorksheetDto{
		ID:         ws.ID,
		Name:       ws.Name,
		Content:    ws.Content,
		DatabaseID: ws.DatabaseID,
		CreatedAt:  ws.CreatedAt.UnixMilli(),
	}
}
