package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Artmann/squeal/pkg/apperrors"
	"github.com/Artmann/squeal/pkg/models"
	"github.com/Artmann/squeal/pkg/repositories"
	"github.com/Artmann/squeal/pkg/services"
)

// QueryDto matches the client's Query interface. Timestamps are epoch
// milliseconds; finishedAt, result, and error stay null while pending.
type QueryDto struct {
	ID          string              `json:"id"`
	Content     string              `json:"content"`
	DatabaseID  string              `json:"databaseId"`
	WorksheetID string              `json:"worksheetId"`
	QueriedAt   int64               `json:"queriedAt"`
	FinishedAt  *int64              `json:"finishedAt"`
	Result      *models.QueryResult `json:"result"`
	Error       *string             `json:"error"`
}

// CreateQueryRequest for POST body. The id is client-generated.
type CreateQueryRequest struct {
	ID          *string `json:"id"`
	Content     *string `json:"content"`
	DatabaseID  *string `json:"databaseId"`
	WorksheetID *string `json:"worksheetId"`
	QueriedAt   *int64  `json:"queriedAt"`
}

// CreateQueryResponse wraps the pending record.
type CreateQueryResponse struct {
	Query QueryDto `json:"query"`
}

// GetQueryResponse wraps a single record for polling clients.
type GetQueryResponse struct {
	Query QueryDto `json:"query"`
}

// ListQueriesResponse wraps the bounded listing.
type ListQueriesResponse struct {
	Queries []QueryDto `json:"queries"`
}

// QueriesHandler handles query submission and polling.
type QueriesHandler struct {
	runner services.QueryRunner
	logger *zap.Logger
}

// NewQueriesHandler creates a new queries handler.
func NewQueriesHandler(runner services.QueryRunner, logger *zap.Logger) *QueriesHandler {
	return &QueriesHandler{
		runner: runner,
		logger: logger,
	}
}

// RegisterRoutes registers the queries handler's routes on the given mux.
func (h *QueriesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /queries", h.Create)
	mux.HandleFunc("GET /queries/{id}", h.Get)
	mux.HandleFunc("GET /queries", h.List)
}

// Create handles POST /queries. It validates the submission, persists the
// pending record, and returns it without waiting for execution.
func (h *QueriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "Invalid JSON in request body."); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	details := make(map[string]string)
	if req.ID == nil || *req.ID == "" {
		details["id"] = "Required."
	}
	if req.Content == nil {
		details["content"] = "Required."
	}
	if req.DatabaseID == nil || *req.DatabaseID == "" {
		details["databaseId"] = "Required."
	}
	if req.WorksheetID == nil || *req.WorksheetID == "" {
		details["worksheetId"] = "Required."
	}
	if req.QueriedAt == nil {
		details["queriedAt"] = "Required."
	}
	if len(details) > 0 {
		if err := ValidationErrorResponse(w, details); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	query, err := h.runner.Submit(r.Context(), &services.SubmitQueryRequest{
		ID:          *req.ID,
		Content:     *req.Content,
		DatabaseID:  *req.DatabaseID,
		WorksheetID: *req.WorksheetID,
		QueriedAt:   *req.QueriedAt,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			if err := ErrorResponse(w, http.StatusConflict, "Query already exists"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to submit query",
			zap.String("query_id", *req.ID),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "Failed to submit query"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, CreateQueryResponse{Query: toQueryDto(query)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /queries/{id} - the polling path. The terminal record
// is retained, so polling after completion keeps returning the same state.
func (h *QueriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	query, err := h.runner.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "Query not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get query",
			zap.String("query_id", id),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "Failed to get query"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, GetQueryResponse{Query: toQueryDto(query)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /queries, bounded for diagnostics.
func (h *QueriesHandler) List(w http.ResponseWriter, r *http.Request) {
	queries, err := h.runner.List(r.Context(), repositories.MaxQueryListLimit)
	if err != nil {
		h.logger.Error("Failed to list queries", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "Failed to list queries"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	data := ListQueriesResponse{Queries: make([]QueryDto, len(queries))}
	for i, q := range queries {
		data.Queries[i] = toQueryDto(q)
	}

	if err := WriteJSON(w, http.StatusOK, data); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func toQueryDto(q *models.Query) QueryDto {
	return QueryDto{
		ID:          q.ID,
		Content:     q.Content,
		DatabaseID:  q.DatabaseID,
		WorksheetID: q.WorksheetID,
		QueriedAt:   q.QueriedAt,
		FinishedAt:  q.FinishedAt,
		Result:      q.Result,
		Error:       q.Error,
	}
}
