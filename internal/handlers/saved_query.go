package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/qaharness/api-test-framework/api/v1"
	"github.com/qaharness/api-test-framework/internal/services"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CreateSavedQuery stores a builder configuration
// (POST /sql/queries)
func (h *Handler) CreateSavedQuery(c *gin.Context) {
	var req v1.SavedQueryRequest
	if !bind(c, &req) {
		return
	}

	q := req.ToModel()
	if err := h.querySrv.Save(c.Request.Context(), q); err != nil {
		failWithError(c, "saved_query_handler", err)
		return
	}

	c.JSON(http.StatusCreated, v1.Envelope{
		Code: http.StatusCreated,
		Msg:  "saved",
		Data: v1.NewSavedQueryFromModel(*q),
	})
}

// ListSavedQueries returns saved configurations with filtering and pagination
// (GET /sql/queries)
func (h *Handler) ListSavedQueries(c *gin.Context, params v1.SavedQueryListParams) {
	page := 1
	if params.Page > 0 {
		page = params.Page
	}
	pageSize := defaultPageSize
	if params.PageSize > 0 {
		pageSize = min(params.PageSize, maxPageSize)
	}

	result, err := h.querySrv.List(c.Request.Context(), services.SavedQueryListParams{
		Name:       params.Name,
		Aliases:    params.Aliases,
		Operations: v1.ParseOperations(params.Operation),
		Limit:      uint64(pageSize),
		Offset:     uint64((page - 1) * pageSize),
	})
	if err != nil {
		failWithError(c, "saved_query_handler", err)
		return
	}

	pageCount := (result.Total + pageSize - 1) / pageSize
	if pageCount == 0 {
		pageCount = 1
	}

	queries := make([]v1.SavedQuery, 0, len(result.Queries))
	for _, q := range result.Queries {
		queries = append(queries, v1.NewSavedQueryFromModel(q))
	}

	ok(c, v1.SavedQueryListResponse{
		Page:      page,
		PageCount: pageCount,
		Total:     result.Total,
		Queries:   queries,
	})
}

// GetSavedQuery returns one configuration without its password
// (GET /sql/queries/{id})
func (h *Handler) GetSavedQuery(c *gin.Context, id int64) {
	q, err := h.querySrv.Get(c.Request.Context(), id)
	if err != nil {
		failWithError(c, "saved_query_handler", err)
		return
	}

	ok(c, v1.NewSavedQueryFromModel(*q))
}

// (DELETE /sql/queries/{id})
func (h *Handler) DeleteSavedQuery(c *gin.Context, id int64) {
	if err := h.querySrv.Delete(c.Request.Context(), id); err != nil {
		failWithError(c, "saved_query_handler", err)
		return
	}

	ok(c, gin.H{"id": id})
}

// ExecSavedQuery regenerates and runs a stored configuration
// (POST /sql/queries/{id}/exec)
func (h *Handler) ExecSavedQuery(c *gin.Context, id int64) {
	result, err := h.querySrv.Exec(c.Request.Context(), id)
	if err != nil {
		failWithError(c, "saved_query_handler", err)
		return
	}

	ok(c, v1.NewSQLExecResponse(result))
}
