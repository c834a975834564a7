package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/qaharness/api-test-framework/api/v1"
	"github.com/qaharness/api-test-framework/internal/services"
)

// ExecSQL runs a raw statement against an environment or alias
// (POST /sql/exec)
func (h *Handler) ExecSQL(c *gin.Context) {
	var req v1.SQLExecRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.sqlSrv.Exec(c.Request.Context(), services.Target{Env: req.Env, Alias: req.Alias}, req.SQL)
	if err != nil {
		failWithError(c, "sql_handler", err)
		return
	}

	ok(c, v1.NewSQLExecResponse(result))
}

// ExportSQL downloads the rows of a read statement
// (POST /sql/export)
func (h *Handler) ExportSQL(c *gin.Context, params v1.ExportParams) {
	var req v1.SQLExecRequest
	if !bind(c, &req) {
		return
	}

	export, err := h.sqlSrv.Export(c.Request.Context(), services.Target{Env: req.Env, Alias: req.Alias}, req.SQL, params.Format)
	if err != nil {
		failWithError(c, "sql_handler", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}

// GetSQLMeta returns the builder's operation types, operators, connectors
// and database aliases
// (GET /sql/meta)
func (h *Handler) GetSQLMeta(c *gin.Context) {
	ok(c, v1.NewMetaResponse(h.sqlSrv.Meta()))
}

// GenerateSQL previews the statement for a builder form
// (POST /sql/generate)
func (h *Handler) GenerateSQL(c *gin.Context) {
	var req v1.GenerateRequest
	if !bind(c, &req) {
		return
	}

	stmt, err := h.sqlSrv.Generate(req.ToParams())
	if err != nil {
		failWithError(c, "sql_handler", err)
		return
	}

	ok(c, v1.NewGenerateResponse(stmt))
}
