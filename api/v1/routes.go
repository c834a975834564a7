package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface is implemented by the HTTP handlers.
type ServerInterface interface {
	// (POST /ssh/exec)
	ExecSSH(c *gin.Context)
	// (POST /sql/exec)
	ExecSQL(c *gin.Context)
	// (POST /sql/export)
	ExportSQL(c *gin.Context, params ExportParams)
	// (GET /env/list)
	ListEnvironments(c *gin.Context, params EnvListParams)
	// (GET /sql/meta)
	GetSQLMeta(c *gin.Context)
	// (POST /sql/generate)
	GenerateSQL(c *gin.Context)
	// (POST /sql/queries)
	CreateSavedQuery(c *gin.Context)
	// (GET /sql/queries)
	ListSavedQueries(c *gin.Context, params SavedQueryListParams)
	// (GET /sql/queries/{id})
	GetSavedQuery(c *gin.Context, id int64)
	// (DELETE /sql/queries/{id})
	DeleteSavedQuery(c *gin.Context, id int64)
	// (POST /sql/queries/{id}/exec)
	ExecSavedQuery(c *gin.Context, id int64)
}

type serverWrapper struct {
	handler ServerInterface
}

// RegisterHandlers mounts every route of the API on router.
func RegisterHandlers(router gin.IRouter, si ServerInterface) {
	w := &serverWrapper{handler: si}

	router.POST("/ssh/exec", si.ExecSSH)
	router.POST("/sql/exec", si.ExecSQL)
	router.POST("/sql/export", w.ExportSQL)
	router.GET("/env/list", w.ListEnvironments)
	router.GET("/sql/meta", si.GetSQLMeta)
	router.POST("/sql/generate", si.GenerateSQL)
	router.POST("/sql/queries", si.CreateSavedQuery)
	router.GET("/sql/queries", w.ListSavedQueries)
	router.GET("/sql/queries/:id", w.withID(si.GetSavedQuery))
	router.DELETE("/sql/queries/:id", w.withID(si.DeleteSavedQuery))
	router.POST("/sql/queries/:id/exec", w.withID(si.ExecSavedQuery))
}

func (w *serverWrapper) ExportSQL(c *gin.Context) {
	var params ExportParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "invalid format parameter: "+err.Error())
		return
	}
	w.handler.ExportSQL(c, params)
}

func (w *serverWrapper) ListEnvironments(c *gin.Context) {
	var params EnvListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "invalid detail parameter: "+err.Error())
		return
	}
	w.handler.ListEnvironments(c, params)
}

func (w *serverWrapper) ListSavedQueries(c *gin.Context) {
	var params SavedQueryListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	w.handler.ListSavedQueries(c, params)
}

func (w *serverWrapper) withID(fn func(*gin.Context, int64)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var id int64
		err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id, runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
		if err != nil {
			badRequest(c, fmt.Sprintf("Invalid format for parameter id: %s", err))
			return
		}
		if id <= 0 {
			badRequest(c, fmt.Sprintf("Invalid format for parameter id: %d is not positive", id))
			return
		}
		fn(c, id)
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Envelope{Code: http.StatusBadRequest, Msg: msg})
}
