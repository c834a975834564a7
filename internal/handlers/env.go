package handlers

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/qaharness/api-test-framework/api/v1"
)

// ListEnvironments returns the configured environment names, or summaries
// when detail=true
// (GET /env/list)
func (h *Handler) ListEnvironments(c *gin.Context, params v1.EnvListParams) {
	if !params.Detail {
		ok(c, h.envSrv.List())
		return
	}

	summaries := h.envSrv.Describe()
	envs := make([]v1.Environment, 0, len(summaries))
	for _, s := range summaries {
		envs = append(envs, v1.NewEnvironmentFromSummary(s))
	}
	ok(c, envs)
}
