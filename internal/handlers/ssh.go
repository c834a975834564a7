package handlers

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/qaharness/api-test-framework/api/v1"
)

// ExecSSH runs a command on the environment's ssh host
// (POST /ssh/exec)
func (h *Handler) ExecSSH(c *gin.Context) {
	var req v1.SSHExecRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.sshSrv.Exec(c.Request.Context(), req.Env, req.Command)
	if err != nil {
		failWithError(c, "ssh_handler", err)
		return
	}

	ok(c, v1.NewSSHExecResponse(result))
}
