package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	v1 "github.com/qaharness/api-test-framework/api/v1"
	"github.com/qaharness/api-test-framework/internal/services"
	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
)

type Handler struct {
	envSrv   *services.EnvService
	sshSrv   *services.SSHService
	sqlSrv   *services.SQLService
	querySrv *services.SavedQueryService
}

func New(envSrv *services.EnvService, sshSrv *services.SSHService, sqlSrv *services.SQLService, querySrv *services.SavedQueryService) *Handler {
	return &Handler{
		envSrv:   envSrv,
		sshSrv:   sshSrv,
		sqlSrv:   sqlSrv,
		querySrv: querySrv,
	}
}

var _ v1.ServerInterface = (*Handler)(nil)

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, v1.Envelope{Code: http.StatusOK, Msg: "success", Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, v1.Envelope{Code: status, Msg: msg})
}

// failWithError maps err to a status and logs server-side failures.
func failWithError(c *gin.Context, name string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.S().Named(name).Errorw("request failed", "path", c.FullPath(), "error", err)
	}
	_ = c.Error(err)
	fail(c, status, err.Error())
}

func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs), srvErrors.IsValidationError(err):
		return http.StatusBadRequest
	case srvErrors.IsResourceNotFoundError(err):
		return http.StatusNotFound
	case srvErrors.IsResourceError(err), srvErrors.IsRetriesExhaustedError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type validatable interface {
	Validate() error
}

// bind decodes the JSON body into req and validates it. It writes the 400
// response itself and returns false on failure.
func bind(c *gin.Context, req validatable) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := req.Validate(); err != nil {
		fail(c, http.StatusBadRequest, describeValidation(err))
		return false
	}
	return true
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
