package v1

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/qaharness/api-test-framework/pkg/sqlbuilder"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("notblank", notBlank)
	_ = validate.RegisterValidation("sqloperator", oneOfFold(sqlbuilder.Operators))
	_ = validate.RegisterValidation("sqlconnector", oneOfFold(sqlbuilder.Connectors))

	ops := make([]string, 0, len(sqlbuilder.Operations))
	for _, op := range sqlbuilder.Operations {
		ops = append(ops, string(op))
	}
	_ = validate.RegisterValidation("sqloperation", oneOfFold(ops))
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// oneOfFold accepts values that match one of allowed ignoring case and
// surrounding spaces. Operators such as "NOT LIKE" contain spaces, which
// the builtin oneof tag cannot express.
func oneOfFold(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := strings.TrimSpace(fl.Field().String())
		for _, a := range allowed {
			if strings.EqualFold(v, a) {
				return true
			}
		}
		return false
	}
}

func (r *SSHExecRequest) Validate() error    { return validate.Struct(r) }
func (r *SQLExecRequest) Validate() error    { return validate.Struct(r) }
func (r *GenerateRequest) Validate() error   { return validate.Struct(r) }
func (r *SavedQueryRequest) Validate() error { return validate.Struct(r) }
