package v1

import (
	"strings"
	"time"

	"github.com/qaharness/api-test-framework/internal/models"
	"github.com/qaharness/api-test-framework/internal/services"
	"github.com/qaharness/api-test-framework/pkg/sqlbuilder"
	"github.com/qaharness/api-test-framework/pkg/ssh"
)

func NewSSHExecResponse(r *ssh.Result) SSHExecResponse {
	return SSHExecResponse{
		Stdout:     r.Stdout,
		Stderr:     r.Stderr,
		ExitCode:   r.ExitCode,
		DurationMs: r.Duration.Milliseconds(),
	}
}

func NewSQLExecResponse(r *services.ExecResult) SQLExecResponse {
	return SQLExecResponse{
		SQL:        r.SQL,
		Read:       r.Read,
		Columns:    r.Columns,
		Rows:       r.Rows,
		RowCount:   len(r.Rows),
		Affected:   r.Affected,
		Truncated:  r.Truncated,
		DurationMs: r.Duration.Milliseconds(),
	}
}

// ToParams converts the builder form into sqlbuilder parameters.
func (p QueryParams) ToParams() sqlbuilder.Params {
	conds := make([]sqlbuilder.Condition, 0, len(p.Conditions))
	for _, c := range p.Conditions {
		conds = append(conds, sqlbuilder.Condition{
			Field:     c.Field,
			Operator:  strings.ToUpper(strings.TrimSpace(c.Operator)),
			Value:     c.Value,
			Connector: strings.ToUpper(strings.TrimSpace(c.Connector)),
		})
	}

	sets := make([]sqlbuilder.Assignment, 0, len(p.UpdateFields))
	for _, a := range p.UpdateFields {
		sets = append(sets, sqlbuilder.Assignment{Field: a.Field, Value: a.Value})
	}

	return sqlbuilder.Params{
		Operation:    sqlbuilder.Operation(strings.ToUpper(strings.TrimSpace(p.OperationType))),
		DBName:       p.DBName,
		Table:        p.TableName,
		Fields:       p.Fields,
		Conditions:   conds,
		UpdateFields: sets,
		Limit:        p.LimitNum,
	}
}

func NewGenerateResponse(stmt *sqlbuilder.Statement) GenerateResponse {
	return GenerateResponse{SQL: stmt.SQL, Args: stmt.Args, Text: stmt.Text}
}

func (r SavedQueryRequest) ToModel() *models.SavedQuery {
	p := r.ToParams()
	return &models.SavedQuery{
		ConfigName:   r.ConfigName,
		DBAlias:      r.DBAlias,
		DBHost:       r.DBHost,
		DBPort:       r.DBPort,
		DBUser:       r.DBUser,
		DBPassword:   r.DBPassword,
		DBName:       p.DBName,
		TableName:    p.Table,
		Operation:    p.Operation,
		Fields:       p.Fields,
		Conditions:   p.Conditions,
		UpdateFields: p.UpdateFields,
		LimitNum:     p.Limit,
		Remark:       r.Remark,
	}
}

// NewSavedQueryFromModel converts a stored query, dropping its password.
func NewSavedQueryFromModel(q models.SavedQuery) SavedQuery {
	conds := make([]Condition, 0, len(q.Conditions))
	for _, c := range q.Conditions {
		conds = append(conds, Condition(c))
	}
	sets := make([]Assignment, 0, len(q.UpdateFields))
	for _, a := range q.UpdateFields {
		sets = append(sets, Assignment(a))
	}
	fields := q.Fields
	if fields == nil {
		fields = []string{}
	}

	return SavedQuery{
		ID:            q.ID,
		ConfigName:    q.ConfigName,
		DBAlias:       q.DBAlias,
		DBHost:        q.DBHost,
		DBPort:        q.DBPort,
		DBUser:        q.DBUser,
		DBName:        q.DBName,
		TableName:     q.TableName,
		OperationType: string(q.Operation),
		Fields:        fields,
		Conditions:    conds,
		UpdateFields:  sets,
		LimitNum:      q.LimitNum,
		SQLText:       q.SQLText,
		Remark:        q.Remark,
		CreateTime:    q.CreatedAt.Format(time.DateTime),
	}
}

func NewMetaResponse(m services.Meta) MetaResponse {
	ops := make([]string, 0, len(m.Operations))
	for _, op := range m.Operations {
		ops = append(ops, string(op))
	}
	aliases := m.Aliases
	if aliases == nil {
		aliases = []string{}
	}
	return MetaResponse{
		OperationTypes: ops,
		Operators:      m.Operators,
		Connectors:     m.Connectors,
		Aliases:        aliases,
		MaxResultRows:  m.MaxResultRows,
	}
}

func NewEnvironmentFromSummary(s services.EnvSummary) Environment {
	return Environment(s)
}

// ParseOperations keeps the known operation types among values.
func ParseOperations(values []string) []sqlbuilder.Operation {
	var ops []sqlbuilder.Operation
	for _, v := range values {
		op := sqlbuilder.Operation(strings.ToUpper(strings.TrimSpace(v)))
		for _, known := range sqlbuilder.Operations {
			if op == known {
				ops = append(ops, op)
				break
			}
		}
	}
	return ops
}
