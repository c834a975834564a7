// Package sqlbuilder turns a visual query description into SQL.
//
// Values are always bound as placeholders; the returned Statement carries
// both the executable SQL with its arguments and a display text with the
// arguments inlined. Identifiers (database, table, field names) are
// checked against a strict pattern since they cannot be bound.
//
// Conditions are joined in order. Each condition's Connector (AND or OR,
// default AND) links it to the next one; the last connector is ignored.
// Incomplete conditions are skipped: missing field or operator, an
// unknown operator, or a BETWEEN without exactly two values.
//
// UPDATE and DELETE refuse to run without at least one usable condition.
package sqlbuilder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
)

type Operation string

const (
	OperationSelect Operation = "SELECT"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

var (
	Operations = []Operation{OperationSelect, OperationUpdate, OperationDelete}
	Operators  = []string{
		"=", "!=", ">", ">=", "<", "<=",
		"LIKE", "NOT LIKE", "IN", "NOT IN",
		"BETWEEN", "NOT BETWEEN", "IS NULL", "IS NOT NULL",
	}
	Connectors = []string{"AND", "OR"}
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

type Condition struct {
	Field     string `json:"field"`
	Operator  string `json:"operator"`
	Value     string `json:"value"`
	Connector string `json:"connector,omitempty"`
}

type Assignment struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Params describes one visual query.
type Params struct {
	Operation    Operation    `json:"operation_type"`
	DBName       string       `json:"db_name,omitempty"`
	Table        string       `json:"table_name"`
	Fields       []string     `json:"fields,omitempty"`
	Conditions   []Condition  `json:"conditions,omitempty"`
	UpdateFields []Assignment `json:"update_fields,omitempty"`
	Limit        string       `json:"limit_num,omitempty"`
}

type Statement struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args"`
	// Text is the statement with arguments inlined, for display only.
	Text string `json:"text"`
}

// Build dispatches on p.Operation.
func Build(p Params) (*Statement, error) {
	switch Operation(strings.ToUpper(string(p.Operation))) {
	case OperationSelect:
		return Select(p)
	case OperationUpdate:
		return Update(p)
	case OperationDelete:
		return Delete(p)
	default:
		return nil, srvErrors.NewValidationError("operation_type", "unsupported operation %q", p.Operation)
	}
}

func Select(p Params) (*Statement, error) {
	table, err := tableName(p)
	if err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if f != "*" && !identifier.MatchString(f) {
			return nil, srvErrors.NewValidationError("fields", "invalid field name %q", f)
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		fields = []string{"*"}
	}

	where, err := whereClause(p.Conditions)
	if err != nil {
		return nil, err
	}

	b := sq.Select(fields...).From(table)
	if where != nil {
		b = b.Where(where)
	}
	if limit, ok := parseLimit(p.Limit); ok {
		b = b.Limit(limit)
	}

	return statement(b)
}

func Update(p Params) (*Statement, error) {
	table, err := tableName(p)
	if err != nil {
		return nil, err
	}
	if len(p.UpdateFields) == 0 {
		return nil, srvErrors.NewValidationError("update_fields", "must not be empty")
	}

	b := sq.Update(table)
	set := 0
	for _, a := range p.UpdateFields {
		field := strings.TrimSpace(a.Field)
		if field == "" || a.Value == "" {
			continue
		}
		if !identifier.MatchString(field) {
			return nil, srvErrors.NewValidationError("update_fields", "invalid field name %q", field)
		}
		b = b.Set(field, a.Value)
		set++
	}
	if set == 0 {
		return nil, srvErrors.NewValidationError("update_fields", "no field has both a name and a value")
	}

	where, err := whereClause(p.Conditions)
	if err != nil {
		return nil, err
	}
	if where == nil {
		return nil, srvErrors.NewValidationError("conditions", "UPDATE requires a WHERE condition")
	}

	return statement(b.Where(where))
}

func Delete(p Params) (*Statement, error) {
	table, err := tableName(p)
	if err != nil {
		return nil, err
	}

	where, err := whereClause(p.Conditions)
	if err != nil {
		return nil, err
	}
	if where == nil {
		return nil, srvErrors.NewValidationError("conditions", "DELETE requires a WHERE condition")
	}

	return statement(sq.Delete(table).Where(where))
}

func statement(b sq.Sqlizer) (*Statement, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, srvErrors.NewValidationError("", "cannot build sql: %v", err)
	}
	if args == nil {
		args = []any{}
	}
	return &Statement{SQL: query, Args: args, Text: sq.DebugSqlizer(b)}, nil
}

func tableName(p Params) (string, error) {
	table := strings.TrimSpace(p.Table)
	if table == "" {
		return "", srvErrors.NewValidationError("table_name", "must not be empty")
	}
	if !identifier.MatchString(table) {
		return "", srvErrors.NewValidationError("table_name", "invalid table name %q", table)
	}

	db := strings.TrimSpace(p.DBName)
	if db == "" {
		return table, nil
	}
	if !identifier.MatchString(db) {
		return "", srvErrors.NewValidationError("db_name", "invalid database name %q", db)
	}
	return db + "." + table, nil
}

func parseLimit(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	return n, err == nil
}

// chain joins predicates with per-predicate connectors, left to right.
type chain struct {
	parts      []sq.Sqlizer
	connectors []string
}

func (c chain) ToSql() (string, []any, error) {
	var sb strings.Builder
	args := make([]any, 0)
	for i, p := range c.parts {
		query, a, err := p.ToSql()
		if err != nil {
			return "", nil, err
		}
		if i > 0 {
			fmt.Fprintf(&sb, " %s ", c.connectors[i-1])
		}
		sb.WriteString(query)
		args = append(args, a...)
	}
	return sb.String(), args, nil
}

func whereClause(conds []Condition) (sq.Sqlizer, error) {
	c := chain{}
	for _, cond := range conds {
		pred, ok, err := predicate(cond)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		c.parts = append(c.parts, pred)
		c.connectors = append(c.connectors, connector(cond.Connector))
	}
	if len(c.parts) == 0 {
		return nil, nil
	}
	return c, nil
}

func connector(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), "OR") {
		return "OR"
	}
	return "AND"
}

func predicate(c Condition) (sq.Sqlizer, bool, error) {
	field := strings.TrimSpace(c.Field)
	op := strings.ToUpper(strings.Join(strings.Fields(c.Operator), " "))
	if field == "" || op == "" {
		return nil, false, nil
	}
	if !identifier.MatchString(field) {
		return nil, false, srvErrors.NewValidationError("conditions", "invalid field name %q", field)
	}

	switch op {
	case "=":
		return sq.Eq{field: c.Value}, true, nil
	case "!=":
		return sq.NotEq{field: c.Value}, true, nil
	case ">":
		return sq.Gt{field: c.Value}, true, nil
	case ">=":
		return sq.GtOrEq{field: c.Value}, true, nil
	case "<":
		return sq.Lt{field: c.Value}, true, nil
	case "<=":
		return sq.LtOrEq{field: c.Value}, true, nil
	case "LIKE":
		return sq.Like{field: "%" + c.Value + "%"}, true, nil
	case "NOT LIKE":
		return sq.NotLike{field: "%" + c.Value + "%"}, true, nil
	case "IN":
		return sq.Eq{field: splitValues(c.Value)}, true, nil
	case "NOT IN":
		return sq.NotEq{field: splitValues(c.Value)}, true, nil
	case "BETWEEN", "NOT BETWEEN":
		values := splitValues(c.Value)
		if len(values) != 2 {
			return nil, false, nil
		}
		return sq.Expr(field+" "+op+" ? AND ?", values[0], values[1]), true, nil
	case "IS NULL":
		return sq.Eq{field: nil}, true, nil
	case "IS NOT NULL":
		return sq.NotEq{field: nil}, true, nil
	}

	return nil, false, nil
}

func splitValues(s string) []any {
	parts := strings.Split(s, ",")
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
