package models

import (
	"time"

	"github.com/qaharness/api-test-framework/internal/config"
	"github.com/qaharness/api-test-framework/pkg/sqlbuilder"
)

// SavedQuery is a visual SQL configuration kept in the local store.
type SavedQuery struct {
	ID         int64
	ConfigName string
	DBAlias    string
	DBHost     string
	DBPort     int
	DBUser     string
	// DBPassword is plain text in memory and encrypted at rest.
	DBPassword   string
	DBName       string
	TableName    string
	Operation    sqlbuilder.Operation
	Fields       []string
	Conditions   []sqlbuilder.Condition
	UpdateFields []sqlbuilder.Assignment
	LimitNum     string
	SQLText      string
	Remark       string
	CreatedAt    time.Time
}

func (q SavedQuery) Params() sqlbuilder.Params {
	return sqlbuilder.Params{
		Operation:    q.Operation,
		DBName:       q.DBName,
		Table:        q.TableName,
		Fields:       q.Fields,
		Conditions:   q.Conditions,
		UpdateFields: q.UpdateFields,
		Limit:        q.LimitNum,
	}
}

// Target returns the database the query was saved against.
func (q SavedQuery) Target() config.DatabaseTarget {
	return config.DatabaseTarget{
		Host:     q.DBHost,
		Port:     q.DBPort,
		User:     q.DBUser,
		Password: q.DBPassword,
		Name:     q.DBName,
	}
}
