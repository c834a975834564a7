package store

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// QueryInterceptor wraps the database handle and debug-logs every statement.
type QueryInterceptor struct {
	db *sql.DB
}

func NewQueryInterceptor(db *sql.DB) QueryInterceptor {
	return QueryInterceptor{db: db}
}

func (qi QueryInterceptor) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := qi.db.QueryContext(ctx, query, args...)
	qi.log("query", query, args, start, err)
	return rows, err
}

func (qi QueryInterceptor) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := qi.db.QueryRowContext(ctx, query, args...)
	qi.log("query_row", query, args, start, row.Err())
	return row
}

func (qi QueryInterceptor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := qi.db.ExecContext(ctx, query, args...)
	qi.log("exec", query, args, start, err)
	return res, err
}

func (qi QueryInterceptor) log(op, query string, args []any, start time.Time, err error) {
	log := zap.S().Named("store")
	if err != nil {
		log.Debugw(op+" failed", "sql", query, "args", args, "duration", time.Since(start), "error", err)
		return
	}
	log.Debugw(op, "sql", query, "args", args, "duration", time.Since(start))
}
