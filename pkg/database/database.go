// Package database wraps a single SQL connection for test assertions.
//
// The client connects lazily: Query and Execute open the connection on
// first use. Outside an explicit transaction every Execute runs in its own
// transaction that is committed on success and rolled back on failure.
// Between Begin and Commit/Rollback every statement joins the open
// transaction; a failing Execute rolls the whole transaction back.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/qaharness/api-test-framework/internal/config"
	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Client struct {
	driver string
	dsn    string
	name   string

	mu sync.Mutex
	db *sql.DB
	tx *sql.Tx
}

// New creates a client for any registered database/sql driver.
func New(driver, dsn string) *Client {
	return &Client{driver: driver, dsn: dsn, name: driver}
}

// NewMySQL creates a client for a MySQL target.
func NewMySQL(target config.DatabaseTarget, shared config.Database) *Client {
	cfg := mysql.NewConfig()
	cfg.User = target.User
	cfg.Passwd = target.Password
	cfg.Net = "tcp"
	cfg.Addr = target.Host + ":" + strconv.Itoa(target.Port)
	cfg.DBName = target.Name
	cfg.ParseTime = true
	cfg.Timeout = shared.Timeout

	charset := target.Charset
	if charset == "" {
		charset = shared.Charset
	}
	if charset != "" {
		cfg.Params = map[string]string{"charset": charset}
	}

	return &Client{driver: "mysql", dsn: cfg.FormatDSN(), name: fmt.Sprintf("mysql %s/%s", cfg.Addr, cfg.DBName)}
}

// Connect opens and pings the connection. Calling it again is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connect(ctx)
}

func (c *Client) connect(ctx context.Context) error {
	if c.db != nil {
		return nil
	}

	db, err := sql.Open(c.driver, c.dsn)
	if err != nil {
		return srvErrors.NewResourceError(c.name, "connect", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		zap.S().Named("database").Errorw("failed to connect", "target", c.name, "error", err)
		return srvErrors.NewResourceError(c.name, "connect", err)
	}

	c.db = db
	zap.S().Named("database").Infow("connected", "target", c.name)

	return nil
}

func (c *Client) conn() queryer {
	if c.tx != nil {
		return c.tx
	}
	return c.db
}

// Query runs a read statement and returns every row in column order.
func (c *Client) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	_, rows, err := c.QueryColumns(ctx, query, args...)
	return rows, err
}

// QueryColumns is Query that also returns the column names, which are
// known even when the statement matches no rows.
func (c *Client) QueryColumns(ctx context.Context, query string, args ...any) ([]string, []Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connect(ctx); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	rows, err := c.conn().QueryContext(ctx, query, args...)
	if err != nil {
		zap.S().Named("database").Errorw("query failed", "sql", query, "args", args, "error", err)
		return nil, nil, srvErrors.NewResourceError(c.name, "query", err)
	}
	defer rows.Close()

	columns, result, err := scanRows(rows)
	if err != nil {
		return nil, nil, srvErrors.NewResourceError(c.name, "query", err)
	}

	zap.S().Named("database").Debugw("query", "sql", query, "args", args, "rows", len(result), "duration", time.Since(start))

	return columns, result, nil
}

// QueryOne returns the first row or nil when there is none.
func (c *Client) QueryOne(ctx context.Context, query string, args ...any) (*Row, error) {
	rows, err := c.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Execute runs a write statement and returns the affected row count.
func (c *Client) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	return c.ExecuteMany(ctx, query, [][]any{args})
}

// ExecuteMany runs query once per argument set inside a single transaction.
func (c *Client) ExecuteMany(ctx context.Context, query string, argSets [][]any) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := zap.S().Named("database")

	if err := c.connect(ctx); err != nil {
		return 0, err
	}

	tx := c.tx
	owned := tx == nil
	if owned {
		var err error
		if tx, err = c.db.BeginTx(ctx, nil); err != nil {
			return 0, srvErrors.NewResourceError(c.name, "begin", err)
		}
	}

	var affected int64
	for _, args := range argSets {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			log.Errorw("execute failed, rolling back", "sql", query, "args", args, "error", err)
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Warnw("rollback failed", "error", rbErr)
			}
			c.tx = nil
			return 0, srvErrors.NewResourceError(c.name, "execute", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			affected += n
		}
	}

	if owned {
		if err := tx.Commit(); err != nil {
			return 0, srvErrors.NewResourceError(c.name, "commit", err)
		}
	}

	log.Debugw("execute", "sql", query, "sets", len(argSets), "affected", affected)

	return affected, nil
}

// Begin starts an explicit transaction.
func (c *Client) Begin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connect(ctx); err != nil {
		return err
	}
	if c.tx != nil {
		return srvErrors.NewValidationError("transaction", "already open")
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return srvErrors.NewResourceError(c.name, "begin", err)
	}
	c.tx = tx

	return nil
}

func (c *Client) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tx == nil {
		return srvErrors.NewValidationError("transaction", "not open")
	}
	err := c.tx.Commit()
	c.tx = nil
	if err != nil {
		return srvErrors.NewResourceError(c.name, "commit", err)
	}
	return nil
}

func (c *Client) Rollback() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tx == nil {
		return srvErrors.NewValidationError("transaction", "not open")
	}
	err := c.tx.Rollback()
	c.tx = nil
	if err != nil {
		return srvErrors.NewResourceError(c.name, "rollback", err)
	}
	return nil
}

// InTransaction reports whether Begin was called without a matching end.
func (c *Client) InTransaction() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tx != nil
}

// Close rolls back an open transaction and closes the connection.
// Failures are logged, never returned.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := zap.S().Named("database")

	if c.tx != nil {
		if err := c.tx.Rollback(); err != nil {
			log.Warnw("rollback on close failed", "target", c.name, "error", err)
		}
		c.tx = nil
	}

	if c.db == nil {
		return
	}
	if err := c.db.Close(); err != nil {
		log.Warnw("close failed", "target", c.name, "error", err)
	}
	c.db = nil

	log.Infow("connection closed", "target", c.name)
}
