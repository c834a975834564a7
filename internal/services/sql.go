package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qaharness/api-test-framework/internal/config"
	"github.com/qaharness/api-test-framework/internal/util"
	"github.com/qaharness/api-test-framework/pkg/database"
	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
	"github.com/qaharness/api-test-framework/pkg/sqlbuilder"
)

const defaultEnv = "test"

var (
	readKeywords = []string{"SELECT", "SHOW", "DESC", "DESCRIBE", "EXPLAIN"}
	hasLimit     = regexp.MustCompile(`(?i)\bLIMIT\b`)
)

// DatabaseFactory builds a fresh client for one request.
type DatabaseFactory func(target config.DatabaseTarget) *database.Client

// Target names the database a statement runs against. Alias wins over Env.
type Target struct {
	Env   string
	Alias string
}

type ExecResult struct {
	SQL      string
	Read     bool
	Columns  []string
	Rows     []database.Row
	Affected int64
	// Truncated is set when rows beyond the result cap were dropped.
	Truncated bool
	Duration  time.Duration
}

type SQLService struct {
	cfg       *config.Configuration
	newClient DatabaseFactory
}

func NewSQLService(cfg *config.Configuration, factory DatabaseFactory) *SQLService {
	if factory == nil {
		factory = func(t config.DatabaseTarget) *database.Client {
			return database.NewMySQL(t, cfg.Database)
		}
	}
	return &SQLService{cfg: cfg, newClient: factory}
}

// Resolve returns the database coordinates for t.
func (s *SQLService) Resolve(t Target) (config.DatabaseTarget, error) {
	if t.Alias != "" {
		return s.cfg.DatabaseAlias(t.Alias)
	}

	name := t.Env
	if name == "" {
		name = defaultEnv
	}
	env, err := s.cfg.Environment(name)
	if err != nil {
		return config.DatabaseTarget{}, err
	}
	if env.DBHost == "" {
		return config.DatabaseTarget{}, srvErrors.NewValidationError("env", "environment %q has no database configured", name)
	}
	return env.DatabaseTarget(s.cfg.Database), nil
}

// Exec runs a raw statement. Read statements return rows, others return the
// affected row count.
func (s *SQLService) Exec(ctx context.Context, t Target, query string) (*ExecResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, srvErrors.NewValidationError("sql", "must not be empty")
	}

	target, err := s.Resolve(t)
	if err != nil {
		return nil, err
	}

	if IsReadStatement(query) {
		query = LimitReadStatement(query, s.maxRows())
	}

	return s.run(ctx, target, query)
}

// ExecStatement runs a generated statement with its bound arguments.
func (s *SQLService) ExecStatement(ctx context.Context, target config.DatabaseTarget, stmt *sqlbuilder.Statement) (*ExecResult, error) {
	return s.run(ctx, target, stmt.SQL, stmt.Args...)
}

func (s *SQLService) run(ctx context.Context, target config.DatabaseTarget, query string, args ...any) (*ExecResult, error) {
	log := zap.S().Named("sql_service")

	client := s.newClient(target)
	defer client.Close()

	start := time.Now()
	result := &ExecResult{SQL: query, Read: IsReadStatement(query)}

	if result.Read {
		columns, rows, err := client.QueryColumns(ctx, query, args...)
		if err != nil {
			log.Errorw("query failed", "host", target.Host, "database", target.Name, "error", err)
			return nil, err
		}
		if limit := s.maxRows(); len(rows) > limit {
			rows = rows[:limit]
			result.Truncated = true
		}
		result.Rows = rows
		result.Columns = columns
	} else {
		n, err := client.Execute(ctx, query, args...)
		if err != nil {
			log.Errorw("statement failed", "host", target.Host, "database", target.Name, "error", err)
			return nil, err
		}
		result.Affected = n
	}

	result.Duration = time.Since(start)
	log.Infow("sql executed", "host", target.Host, "database", target.Name, "read", result.Read, "rows", len(result.Rows), "affected", result.Affected, "duration", result.Duration)

	return result, nil
}

func (s *SQLService) maxRows() int {
	if s.cfg.Web.MaxResultRows > 0 {
		return s.cfg.Web.MaxResultRows
	}
	return 100
}

// Generate builds a statement from visual builder parameters.
func (s *SQLService) Generate(p sqlbuilder.Params) (*sqlbuilder.Statement, error) {
	return sqlbuilder.Build(p)
}

// Meta is what the visual builder needs to render its form.
type Meta struct {
	Operations    []sqlbuilder.Operation
	Operators     []string
	Connectors    []string
	Aliases       []string
	MaxResultRows int
}

func (s *SQLService) Meta() Meta {
	return Meta{
		Operations:    sqlbuilder.Operations,
		Operators:     sqlbuilder.Operators,
		Connectors:    sqlbuilder.Connectors,
		Aliases:       s.cfg.DatabaseAliases(),
		MaxResultRows: s.maxRows(),
	}
}

// IsReadStatement reports whether query starts with a keyword that returns rows.
func IsReadStatement(query string) bool {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return false
	}
	return util.Contains(readKeywords, strings.ToUpper(strings.TrimRight(fields[0], ";")))
}

// LimitReadStatement appends a LIMIT to SELECT statements that have none.
// Other read statements are capped after the fact.
func LimitReadStatement(query string, limit int) string {
	query = strings.TrimRight(strings.TrimSpace(query), ";")
	fields := strings.Fields(query)
	if len(fields) == 0 || strings.ToUpper(fields[0]) != "SELECT" || hasLimit.MatchString(query) {
		return query
	}
	return query + " LIMIT " + strconv.Itoa(limit)
}
