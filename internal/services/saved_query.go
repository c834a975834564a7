package services

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/qaharness/api-test-framework/internal/config"
	"github.com/qaharness/api-test-framework/internal/models"
	"github.com/qaharness/api-test-framework/internal/store"
	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
	"github.com/qaharness/api-test-framework/pkg/sqlbuilder"
)

type SavedQueryService struct {
	store *store.Store
	sql   *SQLService
}

func NewSavedQueryService(st *store.Store, sqlSrv *SQLService) *SavedQueryService {
	return &SavedQueryService{store: st, sql: sqlSrv}
}

type SavedQueryListParams struct {
	Name       string
	Aliases    []string
	Operations []sqlbuilder.Operation
	Limit      uint64
	Offset     uint64
}

type SavedQueryListResult struct {
	Queries []models.SavedQuery
	Total   int
}

// Save validates q by generating its SQL, then stores it. When q names an
// alias without coordinates the alias target is copied in.
func (s *SavedQueryService) Save(ctx context.Context, q *models.SavedQuery) error {
	if q.DBAlias != "" && q.DBHost == "" {
		target, err := s.sql.Resolve(Target{Alias: q.DBAlias})
		if err != nil {
			return err
		}
		q.DBHost = target.Host
		q.DBPort = target.Port
		q.DBUser = target.User
		q.DBPassword = target.Password
		if q.DBName == "" {
			q.DBName = target.Name
		}
	}

	stmt, err := s.sql.Generate(q.Params())
	if err != nil {
		return err
	}
	q.SQLText = stmt.Text

	if err := s.store.SavedQuery().Save(ctx, q); err != nil {
		return err
	}

	zap.S().Named("saved_query_service").Infow("query saved", "id", q.ID, "name", q.ConfigName, "operation", q.Operation)

	return nil
}

func (s *SavedQueryService) List(ctx context.Context, params SavedQueryListParams) (*SavedQueryListResult, error) {
	filters := s.buildListOptions(params)

	opts := append([]store.ListOption{}, filters...)
	opts = append(opts, store.WithDefaultSort())
	if params.Limit > 0 {
		opts = append(opts, store.WithLimit(params.Limit))
	}
	if params.Offset > 0 {
		opts = append(opts, store.WithOffset(params.Offset))
	}

	queries, err := s.store.SavedQuery().List(ctx, opts...)
	if err != nil {
		return nil, err
	}

	// total ignores pagination
	total, err := s.store.SavedQuery().Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	return &SavedQueryListResult{Queries: queries, Total: total}, nil
}

func (s *SavedQueryService) buildListOptions(params SavedQueryListParams) []store.ListOption {
	var opts []store.ListOption

	if params.Name != "" {
		opts = append(opts, store.ByConfigName(params.Name))
	}
	if len(params.Aliases) > 0 {
		opts = append(opts, store.ByAliases(params.Aliases...))
	}
	if len(params.Operations) > 0 {
		opts = append(opts, store.ByOperations(params.Operations...))
	}

	return opts
}

// Get returns the query with its password removed.
func (s *SavedQueryService) Get(ctx context.Context, id int64) (*models.SavedQuery, error) {
	q, err := s.store.SavedQuery().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	q.DBPassword = ""
	return q, nil
}

func (s *SavedQueryService) Delete(ctx context.Context, id int64) error {
	if err := s.store.SavedQuery().Delete(ctx, id); err != nil {
		return err
	}
	zap.S().Named("saved_query_service").Infow("query deleted", "id", id)
	return nil
}

// Exec rebuilds the saved statement and runs it against its target.
func (s *SavedQueryService) Exec(ctx context.Context, id int64) (*ExecResult, error) {
	q, err := s.store.SavedQuery().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	target, err := s.target(q)
	if err != nil {
		return nil, err
	}

	params := q.Params()
	if params.Operation == sqlbuilder.OperationSelect && params.Limit == "" {
		params.Limit = strconv.Itoa(s.sql.maxRows())
	}

	stmt, err := s.sql.Generate(params)
	if err != nil {
		return nil, err
	}

	return s.sql.ExecStatement(ctx, target, stmt)
}

func (s *SavedQueryService) target(q *models.SavedQuery) (config.DatabaseTarget, error) {
	if q.DBHost != "" {
		t := q.Target()
		if t.Charset == "" {
			t.Charset = s.sql.cfg.Database.Charset
		}
		return t, nil
	}
	if q.DBAlias != "" {
		return s.sql.Resolve(Target{Alias: q.DBAlias})
	}
	return config.DatabaseTarget{}, srvErrors.NewValidationError("db_host", "saved query %d has no database target", q.ID)
}
