package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/qaharness/api-test-framework/internal/models"
	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
	"github.com/qaharness/api-test-framework/pkg/secret"
	"github.com/qaharness/api-test-framework/pkg/sqlbuilder"
)

// SavedQueryStore persists visual SQL configurations. Passwords are
// encrypted before they reach the table.
type SavedQueryStore struct {
	db     QueryInterceptor
	cipher *secret.Cipher
}

func NewSavedQueryStore(db QueryInterceptor, cipher *secret.Cipher) *SavedQueryStore {
	return &SavedQueryStore{db: db, cipher: cipher}
}

// Save inserts q and fills in its ID and creation time.
func (s *SavedQueryStore) Save(ctx context.Context, q *models.SavedQuery) error {
	if q.ConfigName == "" {
		return srvErrors.NewValidationError("config_name", "must not be empty")
	}

	password, err := s.cipher.Encrypt(q.DBPassword)
	if err != nil {
		return err
	}

	fields, err := toJSON(q.Fields)
	if err != nil {
		return err
	}
	conditions, err := toJSON(q.Conditions)
	if err != nil {
		return err
	}
	updateFields, err := toJSON(q.UpdateFields)
	if err != nil {
		return err
	}

	var createdAt time.Time
	err = s.db.QueryRowContext(ctx, queryInsertSavedQuery,
		q.ConfigName, q.DBAlias, q.DBHost, q.DBPort, q.DBUser, password, q.DBName,
		q.TableName, string(q.Operation), fields, conditions, updateFields,
		q.LimitNum, q.SQLText, q.Remark,
	).Scan(&q.ID, &createdAt)
	if err != nil {
		return err
	}
	q.CreatedAt = createdAt

	return nil
}

// List returns saved queries without their passwords, newest first unless
// a sort option says otherwise.
func (s *SavedQueryStore) List(ctx context.Context, opts ...ListOption) ([]models.SavedQuery, error) {
	builder := sq.Select(savedQueryColumns...).From(tableSavedQueries)

	if len(opts) == 0 {
		opts = []ListOption{WithDefaultSort()}
	}
	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	queries := make([]models.SavedQuery, 0)
	for rows.Next() {
		q, err := scanSavedQuery(rows)
		if err != nil {
			return nil, err
		}
		q.DBPassword = ""
		queries = append(queries, *q)
	}

	return queries, rows.Err()
}

func (s *SavedQueryStore) Count(ctx context.Context, opts ...ListOption) (int, error) {
	builder := sq.Select("COUNT(*)").From(tableSavedQueries)

	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// Get returns the saved query with its password decrypted.
func (s *SavedQueryStore) Get(ctx context.Context, id int64) (*models.SavedQuery, error) {
	query, args, err := sq.Select(savedQueryColumns...).
		From(tableSavedQueries).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	q, err := scanSavedQuery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, srvErrors.NewSavedQueryNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}

	plain, err := s.cipher.Decrypt(q.DBPassword)
	if err != nil {
		zap.S().Named("store").Warnw("cannot decrypt saved password", "id", id, "error", err)
		plain = ""
	}
	q.DBPassword = plain

	return q, nil
}

func (s *SavedQueryStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, queryDeleteSavedQuery, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return srvErrors.NewSavedQueryNotFoundError(id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSavedQuery(row scanner) (*models.SavedQuery, error) {
	var (
		q                                          models.SavedQuery
		alias, host, user, password, dbName        sql.NullString
		fields, conditions, updateFields, limitNum sql.NullString
		sqlText, remark                            sql.NullString
		port                                       sql.NullInt64
		operation                                  string
		createdAt                                  sql.NullTime
	)

	err := row.Scan(
		&q.ID, &q.ConfigName, &alias, &host, &port, &user, &password, &dbName,
		&q.TableName, &operation, &fields, &conditions, &updateFields,
		&limitNum, &sqlText, &remark, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	q.DBAlias = alias.String
	q.DBHost = host.String
	q.DBPort = int(port.Int64)
	q.DBUser = user.String
	q.DBPassword = password.String
	q.DBName = dbName.String
	q.Operation = sqlbuilder.Operation(operation)
	q.LimitNum = limitNum.String
	q.SQLText = sqlText.String
	q.Remark = remark.String
	q.CreatedAt = createdAt.Time

	if err := fromJSON(fields, &q.Fields); err != nil {
		return nil, err
	}
	if err := fromJSON(conditions, &q.Conditions); err != nil {
		return nil, err
	}
	if err := fromJSON(updateFields, &q.UpdateFields); err != nil {
		return nil, err
	}

	return &q, nil
}

func toJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func fromJSON(s sql.NullString, v any) error {
	if !s.Valid || s.String == "" || s.String == "null" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), v)
}

type ListOption func(sq.SelectBuilder) sq.SelectBuilder

func ByConfigName(name string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if name == "" {
			return b
		}
		return b.Where(sq.ILike{"config_name": "%" + name + "%"})
	}
}

func ByAliases(aliases ...string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(aliases) == 0 {
			return b
		}
		return b.Where(sq.Eq{"db_alias": aliases})
	}
}

func ByOperations(ops ...sqlbuilder.Operation) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(ops) == 0 {
			return b
		}
		values := make([]string, 0, len(ops))
		for _, op := range ops {
			values = append(values, string(op))
		}
		return b.Where(sq.Eq{"operation_type": values})
	}
}

func WithLimit(limit uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Limit(limit)
	}
}

func WithOffset(offset uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Offset(offset)
	}
}

// WithDefaultSort orders newest first. Ids follow insertion order.
func WithDefaultSort() ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.OrderBy("id DESC")
	}
}
