package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	v1 "github.com/qaharness/api-test-framework/api/v1"
	"github.com/qaharness/api-test-framework/internal/config"
	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
	"github.com/qaharness/api-test-framework/pkg/request"
	"github.com/qaharness/api-test-framework/pkg/session"
)

const (
	apiEnvListPath     = "/api/env/list"
	apiSQLMetaPath     = "/api/sql/meta"
	apiSQLGeneratePath = "/api/sql/generate"
	apiSQLExecPath     = "/api/sql/exec"
	apiSQLExportPath   = "/api/sql/export"
	apiSQLQueriesPath  = "/api/sql/queries"
	apiSSHExecPath     = "/api/ssh/exec"
	metricsPath        = "/metrics"
)

// SQLResult mirrors v1.SQLExecResponse with rows decoded as objects.
type SQLResult struct {
	SQL       string           `json:"sql"`
	Read      bool             `json:"read"`
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"row_count"`
	Affected  int64            `json:"affected"`
	Truncated bool             `json:"truncated"`
}

// HarnessSvc is an HTTP client for the web utility API.
type HarnessSvc struct {
	client *request.Client
}

func NewHarnessService(baseURL string) (*HarnessSvc, error) {
	zap.S().Named("e2e").Infow("initializing harness service", "url", baseURL)

	client, err := request.New(config.Environment{
		Name:       "harness",
		BaseURL:    baseURL,
		Timeout:    30 * time.Second,
		MaxRetries: 1,
	}, session.New())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize harness client: %w", err)
	}

	return &HarnessSvc{client: client}, nil
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var failed *srvErrors.RequestFailedError
	if errors.As(err, &failed) {
		return failed.StatusCode
	}
	return 0
}

func decode[T any](resp *request.Response, err error) (T, error) {
	var env struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data T      `json:"data"`
	}
	if err != nil {
		return env.Data, err
	}
	if err := resp.Decode(&env); err != nil {
		return env.Data, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Code != http.StatusOK && env.Code != http.StatusCreated {
		return env.Data, fmt.Errorf("unexpected envelope code %d: %s", env.Code, env.Msg)
	}
	return env.Data, nil
}

func (s *HarnessSvc) ListEnvironments(ctx context.Context) ([]string, error) {
	return decode[[]string](s.client.Get(ctx, apiEnvListPath))
}

func (s *HarnessSvc) DescribeEnvironments(ctx context.Context) ([]v1.Environment, error) {
	return decode[[]v1.Environment](s.client.Get(ctx, apiEnvListPath, request.WithQuery(map[string]string{"detail": "true"})))
}

func (s *HarnessSvc) Meta(ctx context.Context) (v1.MetaResponse, error) {
	return decode[v1.MetaResponse](s.client.Get(ctx, apiSQLMetaPath))
}

func (s *HarnessSvc) Generate(ctx context.Context, p v1.QueryParams) (v1.GenerateResponse, error) {
	return decode[v1.GenerateResponse](s.client.Post(ctx, apiSQLGeneratePath, request.WithJSON(v1.GenerateRequest{QueryParams: p})))
}

func (s *HarnessSvc) SSHExec(ctx context.Context, env, command string) (v1.SSHExecResponse, error) {
	return decode[v1.SSHExecResponse](s.client.Post(ctx, apiSSHExecPath, request.WithJSON(v1.SSHExecRequest{Env: env, Command: command})))
}

func (s *HarnessSvc) SQLExec(ctx context.Context, req v1.SQLExecRequest) (SQLResult, error) {
	return decode[SQLResult](s.client.Post(ctx, apiSQLExecPath, request.WithJSON(req)))
}

// Export returns the raw file answered by /sql/export.
func (s *HarnessSvc) Export(ctx context.Context, req v1.SQLExecRequest, format string) (*request.Response, error) {
	return s.client.Post(ctx, apiSQLExportPath,
		request.WithJSON(req),
		request.WithQuery(map[string]string{"format": format}),
	)
}

func (s *HarnessSvc) SaveQuery(ctx context.Context, req v1.SavedQueryRequest) (v1.SavedQuery, error) {
	return decode[v1.SavedQuery](s.client.Post(ctx, apiSQLQueriesPath, request.WithJSON(req)))
}

func (s *HarnessSvc) ListQueries(ctx context.Context, query map[string]string) (v1.SavedQueryListResponse, error) {
	return decode[v1.SavedQueryListResponse](s.client.Get(ctx, apiSQLQueriesPath, request.WithQuery(query)))
}

func (s *HarnessSvc) GetQuery(ctx context.Context, id int64) (v1.SavedQuery, error) {
	return decode[v1.SavedQuery](s.client.Get(ctx, queryPath(id)))
}

func (s *HarnessSvc) DeleteQuery(ctx context.Context, id int64) error {
	_, err := decode[any](s.client.Delete(ctx, queryPath(id)))
	return err
}

func (s *HarnessSvc) ExecQuery(ctx context.Context, id int64) (SQLResult, error) {
	return decode[SQLResult](s.client.Post(ctx, queryPath(id)+"/exec"))
}

// Metrics returns the Prometheus exposition text.
func (s *HarnessSvc) Metrics(ctx context.Context) (string, error) {
	resp, err := s.client.Get(ctx, metricsPath)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Raw sends a request and returns the decoded envelope fields.
func (s *HarnessSvc) Raw(ctx context.Context, method, path string, body any) (int, json.RawMessage, error) {
	var opts []request.CallOption
	if body != nil {
		opts = append(opts, request.WithJSON(body))
	}
	resp, err := s.client.Do(ctx, method, path, opts...)
	if err != nil {
		return StatusOf(err), nil, err
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.Decode(&env); err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, env.Data, nil
}

func queryPath(id int64) string {
	return apiSQLQueriesPath + "/" + strconv.FormatInt(id, 10)
}
