package cases

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qaharness/api-test-framework/internal/config"
	"github.com/qaharness/api-test-framework/internal/util"
	"github.com/qaharness/api-test-framework/pkg/database"
	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
	"github.com/qaharness/api-test-framework/pkg/request"
	"github.com/qaharness/api-test-framework/pkg/scheduler"
	"github.com/qaharness/api-test-framework/pkg/session"
	"github.com/qaharness/api-test-framework/pkg/ssh"
)

type Runner struct {
	cfg        *config.Configuration
	newDB      func(config.DatabaseTarget) *database.Client
	requestOpt []request.Option
	workers    int
}

type Option func(*Runner)

// WithDatabaseFactory replaces the MySQL client used by db checks.
func WithDatabaseFactory(f func(config.DatabaseTarget) *database.Client) Option {
	return func(r *Runner) {
		r.newDB = f
	}
}

func WithRequestOptions(opts ...request.Option) Option {
	return func(r *Runner) {
		r.requestOpt = append(r.requestOpt, opts...)
	}
}

// WithWorkers overrides the suite's worker count.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		r.workers = n
	}
}

func NewRunner(cfg *config.Configuration, opts ...Option) *Runner {
	r := &Runner{cfg: cfg}
	for _, o := range opts {
		o(r)
	}
	if r.newDB == nil {
		r.newDB = func(t config.DatabaseTarget) *database.Client {
			return database.NewMySQL(t, cfg.Database)
		}
	}
	return r
}

// run holds what the cases of one suite share.
type run struct {
	env    config.Environment
	client *request.Client
}

// Run executes every case of suite and reports each result in suite order.
// envOverride replaces suite.Env when set.
func (r *Runner) Run(ctx context.Context, suite *Suite, envOverride string) (*Report, error) {
	log := zap.S().Named("cases")

	envName := suite.Env
	if envOverride != "" {
		envName = envOverride
	}
	if envName == "" {
		envName = "test"
	}
	env, err := r.cfg.Environment(envName)
	if err != nil {
		return nil, err
	}

	client, err := request.New(env, session.New(), r.requestOpt...)
	if err != nil {
		return nil, err
	}
	state := &run{env: env, client: client}

	report := &Report{Suite: suite.Name, Env: envName, Started: time.Now()}

	if suite.Login != nil {
		if _, err := client.Login(ctx, suite.Login.Path, suite.Login.body(), suite.Login.TokenPath); err != nil {
			return nil, fmt.Errorf("login failed: %w", err)
		}
	}

	workers := suite.Workers
	if r.workers > 0 {
		workers = r.workers
	}
	if workers <= 0 {
		workers = 1
	}

	sched := scheduler.New[Result](ctx, workers)
	defer sched.Close()

	log.Infow("running suite", "suite", suite.Name, "env", envName, "cases", len(suite.Cases), "workers", workers)

	futures := make([]*scheduler.Future[Result], 0, len(suite.Cases))
	for _, c := range suite.Cases {
		futures = append(futures, sched.Submit(c.Name, func(ctx context.Context) (Result, error) {
			return r.runCase(ctx, state, c), nil
		}))
	}

	for i, f := range futures {
		res := f.Wait(ctx)
		result := res.Data
		if res.Err != nil {
			result = Result{Case: suite.Cases[i].Name, Failures: []string{res.Err.Error()}}
		}

		switch {
		case result.Skipped:
			report.Skipped++
		case result.Passed:
			report.Passed++
		default:
			report.Failed++
		}
		report.Results = append(report.Results, result)
	}

	report.Duration = time.Since(report.Started)
	log.Infow("suite finished", "suite", suite.Name, "passed", report.Passed, "failed", report.Failed, "skipped", report.Skipped, "duration", report.Duration)

	return report, nil
}

func (r *Runner) runCase(ctx context.Context, state *run, c Case) Result {
	result := Result{Case: c.Name}
	if c.Skip {
		result.Skipped = true
		return result
	}

	start := time.Now()

	var failures []string
	if c.Path != "" {
		status, f := r.checkRequest(ctx, state.client, c)
		result.StatusCode = status
		failures = append(failures, f...)
	}
	if c.DB != nil {
		failures = append(failures, r.checkDB(ctx, state.env, c.DB)...)
	}
	if c.SSH != nil {
		failures = append(failures, r.checkSSH(ctx, state.env, c.SSH)...)
	}

	result.Failures = failures
	result.Passed = len(failures) == 0
	result.Duration = time.Since(start)

	log := zap.S().Named("cases")
	if result.Passed {
		log.Infow("case passed", "case", c.Name)
	} else {
		log.Warnw("case failed", "case", c.Name, "failures", failures)
	}

	return result
}

func (r *Runner) checkRequest(ctx context.Context, client *request.Client, c Case) (int, []string) {
	var opts []request.CallOption
	if len(c.Query) > 0 {
		opts = append(opts, request.WithQuery(c.Query))
	}
	if c.JSON != nil {
		opts = append(opts, request.WithJSON(c.JSON))
	}
	if len(c.Form) > 0 {
		opts = append(opts, request.WithForm(c.Form))
	}
	if len(c.Headers) > 0 {
		opts = append(opts, request.WithHeaders(c.Headers))
	}

	resp, err := client.Do(ctx, c.Method, c.Path, opts...)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	} else {
		var failed *srvErrors.RequestFailedError
		if errors.As(err, &failed) {
			status = failed.StatusCode
		}
	}

	if status == 0 {
		return 0, []string{fmt.Sprintf("request failed: %v", err)}
	}

	var failures []string
	want := c.Expect.Status
	if want == 0 {
		want = http.StatusOK
	}
	if status != want {
		failures = append(failures, fmt.Sprintf("status: want %d, got %d", want, status))
	}

	if resp == nil {
		if len(c.Expect.JSON) > 0 || c.SaveToken != "" {
			failures = append(failures, "no response body to check")
		}
		return status, failures
	}

	for path, expected := range c.Expect.JSON {
		got, ok := resp.Lookup(path)
		if !ok {
			failures = append(failures, fmt.Sprintf("json %s: missing", path))
			continue
		}
		if !sameValue(expected, got) {
			failures = append(failures, fmt.Sprintf("json %s: want %v, got %v", path, expected, got))
		}
	}

	if c.SaveToken != "" {
		value, ok := resp.Lookup(c.SaveToken)
		token, isString := value.(string)
		switch {
		case !ok || !isString:
			failures = append(failures, fmt.Sprintf("save_token %s: no string value", c.SaveToken))
		default:
			if err := client.Session().SetToken(token); err != nil {
				failures = append(failures, fmt.Sprintf("save_token %s: %v", c.SaveToken, err))
			}
		}
	}

	return status, failures
}

func (r *Runner) checkDB(ctx context.Context, env config.Environment, check *DBCheck) []string {
	db := r.newDB(env.DatabaseTarget(r.cfg.Database))
	defer db.Close()

	rows, err := db.Query(ctx, check.SQL, check.Args...)
	if err != nil {
		return []string{fmt.Sprintf("db: %v", err)}
	}
	if check.ExpectRows != nil && len(rows) != *check.ExpectRows {
		return []string{fmt.Sprintf("db rows: want %d, got %d", *check.ExpectRows, len(rows))}
	}
	return nil
}

func (r *Runner) checkSSH(ctx context.Context, env config.Environment, check *SSHCheck) []string {
	runner := ssh.New(env.SSHTarget(r.cfg.SSH))
	defer runner.Close()

	res, err := runner.Run(ctx, check.Command)
	if err != nil {
		return []string{fmt.Sprintf("ssh: %v", err)}
	}

	var failures []string
	wantCode := 0
	if check.ExitCode != nil {
		wantCode = *check.ExitCode
	}
	if res.ExitCode != wantCode {
		failures = append(failures, fmt.Sprintf("ssh exit code: want %d, got %d", wantCode, res.ExitCode))
	}
	if check.StdoutContains != "" && !strings.Contains(res.Stdout, check.StdoutContains) {
		failures = append(failures, fmt.Sprintf("ssh stdout: %q not found", check.StdoutContains))
	}
	if check.StderrEmpty && res.Stderr != "" {
		failures = append(failures, fmt.Sprintf("ssh stderr: want empty, got %q", res.Stderr))
	}
	return failures
}

// body returns the login payload with MD5Fields hashed.
func (l *Login) body() any {
	m, ok := l.JSON.(map[string]any)
	if !ok || len(l.MD5Fields) == 0 {
		return l.JSON
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if util.Contains(l.MD5Fields, k) {
			v = util.MD5(v)
		}
		out[k] = v
	}
	return out
}

// sameValue compares a YAML expectation with a decoded JSON value. Numbers
// compare by value whatever their Go type.
func sameValue(expected, got any) bool {
	if ef, ok := toFloat(expected); ok {
		gf, ok := toFloat(got)
		return ok && ef == gf
	}
	if reflect.DeepEqual(expected, got) {
		return true
	}
	return fmt.Sprint(expected) == fmt.Sprint(got)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
