package infra

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/qaharness/api-test-framework/api/v1"
	"github.com/qaharness/api-test-framework/internal/config"
	"github.com/qaharness/api-test-framework/internal/handlers"
	"github.com/qaharness/api-test-framework/internal/server"
	"github.com/qaharness/api-test-framework/internal/services"
	"github.com/qaharness/api-test-framework/internal/store"
	"github.com/qaharness/api-test-framework/pkg/database"
	"github.com/qaharness/api-test-framework/pkg/retry"
	"github.com/qaharness/api-test-framework/pkg/secret"
	testinfra "github.com/qaharness/api-test-framework/test/infra"
)

// LocalInfraManager runs every component inside the test process.
type LocalInfraManager struct {
	api  *testinfra.APIServer
	sshd *testinfra.SSHServer

	storeDB *sql.DB
	srv     *server.Server
	cancel  context.CancelFunc
	done    chan error
}

func NewLocalInfraManager() *LocalInfraManager {
	return &LocalInfraManager{}
}

func (l *LocalInfraManager) StartTargetAPI() (string, error) {
	api, err := testinfra.NewAPIServer(TargetUsername, TargetPassword)
	if err != nil {
		return "", err
	}
	l.api = api
	return api.BaseURL(), nil
}

func (l *LocalInfraManager) StopTargetAPI() error {
	if l.api == nil {
		return nil
	}
	return l.api.Stop()
}

func (l *LocalInfraManager) GenerateToken(username string) (string, error) {
	if l.api == nil {
		return "", fmt.Errorf("target api not started")
	}
	return l.api.GenerateToken(username)
}

func (l *LocalInfraManager) StartSSH() (SSHAddress, error) {
	sshd, err := testinfra.NewSSHServer(SSHUsername, SSHPassword, func(cmd string) (string, string, int) {
		switch cmd {
		case "hostname":
			return "e2e-host\n", "", 0
		case "false":
			return "", "command failed\n", 1
		default:
			return "ran: " + cmd + "\n", "", 0
		}
	})
	if err != nil {
		return SSHAddress{}, err
	}
	l.sshd = sshd
	return SSHAddress{Host: sshd.Host(), Port: sshd.Port()}, nil
}

func (l *LocalInfraManager) StopSSH() error {
	if l.sshd != nil {
		l.sshd.Stop()
	}
	return nil
}

// StartHarness serves the web utility on a free local port with an
// in-memory store. SQL statements run against the DuckDB file in cfg.
func (l *LocalInfraManager) StartHarness(hc HarnessConfig) (string, error) {
	port, err := freePort()
	if err != nil {
		return "", err
	}

	cfg := config.NewConfigurationWithOptionsAndDefaults(
		config.WithEnvironment(EnvName, config.Environment{
			BaseURL:     hc.TargetURL,
			DBHost:      "duckdb.local",
			SSHHost:     hc.SSH.Host,
			SSHPort:     hc.SSH.Port,
			SSHUser:     SSHUsername,
			SSHPassword: SSHPassword,
		}),
		config.WithWeb(config.Web{
			Host:          "127.0.0.1",
			Port:          port,
			StorePath:     ":memory:",
			MaxResultRows: 100,
			Databases: map[string]config.DatabaseTarget{
				DatabaseAlias: {Host: "duckdb.local", Port: 3306, User: "qa", Password: "pw", Name: "shop"},
			},
		}),
	)

	cipher, err := secret.New(cfg.Web.AESKey, cfg.Web.AESIV)
	if err != nil {
		return "", err
	}

	l.storeDB, err = store.NewDB(cfg.Web.StorePath)
	if err != nil {
		return "", err
	}
	st := store.NewStore(l.storeDB, cipher)

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	if err := st.Migrate(ctx); err != nil {
		return "", err
	}

	factory := func(config.DatabaseTarget) *database.Client {
		return database.New("duckdb", hc.DatabasePath)
	}
	sqlSrv := services.NewSQLService(cfg, factory)
	h := handlers.New(
		services.NewEnvService(cfg),
		services.NewSSHService(cfg),
		sqlSrv,
		services.NewSavedQueryService(st, sqlSrv),
	)

	l.srv, err = server.NewServer(cfg.Web, func(router *gin.RouterGroup) {
		v1.RegisterHandlers(router, h)
	})
	if err != nil {
		return "", err
	}

	l.done = make(chan error, 1)
	go func() {
		l.done <- l.srv.Start(ctx)
	}()

	baseURL := "http://" + l.srv.Addr()
	if err := waitReady(ctx, baseURL+"/healthz"); err != nil {
		return "", err
	}

	zap.S().Named("infra").Infow("harness started", "url", baseURL)

	return baseURL, nil
}

func (l *LocalInfraManager) StopHarness() error {
	if l.cancel == nil {
		return nil
	}
	l.cancel()

	var err error
	select {
	case err = <-l.done:
	case <-time.After(15 * time.Second):
		err = fmt.Errorf("harness did not stop in time")
	}

	if l.storeDB != nil {
		_ = l.storeDB.Close()
	}
	return err
}

func freePort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}

func waitReady(ctx context.Context, url string) error {
	policy := retry.Policy{
		MaxRetries: 50,
		Delay:      100 * time.Millisecond,
		RetryOn:    []retry.Kind{retry.KindConnectionRefused, retry.KindServerError},
		Name:       "harness-ready",
	}

	return retry.Run(ctx, policy, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("healthz returned %d", resp.StatusCode)
		}
		return nil
	})
}
