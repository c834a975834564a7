package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/qaharness/api-test-framework/internal/config"
	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
	"github.com/qaharness/api-test-framework/pkg/ssh"
)

type SSHService struct {
	cfg *config.Configuration
}

func NewSSHService(cfg *config.Configuration) *SSHService {
	return &SSHService{cfg: cfg}
}

// Exec runs command on the environment's ssh host over a connection that
// lives only for this call.
func (s *SSHService) Exec(ctx context.Context, envName, command string) (*ssh.Result, error) {
	if strings.TrimSpace(command) == "" {
		return nil, srvErrors.NewValidationError("command", "must not be empty")
	}

	target, err := s.target(envName)
	if err != nil {
		return nil, err
	}

	runner := ssh.New(target)
	defer runner.Close()

	result, err := runner.Run(ctx, command)
	if err != nil {
		zap.S().Named("ssh_service").Errorw("ssh exec failed", "env", envName, "host", target.Host, "error", err)
		return nil, err
	}

	return result, nil
}

// ReadFile fetches a remote file over sftp.
func (s *SSHService) ReadFile(ctx context.Context, envName, path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, srvErrors.NewValidationError("path", "must not be empty")
	}

	target, err := s.target(envName)
	if err != nil {
		return nil, err
	}

	runner := ssh.New(target)
	defer runner.Close()

	return runner.ReadFile(ctx, path)
}

func (s *SSHService) target(envName string) (config.SSHTarget, error) {
	if envName == "" {
		envName = defaultEnv
	}
	env, err := s.cfg.Environment(envName)
	if err != nil {
		return config.SSHTarget{}, err
	}
	if env.SSHHost == "" {
		return config.SSHTarget{}, srvErrors.NewValidationError("env", "environment %q has no ssh host configured", envName)
	}
	return env.SSHTarget(s.cfg.SSH), nil
}
