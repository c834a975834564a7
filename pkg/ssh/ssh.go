// Package ssh runs commands on a remote host for test assertions.
//
// A Runner authenticates with a password and accepts any host key. It
// connects on first use and keeps the connection open until Close. A
// command that exits non-zero is not an error: its stderr and exit code
// are returned to the caller.
package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/qaharness/api-test-framework/internal/config"
	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
)

const (
	defaultPort    = 22
	defaultTimeout = 10 * time.Second
)

// Result is the outcome of one remote command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

type Runner struct {
	cfg  config.SSHTarget
	addr string

	mu     sync.Mutex
	client *ssh.Client
}

func New(cfg config.SSHTarget) *Runner {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	r := &Runner{
		cfg:  cfg,
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
	}
	runtime.SetFinalizer(r, func(r *Runner) { r.Close() })

	return r
}

func (r *Runner) Addr() string {
	return r.addr
}

// Connect dials and authenticates. Calling it on a connected runner is a no-op.
func (r *Runner) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.connect(ctx)
}

func (r *Runner) connect(ctx context.Context) error {
	if r.client != nil {
		return nil
	}

	log := zap.S().Named("ssh")

	clientConfig := &ssh.ClientConfig{
		User:            r.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(r.cfg.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         r.cfg.Timeout,
	}

	dialer := net.Dialer{Timeout: r.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", r.addr)
	if err != nil {
		log.Errorw("failed to dial", "addr", r.addr, "error", err)
		return srvErrors.NewResourceError("ssh "+r.addr, "connect", err)
	}

	// the handshake itself is bounded by the dial timeout
	_ = conn.SetDeadline(time.Now().Add(r.cfg.Timeout))
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, r.addr, clientConfig)
	if err != nil {
		conn.Close()
		log.Errorw("ssh handshake failed", "addr", r.addr, "user", r.cfg.User, "error", err)
		return srvErrors.NewResourceError("ssh "+r.addr, "connect", err)
	}
	_ = conn.SetDeadline(time.Time{})

	r.client = ssh.NewClient(sshConn, chans, reqs)
	log.Infow("connected", "addr", r.addr, "user", r.cfg.User)

	return nil
}

// ExecuteCommand runs command and returns its trimmed stdout and stderr.
func (r *Runner) ExecuteCommand(ctx context.Context, command string) (string, string, error) {
	res, err := r.Run(ctx, command)
	if err != nil {
		return "", "", err
	}
	return res.Stdout, res.Stderr, nil
}

// Run runs command and reports its exit code alongside the output.
func (r *Runner) Run(ctx context.Context, command string) (*Result, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, srvErrors.NewValidationError("command", "must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.connect(ctx); err != nil {
		return nil, err
	}

	log := zap.S().Named("ssh")

	session, err := r.client.NewSession()
	if err != nil {
		return nil, srvErrors.NewResourceError("ssh "+r.addr, "session", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	log.Infow("executing command", "addr", r.addr, "command", command)

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return nil, ctx.Err()
	case err = <-done:
	}

	res := &Result{
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}

	var exitErr *ssh.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitStatus()
	default:
		return nil, srvErrors.NewResourceError("ssh "+r.addr, "exec", err)
	}

	log.Infow("command finished",
		"addr", r.addr, "exit_code", res.ExitCode, "duration", res.Duration,
		"stdout", res.Stdout, "stderr", res.Stderr)

	return res, nil
}

// ReadFile fetches a remote file over SFTP.
func (r *Runner) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, srvErrors.NewValidationError("path", "must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.connect(ctx); err != nil {
		return nil, err
	}

	client, err := sftp.NewClient(r.client)
	if err != nil {
		return nil, srvErrors.NewResourceError("sftp "+r.addr, "open", err)
	}
	defer client.Close()

	f, err := client.Open(path)
	if err != nil {
		return nil, srvErrors.NewResourceError("sftp "+r.addr, fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, srvErrors.NewResourceError("sftp "+r.addr, fmt.Sprintf("read %s", path), err)
	}

	zap.S().Named("ssh").Debugw("file read", "addr", r.addr, "path", path, "bytes", len(data))

	return data, nil
}

// Close releases the connection. Errors are logged, never returned.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		return
	}

	if err := r.client.Close(); err != nil {
		zap.S().Named("ssh").Warnw("close failed", "addr", r.addr, "error", err)
	} else {
		zap.S().Named("ssh").Infow("connection closed", "addr", r.addr)
	}
	r.client = nil
}

// Exec connects, runs one command and closes the connection.
func Exec(ctx context.Context, cfg config.SSHTarget, command string) (string, string, error) {
	r := New(cfg)
	defer r.Close()

	return r.ExecuteCommand(ctx, command)
}
