package infra

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

// CommandHandler produces the output of an exec request.
type CommandHandler func(command string) (stdout, stderr string, exitCode int)

// SSHServer is an in-process ssh server accepting a single user/password
// pair. It answers exec requests through a CommandHandler and serves the
// sftp subsystem on the local filesystem.
type SSHServer struct {
	User     string
	Password string

	handler  CommandHandler
	listener net.Listener
	config   *ssh.ServerConfig

	mu       sync.Mutex
	commands []string
	wg       sync.WaitGroup
}

// NewSSHServer starts a server on 127.0.0.1 with a random port.
func NewSSHServer(user, password string, handler CommandHandler) (*SSHServer, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating host key: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		return nil, fmt.Errorf("creating host signer: %w", err)
	}

	s := &SSHServer{User: user, Password: password, handler: handler}

	s.config = &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == s.User && string(pass) == s.Password {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %q", c.User())
		},
	}
	s.config.AddHostKey(signer)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listening: %w", err)
	}
	s.listener = listener

	s.wg.Add(1)
	go s.serve()

	zap.S().Named("infra").Infof("ssh mock server started on %s", listener.Addr())

	return s, nil
}

func (s *SSHServer) Host() string {
	host, _, _ := net.SplitHostPort(s.listener.Addr().String())
	return host
}

func (s *SSHServer) Port() int {
	_, port, _ := net.SplitHostPort(s.listener.Addr().String())
	p, _ := strconv.Atoi(port)
	return p
}

// Commands returns every command received so far.
func (s *SSHServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *SSHServer) Stop() {
	_ = s.listener.Close()
	s.wg.Wait()
}

func (s *SSHServer) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *SSHServer) handleConn(conn net.Conn) {
	_, chans, reqs, err := ssh.NewServerConn(conn, s.config)
	if err != nil {
		conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		ch, chReqs, err := newCh.Accept()
		if err != nil {
			continue
		}
		go s.handleSession(ch, chReqs)
	}
}

func (s *SSHServer) handleSession(ch ssh.Channel, reqs <-chan *ssh.Request) {
	defer ch.Close()

	for req := range reqs {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)

			s.mu.Lock()
			s.commands = append(s.commands, payload.Command)
			s.mu.Unlock()

			stdout, stderr, code := s.handler(payload.Command)
			_, _ = ch.Write([]byte(stdout))
			_, _ = ch.Stderr().Write([]byte(stderr))
			_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{uint32(code)}))
			return
		case "subsystem":
			var payload struct{ Name string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil || payload.Name != "sftp" {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)

			server, err := sftp.NewServer(ch, sftp.ReadOnly())
			if err != nil {
				return
			}
			_ = server.Serve()
			_ = server.Close()
			return
		default:
			_ = req.Reply(false, nil)
		}
	}
}
