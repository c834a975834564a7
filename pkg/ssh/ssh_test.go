package ssh_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/qaharness/api-test-framework/internal/config"
	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
	"github.com/qaharness/api-test-framework/pkg/ssh"
	"github.com/qaharness/api-test-framework/test/infra"
)

func fakeShell(command string) (string, string, int) {
	switch {
	case command == "whoami":
		return "qa\n", "", 0
	case strings.HasPrefix(command, "echo "):
		return "  " + strings.TrimPrefix(command, "echo ") + "  \n", "", 0
	case command == "sleep":
		time.Sleep(2 * time.Second)
		return "", "", 0
	default:
		return "", "bash: " + command + ": command not found\n", 127
	}
}

var _ = Describe("Runner", func() {
	var (
		ctx    context.Context
		server *infra.SSHServer
		target config.SSHTarget
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		server, err = infra.NewSSHServer("qa", "secret", fakeShell)
		Expect(err).NotTo(HaveOccurred())

		target = config.SSHTarget{
			Host:     server.Host(),
			Port:     server.Port(),
			User:     "qa",
			Password: "secret",
			Timeout:  2 * time.Second,
		}
	})

	AfterEach(func() {
		server.Stop()
	})

	Describe("ExecuteCommand", func() {
		It("should return trimmed stdout", func() {
			// Arrange
			r := ssh.New(target)
			defer r.Close()

			// Act
			stdout, stderr, err := r.ExecuteCommand(ctx, "echo hello")

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(stdout).To(Equal("hello"))
			Expect(stderr).To(BeEmpty())
		})

		It("should reuse the connection for several commands", func() {
			r := ssh.New(target)
			defer r.Close()

			_, _, err := r.ExecuteCommand(ctx, "whoami")
			Expect(err).NotTo(HaveOccurred())
			_, _, err = r.ExecuteCommand(ctx, "echo again")
			Expect(err).NotTo(HaveOccurred())

			Expect(server.Commands()).To(Equal([]string{"whoami", "echo again"}))
		})

		It("should report a failing command through stderr, not an error", func() {
			// Given a command the host does not know
			r := ssh.New(target)
			defer r.Close()

			// When it runs
			res, err := r.Run(ctx, "nope")

			// Then the exit code and stderr describe the failure
			Expect(err).NotTo(HaveOccurred())
			Expect(res.ExitCode).To(Equal(127))
			Expect(res.Stderr).To(Equal("bash: nope: command not found"))
		})

		It("should reject an empty command without connecting", func() {
			r := ssh.New(target)
			defer r.Close()

			_, _, err := r.ExecuteCommand(ctx, "   ")
			Expect(srvErrors.IsValidationError(err)).To(BeTrue())
			Expect(server.Commands()).To(BeEmpty())
		})

		It("should stop waiting when the context is cancelled", func() {
			r := ssh.New(target)
			defer r.Close()

			cctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
			defer cancel()

			_, _, err := r.ExecuteCommand(cctx, "sleep")
			Expect(err).To(MatchError(context.DeadlineExceeded))
		})
	})

	Describe("Connect", func() {
		It("should fail with wrong credentials", func() {
			target.Password = "wrong"
			r := ssh.New(target)
			defer r.Close()

			err := r.Connect(ctx)
			Expect(srvErrors.IsResourceError(err)).To(BeTrue())
		})

		It("should fail when nothing listens", func() {
			server.Stop()
			r := ssh.New(target)
			defer r.Close()

			err := r.Connect(ctx)
			Expect(srvErrors.IsResourceError(err)).To(BeTrue())
		})
	})

	Describe("Close", func() {
		It("should never fail, even twice or before connecting", func() {
			r := ssh.New(target)
			r.Close()

			Expect(r.Connect(ctx)).To(Succeed())
			r.Close()
			r.Close()
		})
	})

	Describe("Exec", func() {
		It("should run a single command and disconnect", func() {
			stdout, _, err := ssh.Exec(ctx, target, "whoami")
			Expect(err).NotTo(HaveOccurred())
			Expect(stdout).To(Equal("qa"))
		})
	})

	Describe("ReadFile", func() {
		It("should fetch a remote file over sftp", func() {
			// Arrange
			path := filepath.Join(GinkgoT().TempDir(), "app.log")
			Expect(os.WriteFile(path, []byte("order 42 created\n"), 0o600)).To(Succeed())
			r := ssh.New(target)
			defer r.Close()

			// Act
			data, err := r.ReadFile(ctx, path)

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("order 42 created\n"))
		})

		It("should wrap a missing file", func() {
			r := ssh.New(target)
			defer r.Close()

			_, err := r.ReadFile(ctx, "/definitely/not/here")
			Expect(srvErrors.IsResourceError(err)).To(BeTrue())
		})
	})
})
