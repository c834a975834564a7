package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/qaharness/api-test-framework/test/e2e/infra"
)

type configuration struct {
	InfraMode  string // "local" or "external"
	HarnessURL string
	TargetURL  string
	SSHHost    string
	SSHPort    int
}

var (
	cfg          configuration
	infraManager infra.InfraManager
)

func (c configuration) Validate() error {
	if c.InfraMode != "local" && c.InfraMode != "external" {
		return fmt.Errorf("invalid infra-mode %q: must be 'local' or 'external'", c.InfraMode)
	}
	if c.InfraMode == "external" {
		if _, err := url.ParseRequestURI(c.HarnessURL); err != nil {
			return fmt.Errorf("failed to parse harness url: %v", err)
		}
	}
	return nil
}

func main() {
	flag.StringVar(&cfg.InfraMode, "infra-mode", "local", "Infrastructure mode: 'local' (in-process) or 'external' (already running)")
	flag.StringVar(&cfg.HarnessURL, "harness-url", "http://localhost:5000", "Web utility url (external mode)")
	flag.StringVar(&cfg.TargetURL, "target-url", "", "API under test (external mode)")
	flag.StringVar(&cfg.SSHHost, "ssh-host", "", "ssh host of the environment (external mode)")
	flag.IntVar(&cfg.SSHPort, "ssh-port", 22, "ssh port of the environment (external mode)")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("failed to validate configuration: %v", err)
	}

	switch cfg.InfraMode {
	case "local":
		infraManager = infra.NewLocalInfraManager()
	case "external":
		infraManager = infra.NewExternalInfraManager(cfg.HarnessURL, cfg.TargetURL, infra.SSHAddress{Host: cfg.SSHHost, Port: cfg.SSHPort})
	}

	RegisterFailHandler(Fail)
	if !RunSpecs(&testing.T{}, "E2E Suite") {
		os.Exit(1)
	}
}
