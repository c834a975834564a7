package infra

import "fmt"

// ExternalInfraManager points the specs at components that are already
// running, e.g. a harness started with "harness serve" against a real
// environment. Nothing is started or stopped.
type ExternalInfraManager struct {
	harnessURL string
	targetURL  string
	ssh        SSHAddress
}

func NewExternalInfraManager(harnessURL, targetURL string, ssh SSHAddress) *ExternalInfraManager {
	return &ExternalInfraManager{harnessURL: harnessURL, targetURL: targetURL, ssh: ssh}
}

func (e *ExternalInfraManager) StartTargetAPI() (string, error) {
	return e.targetURL, nil
}

func (e *ExternalInfraManager) StopTargetAPI() error { return nil }

func (e *ExternalInfraManager) GenerateToken(username string) (string, error) {
	return "", fmt.Errorf("token generation is not available for external targets")
}

func (e *ExternalInfraManager) StartSSH() (SSHAddress, error) {
	return e.ssh, nil
}

func (e *ExternalInfraManager) StopSSH() error { return nil }

func (e *ExternalInfraManager) StartHarness(HarnessConfig) (string, error) {
	if e.harnessURL == "" {
		return "", fmt.Errorf("harness url is required in external mode")
	}
	return e.harnessURL, nil
}

func (e *ExternalInfraManager) StopHarness() error { return nil }
