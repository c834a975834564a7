package infra

// InfraManager abstracts the lifecycle of everything the e2e specs talk to.
// Local: the harness, a target API and an ssh host all run in-process.
// External: every component is already running; Start* only report addresses.
type InfraManager interface {
	StartTargetAPI() (string, error)
	StopTargetAPI() error
	GenerateToken(username string) (string, error)
	StartSSH() (SSHAddress, error)
	StopSSH() error
	StartHarness(cfg HarnessConfig) (string, error)
	StopHarness() error
}

type SSHAddress struct {
	Host string
	Port int
}

// HarnessConfig describes the environment the web utility is started with.
type HarnessConfig struct {
	TargetURL string
	SSH       SSHAddress
	// DatabasePath is a DuckDB file standing in for MySQL in local mode.
	DatabasePath string
}

const (
	TargetUsername = "qa"
	TargetPassword = "secret"
	SSHUsername    = "qa"
	SSHPassword    = "secret"

	EnvName       = "test"
	DatabaseAlias = "shop_db"
)
