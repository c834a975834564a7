package config

import (
	"time"
)

// Configuration is the fully resolved harness configuration.
type Configuration struct {
	// Environments holds one entry per env_<name> section, keyed by <name>.
	Environments map[string]Environment `mapstructure:"-"`
	Database     Database               `mapstructure:"database"`
	SSH          SSH                    `mapstructure:"ssh"`
	Log          Log                    `mapstructure:"log"`
	Web          Web                    `mapstructure:"web"`
	ProjectRoot  string                 `mapstructure:"-"`
}

// Environment is a named deployment target (test, pre, prod).
type Environment struct {
	Name       string            `mapstructure:"-"`
	BaseURL    string            `mapstructure:"base_url"`
	Headers    map[string]string `mapstructure:"headers"`
	Timeout    time.Duration     `mapstructure:"timeout" default:"10s"`
	AuthHeader string            `mapstructure:"auth_header" default:"Authorization"`
	AuthScheme string            `mapstructure:"auth_scheme"`
	MaxRetries int               `mapstructure:"max_retries" default:"3"`
	RetryDelay time.Duration     `mapstructure:"retry_delay" default:"1s"`

	DBHost     string `mapstructure:"db_host"`
	DBPort     int    `mapstructure:"db_port" default:"3306"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password" debugmap:"hidden"`
	DBName     string `mapstructure:"db_name"`

	SSHHost     string `mapstructure:"ssh_host"`
	SSHPort     int    `mapstructure:"ssh_port" default:"22"`
	SSHUser     string `mapstructure:"ssh_user"`
	SSHPassword string `mapstructure:"ssh_password" debugmap:"hidden"`
}

// Database holds settings shared by every database target.
type Database struct {
	Driver  string        `mapstructure:"driver" default:"mysql"`
	Charset string        `mapstructure:"charset" default:"utf8mb4"`
	Timeout time.Duration `mapstructure:"timeout" default:"10s"`
}

// SSH holds settings shared by every ssh target.
type SSH struct {
	Timeout time.Duration `mapstructure:"timeout" default:"10s"`
}

type Log struct {
	Level  string `mapstructure:"log_level" default:"info"`
	Format string `mapstructure:"log_format" default:"console"`
	// Dir enables a daily log file when set.
	Dir string `mapstructure:"log_dir"`
}

type Web struct {
	Host          string `mapstructure:"host" default:"0.0.0.0"`
	Port          int    `mapstructure:"port" default:"5000"`
	Debug         bool   `mapstructure:"debug"`
	StorePath     string `mapstructure:"store_path" default:"data/web.duckdb"`
	MaxResultRows int    `mapstructure:"max_result_rows" default:"100"`
	AESKey        string `mapstructure:"aes_key" default:"web_sql_manager!" debugmap:"hidden"`
	AESIV         string `mapstructure:"aes_iv" default:"web_iv_20260211!" debugmap:"hidden"`
	// Databases are the named targets offered by the visual SQL builder.
	Databases map[string]DatabaseTarget `mapstructure:"databases"`
}

// DatabaseTarget is a database reachable through an alias.
type DatabaseTarget struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" default:"3306"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password" debugmap:"hidden"`
	Name     string `mapstructure:"database"`
	Charset  string `mapstructure:"charset" default:"utf8mb4"`
}

// SSHTarget is an ssh host with password credentials.
type SSHTarget struct {
	Host     string
	Port     int
	User     string
	Password string
	Timeout  time.Duration
}

// DatabaseTarget returns the environment's database coordinates.
func (e Environment) DatabaseTarget(shared Database) DatabaseTarget {
	return DatabaseTarget{
		Host:     e.DBHost,
		Port:     e.DBPort,
		User:     e.DBUser,
		Password: e.DBPassword,
		Name:     e.DBName,
		Charset:  shared.Charset,
	}
}

// SSHTarget returns the environment's ssh coordinates.
func (e Environment) SSHTarget(shared SSH) SSHTarget {
	return SSHTarget{
		Host:     e.SSHHost,
		Port:     e.SSHPort,
		User:     e.SSHUser,
		Password: e.SSHPassword,
		Timeout:  shared.Timeout,
	}
}
