// Package config loads the harness configuration.
//
// Configuration lives in a single YAML file (config/config.yaml under the
// project root). Every top level key is a section; sections named env_<name>
// describe a deployment environment.
//
// # Configuration Structure
//
//	Configuration
//	├── Environments   - env_test, env_pre, env_prod, ...
//	├── Database       - settings shared by every database target
//	├── SSH            - settings shared by every ssh target
//	├── Log            - logging level, format and file output
//	└── Web            - web utility server and SQL builder
//
// # Environment Section
//
//	┌──────────────┬─────────────────┬───────────────────────────────────────┐
//	│ Key          │ Default         │ Description                           │
//	├──────────────┼─────────────────┼───────────────────────────────────────┤
//	│ base_url     │ ""              │ API root used by the request wrapper  │
//	│ headers      │ {}              │ default headers sent with each call   │
//	│ timeout      │ 10s             │ per request timeout                   │
//	│ auth_header  │ "Authorization" │ header carrying the session token     │
//	│ auth_scheme  │ ""              │ token prefix, e.g. "Bearer"           │
//	│ max_retries  │ 3               │ attempts for retryable failures       │
//	│ retry_delay  │ 1s              │ fixed pause between attempts          │
//	│ db_*         │                 │ host, port (3306), user, password, name│
//	│ ssh_*        │                 │ host, port (22), user, password       │
//	└──────────────┴─────────────────┴───────────────────────────────────────┘
//
// # Web Section
//
//	┌─────────────────┬───────────────────┬───────────────────────────────────┐
//	│ Key             │ Default           │ Description                       │
//	├─────────────────┼───────────────────┼───────────────────────────────────┤
//	│ host            │ "0.0.0.0"         │ listen address                    │
//	│ port            │ 5000              │ listen port                       │
//	│ debug           │ false             │ gin debug mode                    │
//	│ store_path      │ "data/web.duckdb" │ saved query store                 │
//	│ max_result_rows │ 100               │ LIMIT appended to read statements │
//	│ aes_key, aes_iv │ built in          │ saved password encryption         │
//	│ databases       │ {}                │ alias -> target for the builder   │
//	└─────────────────┴───────────────────┴───────────────────────────────────┘
//
// # Overrides
//
// Any option can be overridden by an environment variable named
// SECTION_OPTION in upper case, e.g. ENV_TEST_BASE_URL or WEB_PORT.
// String values have a trailing " # comment" removed and ${PROJECT_ROOT}
// replaced by the absolute project root.
//
// # Options
//
// Tests build configurations in code through the functional options:
//
//	cfg := config.NewConfigurationWithOptionsAndDefaults(
//	    config.WithEnvironment("test", config.Environment{BaseURL: srv.URL}),
//	)
//
// DebugMap returns a loggable map with secrets replaced by "(sensitive)".
package config
