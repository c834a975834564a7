// Package services implements the business logic behind the web utility.
//
// Services sit between the HTTP handlers and the wrappers in pkg/. None of
// them keeps a connection between calls: every SSH command and every SQL
// statement opens its own runner or client and closes it before returning.
//
// # Service Dependency Graph
//
//	Handlers (HTTP endpoints)
//	    │
//	    ▼
//	Services Layer
//	    ├── EnvService ─────────► Configuration
//	    ├── SSHService ─────────► Configuration, pkg/ssh
//	    ├── SQLService ─────────► Configuration, pkg/database, pkg/sqlbuilder
//	    └── SavedQueryService ──► Store, SQLService
//
// # SQLService
//
// Targets are resolved either from an environment (env_<name> db_* keys)
// or from a builder alias (web.databases). The alias wins when both are
// given; an empty environment means "test".
//
// Statements starting with SELECT, SHOW, DESC, DESCRIBE or EXPLAIN are
// read statements and return rows. A SELECT without LIMIT gets
// "LIMIT <web.max_result_rows>" appended; other read statements are cut to
// the same number of rows after the fact. Everything else returns the
// affected row count.
//
// Export runs a read statement and encodes the rows as CSV or XLSX.
//
// # SavedQueryService
//
// Save generates the statement first, so an invalid configuration (UPDATE
// without WHERE, bad identifiers) never reaches the store. Exec loads the
// configuration with its decrypted password, regenerates the statement and
// runs it with bound arguments.
//
// # Testing
//
// NewSQLService accepts a DatabaseFactory so tests can point statements at
// a DuckDB file instead of MySQL.
package services
