package store

// Saved query statements
const (
	queryInsertSavedQuery = `
		INSERT INTO saved_sql_queries (
			config_name, db_alias, db_host, db_port, db_user, db_password, db_name,
			table_name, operation_type, fields, conditions, update_fields,
			limit_num, sql_text, remark, create_time
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, now())
		RETURNING id, create_time`

	queryDeleteSavedQuery = `DELETE FROM saved_sql_queries WHERE id = ?`
)

const tableSavedQueries = "saved_sql_queries"

var savedQueryColumns = []string{
	"id", "config_name", "db_alias", "db_host", "db_port", "db_user", "db_password", "db_name",
	"table_name", "operation_type", "fields", "conditions", "update_fields",
	"limit_num", "sql_text", "remark", "create_time",
}
