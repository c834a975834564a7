package v1

import "github.com/qaharness/api-test-framework/pkg/database"

// Envelope wraps every API response. Code mirrors the HTTP status.
type Envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

type SSHExecRequest struct {
	Env     string `json:"env" validate:"omitempty,max=32"`
	Command string `json:"command" validate:"required,notblank"`
}

type SSHExecResponse struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exit_code"`
	DurationMs int64  `json:"duration_ms"`
}

type SQLExecRequest struct {
	Env   string `json:"env" validate:"omitempty,max=32"`
	Alias string `json:"alias" validate:"omitempty,max=64"`
	SQL   string `json:"sql" validate:"required,notblank"`
}

type SQLExecResponse struct {
	SQL        string         `json:"sql"`
	Read       bool           `json:"read"`
	Columns    []string       `json:"columns,omitempty"`
	Rows       []database.Row `json:"rows,omitempty"`
	RowCount   int            `json:"row_count"`
	Affected   int64          `json:"affected"`
	Truncated  bool           `json:"truncated"`
	DurationMs int64          `json:"duration_ms"`
}

type Condition struct {
	Field     string `json:"field" validate:"required"`
	Operator  string `json:"operator" validate:"required,sqloperator"`
	Value     string `json:"value"`
	Connector string `json:"connector" validate:"omitempty,sqlconnector"`
}

type Assignment struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

// QueryParams is the visual builder form.
type QueryParams struct {
	OperationType string       `json:"operation_type" validate:"required,sqloperation"`
	DBName        string       `json:"db_name"`
	TableName     string       `json:"table_name" validate:"required"`
	Fields        []string     `json:"fields"`
	Conditions    []Condition  `json:"conditions" validate:"dive"`
	UpdateFields  []Assignment `json:"update_fields" validate:"dive"`
	LimitNum      string       `json:"limit_num" validate:"omitempty,numeric"`
}

type GenerateRequest struct {
	QueryParams
}

type GenerateResponse struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args"`
	Text string `json:"text"`
}

type SavedQueryRequest struct {
	QueryParams
	ConfigName string `json:"config_name" validate:"required,max=100"`
	DBAlias    string `json:"db_alias" validate:"required_without=DBHost"`
	DBHost     string `json:"db_host"`
	DBPort     int    `json:"db_port" validate:"omitempty,min=1,max=65535"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	Remark     string `json:"remark" validate:"max=255"`
}

// SavedQuery never carries a password.
type SavedQuery struct {
	ID            int64        `json:"id"`
	ConfigName    string       `json:"config_name"`
	DBAlias       string       `json:"db_alias,omitempty"`
	DBHost        string       `json:"db_host,omitempty"`
	DBPort        int          `json:"db_port,omitempty"`
	DBUser        string       `json:"db_user,omitempty"`
	DBName        string       `json:"db_name,omitempty"`
	TableName     string       `json:"table_name"`
	OperationType string       `json:"operation_type"`
	Fields        []string     `json:"fields"`
	Conditions    []Condition  `json:"conditions"`
	UpdateFields  []Assignment `json:"update_fields"`
	LimitNum      string       `json:"limit_num,omitempty"`
	SQLText       string       `json:"sql_text"`
	Remark        string       `json:"remark,omitempty"`
	CreateTime    string       `json:"create_time"`
}

type SavedQueryListParams struct {
	Name      string   `form:"name"`
	Aliases   []string `form:"alias"`
	Operation []string `form:"operation_type"`
	Page      int      `form:"page"`
	PageSize  int      `form:"page_size"`
}

type SavedQueryListResponse struct {
	Page      int          `json:"page"`
	PageCount int          `json:"page_count"`
	Total     int          `json:"total"`
	Queries   []SavedQuery `json:"queries"`
}

type MetaResponse struct {
	OperationTypes []string `json:"operation_types"`
	Operators      []string `json:"operators"`
	Connectors     []string `json:"connectors"`
	Aliases        []string `json:"aliases"`
	MaxResultRows  int      `json:"max_result_rows"`
}

type Environment struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	HasDB   bool   `json:"has_db"`
	HasSSH  bool   `json:"has_ssh"`
}

type ExportParams struct {
	Format string `form:"format"`
}

type EnvListParams struct {
	Detail bool `form:"detail"`
}
