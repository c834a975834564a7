package cases

import "time"

// Suite is one YAML file of API cases run against a single environment.
type Suite struct {
	Name string `yaml:"name"`
	Env  string `yaml:"env"`
	// Workers above 1 runs cases concurrently. Cases then must not depend
	// on each other, including through save_token.
	Workers int    `yaml:"workers"`
	Login   *Login `yaml:"login"`
	Cases   []Case `yaml:"cases"`
}

// Login runs before the first case and stores the token it returns.
type Login struct {
	Path      string `yaml:"path"`
	JSON      any    `yaml:"json"`
	TokenPath string `yaml:"token_path"`
	// MD5Fields names top-level body fields sent as their md5 digest.
	MD5Fields []string `yaml:"md5_fields"`
}

type Case struct {
	Name    string            `yaml:"name"`
	Skip    bool              `yaml:"skip"`
	Method  string            `yaml:"method"`
	Path    string            `yaml:"path"`
	Query   map[string]string `yaml:"query"`
	JSON    any               `yaml:"json"`
	Form    map[string]string `yaml:"form"`
	Headers map[string]string `yaml:"headers"`
	Expect  Expect            `yaml:"expect"`
	// SaveToken is a dotted path into the response whose value becomes the
	// session token for the following cases.
	SaveToken string    `yaml:"save_token"`
	DB        *DBCheck  `yaml:"db"`
	SSH       *SSHCheck `yaml:"ssh"`
}

type Expect struct {
	Status int            `yaml:"status"`
	JSON   map[string]any `yaml:"json"`
}

type DBCheck struct {
	SQL        string `yaml:"sql"`
	Args       []any  `yaml:"args"`
	ExpectRows *int   `yaml:"expect_rows"`
}

type SSHCheck struct {
	Command        string `yaml:"command"`
	StdoutContains string `yaml:"stdout_contains"`
	StderrEmpty    bool   `yaml:"stderr_empty"`
	ExitCode       *int   `yaml:"exit_code"`
}

type Result struct {
	Case       string
	Passed     bool
	Skipped    bool
	StatusCode int
	Failures   []string
	Duration   time.Duration
}

type Report struct {
	Suite    string
	Env      string
	Results  []Result
	Passed   int
	Failed   int
	Skipped  int
	Started  time.Time
	Duration time.Duration
}

func (r *Report) OK() bool {
	return r.Failed == 0
}
