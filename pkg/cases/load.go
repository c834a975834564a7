package cases

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
)

const defaultTokenPath = "data.token"

// Load reads a suite file. The suite name defaults to the file name.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite %s: %w", path, err)
	}

	suite, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("suite %s: %w", path, err)
	}
	if suite.Name == "" {
		suite.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return suite, nil
}

// Parse decodes and validates a suite. Unknown keys are rejected.
func Parse(data []byte) (*Suite, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var suite Suite
	if err := dec.Decode(&suite); err != nil && !errors.Is(err, io.EOF) {
		return nil, srvErrors.NewValidationError("suite", "invalid yaml: %v", err)
	}

	if err := suite.normalize(); err != nil {
		return nil, err
	}

	return &suite, nil
}

func (s *Suite) normalize() error {
	if len(s.Cases) == 0 {
		return srvErrors.NewValidationError("cases", "suite has no cases")
	}
	if s.Workers <= 0 {
		s.Workers = 1
	}

	if s.Login != nil {
		if s.Login.Path == "" {
			return srvErrors.NewValidationError("login.path", "must not be empty")
		}
		if s.Login.TokenPath == "" {
			s.Login.TokenPath = defaultTokenPath
		}
	}

	seen := map[string]bool{}
	for i := range s.Cases {
		c := &s.Cases[i]
		if c.Name == "" {
			c.Name = fmt.Sprintf("case_%d", i+1)
		}
		if seen[c.Name] {
			return srvErrors.NewValidationError("cases", "duplicate case name %q", c.Name)
		}
		seen[c.Name] = true

		if c.Path == "" && c.DB == nil && c.SSH == nil {
			return srvErrors.NewValidationError("cases", "case %q has nothing to run", c.Name)
		}
		if c.Path != "" {
			c.Method = strings.ToUpper(c.Method)
			if c.Method == "" {
				c.Method = "GET"
			}
		}
		if c.JSON != nil && c.Form != nil {
			return srvErrors.NewValidationError("cases", "case %q sets both json and form", c.Name)
		}
		if c.DB != nil && strings.TrimSpace(c.DB.SQL) == "" {
			return srvErrors.NewValidationError("cases", "case %q has a db check without sql", c.Name)
		}
		if c.SSH != nil && strings.TrimSpace(c.SSH.Command) == "" {
			return srvErrors.NewValidationError("cases", "case %q has an ssh check without command", c.Name)
		}
	}

	return nil
}
