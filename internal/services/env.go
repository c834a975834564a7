package services

import "github.com/qaharness/api-test-framework/internal/config"

type EnvService struct {
	cfg *config.Configuration
}

func NewEnvService(cfg *config.Configuration) *EnvService {
	return &EnvService{cfg: cfg}
}

// EnvSummary describes an environment without exposing credentials.
type EnvSummary struct {
	Name    string
	BaseURL string
	HasDB   bool
	HasSSH  bool
}

func (s *EnvService) List() []string {
	return s.cfg.EnvironmentNames()
}

func (s *EnvService) Describe() []EnvSummary {
	names := s.cfg.EnvironmentNames()
	out := make([]EnvSummary, 0, len(names))
	for _, name := range names {
		env := s.cfg.Environments[name]
		out = append(out, EnvSummary{
			Name:    name,
			BaseURL: env.BaseURL,
			HasDB:   env.DBHost != "",
			HasSSH:  env.SSHHost != "",
		})
	}
	return out
}
