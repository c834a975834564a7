/*
Package main provides end-to-end tests for the harness web utility and case runner.

# Package Structure

	test/e2e/
	├── main.go          Entry point: flags, config, InfraManager setup, Ginkgo runner
	├── tests.go         Ginkgo specs (server, env, ssh, sql, builder, saved queries, case runner)
	├── doc.go           This file
	├── infra/
	│   ├── infra.go     InfraManager interface + HarnessConfig + credentials
	│   ├── local.go     LocalInfraManager (everything in-process)
	│   └── external.go  ExternalInfraManager (no-op, already running)
	└── service/
	    └── service.go   HarnessSvc: web utility client built on pkg/request

# InfraManager

	type InfraManager interface {
	    StartTargetAPI() / StopTargetAPI()
	    StartSSH()       / StopSSH()
	    StartHarness(cfg) / StopHarness()
	    GenerateToken(username)
	}

Two implementations:
  - LocalInfraManager starts the mock API and ssh host from test/infra and
    serves the web utility on a free port. SQL runs against a seeded DuckDB
    file instead of MySQL.
  - ExternalInfraManager reports the addresses given on the command line.
    Specs that need the seeded DuckDB data are skipped.

Selected via the -infra-mode flag ("local" or "external").

	┌──────────┐  HTTP  ┌─────────────┐  ssh  ┌──────────┐
	│  specs   │───────▶│  harness    │──────▶│ ssh host │
	│ (ginkgo) │        │  web utility│       └──────────┘
	└────┬─────┘        └──────┬──────┘
	     │ case runner         │ sql
	     ▼                     ▼
	┌──────────┐          ┌──────────┐
	│ target   │          │  DuckDB  │
	│ API      │          │  file    │
	└──────────┘          └──────────┘

# Running

	go run ./test/e2e
	go run ./test/e2e -infra-mode external -harness-url http://qa-box:5000 -target-url http://qa-box:8080/api
*/
package main
