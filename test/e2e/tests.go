package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/qaharness/api-test-framework/api/v1"
	"github.com/qaharness/api-test-framework/internal/config"
	"github.com/qaharness/api-test-framework/pkg/cases"
	"github.com/qaharness/api-test-framework/pkg/database"
	"github.com/qaharness/api-test-framework/pkg/request"
	"github.com/qaharness/api-test-framework/pkg/session"
	"github.com/qaharness/api-test-framework/test/e2e/infra"
	"github.com/qaharness/api-test-framework/test/e2e/service"
)

const caseSuite = `
name: e2e smoke
login:
  path: /login
  json:
    username: qa
    password: secret
cases:
  - name: whoami
    path: /me
    expect:
      json:
        data.username: qa
  - name: echo
    method: post
    path: /echo
    json:
      note: hello
    expect:
      json:
        data.note: hello
  - name: paid orders
    db:
      sql: SELECT id FROM orders WHERE status = ?
      args: [paid]
      expect_rows: 2
  - name: host name
    ssh:
      command: hostname
      stdout_contains: e2e-host
      stderr_empty: true
`

var _ = Describe("Harness", Ordered, func() {
	var (
		ctx       context.Context
		svc       *service.HarnessSvc
		dbPath    string
		targetURL string
		sshAddr   infra.SSHAddress
	)

	local := func() {
		if cfg.InfraMode != "local" {
			Skip("needs the in-process DuckDB target")
		}
	}

	BeforeAll(func() {
		ctx = context.Background()

		dir, err := os.MkdirTemp("", "harness-e2e-")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		dbPath = filepath.Join(dir, "shop.duckdb")
		seed := database.New("duckdb", dbPath)
		_, err = seed.Execute(ctx, "CREATE TABLE orders (id INTEGER, status VARCHAR)")
		Expect(err).NotTo(HaveOccurred())
		_, err = seed.Execute(ctx, "INSERT INTO orders VALUES (1, 'paid'), (2, 'open'), (3, 'paid')")
		Expect(err).NotTo(HaveOccurred())
		seed.Close()

		targetURL, err = infraManager.StartTargetAPI()
		Expect(err).NotTo(HaveOccurred())

		sshAddr, err = infraManager.StartSSH()
		Expect(err).NotTo(HaveOccurred())

		harnessURL, err := infraManager.StartHarness(infra.HarnessConfig{
			TargetURL:    targetURL,
			SSH:          sshAddr,
			DatabasePath: dbPath,
		})
		Expect(err).NotTo(HaveOccurred())

		svc, err = service.NewHarnessService(harnessURL)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		Expect(infraManager.StopHarness()).To(Succeed())
		Expect(infraManager.StopSSH()).To(Succeed())
		Expect(infraManager.StopTargetAPI()).To(Succeed())
	})

	Context("server", func() {
		It("should answer unknown routes with a 404 envelope", func() {
			status, _, err := svc.Raw(ctx, http.MethodGet, "/api/nope", nil)

			Expect(err).To(HaveOccurred())
			Expect(status).To(Equal(http.StatusNotFound))
		})

		It("should expose prometheus metrics", func() {
			_, err := svc.ListEnvironments(ctx)
			Expect(err).NotTo(HaveOccurred())

			text, err := svc.Metrics(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(ContainSubstring("go_goroutines"))
			if cfg.InfraMode == "local" {
				Expect(text).To(ContainSubstring("harness_http_requests_total"))
			}
		})
	})

	Context("environments", func() {
		It("should list the test environment", func() {
			names, err := svc.ListEnvironments(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(ContainElement(infra.EnvName))
		})

		It("should report which checks the environment supports", func() {
			local()

			envs, err := svc.DescribeEnvironments(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(envs).To(ConsistOf(v1.Environment{Name: infra.EnvName, BaseURL: targetURL, HasDB: true, HasSSH: true}))
		})
	})

	Context("ssh", func() {
		It("should run a command on the environment host", func() {
			res, err := svc.SSHExec(ctx, infra.EnvName, "hostname")

			Expect(err).NotTo(HaveOccurred())
			Expect(res.ExitCode).To(Equal(0))
			Expect(res.Stdout).NotTo(BeEmpty())
		})

		It("should return a non-zero exit code as data", func() {
			res, err := svc.SSHExec(ctx, infra.EnvName, "false")

			Expect(err).NotTo(HaveOccurred())
			Expect(res.ExitCode).NotTo(Equal(0))
		})

		It("should reject a blank command", func() {
			_, err := svc.SSHExec(ctx, infra.EnvName, "   ")

			Expect(service.StatusOf(err)).To(Equal(http.StatusBadRequest))
		})
	})

	Context("sql", func() {
		BeforeEach(local)

		It("should return rows of a read statement", func() {
			res, err := svc.SQLExec(ctx, v1.SQLExecRequest{Env: infra.EnvName, SQL: "SELECT id, status FROM orders WHERE status = 'paid' ORDER BY id"})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Read).To(BeTrue())
			Expect(res.SQL).To(HaveSuffix("LIMIT 100"))
			Expect(res.Columns).To(Equal([]string{"id", "status"}))
			Expect(res.RowCount).To(Equal(2))
		})

		It("should export rows as csv", func() {
			resp, err := svc.Export(ctx, v1.SQLExecRequest{Alias: infra.DatabaseAlias, SQL: "SELECT id FROM orders ORDER BY id"}, "csv")

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/csv"))
			Expect(resp.Text()).To(Equal("id\n1\n2\n3\n"))
		})

		It("should map a failing statement to 502", func() {
			_, err := svc.SQLExec(ctx, v1.SQLExecRequest{SQL: "SELECT * FROM missing_table"})

			Expect(service.StatusOf(err)).To(Equal(http.StatusBadGateway))
		})
	})

	Context("visual builder", func() {
		It("should list aliases and operations", func() {
			meta, err := svc.Meta(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(meta.OperationTypes).To(Equal([]string{"SELECT", "UPDATE", "DELETE"}))
			if cfg.InfraMode == "local" {
				Expect(meta.Aliases).To(Equal([]string{infra.DatabaseAlias}))
			}
		})

		It("should preview a statement with bound arguments", func() {
			res, err := svc.Generate(ctx, v1.QueryParams{
				OperationType: "UPDATE",
				TableName:     "orders",
				UpdateFields:  []v1.Assignment{{Field: "status", Value: "closed"}},
				Conditions:    []v1.Condition{{Field: "id", Operator: "=", Value: "2"}},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.SQL).To(Equal("UPDATE orders SET status = ? WHERE id = ?"))
			Expect(res.Args).To(HaveLen(2))
		})

		It("should refuse an update without conditions", func() {
			_, err := svc.Generate(ctx, v1.QueryParams{
				OperationType: "UPDATE",
				TableName:     "orders",
				UpdateFields:  []v1.Assignment{{Field: "status", Value: "closed"}},
			})

			Expect(service.StatusOf(err)).To(Equal(http.StatusBadRequest))
		})
	})

	Context("saved queries", func() {
		BeforeEach(local)

		// Given a saved builder configuration
		// When it is listed, fetched, run and deleted through the API
		// Then every call should agree on the stored query
		It("should go through the whole lifecycle", func() {
			// Arrange
			saved, err := svc.SaveQuery(ctx, v1.SavedQueryRequest{
				QueryParams: v1.QueryParams{
					OperationType: "SELECT",
					TableName:     "orders",
					Fields:        []string{"id"},
					Conditions:    []v1.Condition{{Field: "status", Operator: "=", Value: "paid"}},
				},
				ConfigName: "e2e paid orders",
				DBAlias:    infra.DatabaseAlias,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.ID).To(BeNumerically(">", 0))
			// the alias database qualifies the table; DuckDB names the catalog after the file
			Expect(saved.SQLText).To(Equal("SELECT id FROM shop.orders WHERE status = 'paid'"))

			// Act + Assert: list
			list, err := svc.ListQueries(ctx, map[string]string{"name": "e2e"})
			Expect(err).NotTo(HaveOccurred())
			Expect(list.Total).To(Equal(1))
			Expect(list.Queries[0].ID).To(Equal(saved.ID))

			// get
			got, err := svc.GetQuery(ctx, saved.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ConfigName).To(Equal("e2e paid orders"))

			// exec
			res, err := svc.ExecQuery(ctx, saved.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.RowCount).To(Equal(2))

			// delete
			Expect(svc.DeleteQuery(ctx, saved.ID)).To(Succeed())
			_, err = svc.GetQuery(ctx, saved.ID)
			Expect(service.StatusOf(err)).To(Equal(http.StatusNotFound))
		})
	})

	Context("target api", func() {
		BeforeEach(local)

		It("should reach authenticated routes with a pre-issued token", func() {
			token, err := infraManager.GenerateToken(infra.TargetUsername)
			Expect(err).NotTo(HaveOccurred())

			sess := session.New()
			Expect(sess.SetToken(token)).To(Succeed())
			Expect(sess.IsValid()).To(BeTrue())

			client, err := request.New(config.Environment{BaseURL: targetURL, AuthHeader: "Authorization", AuthScheme: "Bearer", MaxRetries: 1}, sess)
			Expect(err).NotTo(HaveOccurred())

			resp, err := client.Get(ctx, "/me")

			Expect(err).NotTo(HaveOccurred())
			username, found := resp.Lookup("data.username")
			Expect(found).To(BeTrue())
			Expect(username).To(Equal(infra.TargetUsername))
		})
	})

	Context("case runner", func() {
		BeforeEach(local)

		It("should run a suite against the target api, database and host", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "smoke.yaml")
			Expect(os.WriteFile(path, []byte(caseSuite), 0o600)).To(Succeed())

			suite, err := cases.Load(path)
			Expect(err).NotTo(HaveOccurred())

			harnessCfg := config.NewConfigurationWithOptionsAndDefaults(
				config.WithEnvironment(infra.EnvName, config.Environment{
					BaseURL:     targetURL,
					DBHost:      "duckdb.local",
					SSHHost:     sshAddr.Host,
					SSHPort:     sshAddr.Port,
					SSHUser:     infra.SSHUsername,
					SSHPassword: infra.SSHPassword,
				}),
			)
			runner := cases.NewRunner(harnessCfg, cases.WithDatabaseFactory(func(config.DatabaseTarget) *database.Client {
				return database.New("duckdb", dbPath)
			}))

			report, err := runner.Run(ctx, suite, infra.EnvName)
			Expect(err).NotTo(HaveOccurred())
			for _, r := range report.Results {
				Expect(r.Failures).To(BeEmpty(), r.Case)
			}
			Expect(report.Passed).To(Equal(4))

			out := cases.DefaultReportPath(dir, suite.Name)
			Expect(report.WriteXLSX(out)).To(Succeed())
			Expect(out).To(BeAnExistingFile())
		})
	})
})
