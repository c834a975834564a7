package services_test

import (
	"context"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/qaharness/api-test-framework/internal/config"
	"github.com/qaharness/api-test-framework/internal/services"
	"github.com/qaharness/api-test-framework/pkg/database"
	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
)

// duckdbTarget seeds an orders table in a DuckDB file and returns a factory
// that points every client at it, recording the requested targets.
func duckdbTarget(ctx context.Context, rows int) (string, services.DatabaseFactory, *[]config.DatabaseTarget) {
	path := filepath.Join(GinkgoT().TempDir(), "shop.duckdb")

	seed := database.New("duckdb", path)
	_, err := seed.Execute(ctx, "CREATE TABLE orders (id INTEGER, status VARCHAR, amount INTEGER)")
	Expect(err).NotTo(HaveOccurred())
	for i := 1; i <= rows; i++ {
		status := "paid"
		if i%2 == 0 {
			status = "open"
		}
		_, err := seed.Execute(ctx, "INSERT INTO orders VALUES (?, ?, ?)", i, status, i*10)
		Expect(err).NotTo(HaveOccurred())
	}
	seed.Close()

	var seen []config.DatabaseTarget
	factory := func(t config.DatabaseTarget) *database.Client {
		seen = append(seen, t)
		return database.New("duckdb", path)
	}
	return path, factory, &seen
}

func newTestConfig(maxRows int) *config.Configuration {
	return config.NewConfigurationWithOptionsAndDefaults(
		config.WithEnvironment("test", config.Environment{
			BaseURL: "http://localhost",
			DBHost:  "db.test",
			DBUser:  "qa",
			DBName:  "shop",
		}),
		config.WithEnvironment("pre", config.Environment{BaseURL: "http://pre"}),
		config.WithWeb(config.Web{
			MaxResultRows: maxRows,
			AESKey:        "web_sql_manager!",
			AESIV:         "web_iv_20260211!",
			Databases: map[string]config.DatabaseTarget{
				"report_db": {Host: "db.report", Port: 3307, User: "ro", Password: "pw", Name: "report"},
			},
		}),
	)
}

var _ = Describe("SQLService", func() {
	var (
		ctx  context.Context
		cfg  *config.Configuration
		srv  *services.SQLService
		seen *[]config.DatabaseTarget
	)

	BeforeEach(func() {
		ctx = context.Background()
		cfg = newTestConfig(3)

		var factory services.DatabaseFactory
		_, factory, seen = duckdbTarget(ctx, 5)
		srv = services.NewSQLService(cfg, factory)
	})

	Describe("Exec", func() {
		// Given a SELECT without LIMIT and a result cap of 3
		// When we execute it
		// Then LIMIT 3 should be appended and 3 rows returned
		It("should cap select statements", func() {
			// Act
			result, err := srv.Exec(ctx, services.Target{Env: "test"}, "SELECT id, status FROM orders ORDER BY id")

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Read).To(BeTrue())
			Expect(result.SQL).To(HaveSuffix("LIMIT 3"))
			Expect(result.Rows).To(HaveLen(3))
			Expect(result.Columns).To(Equal([]string{"id", "status"}))
		})

		It("should report columns of an empty result", func() {
			result, err := srv.Exec(ctx, services.Target{Env: "test"}, "SELECT id, status FROM orders WHERE id < 0")

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Rows).To(BeEmpty())
			Expect(result.Columns).To(Equal([]string{"id", "status"}))
		})

		It("should keep an explicit limit", func() {
			result, err := srv.Exec(ctx, services.Target{Env: "test"}, "select id from orders order by id limit 2")

			Expect(err).NotTo(HaveOccurred())
			Expect(result.SQL).NotTo(HaveSuffix("LIMIT 3"))
			Expect(result.Rows).To(HaveLen(2))
		})

		It("should return affected rows for writes", func() {
			result, err := srv.Exec(ctx, services.Target{Env: "test"}, "UPDATE orders SET status = 'closed' WHERE status = 'paid'")

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Read).To(BeFalse())
			Expect(result.Affected).To(Equal(int64(3)))
		})

		It("should default to the test environment", func() {
			_, err := srv.Exec(ctx, services.Target{}, "SELECT 1")

			Expect(err).NotTo(HaveOccurred())
			Expect(*seen).To(HaveLen(1))
			Expect((*seen)[0].Host).To(Equal("db.test"))
		})

		It("should prefer the alias over the environment", func() {
			_, err := srv.Exec(ctx, services.Target{Env: "test", Alias: "report_db"}, "SELECT 1")

			Expect(err).NotTo(HaveOccurred())
			Expect((*seen)[0].Host).To(Equal("db.report"))
			Expect((*seen)[0].Port).To(Equal(3307))
		})

		It("should reject an empty statement", func() {
			_, err := srv.Exec(ctx, services.Target{}, "   ")

			Expect(srvErrors.IsValidationError(err)).To(BeTrue())
			Expect(*seen).To(BeEmpty())
		})

		It("should report unknown environments", func() {
			_, err := srv.Exec(ctx, services.Target{Env: "nope"}, "SELECT 1")

			Expect(srvErrors.IsResourceNotFoundError(err)).To(BeTrue())
		})

		It("should reject environments without a database", func() {
			_, err := srv.Exec(ctx, services.Target{Env: "pre"}, "SELECT 1")

			Expect(srvErrors.IsValidationError(err)).To(BeTrue())
		})

		It("should report unknown aliases", func() {
			_, err := srv.Exec(ctx, services.Target{Alias: "ghost"}, "SELECT 1")

			Expect(srvErrors.IsResourceNotFoundError(err)).To(BeTrue())
		})
	})

	Describe("Meta", func() {
		It("should list builder choices and aliases", func() {
			meta := srv.Meta()

			Expect(meta.Aliases).To(Equal([]string{"report_db"}))
			Expect(meta.Operators).To(ContainElements("=", "BETWEEN", "IS NULL"))
			Expect(meta.Connectors).To(Equal([]string{"AND", "OR"}))
			Expect(meta.MaxResultRows).To(Equal(3))
		})
	})

	Describe("Export", func() {
		It("should export csv with a header row", func() {
			export, err := srv.Export(ctx, services.Target{}, "SELECT id, status FROM orders ORDER BY id", "csv")

			Expect(err).NotTo(HaveOccurred())
			Expect(export.Filename).To(HaveSuffix(".csv"))
			lines := strings.Split(strings.TrimSpace(string(export.Data)), "\n")
			Expect(lines).To(HaveLen(4))
			Expect(lines[0]).To(Equal("id,status"))
			Expect(lines[1]).To(Equal("1,paid"))
		})

		It("should keep the header when nothing matches", func() {
			export, err := srv.Export(ctx, services.Target{}, "SELECT id, status FROM orders WHERE status = 'gone'", "csv")

			Expect(err).NotTo(HaveOccurred())
			Expect(string(export.Data)).To(Equal("id,status\n"))
		})

		It("should export xlsx", func() {
			export, err := srv.Export(ctx, services.Target{}, "SELECT id, status FROM orders ORDER BY id", "xlsx")
			Expect(err).NotTo(HaveOccurred())

			f, err := excelize.OpenReader(strings.NewReader(string(export.Data)))
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()

			rows, err := f.GetRows("Result")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(4))
			Expect(rows[0]).To(Equal([]string{"id", "status"}))
			Expect(rows[2]).To(Equal([]string{"2", "open"}))
		})

		It("should refuse write statements", func() {
			_, err := srv.Export(ctx, services.Target{}, "DELETE FROM orders", "csv")

			Expect(srvErrors.IsValidationError(err)).To(BeTrue())
			Expect(*seen).To(BeEmpty())
		})

		It("should refuse unknown formats", func() {
			_, err := srv.Export(ctx, services.Target{}, "SELECT 1", "pdf")

			Expect(srvErrors.IsValidationError(err)).To(BeTrue())
		})
	})
})

var _ = DescribeTable("IsReadStatement",
	func(query string, expected bool) {
		Expect(services.IsReadStatement(query)).To(Equal(expected))
	},
	Entry("select", "SELECT * FROM t", true),
	Entry("lower case with spaces", "  select 1", true),
	Entry("show", "SHOW TABLES", true),
	Entry("desc", "DESC orders", true),
	Entry("describe", "describe orders", true),
	Entry("explain", "EXPLAIN SELECT 1", true),
	Entry("update", "UPDATE t SET a = 1", false),
	Entry("selection prefix is not select", "SELECTION", false),
	Entry("empty", "", false),
)

var _ = DescribeTable("LimitReadStatement",
	func(query, expected string) {
		Expect(services.LimitReadStatement(query, 100)).To(Equal(expected))
	},
	Entry("appends to select", "SELECT * FROM t", "SELECT * FROM t LIMIT 100"),
	Entry("strips trailing semicolon", "SELECT * FROM t;", "SELECT * FROM t LIMIT 100"),
	Entry("keeps existing limit", "SELECT * FROM t limit 5", "SELECT * FROM t limit 5"),
	Entry("leaves show alone", "SHOW TABLES", "SHOW TABLES"),
	Entry("column named limited is not a limit", "SELECT limited FROM t", "SELECT limited FROM t LIMIT 100"),
)
