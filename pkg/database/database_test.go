package database_test

import (
	"context"
	"encoding/json"

	_ "github.com/duckdb/duckdb-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/qaharness/api-test-framework/internal/config"
	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
	"github.com/qaharness/api-test-framework/pkg/database"
)

var _ = Describe("Client", func() {
	var (
		ctx context.Context
		db  *database.Client
	)

	count := func() int64 {
		row, err := db.QueryOne(ctx, "SELECT COUNT(*) AS n FROM users")
		Expect(err).NotTo(HaveOccurred())
		n, _ := row.Get("n")
		return n.(int64)
	}

	BeforeEach(func() {
		ctx = context.Background()
		db = database.New("duckdb", "")

		_, err := db.Execute(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, name VARCHAR, age INTEGER)")
		Expect(err).NotTo(HaveOccurred())
		_, err = db.Execute(ctx, "INSERT INTO users VALUES (1, 'ann', 30), (2, 'bob', 25)")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		db.Close()
	})

	Describe("Connect", func() {
		It("should surface driver errors", func() {
			bad := database.New("no-such-driver", "")
			err := bad.Connect(ctx)
			Expect(srvErrors.IsResourceError(err)).To(BeTrue())
		})

		It("should be idempotent", func() {
			Expect(db.Connect(ctx)).To(Succeed())
			Expect(db.Connect(ctx)).To(Succeed())
		})
	})

	Describe("Query", func() {
		It("should return rows in column order", func() {
			// Act
			rows, err := db.Query(ctx, "SELECT name, id FROM users WHERE age > ? ORDER BY id", 20)

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
			Expect(rows[0].Columns).To(Equal([]string{"name", "id"}))
			Expect(rows[0].Values[0]).To(Equal("ann"))

			data, err := json.Marshal(rows[1])
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(`{"name":"bob","id":2}`))
		})

		It("should return an empty slice when nothing matches", func() {
			rows, err := db.Query(ctx, "SELECT * FROM users WHERE id = ?", 99)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(BeEmpty())

			row, err := db.QueryOne(ctx, "SELECT * FROM users WHERE id = ?", 99)
			Expect(err).NotTo(HaveOccurred())
			Expect(row).To(BeNil())
		})

		It("should report columns of an empty result", func() {
			columns, rows, err := db.QueryColumns(ctx, "SELECT name, id FROM users WHERE id = ?", 99)

			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(BeEmpty())
			Expect(columns).To(Equal([]string{"name", "id"}))
		})

		It("should wrap statement errors", func() {
			_, err := db.Query(ctx, "SELECT * FROM missing_table")
			Expect(srvErrors.IsResourceError(err)).To(BeTrue())
		})
	})

	Describe("Execute", func() {
		It("should commit and report affected rows", func() {
			n, err := db.Execute(ctx, "UPDATE users SET age = age + 1 WHERE age < ?", 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeEquivalentTo(2))

			row, err := db.QueryOne(ctx, "SELECT age FROM users WHERE id = 1")
			Expect(err).NotTo(HaveOccurred())
			Expect(row.Map()["age"]).To(BeEquivalentTo(31))
		})

		It("should leave the row count unchanged when a statement fails", func() {
			// Given a table with two rows
			Expect(count()).To(BeEquivalentTo(2))

			// When an insert violates the primary key
			_, err := db.Execute(ctx, "INSERT INTO users VALUES (1, 'dup', 1)")

			// Then the error surfaces and nothing was written
			Expect(srvErrors.IsResourceError(err)).To(BeTrue())
			Expect(count()).To(BeEquivalentTo(2))
		})

		It("should insert many rows in one transaction", func() {
			n, err := db.ExecuteMany(ctx, "INSERT INTO users VALUES (?, ?, ?)", [][]any{
				{3, "cid", 40},
				{4, "dan", 41},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeEquivalentTo(2))
			Expect(count()).To(BeEquivalentTo(4))
		})

		It("should write nothing when one of many rows fails", func() {
			_, err := db.ExecuteMany(ctx, "INSERT INTO users VALUES (?, ?, ?)", [][]any{
				{5, "eve", 22},
				{1, "dup", 1},
			})
			Expect(err).To(HaveOccurred())
			Expect(count()).To(BeEquivalentTo(2))
		})
	})

	Describe("transactions", func() {
		It("should discard work on Rollback", func() {
			Expect(db.Begin(ctx)).To(Succeed())
			_, err := db.Execute(ctx, "DELETE FROM users")
			Expect(err).NotTo(HaveOccurred())
			Expect(db.Rollback()).To(Succeed())

			Expect(count()).To(BeEquivalentTo(2))
		})

		It("should keep work on Commit", func() {
			Expect(db.Begin(ctx)).To(Succeed())
			_, err := db.Execute(ctx, "DELETE FROM users WHERE id = 2")
			Expect(err).NotTo(HaveOccurred())
			Expect(db.InTransaction()).To(BeTrue())
			Expect(db.Commit()).To(Succeed())

			Expect(db.InTransaction()).To(BeFalse())
			Expect(count()).To(BeEquivalentTo(1))
		})

		It("should roll back the whole transaction when a statement fails", func() {
			// Arrange
			Expect(db.Begin(ctx)).To(Succeed())
			_, err := db.Execute(ctx, "INSERT INTO users VALUES (3, 'cid', 40)")
			Expect(err).NotTo(HaveOccurred())

			// Act
			_, err = db.Execute(ctx, "INSERT INTO users VALUES (1, 'dup', 1)")

			// Assert
			Expect(err).To(HaveOccurred())
			Expect(db.InTransaction()).To(BeFalse())
			Expect(count()).To(BeEquivalentTo(2))
		})

		It("should reject Commit without Begin", func() {
			Expect(srvErrors.IsValidationError(db.Commit())).To(BeTrue())
			Expect(srvErrors.IsValidationError(db.Rollback())).To(BeTrue())
		})

		It("should reject a nested Begin", func() {
			Expect(db.Begin(ctx)).To(Succeed())
			Expect(srvErrors.IsValidationError(db.Begin(ctx))).To(BeTrue())
			Expect(db.Rollback()).To(Succeed())
		})
	})

	Describe("Close", func() {
		It("should tolerate repeated calls and closing before connect", func() {
			db.Close()
			db.Close()

			fresh := database.New("duckdb", "")
			fresh.Close()
		})
	})

	Describe("NewMySQL", func() {
		It("should fail to connect to an unreachable target with a resource error", func() {
			c := database.NewMySQL(config.DatabaseTarget{
				Host: "127.0.0.1",
				Port: 1,
				User: "qa",
				Name: "shop",
			}, config.Database{Charset: "utf8mb4"})

			err := c.Connect(ctx)
			Expect(srvErrors.IsResourceError(err)).To(BeTrue())
		})
	})
})
