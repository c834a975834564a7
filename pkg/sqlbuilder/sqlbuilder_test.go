package sqlbuilder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
	"github.com/qaharness/api-test-framework/pkg/sqlbuilder"
)

var _ = Describe("Builder", func() {
	Describe("Select", func() {
		It("should default to all fields", func() {
			stmt, err := sqlbuilder.Select(sqlbuilder.Params{Table: "users"})

			Expect(err).NotTo(HaveOccurred())
			Expect(stmt.SQL).To(Equal("SELECT * FROM users"))
			Expect(stmt.Args).To(BeEmpty())
			Expect(stmt.Text).To(Equal("SELECT * FROM users"))
		})

		It("should qualify the table and bind condition values", func() {
			// Arrange
			p := sqlbuilder.Params{
				DBName: "shop",
				Table:  "orders",
				Fields: []string{"id", "status"},
				Conditions: []sqlbuilder.Condition{
					{Field: "status", Operator: "=", Value: "paid", Connector: "OR"},
					{Field: "amount", Operator: ">=", Value: "100"},
				},
				Limit: "10",
			}

			// Act
			stmt, err := sqlbuilder.Select(p)

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(stmt.SQL).To(Equal("SELECT id, status FROM shop.orders WHERE status = ? OR amount >= ? LIMIT 10"))
			Expect(stmt.Args).To(Equal([]any{"paid", "100"}))
			Expect(stmt.Text).To(Equal("SELECT id, status FROM shop.orders WHERE status = 'paid' OR amount >= '100' LIMIT 10"))
		})

		It("should ignore a non numeric limit", func() {
			stmt, err := sqlbuilder.Select(sqlbuilder.Params{Table: "users", Limit: "ten"})
			Expect(err).NotTo(HaveOccurred())
			Expect(stmt.SQL).To(Equal("SELECT * FROM users"))
		})

		It("should skip incomplete conditions", func() {
			stmt, err := sqlbuilder.Select(sqlbuilder.Params{
				Table: "users",
				Conditions: []sqlbuilder.Condition{
					{Field: "", Operator: "=", Value: "x"},
					{Field: "age", Operator: "", Value: "1"},
					{Field: "age", Operator: "BETWEEN", Value: "1"},
					{Field: "age", Operator: "~", Value: "1"},
					{Field: "name", Operator: "like", Value: "an"},
				},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(stmt.SQL).To(Equal("SELECT * FROM users WHERE name LIKE ?"))
			Expect(stmt.Args).To(Equal([]any{"%an%"}))
		})

		It("should reject an invalid identifier", func() {
			_, err := sqlbuilder.Select(sqlbuilder.Params{Table: "users; DROP TABLE users"})
			Expect(srvErrors.IsValidationError(err)).To(BeTrue())

			_, err = sqlbuilder.Select(sqlbuilder.Params{Table: "users", Fields: []string{"id, 1"}})
			Expect(srvErrors.IsValidationError(err)).To(BeTrue())
		})

		It("should require a table", func() {
			_, err := sqlbuilder.Select(sqlbuilder.Params{})
			Expect(srvErrors.IsValidationError(err)).To(BeTrue())
		})
	})

	DescribeTable("operators",
		func(op, value, expectedSQL string, expectedArgs []any) {
			stmt, err := sqlbuilder.Select(sqlbuilder.Params{
				Table:      "t",
				Conditions: []sqlbuilder.Condition{{Field: "c", Operator: op, Value: value}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(stmt.SQL).To(Equal("SELECT * FROM t WHERE " + expectedSQL))
			Expect(stmt.Args).To(Equal(expectedArgs))
		},
		Entry("equal", "=", "1", "c = ?", []any{"1"}),
		Entry("not equal", "!=", "1", "c <> ?", []any{"1"}),
		Entry("less", "<", "1", "c < ?", []any{"1"}),
		Entry("less or equal", "<=", "1", "c <= ?", []any{"1"}),
		Entry("greater", ">", "1", "c > ?", []any{"1"}),
		Entry("not like", "NOT LIKE", "x", "c NOT LIKE ?", []any{"%x%"}),
		Entry("in", "IN", "a, b ,c", "c IN (?,?,?)", []any{"a", "b", "c"}),
		Entry("not in", "NOT IN", "a,b", "c NOT IN (?,?)", []any{"a", "b"}),
		Entry("between", "BETWEEN", "1, 5", "c BETWEEN ? AND ?", []any{"1", "5"}),
		Entry("not between", "not  between", "1,5", "c NOT BETWEEN ? AND ?", []any{"1", "5"}),
		Entry("is null", "IS NULL", "", "c IS NULL", []any{}),
		Entry("is not null", "IS NOT NULL", "", "c IS NOT NULL", []any{}),
	)

	Describe("Update", func() {
		It("should build a guarded update", func() {
			stmt, err := sqlbuilder.Update(sqlbuilder.Params{
				Table:        "users",
				UpdateFields: []sqlbuilder.Assignment{{Field: "name", Value: "ann"}, {Field: "age", Value: ""}},
				Conditions:   []sqlbuilder.Condition{{Field: "id", Operator: "=", Value: "1"}},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(stmt.SQL).To(Equal("UPDATE users SET name = ? WHERE id = ?"))
			Expect(stmt.Args).To(Equal([]any{"ann", "1"}))
		})

		It("should refuse an update without conditions", func() {
			// Given an update with only skipped conditions
			p := sqlbuilder.Params{
				Table:        "users",
				UpdateFields: []sqlbuilder.Assignment{{Field: "name", Value: "ann"}},
				Conditions:   []sqlbuilder.Condition{{Field: "id"}},
			}

			// When it is built
			_, err := sqlbuilder.Update(p)

			// Then the full table write is refused
			Expect(srvErrors.IsValidationError(err)).To(BeTrue())
		})

		It("should refuse an update without values", func() {
			_, err := sqlbuilder.Update(sqlbuilder.Params{
				Table:        "users",
				UpdateFields: []sqlbuilder.Assignment{{Field: "name"}},
				Conditions:   []sqlbuilder.Condition{{Field: "id", Operator: "=", Value: "1"}},
			})
			Expect(srvErrors.IsValidationError(err)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("should build a guarded delete", func() {
			stmt, err := sqlbuilder.Delete(sqlbuilder.Params{
				DBName:     "shop",
				Table:      "orders",
				Conditions: []sqlbuilder.Condition{{Field: "status", Operator: "IN", Value: "void,test"}},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(stmt.SQL).To(Equal("DELETE FROM shop.orders WHERE status IN (?,?)"))
		})

		It("should refuse a delete without conditions", func() {
			_, err := sqlbuilder.Delete(sqlbuilder.Params{Table: "orders"})
			Expect(srvErrors.IsValidationError(err)).To(BeTrue())
		})
	})

	Describe("Build", func() {
		It("should dispatch on the operation", func() {
			stmt, err := sqlbuilder.Build(sqlbuilder.Params{Operation: "select", Table: "users"})
			Expect(err).NotTo(HaveOccurred())
			Expect(stmt.SQL).To(HavePrefix("SELECT"))
		})

		It("should reject an unknown operation", func() {
			_, err := sqlbuilder.Build(sqlbuilder.Params{Operation: "TRUNCATE", Table: "users"})
			Expect(srvErrors.IsValidationError(err)).To(BeTrue())
		})
	})
})
