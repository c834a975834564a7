package store_test

import (
	"context"
	"database/sql"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/qaharness/api-test-framework/internal/models"
	"github.com/qaharness/api-test-framework/internal/store"
	"github.com/qaharness/api-test-framework/internal/store/migrations"
	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
	"github.com/qaharness/api-test-framework/pkg/secret"
	"github.com/qaharness/api-test-framework/pkg/sqlbuilder"
)

func newSavedQuery(name, alias string, op sqlbuilder.Operation) *models.SavedQuery {
	return &models.SavedQuery{
		ConfigName: name,
		DBAlias:    alias,
		DBHost:     "10.0.0.5",
		DBPort:     3306,
		DBUser:     "qa",
		DBPassword: "s3cret",
		DBName:     "shop",
		TableName:  "orders",
		Operation:  op,
		Fields:     []string{"id", "status"},
		Conditions: []sqlbuilder.Condition{
			{Field: "status", Operator: "=", Value: "paid", Connector: "AND"},
			{Field: "amount", Operator: ">", Value: "10"},
		},
		UpdateFields: []sqlbuilder.Assignment{{Field: "status", Value: "closed"}},
		LimitNum:     "20",
		SQLText:      "SELECT id, status FROM shop.orders WHERE status = 'paid' AND amount > '10' LIMIT 20",
		Remark:       "smoke",
	}
}

var _ = Describe("SavedQueryStore", func() {
	var (
		ctx    context.Context
		s      *store.Store
		db     *sql.DB
		cipher *secret.Cipher
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())

		err = migrations.Run(ctx, db)
		Expect(err).NotTo(HaveOccurred())

		cipher, err = secret.New("web_sql_manager!", "web_iv_20260211!")
		Expect(err).NotTo(HaveOccurred())

		s = store.NewStore(db, cipher)
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Context("Save", func() {
		// Given a new saved query
		// When we save it
		// Then it should get an id and the password should be encrypted at rest
		It("should assign an id and encrypt the password", func() {
			// Arrange
			q := newSavedQuery("paid orders", "shop_db", sqlbuilder.OperationSelect)

			// Act
			err := s.SavedQuery().Save(ctx, q)

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(q.ID).To(BeNumerically(">", 0))
			Expect(q.CreatedAt.IsZero()).To(BeFalse())

			var stored string
			err = db.QueryRowContext(ctx, "SELECT db_password FROM saved_sql_queries WHERE id = ?", q.ID).Scan(&stored)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).NotTo(Equal("s3cret"))

			plain, err := cipher.Decrypt(stored)
			Expect(err).NotTo(HaveOccurred())
			Expect(plain).To(Equal("s3cret"))
		})

		// Given a saved query without a name
		// When we save it
		// Then it should fail validation
		It("should reject an empty config name", func() {
			// Arrange
			q := newSavedQuery("", "shop_db", sqlbuilder.OperationSelect)

			// Act
			err := s.SavedQuery().Save(ctx, q)

			// Assert
			Expect(err).To(HaveOccurred())
			Expect(srvErrors.IsValidationError(err)).To(BeTrue())
		})

		// Given two saved queries
		// When both are saved
		// Then their ids should increase
		It("should assign increasing ids", func() {
			first := newSavedQuery("a", "shop_db", sqlbuilder.OperationSelect)
			second := newSavedQuery("b", "shop_db", sqlbuilder.OperationSelect)

			Expect(s.SavedQuery().Save(ctx, first)).To(Succeed())
			Expect(s.SavedQuery().Save(ctx, second)).To(Succeed())

			Expect(second.ID).To(BeNumerically(">", first.ID))
		})
	})

	Context("Get", func() {
		// Given an empty store
		// When we get an unknown id
		// Then it should return ResourceNotFoundError
		It("should return ResourceNotFoundError for an unknown id", func() {
			// Act
			_, err := s.SavedQuery().Get(ctx, 42)

			// Assert
			Expect(err).To(HaveOccurred())
			Expect(srvErrors.IsResourceNotFoundError(err)).To(BeTrue())
		})

		// Given a saved query
		// When we get it by id
		// Then every field should round-trip and the password should be decrypted
		It("should return the saved query with its password", func() {
			// Arrange
			q := newSavedQuery("paid orders", "shop_db", sqlbuilder.OperationSelect)
			Expect(s.SavedQuery().Save(ctx, q)).To(Succeed())

			// Act
			got, err := s.SavedQuery().Get(ctx, q.ID)

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ConfigName).To(Equal("paid orders"))
			Expect(got.DBAlias).To(Equal("shop_db"))
			Expect(got.DBPort).To(Equal(3306))
			Expect(got.DBPassword).To(Equal("s3cret"))
			Expect(got.Operation).To(Equal(sqlbuilder.OperationSelect))
			Expect(got.Fields).To(Equal([]string{"id", "status"}))
			Expect(got.Conditions).To(HaveLen(2))
			Expect(got.Conditions[0].Connector).To(Equal("AND"))
			Expect(got.UpdateFields).To(Equal([]sqlbuilder.Assignment{{Field: "status", Value: "closed"}}))
			Expect(got.LimitNum).To(Equal("20"))
			Expect(got.Remark).To(Equal("smoke"))
		})

		// Given a saved query without a password
		// When we get it
		// Then the password should stay empty
		It("should keep an empty password empty", func() {
			q := newSavedQuery("no pass", "", sqlbuilder.OperationDelete)
			q.DBPassword = ""
			Expect(s.SavedQuery().Save(ctx, q)).To(Succeed())

			got, err := s.SavedQuery().Get(ctx, q.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(got.DBPassword).To(BeEmpty())
		})
	})

	Context("List", func() {
		BeforeEach(func() {
			for _, q := range []*models.SavedQuery{
				newSavedQuery("paid orders", "shop_db", sqlbuilder.OperationSelect),
				newSavedQuery("close orders", "shop_db", sqlbuilder.OperationUpdate),
				newSavedQuery("purge users", "user_db", sqlbuilder.OperationDelete),
			} {
				Expect(s.SavedQuery().Save(ctx, q)).To(Succeed())
			}
		})

		// Given three saved queries
		// When we list without options
		// Then all should be returned newest first without passwords
		It("should list newest first and hide passwords", func() {
			// Act
			list, err := s.SavedQuery().List(ctx)

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(3))
			Expect(list[0].ConfigName).To(Equal("purge users"))
			Expect(list[2].ConfigName).To(Equal("paid orders"))
			for _, q := range list {
				Expect(q.DBPassword).To(BeEmpty())
			}
		})

		It("should filter by alias", func() {
			list, err := s.SavedQuery().List(ctx, store.ByAliases("user_db"), store.WithDefaultSort())

			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].ConfigName).To(Equal("purge users"))
		})

		It("should filter by operation", func() {
			list, err := s.SavedQuery().List(ctx,
				store.ByOperations(sqlbuilder.OperationSelect, sqlbuilder.OperationUpdate),
				store.WithDefaultSort(),
			)

			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
		})

		It("should match config names case-insensitively", func() {
			list, err := s.SavedQuery().List(ctx, store.ByConfigName("ORDERS"))

			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
		})

		It("should page with limit and offset", func() {
			list, err := s.SavedQuery().List(ctx, store.WithDefaultSort(), store.WithLimit(1), store.WithOffset(1))

			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].ConfigName).To(Equal("close orders"))
		})

		It("should count with filters", func() {
			count, err := s.SavedQuery().Count(ctx, store.ByAliases("shop_db"))

			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(2))
		})
	})

	Context("Delete", func() {
		// Given a saved query
		// When we delete it
		// Then it should no longer be found
		It("should delete an existing query", func() {
			// Arrange
			q := newSavedQuery("paid orders", "shop_db", sqlbuilder.OperationSelect)
			Expect(s.SavedQuery().Save(ctx, q)).To(Succeed())

			// Act
			err := s.SavedQuery().Delete(ctx, q.ID)

			// Assert
			Expect(err).NotTo(HaveOccurred())
			_, err = s.SavedQuery().Get(ctx, q.ID)
			Expect(srvErrors.IsResourceNotFoundError(err)).To(BeTrue())
		})

		It("should return ResourceNotFoundError for an unknown id", func() {
			err := s.SavedQuery().Delete(ctx, 7)

			Expect(srvErrors.IsResourceNotFoundError(err)).To(BeTrue())
		})
	})
})
