package services_test

import (
	"context"
	"database/sql"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/qaharness/api-test-framework/internal/config"
	"github.com/qaharness/api-test-framework/internal/models"
	"github.com/qaharness/api-test-framework/internal/services"
	"github.com/qaharness/api-test-framework/internal/store"
	"github.com/qaharness/api-test-framework/internal/store/migrations"
	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
	"github.com/qaharness/api-test-framework/pkg/secret"
	"github.com/qaharness/api-test-framework/pkg/sqlbuilder"
)

var _ = Describe("SavedQueryService", func() {
	var (
		ctx  context.Context
		db   *sql.DB
		srv  *services.SavedQueryService
		seen *[]config.DatabaseTarget
	)

	BeforeEach(func() {
		ctx = context.Background()
		cfg := newTestConfig(2)

		var factory services.DatabaseFactory
		_, factory, seen = duckdbTarget(ctx, 5)

		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())
		Expect(migrations.Run(ctx, db)).To(Succeed())

		cipher, err := secret.New(cfg.Web.AESKey, cfg.Web.AESIV)
		Expect(err).NotTo(HaveOccurred())

		srv = services.NewSavedQueryService(store.NewStore(db, cipher), services.NewSQLService(cfg, factory))
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	paidOrders := func() *models.SavedQuery {
		return &models.SavedQuery{
			ConfigName: "paid orders",
			DBAlias:    "report_db",
			TableName:  "orders",
			Operation:  sqlbuilder.OperationSelect,
			Fields:     []string{"id", "status"},
			Conditions: []sqlbuilder.Condition{{Field: "status", Operator: "=", Value: "paid"}},
		}
	}

	Describe("Save", func() {
		// Given a query that names only an alias
		// When we save it
		// Then the alias coordinates and the generated sql should be stored
		It("should fill alias coordinates and sql text", func() {
			// Arrange
			q := paidOrders()

			// Act
			err := srv.Save(ctx, q)

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(q.ID).To(BeNumerically(">", 0))
			Expect(q.DBHost).To(Equal("db.report"))
			Expect(q.DBName).To(Equal("report"))
			Expect(q.SQLText).To(Equal("SELECT id, status FROM report.orders WHERE status = 'paid'"))
		})

		It("should refuse an UPDATE without conditions", func() {
			q := paidOrders()
			q.Operation = sqlbuilder.OperationUpdate
			q.Conditions = nil
			q.UpdateFields = []sqlbuilder.Assignment{{Field: "status", Value: "closed"}}

			err := srv.Save(ctx, q)

			Expect(srvErrors.IsValidationError(err)).To(BeTrue())
			Expect(q.ID).To(BeZero())
		})

		It("should refuse an unknown alias", func() {
			q := paidOrders()
			q.DBAlias = "ghost"

			err := srv.Save(ctx, q)

			Expect(srvErrors.IsResourceNotFoundError(err)).To(BeTrue())
		})
	})

	Describe("List and Get", func() {
		It("should page and count", func() {
			for _, name := range []string{"a", "b", "c"} {
				q := paidOrders()
				q.ConfigName = name
				Expect(srv.Save(ctx, q)).To(Succeed())
			}

			result, err := srv.List(ctx, services.SavedQueryListParams{Limit: 2})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(3))
			Expect(result.Queries).To(HaveLen(2))
			Expect(result.Queries[0].ConfigName).To(Equal("c"))
		})

		It("should never return the password", func() {
			q := paidOrders()
			Expect(srv.Save(ctx, q)).To(Succeed())

			got, err := srv.Get(ctx, q.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(got.DBPassword).To(BeEmpty())
			Expect(got.DBUser).To(Equal("ro"))
		})
	})

	Describe("Exec", func() {
		// Given a saved SELECT without a limit and a result cap of 2
		// When we execute it
		// Then it should run against the saved target with the decrypted password
		It("should run the saved query against its target", func() {
			// Arrange
			q := paidOrders()
			q.DBName = ""
			q.DBAlias = ""
			q.DBHost = "db.saved"
			q.DBPort = 3306
			q.DBUser = "qa"
			q.DBPassword = "pw"
			Expect(srv.Save(ctx, q)).To(Succeed())

			// Act
			result, err := srv.Exec(ctx, q.ID)

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Rows).To(HaveLen(2))
			Expect(result.SQL).To(Equal("SELECT id, status FROM orders WHERE status = ? LIMIT 2"))
			Expect(*seen).To(HaveLen(1))
			Expect((*seen)[0].Host).To(Equal("db.saved"))
			Expect((*seen)[0].Password).To(Equal("pw"))
		})

		It("should report a missing query", func() {
			_, err := srv.Exec(ctx, 99)

			Expect(srvErrors.IsResourceNotFoundError(err)).To(BeTrue())
		})

		It("should delete a query", func() {
			q := paidOrders()
			Expect(srv.Save(ctx, q)).To(Succeed())

			Expect(srv.Delete(ctx, q.ID)).To(Succeed())
			Expect(srvErrors.IsResourceNotFoundError(srv.Delete(ctx, q.ID))).To(BeTrue())
		})
	})
})
