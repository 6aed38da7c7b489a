// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/agrisetu/agrisetu/internal/store"
)

var _ = Describe("Schema", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		pool      *pgxpool.Pool
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("agrisetu_test"),
			postgres.WithUsername("agrisetu"),
			postgres.WithPassword("agrisetu"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err := container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		pool, err = store.Connect(ctx, store.ConnectOptions{URL: connStr, Attempts: 3})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if pool != nil {
			pool.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	insertAccount := func(id, email, phone string) error {
		var phoneArg any
		if phone != "" {
			phoneArg = phone
		}
		_, err := pool.Exec(ctx,
			`INSERT INTO accounts (id, email, phone, password_hash, role) VALUES ($1, $2, $3, 'x', 'farmer')`,
			id, email, phoneArg)
		return err
	}

	constraintOf := func(err error) string {
		var pgErr *pgconn.PgError
		Expect(err).To(BeAssignableToTypeOf(pgErr))
		pgErr = err.(*pgconn.PgError) //nolint:errorlint // asserted above
		return pgErr.ConstraintName
	}

	It("treats emails case-insensitively for uniqueness", func() {
		Expect(insertAccount("A1", "asha@example.com", "")).To(Succeed())
		err := insertAccount("A2", "ASHA@example.com", "")
		Expect(err).To(HaveOccurred())
		Expect(constraintOf(err)).To(Equal("accounts_email_key"))
	})

	It("rejects a reused phone number", func() {
		Expect(insertAccount("B1", "b1@example.com", "+919800000001")).To(Succeed())
		err := insertAccount("B2", "b2@example.com", "+919800000001")
		Expect(err).To(HaveOccurred())
		Expect(constraintOf(err)).To(Equal("accounts_phone_key"))
	})

	It("allows any number of accounts without a phone", func() {
		Expect(insertAccount("C1", "c1@example.com", "")).To(Succeed())
		Expect(insertAccount("C2", "c2@example.com", "")).To(Succeed())
	})

	It("rejects malformed recovery codes", func() {
		Expect(insertAccount("D1", "d1@example.com", "")).To(Succeed())
		_, err := pool.Exec(ctx,
			`INSERT INTO password_otps (id, account_id, destination, code, issued_at, expires_at)
			 VALUES ('O1', 'D1', 'd1@example.com', '12ab56', now(), now() + interval '10 minutes')`)
		Expect(err).To(HaveOccurred())
	})

	It("cascades account deletion to details and codes", func() {
		Expect(insertAccount("E1", "e1@example.com", "")).To(Succeed())
		_, err := pool.Exec(ctx, `INSERT INTO farmer_details (account_id, farm_size) VALUES ('E1', 2.5)`)
		Expect(err).NotTo(HaveOccurred())
		_, err = pool.Exec(ctx,
			`INSERT INTO password_otps (id, account_id, destination, code, issued_at, expires_at)
			 VALUES ('O2', 'E1', 'e1@example.com', '123456', now(), now() + interval '10 minutes')`)
		Expect(err).NotTo(HaveOccurred())

		_, err = pool.Exec(ctx, `DELETE FROM accounts WHERE id = 'E1'`)
		Expect(err).NotTo(HaveOccurred())

		var details, codes int
		Expect(pool.QueryRow(ctx, `SELECT count(*) FROM farmer_details WHERE account_id = 'E1'`).Scan(&details)).To(Succeed())
		Expect(pool.QueryRow(ctx, `SELECT count(*) FROM password_otps WHERE account_id = 'E1'`).Scan(&codes)).To(Succeed())
		Expect(details).To(BeZero())
		Expect(codes).To(BeZero())
	})
})
