// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agrisetu Contributors

//go:build integration

package account_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"golang.org/x/crypto/bcrypt"

	"github.com/agrisetu/agrisetu/internal/account"
	"github.com/agrisetu/agrisetu/internal/account/accounttest"
	"github.com/agrisetu/agrisetu/internal/account/postgres"
)

var _ = Describe("Account lifecycle", func() {
	var (
		ctx      context.Context
		svc      *account.CredentialService
		notifier *accounttest.Notifier
		clock    *accounttest.Clock
	)

	BeforeEach(func() {
		ctx = context.Background()
		cleanupDatabase(ctx, env.pool)

		notifier = &accounttest.Notifier{}
		clock = accounttest.NewClock(time.Now().UTC().Truncate(time.Microsecond))

		identities, err := account.NewIdentityStore(postgres.NewAccountRepository(env.pool), nil)
		Expect(err).NotTo(HaveOccurred())
		ledger, err := account.NewOTPLedger(postgres.NewOTPRepository(env.pool), account.LedgerOptions{
			TTL: 5 * time.Minute,
			Now: clock.Now,
		})
		Expect(err).NotTo(HaveOccurred())
		hasher := account.NewArgon2idHasherWithParams(account.Argon2Params{Memory: 8, Time: 1, Threads: 1})

		svc, err = account.NewCredentialService(identities, ledger, hasher, notifier)
		Expect(err).NotTo(HaveOccurred())
	})

	register := func(name, email, phone, password, role, location string) *account.Registration {
		reg, err := svc.Register(ctx, account.RegisterInput{
			Name:     name,
			Email:    email,
			Phone:    phone,
			Password: password,
			Role:     role,
			Location: location,
		})
		Expect(err).NotTo(HaveOccurred())
		return reg
	}

	Describe("registration, login and recovery", func() {
		It("follows a farmer from sign-up through a password reset", func() {
			reg := register("Asha", "a@x.com", "9990001111", "pw123", "farmer", "Nellore")
			Expect(reg.Message).To(Equal(account.MsgRegistered))

			profile, err := svc.Login(ctx, "a@x.com", "pw123")
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Role).To(Equal(account.RoleFarmer))
			Expect(profile.Name).To(Equal("Asha"))

			_, err = svc.Login(ctx, "a@x.com", "wrong")
			Expect(account.ErrorCode(err)).To(Equal(account.CodeInvalidCredentials))

			Expect(svc.InitiatePasswordRecovery(ctx, "a@x.com")).To(Succeed())
			Expect(notifier.Sent()).To(HaveLen(1))
			Expect(notifier.Sent()[0].To).To(Equal("a@x.com"))
			Expect(notifier.Sent()[0].Body).To(ContainSubstring("5 minutes"))
			code := notifier.LastCode()
			Expect(code).To(MatchRegexp(`^[0-9]{6}$`))

			var expiresAt, issuedAt time.Time
			Expect(env.pool.QueryRow(ctx,
				`SELECT issued_at, expires_at FROM password_otps WHERE account_id = $1`,
				reg.AccountID.String()).Scan(&issuedAt, &expiresAt)).To(Succeed())
			Expect(expiresAt.Sub(issuedAt)).To(Equal(5 * time.Minute))

			Expect(svc.CompletePasswordRecovery(ctx, "a@x.com", code, "newpw456")).To(Succeed())

			_, err = svc.Login(ctx, "a@x.com", "pw123")
			Expect(account.ErrorCode(err)).To(Equal(account.CodeInvalidCredentials))
			_, err = svc.Login(ctx, "a@x.com", "newpw456")
			Expect(err).NotTo(HaveOccurred())
		})

		It("fails unknown emails and wrong passwords identically", func() {
			register("Asha", "a@x.com", "", "pw123", "farmer", "")

			_, wrongPassword := svc.Login(ctx, "a@x.com", "nope")
			_, unknownEmail := svc.Login(ctx, "ghost@x.com", "nope")
			Expect(account.ErrorCode(wrongPassword)).To(Equal(account.ErrorCode(unknownEmail)))
			Expect(account.PublicMessage(wrongPassword)).To(Equal(account.PublicMessage(unknownEmail)))
		})

		It("rejects an expired code and keeps the old password", func() {
			register("Asha", "a@x.com", "", "pw123", "farmer", "")
			Expect(svc.InitiatePasswordRecovery(ctx, "a@x.com")).To(Succeed())
			code := notifier.LastCode()

			clock.Advance(5*time.Minute + time.Second)

			err := svc.CompletePasswordRecovery(ctx, "a@x.com", code, "late")
			Expect(account.ErrorCode(err)).To(Equal(account.CodeCodeExpired))
			_, err = svc.Login(ctx, "a@x.com", "pw123")
			Expect(err).NotTo(HaveOccurred())
		})

		It("lets exactly one concurrent caller spend a code", func() {
			register("Asha", "a@x.com", "", "pw123", "farmer", "")
			Expect(svc.InitiatePasswordRecovery(ctx, "a@x.com")).To(Succeed())
			code := notifier.LastCode()

			var wg sync.WaitGroup
			var successes atomic.Int32
			for range 8 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					if svc.CompletePasswordRecovery(ctx, "a@x.com", code, "raced") == nil {
						successes.Add(1)
					}
				}()
			}
			wg.Wait()
			Expect(successes.Load()).To(Equal(int32(1)))
		})

		It("upgrades a legacy bcrypt digest on login", func() {
			reg := register("Asha", "a@x.com", "", "pw123", "farmer", "")
			legacy, err := bcrypt.GenerateFromPassword([]byte("pw123"), bcrypt.MinCost)
			Expect(err).NotTo(HaveOccurred())
			_, err = env.pool.Exec(ctx, `UPDATE accounts SET password_hash = $1 WHERE id = $2`,
				string(legacy), reg.AccountID.String())
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Login(ctx, "a@x.com", "pw123")
			Expect(err).NotTo(HaveOccurred())

			var stored string
			Expect(env.pool.QueryRow(ctx, `SELECT password_hash FROM accounts WHERE id = $1`,
				reg.AccountID.String()).Scan(&stored)).To(Succeed())
			Expect(strings.HasPrefix(stored, "$argon2id$")).To(BeTrue())
		})
	})

	Describe("uniqueness", func() {
		BeforeEach(func() {
			register("Asha", "a@x.com", "9990001111", "pw123", "farmer", "")
		})

		It("rejects an email that differs only in case", func() {
			_, err := svc.Register(ctx, account.RegisterInput{Email: "A@X.COM", Password: "pw", Role: "supplier"})
			Expect(account.ErrorCode(err)).To(Equal(account.CodeEmailTaken))
		})

		It("rejects a phone number already in use", func() {
			_, err := svc.Register(ctx, account.RegisterInput{
				Email: "b@x.com", Phone: "999-000-1111", Password: "pw", Role: "supplier",
			})
			Expect(account.ErrorCode(err)).To(Equal(account.CodePhoneTaken))
		})
	})

	Describe("role details and deletion", func() {
		It("updates supplier details and cascades deletion", func() {
			reg := register("Ravi", "shop@x.com", "", "pw123", "supplier", "Guntur")

			shop := "Ravi Agro"
			approved := true
			detail, err := svc.UpdateRoleDetail(ctx, reg.AccountID, account.DetailPatch{
				Role: account.RoleSupplier,
				Supplier: &account.SupplierPatch{
					ShopName:     &shop,
					Approved:     &approved,
					ServiceAreas: []string{"Guntur", "Tenali"},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Supplier.ShopName).To(Equal("Ravi Agro"))

			info, err := svc.GetAccount(ctx, reg.AccountID)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Detail.Supplier.ServiceAreas).To(Equal([]string{"Guntur", "Tenali"}))
			Expect(info.Detail.Supplier.Approved).To(BeTrue())

			Expect(svc.InitiatePasswordRecovery(ctx, "shop@x.com")).To(Succeed())
			Expect(svc.DeleteAccount(ctx, reg.AccountID)).To(Succeed())

			var details, codes int
			Expect(env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM supplier_details WHERE account_id = $1`,
				reg.AccountID.String()).Scan(&details)).To(Succeed())
			Expect(env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM password_otps WHERE account_id = $1`,
				reg.AccountID.String()).Scan(&codes)).To(Succeed())
			Expect(details).To(BeZero())
			Expect(codes).To(BeZero())

			_, err = svc.GetAccount(ctx, reg.AccountID)
			Expect(account.ErrorCode(err)).To(Equal(account.CodeNotFound))
		})
	})
})
