package service_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"accountapp/internal/adapter/database/sqlite"
	"accountapp/internal/adapter/database/sqlite/repository"
	"accountapp/internal/core/domain"
	"accountapp/internal/core/port"
	"accountapp/internal/core/service"
	"accountapp/pkg/auth"
	. "accountapp/pkg/test"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db       *sqlite.DB
	issuer   *auth.JWT
	accounts *service.AccountService
	UseCase  port.AuthService
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.db = InitTestDB()
	repo := repository.NewAccountRepository(s.db, nil)

	issuer, err := auth.NewJWT(auth.Config{
		Secret:   "test-secret",
		Issuer:   "accountapp",
		Audience: "accountapp-clients",
		Lifetime: time.Hour,
	})
	s.Require().NoError(err)

	s.issuer = issuer
	s.accounts = service.NewAccountService(repo)
	s.UseCase = service.NewAuthService(repo, issuer, NopLogger(), nil)
}

func (s *AuthServiceTestSuite) TearDownTest() {
	s.db.Close()
}

func TestAuthServiceTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(AuthServiceTestSuite))
}

func (s *AuthServiceTestSuite) TestLogin_Scenario() {
	ctx := context.Background()

	account, err := s.accounts.Create(ctx, domain.AccountDraft{
		Login:      "alice1",
		Credential: "Pass123",
		Name:       "Alice",
	}, "admin")

	Expect(err).ToNot(HaveOccurred())
	Expect(account.CreatedBy).To(Equal("admin"))
	Expect(account.IsAdmin).To(BeFalse())

	token, err := s.UseCase.Login(ctx, "alice1", "Pass123")
	Expect(err).ToNot(HaveOccurred())
	Expect(token.AccessToken).ToNot(BeEmpty())

	claims, err := s.issuer.Verify(token.AccessToken)
	Expect(err).ToNot(HaveOccurred())
	Expect(claims.Subject).To(Equal(account.ID))
	Expect(claims.Login).To(Equal("alice1"))
	Expect(claims.Role).To(Equal(domain.RoleNone))
	Expect(claims.Role.String()).To(Equal("None"))

	Expect(s.accounts.Revoke(ctx, account.ID, "admin", true)).To(Succeed())

	_, err = s.UseCase.Login(ctx, "alice1", "Pass123")
	Expect(err).To(MatchError(domain.ErrInvalidCredentials))
}

func (s *AuthServiceTestSuite) TestLogin_AdminRole() {
	ctx := context.Background()

	_, err := s.accounts.Create(ctx, domain.AccountDraft{
		Login: "root", Credential: "Root123", Name: "Root", IsAdmin: true,
	}, domain.SystemActor)
	Expect(err).ToNot(HaveOccurred())

	token, err := s.UseCase.Login(ctx, "root", "Root123")
	Expect(err).ToNot(HaveOccurred())

	claims, _ := s.issuer.Verify(token.AccessToken)
	Expect(claims.Role).To(Equal(domain.RoleAdmin))
}

func (s *AuthServiceTestSuite) TestLogin_FailuresAreIndistinguishable() {
	ctx := context.Background()

	_, _ = s.accounts.Create(ctx, domain.AccountDraft{Login: "alice1", Credential: "Pass123", Name: "Alice"}, "admin")

	_, unknown := s.UseCase.Login(ctx, "nobody", "Pass123")
	_, mismatch := s.UseCase.Login(ctx, "alice1", "wrong")
	_, caseDiff := s.UseCase.Login(ctx, "Alice1", "Pass123")

	for _, err := range []error{unknown, mismatch, caseDiff} {
		assert.ErrorIs(s.T(), err, domain.ErrInvalidCredentials)
		assert.Equal(s.T(), domain.ErrInvalidCredentials.Error(), err.Error())
	}
}

func (s *AuthServiceTestSuite) TestLogin_AfterCredentialChange() {
	ctx := context.Background()

	account, _ := s.accounts.Create(ctx, domain.AccountDraft{Login: "alice1", Credential: "Pass123", Name: "Alice"}, "admin")

	_, err := s.accounts.ChangeCredential(ctx, account.ID, "NewPass1", domain.Actor{ID: account.ID, Login: account.Login})
	Expect(err).ToNot(HaveOccurred())

	_, err = s.UseCase.Login(ctx, "alice1", "NewPass1")
	Expect(err).ToNot(HaveOccurred())

	_, err = s.UseCase.Login(ctx, "alice1", "Pass123")
	Expect(err).To(MatchError(domain.ErrInvalidCredentials))
}
