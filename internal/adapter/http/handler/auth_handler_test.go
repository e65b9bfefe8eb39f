package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"

	"accountapp/internal/adapter/database/sqlite"
	"accountapp/internal/adapter/database/sqlite/repository"
	"accountapp/internal/adapter/http/middleware"
	"accountapp/internal/core/domain"
	"accountapp/internal/core/model/response"
	"accountapp/internal/core/port"
	"accountapp/internal/core/service"
	"accountapp/pkg/auth"
	. "accountapp/pkg/test"
	"accountapp/pkg/test/factory"
)

type AuthHandlerSuite struct {
	suite.Suite
	DB          *sqlite.DB
	AccountRepo port.AccountRepository
	Issuer      *auth.JWT
	Router      *gin.Engine
}

func (s *AuthHandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.DB = InitTestDB()
	s.AccountRepo = repository.NewAccountRepository(s.DB, nil)

	issuer, err := auth.NewJWT(auth.Config{
		Secret:   "handler-secret",
		Issuer:   "accountapp",
		Audience: "accountapp-clients",
		Lifetime: time.Hour,
	})
	s.Require().NoError(err)
	s.Issuer = issuer

	authUseCase := service.NewAuthService(s.AccountRepo, issuer, NopLogger(), nil)
	s.Router = setupAuthRouter(NewAuthHandler(authUseCase, NopLogger()))
}

func (s *AuthHandlerSuite) TearDownTest() {
	s.DB.Close()
}

func TestAuthHandlerSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(AuthHandlerSuite))
}

func setupAuthRouter(authHandler *AuthHandler) *gin.Engine {
	router := gin.New()
	router.Use(middleware.CurrentMiddleware())

	public := router.Group("/api/users")
	{
		public.POST("/login", authHandler.Login)
	}

	return router
}

func (s *AuthHandlerSuite) seed(login string, isAdmin bool) domain.Account {
	account, err := s.AccountRepo.Create(context.Background(), factory.NewAccount(map[string]any{
		"Login":   login,
		"IsAdmin": isAdmin,
	}))
	s.Require().NoError(err)

	return account
}

func (s *AuthHandlerSuite) login(body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)

	return rr
}

func (s *AuthHandlerSuite) TestLoginSuccess() {
	account := s.seed("alice1", true)

	rr := s.login(`{"login": "alice1", "password": "` + factory.DefaultCredential + `"}`)

	Expect(rr.Code).To(Equal(http.StatusOK))

	var body struct {
		Data response.TokenResponse `json:"data"`
	}
	Expect(json.Unmarshal(rr.Body.Bytes(), &body)).To(Succeed())

	Expect(body.Data.TokenType).To(Equal("Bearer"))
	Expect(body.Data.ExpiresAt).To(BeTemporally(">", time.Now()))

	claims, err := s.Issuer.Verify(body.Data.AccessToken)
	Expect(err).ToNot(HaveOccurred())
	Expect(claims.Subject).To(Equal(account.ID))
	Expect(claims.Login).To(Equal("alice1"))
	Expect(claims.Role).To(Equal(domain.RoleAdmin))
}

func (s *AuthHandlerSuite) TestLoginFailuresLookAlike() {
	s.seed("bob", false)

	cases := map[string]string{
		"wrong password":  `{"login": "bob", "password": "nope123"}`,
		"unknown login":   `{"login": "ghost", "password": "` + factory.DefaultCredential + `"}`,
		"malformed login": `{"login": "b-o-b", "password": "` + factory.DefaultCredential + `"}`,
		"empty password":  `{"login": "bob", "password": ""}`,
	}

	var messages []string

	for name, body := range cases {
		rr := s.login(body)

		s.Equal(http.StatusUnauthorized, rr.Code, name)

		data := response.ErrorResponse{}
		s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &data), name)
		s.Equal("UNAUTHORIZED", data.Error.Code, name)
		s.Require().NotEmpty(data.Error.Errors, name)

		messages = append(messages, data.Error.Errors[0].Message)
	}

	for _, message := range messages {
		Expect(message).To(Equal(messages[0]))
	}
}

func (s *AuthHandlerSuite) TestLoginRevokedAccount() {
	account := s.seed("carol", false)
	account.Revoke("admin", time.Now().UTC())

	_, err := s.AccountRepo.Update(context.Background(), account)
	s.Require().NoError(err)

	rr := s.login(`{"login": "carol", "password": "` + factory.DefaultCredential + `"}`)

	Expect(rr.Code).To(Equal(http.StatusUnauthorized))
}

func (s *AuthHandlerSuite) TestLoginInvalidBody() {
	rr := s.login(`{"login": `)

	Expect(rr.Code).To(Equal(http.StatusBadRequest))

	data := response.ErrorResponse{}
	Expect(json.Unmarshal(rr.Body.Bytes(), &data)).To(Succeed())
	Expect(data.Error.Code).To(Equal("BAD_REQUEST"))
}
