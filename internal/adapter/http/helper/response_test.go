package helper

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"accountapp/internal/core/domain"
	"accountapp/internal/core/model/response"
	ct "accountapp/pkg/context"
)

func sendDomainError(err error) (*httptest.ResponseRecorder, response.ErrorResponse) {
	gin.SetMode(gin.TestMode)

	current := ct.NewCurrent()
	current.Set(ct.RequestIDKey, "req-7")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/api/users/x", nil)
	c.Request = c.Request.WithContext(ct.WithCurrent(c.Request.Context(), current))

	SendDomainError(c, otelzap.New(zap.NewNop()), err)

	body := response.ErrorResponse{}
	Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())

	return w, body
}

func TestSendDomainError_StatusMapping(t *testing.T) {
	RegisterTestingT(t)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("name: %w", domain.ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR"},
		{fmt.Errorf("%w: login %q is already taken", domain.ErrConflict, "bob"), http.StatusConflict, "CONFLICT"},
		{fmt.Errorf("%w: account is gone", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		w, body := sendDomainError(tc.err)

		Expect(w.Code).To(Equal(tc.status), tc.err.Error())
		Expect(body.Error.Code).To(Equal(tc.code), tc.err.Error())
	}
}

func TestSendDomainError_StaleVersionConflictIsNotBlamedOnLogin(t *testing.T) {
	RegisterTestingT(t)

	_, body := sendDomainError(fmt.Errorf("%w: account was modified concurrently", domain.ErrConflict))

	Expect(body.Error.Errors).To(HaveLen(1))
	Expect(body.Error.Errors[0].Field).To(Equal("request"))
}

func TestSendDomainError_InternalErrorHidesCause(t *testing.T) {
	RegisterTestingT(t)

	w, body := sendDomainError(errors.New("pq: connection refused"))

	Expect(w.Body.String()).ToNot(ContainSubstring("connection refused"))
	Expect(body.Error.Details).To(HaveKeyWithValue("request_id", "req-7"))
}
