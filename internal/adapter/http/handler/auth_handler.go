package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"

	. "accountapp/internal/adapter/http/helper"
	. "accountapp/internal/adapter/http/validation"
	"accountapp/internal/core/domain"
	"accountapp/internal/core/model/request"
	"accountapp/internal/core/model/response"
	"accountapp/internal/core/port"
	"accountapp/internal/core/util"
	. "accountapp/pkg/tracing"
)

type AuthHandler struct {
	svc    port.AuthService
	logger *otelzap.Logger
}

func NewAuthHandler(svc port.AuthService, logger *otelzap.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

func (a *AuthHandler) Login(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.auth.Login", []attribute.KeyValue{
		attribute.String("handler.method", c.Request.Method),
		attribute.String("handler.path", c.FullPath()),
	})
	defer span.End()

	c.Request = c.Request.WithContext(ctx)

	params, err := util.BindJSON[request.LoginRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request body")
		return
	}

	// Malformed credentials cannot match any account.
	if err := Validator.Struct(params); err != nil {
		SendUnauthorizedError(c, domain.ErrInvalidCredentials.Error())
		return
	}

	token, err := a.svc.Login(ctx, params.Login, params.Password)

	if err != nil {
		AddSpanError(span, err)
		SendDomainError(c, a.logger, err)
		return
	}

	SendSuccess(c, http.StatusOK, response.TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   token.ExpiresAt,
	})
}
