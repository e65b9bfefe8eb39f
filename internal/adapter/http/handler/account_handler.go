package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	. "accountapp/internal/adapter/http/helper"
	"accountapp/internal/adapter/http/middleware"
	. "accountapp/internal/adapter/http/validation"
	"accountapp/internal/core/domain"
	"accountapp/internal/core/model/request"
	"accountapp/internal/core/model/response"
	"accountapp/internal/core/port"
	"accountapp/internal/core/util"
	. "accountapp/pkg/tracing"
)

type AccountHandler struct {
	svc    port.AccountService
	logger *otelzap.Logger
}

func NewAccountHandler(svc port.AccountService, logger *otelzap.Logger) *AccountHandler {
	return &AccountHandler{
		svc:    svc,
		logger: logger,
	}
}

func (h *AccountHandler) span(c *gin.Context, operation string) trace.Span {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.account."+operation, []attribute.KeyValue{
		attribute.String("handler.operation", operation),
		attribute.String("handler.method", c.Request.Method),
		attribute.String("handler.path", c.FullPath()),
	})

	c.Request = c.Request.WithContext(ctx)

	return span
}

func (h *AccountHandler) fail(c *gin.Context, span trace.Span, err error) {
	AddSpanError(span, err)
	SendDomainError(c, h.logger, err)
}

func (h *AccountHandler) Create(c *gin.Context) {
	span := h.span(c, "Create")
	defer span.End()

	params, ok := bind[request.CreateAccountRequest](c)

	if !ok {
		return
	}

	gender, err := domain.ParseGender(params.Gender)

	if err != nil {
		SendBadRequestError(c, "gender", err.Error())
		return
	}

	birthday, ok := parseBirthday(c, params.Birthday)

	if !ok {
		return
	}

	claims, _ := middleware.GetClaims(c)

	account, err := h.svc.Create(c.Request.Context(), domain.AccountDraft{
		Login:      params.Login,
		Credential: params.Password,
		Name:       params.Name,
		Gender:     gender,
		Birthday:   birthday,
		IsAdmin:    params.IsAdmin,
	}, claims.Login)

	if err != nil {
		h.fail(c, span, err)
		return
	}

	SendSuccess(c, http.StatusCreated, response.NewAccountResponse(account))
}

func (h *AccountHandler) Update(c *gin.Context) {
	span := h.span(c, "Update")
	defer span.End()

	id, ok := pathID(c)

	if !ok {
		return
	}

	params, ok := bind[request.UpdateAccountRequest](c)

	if !ok {
		return
	}

	patch := domain.AccountPatch{Name: params.Name}

	if params.Gender != nil {
		gender, err := domain.ParseGender(*params.Gender)

		if err != nil {
			SendBadRequestError(c, "gender", err.Error())
			return
		}

		patch.Gender = &gender
	}

	if patch.Birthday, ok = parseBirthday(c, params.Birthday); !ok {
		return
	}

	account, err := h.svc.Update(c.Request.Context(), id, patch, actor(c))

	if err != nil {
		h.fail(c, span, err)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewAccountResponse(account))
}

func (h *AccountHandler) ChangePassword(c *gin.Context) {
	span := h.span(c, "ChangePassword")
	defer span.End()

	id, ok := pathID(c)

	if !ok {
		return
	}

	params, ok := bind[request.PasswordRequest](c)

	if !ok {
		return
	}

	account, err := h.svc.ChangeCredential(c.Request.Context(), id, params.Password, actor(c))

	if err != nil {
		h.fail(c, span, err)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewAccountResponse(account))
}

func (h *AccountHandler) ChangeLogin(c *gin.Context) {
	span := h.span(c, "ChangeLogin")
	defer span.End()

	id, ok := pathID(c)

	if !ok {
		return
	}

	params, ok := bind[request.ChangeLoginRequest](c)

	if !ok {
		return
	}

	account, err := h.svc.ChangeLogin(c.Request.Context(), id, params.Login, actor(c))

	if err != nil {
		h.fail(c, span, err)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewAccountResponse(account))
}

func (h *AccountHandler) Revoke(c *gin.Context) {
	span := h.span(c, "Revoke")
	defer span.End()

	id, ok := pathID(c)

	if !ok {
		return
	}

	soft := true

	if raw := c.Query("soft"); raw != "" {
		parsed, err := strconv.ParseBool(raw)

		if err != nil {
			SendBadRequestError(c, "soft", "soft must be true or false")
			return
		}

		soft = parsed
	}

	span.SetAttributes(attribute.Bool("account.soft_revoke", soft))

	if err := h.svc.Revoke(c.Request.Context(), id, actor(c).Login, soft); err != nil {
		h.fail(c, span, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) Restore(c *gin.Context) {
	span := h.span(c, "Restore")
	defer span.End()

	id, ok := pathID(c)

	if !ok {
		return
	}

	account, err := h.svc.Restore(c.Request.Context(), id, actor(c).Login)

	if err != nil {
		h.fail(c, span, err)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewAccountResponse(account))
}

func (h *AccountHandler) List(c *gin.Context) {
	span := h.span(c, "List")
	defer span.End()

	revoked := false

	if raw := c.Query("revoked"); raw != "" {
		parsed, err := strconv.ParseBool(raw)

		if err != nil {
			SendBadRequestError(c, "revoked", "revoked must be true or false")
			return
		}

		revoked = parsed
	}

	accounts, err := h.svc.List(c.Request.Context(), revoked)

	if err != nil {
		h.fail(c, span, err)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewAccountResponses(accounts))
}

func (h *AccountHandler) FindByLogin(c *gin.Context) {
	span := h.span(c, "FindByLogin")
	defer span.End()

	account, err := h.svc.FindByLogin(c.Request.Context(), c.Param("login"))

	if err != nil {
		h.fail(c, span, err)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewAccountResponse(account))
}

// Me re-checks the caller's credential and returns the caller's account.
func (h *AccountHandler) Me(c *gin.Context) {
	span := h.span(c, "Me")
	defer span.End()

	params, ok := bind[request.PasswordRequest](c)

	if !ok {
		return
	}

	account, err := h.svc.FindByLoginAndCredential(c.Request.Context(), actor(c).Login, params.Password)

	if err != nil {
		h.fail(c, span, err)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewAccountResponse(account))
}

func (h *AccountHandler) ListOlderThan(c *gin.Context) {
	span := h.span(c, "ListOlderThan")
	defer span.End()

	age, err := strconv.Atoi(c.Param("age"))

	if err != nil {
		SendBadRequestError(c, "age", "age must be an integer")
		return
	}

	accounts, err := h.svc.ListOlderThan(c.Request.Context(), age)

	if err != nil {
		h.fail(c, span, err)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewAccountResponses(accounts))
}

func bind[T any](c *gin.Context) (T, bool) {
	params, err := util.BindJSON[T](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request body")
		return params, false
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return params, false
	}

	return params, true
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))

	if err != nil {
		SendBadRequestError(c, "id", "id must be a UUID")
		return uuid.Nil, false
	}

	return id, true
}

func parseBirthday(c *gin.Context, raw *string) (*time.Time, bool) {
	if raw == nil {
		return nil, true
	}

	birthday, err := time.Parse(time.DateOnly, *raw)

	if err != nil {
		SendBadRequestError(c, "birthday", "birthday must be YYYY-MM-DD")
		return nil, false
	}

	return &birthday, true
}

func actor(c *gin.Context) domain.Actor {
	claims, _ := middleware.GetClaims(c)
	return claims.Actor()
}
