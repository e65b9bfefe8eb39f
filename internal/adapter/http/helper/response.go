package helper

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"accountapp/internal/adapter/http/validation"
	"accountapp/internal/core/domain"
	"accountapp/internal/core/model/response"
	ct "accountapp/pkg/context"
)

func SendSuccess(c *gin.Context, statusCode int, data any, message ...string) {
	response := response.SuccessResponse{
		Data: data,
	}

	if len(message) > 0 && message[0] != "" {
		response.Message = message[0]
	}

	c.JSON(statusCode, response)
}

func SendError(c *gin.Context, statusCode int, code string, errors []response.ValidationError, details ...any) {
	errorResponse := response.ErrorResponse{
		Error: response.ResponseError{
			Code:   code,
			Errors: errors,
		},
	}

	if len(details) > 0 {
		errorResponse.Error.Details = details[0]
	}

	c.JSON(statusCode, errorResponse)
}

func SendValidationError(c *gin.Context, err error) {
	validationErrors := validation.FormatValidationErrors(err)
	SendError(c, http.StatusBadRequest, "VALIDATION_ERROR", validationErrors)
}

func SendInternalError(c *gin.Context, message string, details ...any) {
	SendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", single("server", message), details...)
}

func SendUnauthorizedError(c *gin.Context, message string) {
	SendError(c, http.StatusUnauthorized, "UNAUTHORIZED", single("auth", message))
}

func SendForbiddenError(c *gin.Context, message string) {
	SendError(c, http.StatusForbidden, "FORBIDDEN", single("auth", message))
}

func SendBadRequestError(c *gin.Context, field string, message string) {
	SendError(c, http.StatusBadRequest, "BAD_REQUEST", single(field, message))
}

func SendNotFoundError(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, "NOT_FOUND", single("resource", message))
}

// SendDomainError answers with the status matching err's category. Errors
// outside the domain taxonomy are logged and reported only by request id.
func SendDomainError(c *gin.Context, logger *otelzap.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		SendError(c, http.StatusBadRequest, "VALIDATION_ERROR", single("request", err.Error()))
	case errors.Is(err, domain.ErrConflict):
		SendError(c, http.StatusConflict, "CONFLICT", single("request", err.Error()))
	case errors.Is(err, domain.ErrNotFound):
		SendNotFoundError(c, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		SendForbiddenError(c, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		SendUnauthorizedError(c, err.Error())
	default:
		requestID := ct.GetCurrent(c.Request.Context()).RequestID()

		logger.Ctx(c.Request.Context()).Error("Request failed",
			zap.String("request_id", requestID),
			zap.String("path", c.FullPath()),
			zap.Error(err))

		SendInternalError(c, "Internal server error", gin.H{"request_id": requestID})
	}
}

func single(field, message string) []response.ValidationError {
	return []response.ValidationError{{Field: field, Message: message}}
}
