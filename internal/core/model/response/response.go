package response

import (
	"time"

	"github.com/google/uuid"

	"accountapp/internal/core/domain"
)

type AccountResponse struct {
	ID         uuid.UUID  `json:"id"`
	Login      string     `json:"login"`
	Name       string     `json:"name"`
	Gender     string     `json:"gender"`
	Birthday   string     `json:"birthday,omitempty"`
	IsAdmin    bool       `json:"is_admin"`
	IsRevoked  bool       `json:"is_revoked"`
	CreatedAt  time.Time  `json:"created_at"`
	CreatedBy  string     `json:"created_by"`
	ModifiedAt time.Time  `json:"modified_at"`
	ModifiedBy string     `json:"modified_by"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	RevokedBy  *string    `json:"revoked_by,omitempty"`
}

// NewAccountResponse never exposes the credential hash.
func NewAccountResponse(account domain.Account) AccountResponse {
	out := AccountResponse{
		ID:         account.ID,
		Login:      account.Login,
		Name:       account.Name,
		Gender:     account.Gender.String(),
		IsAdmin:    account.IsAdmin,
		IsRevoked:  account.IsRevoked(),
		CreatedAt:  account.CreatedAt,
		CreatedBy:  account.CreatedBy,
		ModifiedAt: account.ModifiedAt,
		ModifiedBy: account.ModifiedBy,
		RevokedAt:  account.RevokedAt,
		RevokedBy:  account.RevokedBy,
	}

	if account.Birthday != nil {
		out.Birthday = account.Birthday.Format(time.DateOnly)
	}

	return out
}

func NewAccountResponses(accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))

	for _, account := range accounts {
		out = append(out, NewAccountResponse(account))
	}

	return out
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ResponseError struct {
	Code    string            `json:"code"`
	Errors  []ValidationError `json:"errors"`
	Details any               `json:"details,omitempty"`
}

type SuccessResponse struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error ResponseError `json:"error"`
}
