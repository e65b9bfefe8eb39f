package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"accountapp/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, login, credential string) (domain.Token, error)
}

// TokenIssuer signs and verifies access tokens.
type TokenIssuer interface {
	Issue(claims domain.Claims) (domain.Token, error)
	Verify(token string) (domain.Claims, error)
	Lifetime() time.Duration
}

// TokenRevoker tracks accounts whose outstanding tokens must be refused.
type TokenRevoker interface {
	RevokeTokens(ctx context.Context, id uuid.UUID, at time.Time)
	IsRevoked(ctx context.Context, claims domain.Claims) (bool, error)
}
