package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"accountapp/internal/core/domain"
	"accountapp/internal/core/port"
)

const revokedTokenPrefix = "token_revoked:"

// RevocationList remembers, per account, the instant before which every
// issued token is refused. Markers expire together with the longest-lived
// token they could affect.
type RevocationList struct {
	cache  port.CacheRepository
	ttl    time.Duration
	logger *otelzap.Logger
}

func NewRevocationList(cache port.CacheRepository, ttl time.Duration, logger *otelzap.Logger) *RevocationList {
	return &RevocationList{cache: cache, ttl: ttl, logger: logger}
}

func revokedTokenKey(id uuid.UUID) string {
	return revokedTokenPrefix + id.String()
}

// RevokeTokens never fails the caller: the account change it follows has
// already been persisted.
func (r *RevocationList) RevokeTokens(ctx context.Context, id uuid.UUID, at time.Time) {
	value := strconv.FormatInt(at.Unix(), 10)

	if err := r.cache.Set(ctx, revokedTokenKey(id), []byte(value), r.ttl); err != nil {
		r.logger.Ctx(ctx).Error("Failed to store token revocation",
			zap.String("account_id", id.String()),
			zap.Error(err))
	}
}

// IsRevoked reports whether the token was issued strictly before the
// account's revocation marker.
func (r *RevocationList) IsRevoked(ctx context.Context, claims domain.Claims) (bool, error) {
	raw, err := r.cache.Get(ctx, revokedTokenKey(claims.Subject))

	if errors.Is(err, port.ErrCacheMiss) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("read revocation marker: %w", err)
	}

	revokedAt, err := strconv.ParseInt(string(raw), 10, 64)

	if err != nil {
		return false, fmt.Errorf("corrupt revocation marker %q: %w", raw, err)
	}

	return claims.IssuedAt.Unix() < revokedAt, nil
}

type noopRevoker struct{}

func (noopRevoker) RevokeTokens(context.Context, uuid.UUID, time.Time) {}

func (noopRevoker) IsRevoked(context.Context, domain.Claims) (bool, error) {
	return false, nil
}
