package service

import (
	"context"
	"errors"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"accountapp/internal/core/domain"
	"accountapp/internal/core/port"
	"accountapp/internal/core/telemetry"
	"accountapp/internal/core/util"
)

type AuthService struct {
	repo    port.AccountRepository
	issuer  port.TokenIssuer
	logger  *otelzap.Logger
	metrics *telemetry.AppMetrics
}

func NewAuthService(repo port.AccountRepository, issuer port.TokenIssuer, logger *otelzap.Logger, metrics *telemetry.AppMetrics) *AuthService {
	return &AuthService{repo: repo, issuer: issuer, logger: logger, metrics: metrics}
}

// Login exchanges an exact login and credential of an active account for a
// signed access token. Every authentication failure is reported as
// domain.ErrInvalidCredentials.
func (as *AuthService) Login(ctx context.Context, login, credential string) (domain.Token, error) {
	account, err := as.repo.GetByLogin(ctx, login)

	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Token{}, err
		}

		util.CompareDummy(credential)
		as.reject(ctx, login, "unknown_login")
		return domain.Token{}, domain.ErrInvalidCredentials
	}

	if err := util.ComparePassword(credential, account.CredentialHash); err != nil {
		as.reject(ctx, login, "credential_mismatch")
		return domain.Token{}, domain.ErrInvalidCredentials
	}

	if account.IsRevoked() {
		as.reject(ctx, login, "revoked")
		return domain.Token{}, domain.ErrInvalidCredentials
	}

	token, err := as.issuer.Issue(domain.ClaimsFor(account))

	if err != nil {
		return domain.Token{}, err
	}

	as.record(ctx, "success")
	as.logger.Ctx(ctx).Info("Login succeeded", zap.String("login", login))

	return token, nil
}

func (as *AuthService) reject(ctx context.Context, login, reason string) {
	as.record(ctx, "invalid_credentials")
	as.logger.Ctx(ctx).Info("Login rejected",
		zap.String("login", login),
		zap.String("reason", reason))
}

func (as *AuthService) record(ctx context.Context, outcome string) {
	if as.metrics != nil {
		as.metrics.RecordLoginAttempt(ctx, outcome)
	}
}
