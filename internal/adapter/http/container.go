package http

import (
	"github.com/uptrace/opentelemetry-go-extra/otelzap"

	"accountapp/internal/adapter/http/handler"
	"accountapp/internal/core/port"
	"accountapp/internal/core/service"
	"accountapp/internal/core/telemetry"
)

type Container struct {
	AccountRepo port.AccountRepository

	AccountUseCase port.AccountService
	AuthUseCase    port.AuthService

	Issuer  port.TokenIssuer
	Revoker port.TokenRevoker

	AccountHandler *handler.AccountHandler
	AuthHandler    *handler.AuthHandler
}

// NewContainer wires the core services and handlers around an already
// opened store. probe and metrics may be nil.
func NewContainer(repo port.AccountRepository, issuer port.TokenIssuer, revoker port.TokenRevoker, probe port.Telemetry, metrics *telemetry.AppMetrics, logger *otelzap.Logger) *Container {
	opts := []service.AccountOption{
		service.WithLogger(logger),
		service.WithTokenRevoker(revoker),
	}

	if probe != nil {
		opts = append(opts, service.WithTelemetry(probe))
	}

	accountSvc := service.NewAccountService(repo, opts...)
	authSvc := service.NewAuthService(repo, issuer, logger, metrics)

	return &Container{
		AccountRepo: repo,

		AccountUseCase: accountSvc,
		AuthUseCase:    authSvc,

		Issuer:  issuer,
		Revoker: revoker,

		AccountHandler: handler.NewAccountHandler(accountSvc, logger),
		AuthHandler:    handler.NewAuthHandler(authSvc, logger),
	}
}
