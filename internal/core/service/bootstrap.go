package service

import (
	"context"
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"accountapp/internal/core/domain"
	"accountapp/internal/core/port"
)

type BootstrapConfig struct {
	Login    string
	Password string
	Name     string
}

func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		Login:    "admin",
		Password: "admin123",
		Name:     "Admin",
	}
}

// EnsureAdmin seeds an administrator when the store holds none, revoked
// admins included. It reports whether an account was created and must run
// before the server accepts requests.
func EnsureAdmin(ctx context.Context, repo port.AccountRepository, cfg BootstrapConfig, logger *otelzap.Logger) (bool, error) {
	admins, err := repo.List(ctx, domain.AccountFilter{IsAdmin: domain.BoolPtr(true)})

	if err != nil {
		return false, fmt.Errorf("list admins: %w", err)
	}

	if len(admins) > 0 {
		return false, nil
	}

	defaults := DefaultBootstrapConfig()

	if cfg.Login == "" {
		cfg.Login = defaults.Login
	}

	if cfg.Password == "" {
		cfg.Password = defaults.Password
	}

	if cfg.Name == "" {
		cfg.Name = defaults.Name
	}

	accounts := NewAccountService(repo, WithLogger(logger))

	admin, err := accounts.Create(ctx, domain.AccountDraft{
		Login:      cfg.Login,
		Credential: cfg.Password,
		Name:       cfg.Name,
		IsAdmin:    true,
	}, domain.SystemActor)

	if err != nil {
		return false, fmt.Errorf("create bootstrap admin: %w", err)
	}

	logger.Ctx(ctx).Warn("Bootstrap admin created, rotate its credential",
		zap.String("login", admin.Login),
		zap.String("id", admin.ID.String()))

	return true, nil
}
