package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"accountapp/internal/adapter/database/memory"
	"accountapp/internal/adapter/database/postgres"
	pgrepository "accountapp/internal/adapter/database/postgres/repository"
	"accountapp/internal/adapter/database/redis"
	"accountapp/internal/adapter/database/sqlite"
	sqliterepository "accountapp/internal/adapter/database/sqlite/repository"
	httpadapter "accountapp/internal/adapter/http"
	adaptertelemetry "accountapp/internal/adapter/telemetry"
	"accountapp/internal/core/port"
	"accountapp/internal/core/service"
	"accountapp/internal/core/telemetry"
	"accountapp/pkg/auth"
	. "accountapp/pkg/config"
)

const serviceVersion = "1.0.0"

func main() {
	configPath := pflag.StringP("config", "c", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	pflag.Parse()

	config, err := Load(*configPath)

	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := NewLokiLogger(config.ServiceName, config.Telemetry.LokiURL, !config.IsProduction())

	if err != nil {
		log.Fatal("Failed to initialize Loki logger:", err)
	}

	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config, logger); err != nil {
		logger.Logger.Fatal("Server stopped", zap.Error(err))
	}

	logger.Logger.Info("Shut down gracefully")
}

func run(ctx context.Context, config *AppConfig, logger *LokiLogger) error {
	probe := telemetry.NewNoOpProbe()

	var metrics *telemetry.AppMetrics

	if config.Telemetry.Enabled {
		container, err := adaptertelemetry.NewContainer(ctx, adaptertelemetry.Config{
			ServiceName:    config.ServiceName,
			ServiceVersion: serviceVersion,
			Environment:    config.Environment,
			MetricsPort:    config.Telemetry.MetricsPort,
			OTLPEndpoint:   config.Telemetry.OTLPEndpoint,
		}, logger.Logger)

		if err != nil {
			return err
		}

		defer shutdown(logger, config.ShutdownTimeout, container.Shutdown)

		metrics = container.AppMetrics
		metrics.StartSystemMetrics(ctx)
		probe = container.NewTelemetryProbe(logger.Logger)
	}

	repo, closeDB, err := openRepository(ctx, config, probe)

	if err != nil {
		return err
	}

	defer closeDB()

	cache, err := openCache(ctx, config)

	if err != nil {
		return err
	}

	defer cache.Close()

	issuer, err := auth.NewJWT(auth.Config{
		Secret:   config.JWT.Secret,
		Issuer:   config.JWT.Issuer,
		Audience: config.JWT.Audience,
		Lifetime: config.JWT.AccessLifetime,
	})

	if err != nil {
		return err
	}

	revoker := service.NewRevocationList(cache, issuer.Lifetime(), logger.Logger)

	if config.Bootstrap.Enabled {
		_, err := service.EnsureAdmin(ctx, repo, service.BootstrapConfig{
			Login:    config.Bootstrap.Login,
			Password: config.Bootstrap.Password,
			Name:     config.Bootstrap.Name,
		}, logger.Logger)

		if err != nil {
			return err
		}
	}

	container := httpadapter.NewContainer(repo, issuer, revoker, probe, metrics, logger.Logger)
	server := httpadapter.NewServer(container, metrics, logger, config)

	return server.Run(ctx, config.ShutdownTimeout)
}

func openRepository(ctx context.Context, config *AppConfig, probe port.Telemetry) (port.AccountRepository, func(), error) {
	switch config.Database.Driver {
	case DriverPostgres:
		db, err := postgres.NewDB(ctx, config.Database.URL)

		if err != nil {
			return nil, nil, err
		}

		return pgrepository.NewAccountRepository(db, probe), db.Close, nil
	default:
		cfg := sqlite.Config{Path: config.Database.Path}

		if config.Database.LogQueries {
			cfg.QueryLog = os.Stderr
		}

		db, err := sqlite.Open(cfg)

		if err != nil {
			return nil, nil, err
		}

		return sqliterepository.NewAccountRepository(db, probe), func() { db.Close() }, nil
	}
}

func openCache(ctx context.Context, config *AppConfig) (port.CacheRepository, error) {
	if config.RedisURL != "" {
		return redis.NewRedisRepository(ctx, config.RedisURL)
	}

	return memory.NewMemoryRepository(time.Minute), nil
}

func shutdown(logger *LokiLogger, timeout time.Duration, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		logger.Logger.Error("Failed to shut down telemetry", zap.Error(err))
	}
}
