package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"accountapp/internal/adapter/http/routes"
	"accountapp/internal/core/telemetry"
	"accountapp/pkg/config"
)

type Server struct {
	srv    *http.Server
	logger *config.LokiLogger
}

func NewServer(container *Container, metrics *telemetry.AppMetrics, logger *config.LokiLogger, cfg *config.AppConfig) *Server {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	router := routes.SetupRouterWithConfig(routes.HandlersConfig{
		AuthHandler:    container.AuthHandler,
		AccountHandler: container.AccountHandler,
		Accounts:       container.AccountRepo,
		Issuer:         container.Issuer,
		Revoker:        container.Revoker,
	}, metrics, logger, cfg)

	return &Server{
		srv: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most shutdownTimeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Logger.Info("Server starting", zap.String("addr", s.srv.Addr))

		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Logger.Info("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return <-errCh
}
