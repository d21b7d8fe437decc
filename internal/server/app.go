// Package server wires the Inkpad server together: configuration, storage
// backend selection, the auth service, the change-notification hub and the
// HTTP API, plus signal-driven graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"inkpad/internal/logging"
	"inkpad/internal/server/auth"
	"inkpad/internal/server/config"
	"inkpad/internal/server/httpapi"
	"inkpad/internal/server/hub"
	"inkpad/internal/server/repository"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repository.Manager
	hub    *hub.Hub
	server *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewZapProduction()

	repos, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	authSvc := auth.NewService(repos.Users(), repos.RefreshTokens(),
		[]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration)

	h := hub.New(logger)
	handler := httpapi.NewHandler(authSvc, repos.Documents(), h, logger)
	srv := httpapi.NewServer(cfg.EndpointAddr, handler.Routes([]byte(cfg.SecretKey)), logger)

	return &App{config: cfg, logger: logger, repos: repos, hub: h, server: srv}, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (repository.Manager, error) {
	switch cfg.Backend {
	case "postgres":
		pg, err := repository.NewPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migration error: %w", err)
		}
		return pg, nil
	case "redis":
		return repository.NewRedis(ctx, cfg.RedisAddr)
	case "memory":
		return repository.NewInMemory(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting server", "backend", app.config.Backend, "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	go app.hub.Run()

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server stopped", "error", err)
	}

	app.hub.Stop()
	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "storage close error", "error", err)
	}
}
