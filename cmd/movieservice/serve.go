package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"movie-service/internal/api"
	"movie-service/internal/cache"
	catalog "movie-service/internal/grpc"
	"movie-service/internal/supervisor"
	"movie-service/pkg/auth"
)

type ServeCmd struct{}

func (c *ServeCmd) Run(ctx context.Context, a *app) error {
	cfg := a.cfg
	logger := a.logger

	movieStore, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	var respCache cache.Cache = cache.NewMemoryCache()
	shared, err := a.openSharedCache()
	if err != nil {
		return err
	}
	if rc, ok := shared.(*cache.RedisCache); ok {
		if err := rc.Ping(ctx); err != nil {
			// кэш необязателен: при недоступном Redis запросы идут в базу
			logger.WarnContext(ctx, "Redis is not reachable", slog.String("error", err.Error()))
		}
		respCache = rc
	}
	defer respCache.Close()

	var tokens auth.TokenManager
	if cfg.AuthEnabled() {
		tokens, err = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}
	} else {
		logger.WarnContext(ctx, "Superuser auth is not configured; review deletion is unavailable")
	}

	handler := api.NewHandler(movieStore, respCache, tokens, logger, nil, api.Options{
		PageSize:          cfg.API.PageSize,
		CacheTTL:          cfg.Cache.TTL,
		AdminUsername:     cfg.Auth.AdminUsername,
		AdminPasswordHash: cfg.Auth.AdminPasswordHash,
	})
	router := api.NewRouter(handler, api.RouterConfig{
		CORSOrigins:       cfg.API.CORSOrigins,
		RateLimitRequests: cfg.API.RateLimitRequests,
		RateLimitWindow:   cfg.API.RateLimitWindow,
	})
	httpSrv := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	tree := supervisor.NewTree(logger, cfg.Server.ShutdownTimeout)
	tree.Add(supervisor.NewHTTPService(httpSrv, cfg.Server.ShutdownTimeout))
	logger.InfoContext(ctx, "HTTP server starting", slog.String("address", cfg.Server.HTTPAddr))

	if cfg.Server.GRPCAddr != "" {
		grpcSrv := catalog.NewGRPCServer(movieStore, logger)
		tree.Add(supervisor.NewGRPCService(grpcSrv, cfg.Server.GRPCAddr, logger))
	}

	err = tree.Serve(ctx)
	logger.Info("Movie service shutting down...")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
