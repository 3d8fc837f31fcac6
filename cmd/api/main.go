package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"realty/api/internal/cache"
	"realty/api/internal/config"
	"realty/api/internal/handlers"
	"realty/api/internal/jobs"
	"realty/api/internal/log"
	"realty/api/internal/notify"
	"realty/api/internal/server"
	"realty/api/internal/service"
	"realty/api/internal/storage"
	"realty/api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "api")

	ctx := context.Background()

	st := store.New()

	var notifier service.Notifier = notify.NewLogNotifier(logger)
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, verification codes will only be logged")
	} else {
		notifier = notify.NewStreamNotifier(redisClient, cfg.Notify.Stream)
	}

	verification := service.NewVerificationService(st, notifier, cfg, logger)
	listings := service.NewListingService(st, logger)
	auth := service.NewAuthService(st, verification, cfg, logger)

	var photos *service.PhotoService
	if cfg.Storage.Endpoint != "" {
		objectStore, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure bucket failed")
		}
		photos = service.NewPhotoService(listings, objectStore, cfg, logger)
	} else {
		logger.Warn().Msg("storage endpoint not configured, photo upload disabled")
	}

	if admin, err := auth.EnsureAdmin(ctx, cfg.Admin); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed admin account")
	} else if admin.ID != 0 {
		logger.Info().Int64("user_id", admin.ID).Str("username", admin.Username).Msg("admin account ready")
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, st, handlers.Services{
		Auth:         auth,
		Verification: verification,
		Listings:     listings,
		Photos:       photos,
	}, redisClient)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(st, verification, cfg.Jobs, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn().Msg("scheduled jobs still running at exit")
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
