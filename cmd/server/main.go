package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/teachkit/correction-service/internal/auth"
	"github.com/teachkit/correction-service/internal/cache"
	"github.com/teachkit/correction-service/internal/config"
	"github.com/teachkit/correction-service/internal/handlers"
	"github.com/teachkit/correction-service/internal/repositories/postgres"
	"github.com/teachkit/correction-service/internal/services"
	"github.com/teachkit/correction-service/internal/utils"
	"github.com/teachkit/correction-service/internal/validator"
	"github.com/teachkit/correction-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
		gin.SetMode(gin.ReleaseMode)
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := logger.(*utils.SlogLogger).GetSlogLogger()

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	var cacheService cache.CacheService
	if cfg.RedisURL != "" {
		redisClient, err := pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Error("Failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, logger)
	} else {
		logger.Warn("Redis not configured, score model caching disabled")
		cacheService = cache.NewNoopCache()
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db)
	v := validator.New()
	serviceManager := services.NewServiceManager(repo, cacheService, publisher, slogger, v, cfg.Grading)

	var authMiddleware gin.HandlerFunc
	if cfg.Casdoor.Endpoint != "" {
		auth.Init(cfg.Casdoor)
		authMiddleware = auth.Middleware(logger)
	} else {
		logger.Warn("Identity provider not configured, requests run as dev-user")
		authMiddleware = auth.StaticUserMiddleware("dev-user")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(serviceManager, v, logger)
	handlerManager.SetupRoutes(router, authMiddleware)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting correction service", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
}
