package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"secondlife/internal/adapter/api"
	"secondlife/internal/adapter/api/handler"
	apimiddleware "secondlife/internal/adapter/api/middleware"
	"secondlife/internal/adapter/api/router"
	"secondlife/internal/adapter/repository"
	domainrepo "secondlife/internal/domain/repository"
	"secondlife/internal/infrastructure/email"
	"secondlife/internal/infrastructure/events"
	"secondlife/internal/infrastructure/firebase"
	"secondlife/internal/infrastructure/presence"
	"secondlife/internal/infrastructure/ratelimit"
	"secondlife/internal/infrastructure/storage"
	"secondlife/internal/infrastructure/websocket"
	"secondlife/internal/usecase"
	"secondlife/pkg/config"
	"secondlife/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		return
	}
	logger.Init(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := firebase.ClientOptions(cfg.FirebaseServiceAccountJSON, cfg.FirebaseServiceAccountPath)

	firebaseApp, err := firebase.NewApp(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		logger.Error("Failed to initialize Firebase: %v", err)
		return
	}
	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		logger.Error("Failed to initialize Firebase Auth: %v", err)
		return
	}

	stores, err := repository.Open(ctx, cfg, opts...)
	if err != nil {
		logger.Error("Failed to open %s store: %v", cfg.StoreDriver, err)
		return
	}
	defer stores.Close()

	activity := stores.Activity
	if cfg.RedisAddr != "" {
		redisClient := presence.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisClient.Close()
		activity = presence.NewWriteThrough(presence.NewRedisActivityStore(redisClient, 10*cfg.PresenceThreshold), stores.Activity)
		logger.Info("Presence heartbeats cached in Redis at %s", cfg.RedisAddr)
	}

	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer publisher.Close()

	notifier := email.NewServiceFromConfig(cfg.Email, cfg.AppURL)
	if !notifier.Enabled() {
		logger.Warn("EMAIL_USER/EMAIL_PASS not set, notification emails are logged only")
	}

	var images domainrepo.ImageStore
	if cfg.StorageBucket != "" {
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opts...)
		if err != nil {
			logger.Error("Failed to initialize Cloud Storage: %v", err)
			return
		}
		defer storageClient.Close()
		images = storageClient
	}

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	messageLimiter := ratelimit.NewRateLimiter(cfg.MessagesPerMinute, 0)
	httpLimiter := ratelimit.NewRateLimiter(600, 100)
	messageLimiter.StartCleanup(5*time.Minute, ctx.Done())
	httpLimiter.StartCleanup(5*time.Minute, ctx.Done())

	presenceUseCase := usecase.NewPresenceUseCase(activity, cfg.PresenceThreshold)
	userUseCase := usecase.NewUserUseCase(stores.Users, presenceUseCase, notifier, publisher)
	productUseCase := usecase.NewProductUseCase(stores.Products, stores.Users)
	messageUseCase := usecase.NewMessageUseCase(
		stores.Messages,
		stores.Conversations,
		stores.Products,
		stores.Users,
		stores.Reviews,
		presenceUseCase,
		notifier,
		wsManager,
		publisher,
		messageLimiter,
	)
	saleUseCase := usecase.NewSaleUseCase(stores.Messages, stores.Products, stores.Users, notifier, wsManager, publisher)
	reviewUseCase := usecase.NewReviewUseCase(stores.Reviews, stores.Messages, stores.Products, stores.Users, publisher)

	handler.Setup(userUseCase, productUseCase, messageUseCase, saleUseCase, reviewUseCase)
	handler.SetupHealthHandler()
	handler.SetupUploadHandler(images)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(apimiddleware.RateLimit(httpLimiter))

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebase.NewFirebaseAuthClient(authClient))
	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware, presenceUseCase, allowedOrigins(cfg.AppURL))

	router.Setup(e, authMiddleware, wsHandler)

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}

func allowedOrigins(appURL string) []string {
	if appURL == "" || strings.Contains(appURL, "localhost") {
		return nil
	}
	return []string{strings.TrimRight(appURL, "/")}
}
