package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-server/internal/config"
	"chat-server/internal/handler"
	"chat-server/internal/service"
	"chat-server/shared/authutils"
	sharedLogger "chat-server/shared/logger"
	sharedMiddleware "chat-server/shared/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
		Service:  "chat-server",
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.L().Info("Logger initialized successfully", zap.String("logLevel", cfg.LogLevel))
	cfg.LogSummary(logger.Sugar().Infof)

	// --- Dependency Injection ---
	generator, err := service.NewGenerator(cfg, logger)
	if err != nil {
		zap.L().Fatal("Failed to create generation backend", zap.Error(err))
	}
	chatService := service.NewChatService(generator)
	chatHandler := handler.NewChatHandler(chatService, logger)

	var chatMiddlewares []gin.HandlerFunc
	if cfg.AuthEnabled() {
		verifier, err := authutils.NewJWTVerifier(cfg.JWTSecret, logger)
		if err != nil {
			zap.L().Fatal("Failed to create JWT verifier", zap.Error(err))
		}
		chatMiddlewares = append(chatMiddlewares, handler.AuthMiddleware(verifier))
		zap.L().Info("Bearer token auth enabled for chat routes")
	}

	var redisClient *redis.Client
	if cfg.RateLimitPerMinute > 0 {
		if cfg.RedisAddr != "" {
			redisClient, err = setupRedis(cfg)
			if err != nil {
				zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
			}
			defer redisClient.Close()
			zap.L().Info("Connected to Redis")
		}
		chatMiddlewares = append(chatMiddlewares, handler.NewRateLimitMiddleware(cfg.RateLimitPerMinute, redisClient))
		zap.L().Info("Rate limiter middleware initialized",
			zap.Uint("limitPerMinute", cfg.RateLimitPerMinute),
			zap.Bool("redisStore", redisClient != nil),
		)
	}

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := newRouter(cfg, logger, chatHandler, chatMiddlewares...)

	// --- Start HTTP Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// generation can take up to AI_TIMEOUT
		WriteTimeout: cfg.AITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.ServerPort))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Server exiting")
}

// newRouter assembles the gin engine. The Prometheus middleware is attached
// before any route so that every route is measured.
func newRouter(cfg *config.Config, logger *zap.Logger, chatHandler *handler.ChatHandler, chatMiddlewares ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(sharedMiddleware.RequestID())
	router.Use(sharedMiddleware.GinZapLogger(logger))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	router.Use(cors.New(corsConfig(cfg)))

	router.GET("/health", handler.HealthCheck)
	router.HEAD("/health", handler.HealthCheck)

	chatHandler.RegisterRoutes(router, chatMiddlewares...)
	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	corsConfig := cors.DefaultConfig()
	allowedOrigins := cfg.GetAllowedOrigins()
	switch {
	case len(allowedOrigins) == 1 && allowedOrigins[0] == "*":
		corsConfig.AllowAllOrigins = true
	case len(allowedOrigins) > 0:
		corsConfig.AllowOrigins = allowedOrigins
		corsConfig.AllowCredentials = true
	default:
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
		zap.L().Info("CORSAllowedOrigins not set, allowing default", zap.String("origin", "http://localhost:3000"))
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

// setupRedis connects the rate limiter store with retry logic.
func setupRedis(cfg *config.Config) (*redis.Client, error) {
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	zap.L().Info("Redis connection options configured", zap.String("address", redisOpts.Addr), zap.Int("db", redisOpts.DB))

	var lastErr error
	maxRetries := 10
	retryDelay := 3 * time.Second

	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		client := redis.NewClient(redisOpts)

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := client.Ping(pingCtx).Result()
		pingCancel()

		if err == nil {
			zap.L().Info("Successfully connected and pinged Redis", zap.Int("attempt", attempt))
			return client, nil
		}

		client.Close()
		lastErr = fmt.Errorf("unable to ping redis (attempt %d/%d): %w", attempt, maxRetries, err)
		zap.L().Warn("Redis ping failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}
