package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/weavenet/weave-api/pkg/audit"
	"github.com/weavenet/weave-api/pkg/auth"
	"github.com/weavenet/weave-api/pkg/cache"
	"github.com/weavenet/weave-api/pkg/config"
	"github.com/weavenet/weave-api/pkg/database"
	"github.com/weavenet/weave-api/pkg/handlers"
	"github.com/weavenet/weave-api/pkg/logging"
	"github.com/weavenet/weave-api/pkg/middleware"
	"github.com/weavenet/weave-api/pkg/repositories"
	"github.com/weavenet/weave-api/pkg/retry"
	"github.com/weavenet/weave-api/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting weave-api",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.Bool("recommendation_cache", cfg.Redis.Enabled()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectWithRetry(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	}, retry.StartupConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	sqlDB := db.SQLDB()
	err = database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger)
	_ = sqlDB.Close()
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Keep the interface nil when Redis is disabled so services skip caching.
	var recCache cache.RecommendationCache
	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis, retry.StartupConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		recCache = cache.NewRedisRecommendationCache(redisClient, cfg.Redis.TTL, logger)
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	connRepo := repositories.NewConnectionRepository(db)
	profileRepo := repositories.NewProfileRepository(db)
	postRepo := repositories.NewPostRepository(db)
	likeRepo := repositories.NewLikeRepository(db)

	// Auth
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	authMiddleware := auth.NewMiddleware(auth.NewAuthService(tokens, logger), logger)

	// Services
	accountService, err := services.NewAccountService(userRepo, tokens, cfg.Auth.BcryptCost, logger)
	if err != nil {
		return fmt.Errorf("failed to create account service: %w", err)
	}
	connService := services.NewConnectionService(connRepo, userRepo, recCache, logger)
	recService := services.NewRecommendationService(connRepo, userRepo, recCache, cfg.Recommend.MaxResults, logger)
	profileService := services.NewProfileService(profileRepo, logger)
	postService := services.NewPostService(postRepo, likeRepo, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	var authLimiter func(http.Handler) http.Handler
	if cfg.RateLimit.AuthRequestsPerMinute > 0 {
		authLimiter = httprate.LimitByIP(cfg.RateLimit.AuthRequestsPerMinute, time.Minute)
	}
	handlers.NewAccountsHandler(accountService, audit.NewSecurityAuditor(logger), logger).RegisterRoutes(mux, authLimiter)
	handlers.NewProfileHandler(profileService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewPostsHandler(postService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewConnectionsHandler(connService, recService, logger).RegisterRoutes(mux, authMiddleware)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	})

	// Outermost first: request id, access log, metrics, CORS, routes.
	var handler http.Handler = mux
	handler = corsHandler.Handler(handler)
	handler = middleware.Metrics(handler)
	handler = middleware.RequestLogger(logger)(handler)
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
