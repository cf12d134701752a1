package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/sqldeck/sqldeck-engine/pkg/auth"
	"github.com/sqldeck/sqldeck-engine/pkg/config"
	"github.com/sqldeck/sqldeck-engine/pkg/database"
	"github.com/sqldeck/sqldeck-engine/pkg/handlers"
	"github.com/sqldeck/sqldeck-engine/pkg/legacystore"
	"github.com/sqldeck/sqldeck-engine/pkg/logging"
	"github.com/sqldeck/sqldeck-engine/pkg/middleware"
	"github.com/sqldeck/sqldeck-engine/pkg/repositories"
	"github.com/sqldeck/sqldeck-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

// migrationsPath is where schema migrations live relative to the binary.
const migrationsPath = "migrations"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("legacy_store", cfg.SQLLab.LegacyStore))

	ctx := context.Background()

	// Database and migrations
	db, err := database.Connect(ctx, cfg.Database.ConnectionString(), cfg.Database.MaxConnections)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database.ConnectionString(), migrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.String("error", logging.SanitizeError(err)))
	}

	// Legacy snapshot store
	var legacy legacystore.Store
	var cookies *legacystore.CookieBackend
	switch cfg.SQLLab.LegacyStore {
	case config.LegacyStoreRedis:
		redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		legacy = legacystore.NewRedisStore(redisClient)
	case config.LegacyStoreCookie:
		cookies = legacystore.NewCookieBackend(cfg.SQLLab.CookieSecret)
	default:
		legacy = legacystore.NewMemoryStore()
	}

	// Authentication
	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()

	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	// Services and handlers
	repo := repositories.NewTabStateRepository(db)
	bootstrapService := services.NewBootstrapService(logger)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	bootstrapHandler := handlers.NewBootstrapHandler(cfg, logger, repo, bootstrapService, legacy, cookies)
	bootstrapHandler.RegisterRoutes(mux, authMiddleware)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting sqldeck-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
