package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/auth"
	"github.com/fabric-fusion/fabric-fusion/pkg/config"
	"github.com/fabric-fusion/fabric-fusion/pkg/database"
	"github.com/fabric-fusion/fabric-fusion/pkg/handlers"
	"github.com/fabric-fusion/fabric-fusion/pkg/imagegen"
	"github.com/fabric-fusion/fabric-fusion/pkg/logging"
	"github.com/fabric-fusion/fabric-fusion/pkg/middleware"
	"github.com/fabric-fusion/fabric-fusion/pkg/repositories"
	"github.com/fabric-fusion/fabric-fusion/pkg/retry"
	"github.com/fabric-fusion/fabric-fusion/pkg/services"
	"github.com/fabric-fusion/fabric-fusion/pkg/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

// localSessionSecret signs selection cookies when SESSION_SECRET is unset in
// the local environment.
const localSessionSecret = "fabric-fusion-local-session"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("storage_endpoint", cfg.Storage.Endpoint),
		zap.String("image_model", cfg.OpenAI.Model),
		zap.Bool("image_key_configured", cfg.OpenAI.APIKey != ""))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.String("error", logging.SanitizeError(err)))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	startup := retry.DefaultConfig()
	startup.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("Dependency not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.String("error", logging.SanitizeError(err)))
	}

	connStr := cfg.Database.ConnectionString()
	db, err := retry.DoWithResultIfRetryable(ctx, startup, func() (*database.DB, error) {
		return database.NewConnection(ctx, &database.Config{
			URL:            connStr,
			MaxConnections: cfg.Database.MaxConnections,
		})
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrate(connStr, logger); err != nil {
		return err
	}

	store, err := retry.DoWithResultIfRetryable(ctx, startup, func() (*storage.MinioStore, error) {
		return storage.NewMinioStore(ctx, cfg.Storage, logger)
	})
	if err != nil {
		return err
	}

	generator := imagegen.NewClient(&imagegen.Config{
		BaseURL: cfg.OpenAI.BaseURL,
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		Size:    cfg.OpenAI.Size,
		Quality: cfg.OpenAI.Quality,
		Style:   cfg.OpenAI.Style,
	}, logger)
	if cfg.OpenAI.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; generation requests will fail")
	}

	fabricRepo := repositories.NewFabricRepository(db)
	styleRepo := repositories.NewStyleRepository(db)
	profileRepo := repositories.NewProfileRepository(db)
	generationRepo := repositories.NewGenerationRepository(db)

	relayService := services.NewRelayService(generator, logger)
	catalogService := services.NewCatalogService(fabricRepo, styleRepo, store, db, logger)
	profileService := services.NewProfileService(profileRepo, logger)
	generationService := services.NewGenerationService(generationRepo, fabricRepo, styleRepo, relayService, logger)

	if err := catalogService.SeedStyles(ctx); err != nil {
		return err
	}

	validator, err := auth.NewJWTValidator(ctx, &auth.ValidatorConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		HMACSecret:         cfg.Auth.JWTSecret,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
		Audience:           cfg.Auth.Audience,
	})
	if err != nil {
		return err
	}
	defer validator.Close()
	if !cfg.Auth.EnableVerification {
		logger.Warn("JWT signature verification is disabled")
	}

	authService := auth.NewAuthService(validator, logger)
	authMiddleware := auth.NewMiddleware(authService, profileService, logger)

	sessionSecret := cfg.Session.Secret
	if sessionSecret == "" {
		sessionSecret = localSessionSecret
	}
	selectionStore := auth.NewSelectionStore(sessionSecret, cfg.Session.MaxAge, auth.DeriveCookieSettings(cfg.BaseURL, ""))

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).
		WithCheck("database", db).
		WithCheck("storage", store).
		RegisterRoutes(mux)
	handlers.NewRelayHandler(relayService, logger).RegisterRoutes(mux)
	handlers.NewCatalogHandler(catalogService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewGenerationsHandler(generationService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewUploadsHandler(store, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewSelectionHandler(selectionStore, logger).RegisterRoutes(mux)
	handlers.NewProfileHandler(profileService, logger).RegisterRoutes(mux, authMiddleware)

	var handler http.Handler = mux
	handler = middleware.RequestLogger(logger)(handler)
	handler = middleware.Recoverer(logger)(handler)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting fabric-fusion",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// migrate applies the embedded migrations over a short-lived database/sql handle.
func migrate(connStr string, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return database.RunMigrations(sqlDB, logger)
}
