package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/certhub/certificates_api/internal/config"
	"github.com/certhub/certificates_api/internal/database"
	"github.com/certhub/certificates_api/internal/handler"
	"github.com/certhub/certificates_api/internal/middleware"
	"github.com/certhub/certificates_api/internal/repository"
	"github.com/certhub/certificates_api/internal/service"
	"github.com/certhub/certificates_api/pkg/companyprofile"
)

// main is the application entrypoint for the orderable certificates API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting certificates api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 4. Initialize company profile client
	profiles := companyprofile.NewClient(
		cfg.CompanyProfile.BaseURL,
		cfg.CompanyProfile.APIKey,
		cfg.CompanyProfile.Timeout,
	)

	// 5. Initialize repositories
	itemRepo := repository.NewCertificateItemRepository(db)

	// 6. Initialize services
	calculator := service.NewCostCalculator(cfg.Costs)
	descriptions := service.NewDescriptionProvider()
	validator := service.NewCertificateItemValidator()
	itemSvc := service.NewCertificateItemService(itemRepo, profiles, calculator, descriptions, cfg.Auth, cfg.Features)
	authorizerSvc := service.NewAuthorizerService(itemRepo, cfg.Auth.OrdersRole)

	// 7. Initialize handlers
	itemHandler := handler.NewCertificateItemHandler(itemSvc, validator)
	healthHandler := handler.NewHealthHandler(db)

	// 8. Initialize middleware
	authMw := middleware.NewAuthMiddleware(authorizerSvc)

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, itemHandler, healthHandler, authMw)

	// 10. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 11. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 12. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, items *handler.CertificateItemHandler, health *handler.HealthHandler, authMw *middleware.AuthMiddleware) {
	router.GET("/healthcheck", health.GetHealth)

	// Orderable certificate routes (identity + authorization gates apply in
	// order; both must pass).
	certs := router.Group("/orderable/certificates")
	certs.Use(middleware.IdentityMiddleware())
	certs.Use(authMw.Handle())
	{
		certs.POST("", items.CreateCertificateItem)
		certs.GET("/:id", items.GetCertificateItem)
		certs.PATCH("/:id", items.PatchCertificateItem)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
