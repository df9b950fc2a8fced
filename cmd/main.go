package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kreaker/cnc-backend/internal/db"
	"github.com/kreaker/cnc-backend/internal/http/handlers"
	"github.com/kreaker/cnc-backend/internal/logger"
	"github.com/kreaker/cnc-backend/internal/middleware"
	"github.com/kreaker/cnc-backend/internal/repos"
	"github.com/kreaker/cnc-backend/internal/server"
	"github.com/kreaker/cnc-backend/internal/services"
	"github.com/kreaker/cnc-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	editingEnabled := utils.GetEnvAsBool("CATALOG_EDITING_ENABLED", true, log)
	auditActor := utils.GetEnv("AUDIT_ACTOR", "SYSTEM", log)
	httpPort := utils.GetEnv("HTTP_PORT", "8080", log)
	allowedOrigins := splitOrigins(utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log))

	// Postgres (catalog tables)
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// SQLite (local users)
	sqliteService, err := db.NewSqliteService(log)
	if err != nil {
		log.Fatal("SQLite init failed", "error", err)
	}
	if err = sqliteService.AutoMigrateAll(); err != nil {
		log.Fatal("SQLite auto migration failed", "error", err)
	}
	theSQ := sqliteService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	legacyCatalogRepo := repos.NewLegacyCatalogRepo(thePG, log)
	rproCatalogRepo := repos.NewRproCatalogRepo(thePG, log)
	conversionRepo := repos.NewConversionRepo(thePG, log)
	userRepo := repos.NewUserRepo(theSQ, log)

	// Services
	log.Info("Setting up Services from main...")
	actorProvider := services.NewStaticActorProvider(auditActor)
	catalogService := services.NewCatalogService(thePG, log, legacyCatalogRepo, rproCatalogRepo, conversionRepo, actorProvider)
	conversionService := services.NewConversionService(thePG, log, conversionRepo, legacyCatalogRepo, rproCatalogRepo, actorProvider)
	exportImportService := services.NewExportImportService(log, catalogService, conversionService)
	authService := services.NewAuthService(theSQ, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)

	// Seed user
	seedUsername := utils.GetEnv("SEED_USER_USERNAME", "", log)
	if seedUsername != "" {
		seedEmail := utils.GetEnv("SEED_USER_EMAIL", "", log)
		seedPassword := utils.GetEnv("SEED_USER_PASSWORD", "", log)
		seedDisplayName := utils.GetEnv("SEED_USER_DISPLAY_NAME", seedUsername, log)
		if err := authService.SeedUser(context.Background(), seedUsername, seedEmail, seedPassword, seedDisplayName); err != nil {
			log.Warn("Seed user failed", "username", seedUsername, "error", err)
		}
	}

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	catalogHandler := handlers.NewCatalogHandler(catalogService, editingEnabled)
	conversionHandler := handlers.NewConversionHandler(conversionService)
	exportImportHandler := handlers.NewExportImportHandler(exportImportService)
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:         authHandler,
		AuthMiddleware:      authMiddleware,
		CatalogHandler:      catalogHandler,
		ConversionHandler:   conversionHandler,
		ExportImportHandler: exportImportHandler,
		AllowedOrigins:      allowedOrigins,
	})

	log.Info("Starting HTTP server", "port", httpPort)
	if err := router.Run(":" + httpPort); err != nil {
		log.Fatal("HTTP server stopped", "error", err)
	}
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
