package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/kreaker/cnc-backend/internal/http/handlers"
	"github.com/kreaker/cnc-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler         *handlers.AuthHandler
	AuthMiddleware      *middleware.AuthMiddleware
	CatalogHandler      *handlers.CatalogHandler
	ConversionHandler   *handlers.ConversionHandler
	ExportImportHandler *handlers.ExportImportHandler
	AllowedOrigins      []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/api/register", cfg.AuthHandler.Register)
	router.POST("/api/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Catalog
	api.GET("/catalogs", cfg.CatalogHandler.List)
	api.GET("/catalogs/filters", cfg.CatalogHandler.FilterOptions)
	api.GET("/catalogs/:source/:id", cfg.CatalogHandler.Get)
	api.POST("/catalogs/legacy", cfg.CatalogHandler.CreateLegacy)
	api.PUT("/catalogs/legacy/:id", cfg.CatalogHandler.UpdateLegacy)
	api.DELETE("/catalogs/legacy/:id", cfg.CatalogHandler.DeleteLegacy)
	// Conversions (composite key travels in query params)
	api.GET("/conversions", cfg.ConversionHandler.List)
	api.GET("/conversions/item", cfg.ConversionHandler.Get)
	api.POST("/conversions", cfg.ConversionHandler.Create)
	api.PUT("/conversions/item", cfg.ConversionHandler.Update)
	api.DELETE("/conversions/item", cfg.ConversionHandler.Delete)
	// Export / import
	api.GET("/export/catalog.csv", cfg.ExportImportHandler.ExportCatalogCSV)
	api.GET("/export/catalog.xlsx", cfg.ExportImportHandler.ExportCatalogExcel)
	api.GET("/export/conversions.csv", cfg.ExportImportHandler.ExportConversionsCSV)
	api.GET("/export/conversions.xlsx", cfg.ExportImportHandler.ExportConversionsExcel)
	api.POST("/import", cfg.ExportImportHandler.Import)

	return router
}
