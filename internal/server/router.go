package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/handlers"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/middleware"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/utils"
)

type RouterConfig struct {
	TenantMiddleware  *middleware.TenantMiddleware
	BrandHandler      *handlers.BrandHandler
	CollectionHandler *handlers.CollectionHandler
	DocumentHandler   *handlers.DocumentHandler
	GenerationHandler *handlers.GenerationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	allowOrigins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", nil), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Brand-ID"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Brand provisioning sits outside tenant scoping.
		api.POST("/brands", cfg.BrandHandler.Create)
		api.GET("/brands/:id", cfg.BrandHandler.Get)
		api.DELETE("/brands/:id", cfg.BrandHandler.Delete)
	}

	// Everything below is scoped to the brand named by X-Brand-ID.
	tenant := router.Group("/api")
	tenant.Use(cfg.TenantMiddleware.RequireBrand())

	tenant.POST("/collections", cfg.CollectionHandler.Create)
	tenant.GET("/collections", cfg.CollectionHandler.List)
	tenant.GET("/collections/:id", cfg.CollectionHandler.Get)
	tenant.GET("/collections/:id/categories", cfg.CollectionHandler.Categories)
	tenant.DELETE("/collections/:id", cfg.CollectionHandler.Delete)

	tenant.POST("/collections/:id/documents", cfg.DocumentHandler.Upload)
	tenant.GET("/collections/:id/documents", cfg.DocumentHandler.ListByCollection)
	tenant.GET("/documents/:id", cfg.DocumentHandler.Get)
	tenant.POST("/documents/:id/process", cfg.DocumentHandler.Process)
	tenant.GET("/documents/:id/progress", cfg.DocumentHandler.Progress)
	tenant.DELETE("/documents/:id", cfg.DocumentHandler.Delete)

	tenant.POST("/collections/:id/generate-items", cfg.GenerationHandler.GenerateItems)
	tenant.POST("/collections/:id/generate-items/cancel", cfg.GenerationHandler.Cancel)
	tenant.GET("/collections/:id/generate-items/status", cfg.GenerationHandler.Status)
	tenant.GET("/collections/:id/items", cfg.GenerationHandler.Items)

	return router
}
