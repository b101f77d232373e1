package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/clients/gcp"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/clients/redis"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/db"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/handlers"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/middleware"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/parser"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/repos"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/server"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/services"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/utils"
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

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	brandRepo := repos.NewBrandRepo(thePG, log)
	collectionRepo := repos.NewCollectionRepo(thePG, log)
	documentRepo := repos.NewDocumentRepo(thePG, log)
	itemRepo := repos.NewItemRepo(thePG, log)
	runRepo := repos.NewExtractionRunRepo(thePG, log)

	// Clients
	log.Info("Setting up Clients from main...")
	bucketService, err := gcp.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}
	progressBus, err := redis.NewProgressBus(log)
	if err != nil {
		log.Error("Could not init ProgressBus", "error", err)
		os.Exit(1)
	}
	defer progressBus.Close()
	openaiClient, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}
	docParser := parser.NewDocumentParser(log)

	// Services
	log.Info("Setting up Services from main...")
	brandService := services.NewBrandService(log, brandRepo)
	collectionService := services.NewCollectionService(log, collectionRepo)
	documentService := services.NewDocumentService(log, documentRepo, collectionRepo, runRepo, bucketService, progressBus, docParser, openaiClient)
	generationService := services.NewGenerationService(
		log,
		runRepo,
		collectionRepo,
		documentRepo,
		itemRepo,
		bucketService,
		progressBus,
		docParser,
		openaiClient,
		documentService,
	)
	generationService.StartWorkers(context.Background())

	// Handlers
	log.Info("Setting up handlers from main...")
	brandHandler := handlers.NewBrandHandler(log, brandService)
	collectionHandler := handlers.NewCollectionHandler(log, collectionService)
	documentHandler := handlers.NewDocumentHandler(log, documentService, collectionService)
	generationHandler := handlers.NewGenerationHandler(log, generationService, collectionService)

	// Middleware
	tenantMiddleware := middleware.NewTenantMiddleware(log, brandRepo)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		TenantMiddleware:  tenantMiddleware,
		BrandHandler:      brandHandler,
		CollectionHandler: collectionHandler,
		DocumentHandler:   documentHandler,
		GenerationHandler: generationHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
