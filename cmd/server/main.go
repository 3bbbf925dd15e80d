package main

import (
	"alcyxob/coaching-plans/internal/api"
	"alcyxob/coaching-plans/internal/config"
	"alcyxob/coaching-plans/internal/repository"
	"alcyxob/coaching-plans/internal/repository/memory"
	"alcyxob/coaching-plans/internal/repository/mongo"
	"alcyxob/coaching-plans/internal/schedule"
	"alcyxob/coaching-plans/internal/service"
	"alcyxob/coaching-plans/internal/storage"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// repositories is the set of record stores the services are built on.
type repositories struct {
	users     repository.UserRepository
	exercises repository.ExerciseRepository
	foods     repository.FoodRepository
	plans     repository.PlanRepository
	days      repository.DayRepository
	items     repository.ItemRepository
	templates repository.TemplateRepository
	jobs      repository.MaterializationJobRepository
}

// @title Coaching Plans API
// @version 1.0
// @description Training and nutrition plans for coaching clients: templates, materialization and the daily schedule.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting Coaching Plans Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Printf("Configuration loaded (database driver: %s).", cfg.Database.Driver)

	// --- Record stores ---
	var repos repositories
	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Println("WARN: Using the in-memory store; data is lost on restart.")
		store := memory.NewStore()
		repos = repositories{
			users:     store.UserRepository(),
			exercises: store.ExerciseRepository(),
			foods:     store.FoodRepository(),
			plans:     store.PlanRepository(),
			days:      store.DayRepository(),
			items:     store.ItemRepository(),
			templates: store.TemplateRepository(),
			jobs:      store.JobRepository(),
		}
	default:
		dbClient, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
		}
		defer func() {
			log.Println("Disconnecting MongoDB...")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
			}
		}()
		appDB := dbClient.Database(cfg.Database.Name)
		log.Println("Database connection established.")

		// The one-active-plan rule lives in a unique index, so indexes are
		// in place before the server accepts requests.
		log.Println("Ensuring database indexes...")
		indexCtx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		err = mongo.EnsureIndexes(indexCtx, appDB)
		cancel()
		if err != nil {
			log.Fatalf("FATAL: Could not ensure database indexes: %v", err)
		}

		repos = repositories{
			users:     mongo.NewMongoUserRepository(appDB),
			exercises: mongo.NewMongoExerciseRepository(appDB),
			foods:     mongo.NewMongoFoodRepository(appDB),
			plans:     mongo.NewMongoPlanRepository(appDB),
			days:      mongo.NewMongoDayRepository(appDB),
			items:     mongo.NewMongoItemRepository(appDB),
			templates: mongo.NewMongoTemplateRepository(appDB),
			jobs:      mongo.NewMongoJobRepository(appDB),
		}
	}

	// --- Initialize Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.Enabled() {
		log.Println("Initializing file storage service...")
		fileStorage, err = storage.NewS3Storage(context.Background(), cfg.S3)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Println("WARN: S3 bucket not configured; catalog image uploads are disabled.")
	}

	// --- Initialize Services ---
	log.Println("Initializing services...")
	catalogService := service.NewCatalogService(repos.exercises, repos.foods, fileStorage)
	services := api.Services{
		Auth:      service.NewAuthService(repos.users, cfg.JWT.Secret, cfg.JWT.Expiration),
		Roster:    service.NewRosterService(repos.users),
		Catalog:   catalogService,
		Templates: service.NewTemplateService(repos.templates, repos.exercises, repos.foods),
		Plans:     service.NewPlanService(repos.users, repos.plans, repos.days, repos.items, repos.exercises, repos.foods),
		Views: service.NewPlanViewService(repos.users, repos.plans, repos.days, repos.items, repos.templates,
			catalogService, schedule.NewWeekdayResolver(nil)),
		Materializer: service.NewMaterializer(repos.users, repos.templates, repos.jobs, repos.plans, repos.days, repos.items),
	}

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware

	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, cfg.Locale.DefaultLocale(), services)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // Materializing a large template takes a while
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("ERROR: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
