package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/listforge/listforge-backend/internal/db"
	"github.com/listforge/listforge-backend/internal/handlers"
	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/middleware"
	"github.com/listforge/listforge-backend/internal/observability"
	"github.com/listforge/listforge-backend/internal/repos"
	"github.com/listforge/listforge-backend/internal/server"
	"github.com/listforge/listforge-backend/internal/services"
	"github.com/listforge/listforge-backend/internal/sse"
	"github.com/listforge/listforge-backend/internal/utils"
)

func main() {
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

	// Tracing (no-op unless OTEL_ENABLED)
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "listforge-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(ctx)
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

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
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	projectRepo := repos.NewProjectRepo(thePG, log)
	productRepo := repos.NewProductRepo(thePG, log)
	agentRepo := repos.NewAgentRepo(thePG, log)
	brandKitRepo := repos.NewBrandKitRepo(thePG, log)
	brandKitPresetRepo := repos.NewBrandKitPresetRepo(thePG, log)
	shareRepo := repos.NewShareRepo(thePG, log)
	canvasStateRepo := repos.NewCanvasStateRepo(thePG, log)
	aiCallLogRepo := repos.NewAICallLogRepo(thePG, log)

	// SSE
	log.Info("Setting up SSE hub now...")
	sseHub := sse.NewHub(log)

	// Services
	log.Info("Setting up Services from main...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}
	openaiClient, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}
	avatarService, err := services.NewAvatarService(log, bucketService)
	if err != nil {
		log.Error("Could not init AvatarService", "error", err)
		os.Exit(1)
	}
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, avatarService,
		jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo, avatarService, sseHub)
	projectService := services.NewProjectService(thePG, log, projectRepo, productRepo, agentRepo, brandKitRepo, shareRepo, canvasStateRepo)
	productService := services.NewProductService(thePG, log, projectRepo, productRepo, agentRepo)
	agentService := services.NewAgentService(thePG, log, agentRepo)
	brandKitService := services.NewBrandKitService(thePG, log, projectRepo, brandKitRepo, brandKitPresetRepo)
	canvasService := services.NewCanvasService(thePG, log, projectRepo, productRepo, agentRepo, brandKitRepo, canvasStateRepo, sseHub)
	viewCounter := services.NewViewCounter(log, shareRepo)
	shareService := services.NewShareService(thePG, log, projectRepo, shareRepo, canvasService, viewCounter)
	uploadService := services.NewUploadService(thePG, log, productService, bucketService)
	generationService := services.NewGenerationService(thePG, log, userRepo, productRepo, agentRepo, brandKitRepo, aiCallLogRepo, openaiClient, bucketService, sseHub)

	// Periodic flush of buffered share view counts.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := viewCounter.Flush(ctx); err != nil {
				log.Warn("view counter flush failed", "error", err)
			}
			cancel()
		}
	}()

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	projectHandler := handlers.NewProjectHandler(projectService)
	productHandler := handlers.NewProductHandler(productService, uploadService)
	agentHandler := handlers.NewAgentHandler(agentService, generationService)
	brandKitHandler := handlers.NewBrandKitHandler(brandKitService)
	shareHandler := handlers.NewShareHandler(shareService)
	canvasHandler := handlers.NewCanvasHandler(canvasService)
	sseHandler := handlers.NewSSEHandler(sseHub, projectService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:     authHandler,
		AuthMiddleware:  authMiddleware,
		UserHandler:     userHandler,
		ProjectHandler:  projectHandler,
		ProductHandler:  productHandler,
		AgentHandler:    agentHandler,
		BrandKitHandler: brandKitHandler,
		ShareHandler:    shareHandler,
		CanvasHandler:   canvasHandler,
		SSEHandler:      sseHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server failed", "error", err)
	}
}
