package server

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/listforge/listforge-backend/internal/handlers"
	"github.com/listforge/listforge-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	UserHandler     *handlers.UserHandler
	ProjectHandler  *handlers.ProjectHandler
	ProductHandler  *handlers.ProductHandler
	AgentHandler    *handlers.AgentHandler
	BrandKitHandler *handlers.BrandKitHandler
	ShareHandler    *handlers.ShareHandler
	CanvasHandler   *handlers.CanvasHandler
	SSEHandler      *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("listforge-backend"))

	allowOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if raw := strings.TrimSpace(os.Getenv("CORS_ALLOW_ORIGINS")); raw != "" {
		allowOrigins = strings.Split(raw, ",")
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.Healthcheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.GET("/share/:token", cfg.ShareHandler.GetPublic)

	// Protected
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)

	// SSE
	protected.GET("/sse/stream", cfg.SSEHandler.Stream)

	// User
	protected.GET("/user", cfg.UserHandler.GetMe)
	protected.PATCH("/user", cfg.UserHandler.UpdateProfile)
	protected.POST("/user/avatar", cfg.UserHandler.UploadAvatar)

	// Projects
	protected.POST("/projects", cfg.ProjectHandler.Create)
	protected.GET("/projects", cfg.ProjectHandler.List)
	protected.GET("/projects/:projectID", cfg.ProjectHandler.Get)
	protected.PATCH("/projects/:projectID", cfg.ProjectHandler.Update)
	protected.DELETE("/projects/:projectID", cfg.ProjectHandler.Delete)

	// Canvas
	protected.GET("/projects/:projectID/canvas", cfg.CanvasHandler.Load)
	protected.PUT("/projects/:projectID/canvas", cfg.CanvasHandler.Save)

	// Products
	protected.POST("/products", cfg.ProductHandler.Create)
	protected.GET("/projects/:projectID/products", cfg.ProductHandler.ListByProject)
	protected.GET("/products/:productID", cfg.ProductHandler.Get)
	protected.PATCH("/products/:productID", cfg.ProductHandler.Update)
	protected.DELETE("/products/:productID", cfg.ProductHandler.Delete)
	protected.POST("/products/:productID/images", cfg.ProductHandler.UploadImage)

	// Agents and generation
	protected.GET("/products/:productID/agents", cfg.AgentHandler.ListByProduct)
	protected.POST("/products/:productID/generate-all", cfg.AgentHandler.GenerateAll)
	protected.GET("/agents/:agentID", cfg.AgentHandler.Get)
	protected.PATCH("/agents/:agentID", cfg.AgentHandler.Update)
	protected.POST("/agents/:agentID/generate", cfg.AgentHandler.Generate)
	protected.POST("/agents/:agentID/chat", cfg.AgentHandler.Refine)

	// Brand kits
	protected.POST("/brand-kits", cfg.BrandKitHandler.Create)
	protected.GET("/projects/:projectID/brand-kit", cfg.BrandKitHandler.GetByProject)
	protected.PATCH("/brand-kits/:kitID", cfg.BrandKitHandler.Update)
	protected.DELETE("/brand-kits/:kitID", cfg.BrandKitHandler.Delete)

	// Brand kit presets
	protected.POST("/brand-kit-presets", cfg.BrandKitHandler.CreatePreset)
	protected.GET("/brand-kit-presets", cfg.BrandKitHandler.ListPresets)
	protected.DELETE("/brand-kit-presets/:presetID", cfg.BrandKitHandler.DeletePreset)

	// Shares
	protected.POST("/projects/:projectID/shares", cfg.ShareHandler.Create)
	protected.GET("/projects/:projectID/shares", cfg.ShareHandler.ListByProject)
	protected.DELETE("/shares/:shareID", cfg.ShareHandler.Revoke)

	return router
}
