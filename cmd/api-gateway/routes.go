package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/hr-onboarding-api/api/swagger"
	"github.com/noah-isme/hr-onboarding-api/internal/handler"
	"github.com/noah-isme/hr-onboarding-api/internal/middleware"
	"github.com/noah-isme/hr-onboarding-api/internal/models"
	"github.com/noah-isme/hr-onboarding-api/internal/service"
	"github.com/noah-isme/hr-onboarding-api/pkg/config"
	"github.com/noah-isme/hr-onboarding-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/hr-onboarding-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/hr-onboarding-api/pkg/middleware/requestid"
)

type routeHandlers struct {
	documents  *handler.DocumentHandler
	employees  *handler.EmployeeHandler
	assistants *handler.AssistantHandler
	metrics    *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, auth middleware.TokenValidator, metrics *service.MetricsService, h routeHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	hrOnly := middleware.RequireRoles(models.RoleHR)
	api := r.Group(cfg.APIPrefix)

	// Signed links carry their own authorisation.
	api.GET("/documents/:id/download", middleware.OptionalJWT(auth), h.documents.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(auth))

	documents := secured.Group("/documents")
	documents.POST("", h.documents.Upload)
	documents.GET("", h.documents.List)
	documents.GET("/:id", h.documents.Get)
	documents.GET("/:id/ai-analysis", h.documents.AIAnalysis)
	documents.PATCH("/:id/verify", hrOnly, h.documents.Verify)
	documents.POST("/:id/reprocess", hrOnly, h.documents.Reprocess)
	documents.DELETE("/:id", hrOnly, h.documents.Delete)

	employees := secured.Group("/employees")
	employees.GET("/:id/profile", middleware.RBAC(string(models.RoleHR), middleware.Self), h.employees.Profile)
	employees.GET("/:id/profile/export", hrOnly, h.employees.ExportProfile)

	assistants := secured.Group("/assistants")
	assistants.POST("/hr/query", hrOnly, h.assistants.HRQuery)
	assistants.POST("/employee/chat", middleware.RequireRoles(models.RoleEmployee), h.assistants.EmployeeChat)

	secured.POST("/onboarding/:id/analyze", hrOnly, h.assistants.AnalyzeOnboarding)

	return r
}
