package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/infracit/filetracker-api/api/swagger"
	"github.com/infracit/filetracker-api/internal/handler"
	"github.com/infracit/filetracker-api/internal/middleware"
	"github.com/infracit/filetracker-api/internal/models"
	"github.com/infracit/filetracker-api/internal/repository"
	"github.com/infracit/filetracker-api/internal/service"
	"github.com/infracit/filetracker-api/pkg/cache"
	"github.com/infracit/filetracker-api/pkg/config"
	"github.com/infracit/filetracker-api/pkg/database"
	"github.com/infracit/filetracker-api/pkg/logger"
	corsmiddleware "github.com/infracit/filetracker-api/pkg/middleware/cors"
	reqidmiddleware "github.com/infracit/filetracker-api/pkg/middleware/requestid"
)

// @title File Tracker API
// @version 1.0.0
// @description File custody tracking backend
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	trackerDB, err := database.NewPostgres(cfg.Tracker)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect tracker store", "error", err)
	}
	defer trackerDB.Close()

	directoryDB, err := database.NewPostgres(cfg.Directory)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect shared directory", "error", err)
	}
	defer directoryDB.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	movementRepo := repository.NewMovementRepository(trackerDB)
	catalogRepo := repository.NewCatalogRepository(trackerDB)
	directoryRepo := repository.NewDirectoryRepository(directoryDB)
	auditRepo := repository.NewAuditRepository(trackerDB)
	tokenRepo := repository.NewTokenRepository(redisClient)

	metricsSvc := service.NewMetricsService()
	resolver := service.NewDirectoryResolver(directoryRepo)
	scope := service.NewScopeValidator(catalogRepo)
	movementSvc := service.NewMovementService(movementRepo, scope, resolver, auditRepo, logr, cfg.Movements).
		WithTransitionMetrics(metricsSvc)
	catalogSvc := service.NewCatalogService(catalogRepo)
	authSvc := service.NewAuthService(directoryRepo, tokenRepo, auditRepo, nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	movementHandler := handler.NewMovementHandler(movementSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.GET("/files/my-department", catalogHandler.Files)
	authed.GET("/folders/my-department", catalogHandler.Folders)

	movements := authed.Group("/movements")
	movements.POST("", movementHandler.Create)
	movements.GET("", movementHandler.List)
	movements.GET("/mine", movementHandler.Mine)
	movements.GET("/notifications", movementHandler.Notifications)
	movements.GET("/check-duplicate", movementHandler.CheckDuplicate)
	movements.GET("/pending",
		middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), movementHandler.Pending)
	movements.GET("/:id", movementHandler.Get)
	movements.PUT("/:id/approve",
		middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), movementHandler.Approve)
	movements.PUT("/:id/reject",
		middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), movementHandler.Reject)
	movements.PUT("/:id/take-out",
		middleware.RequireRoles(models.RoleHR, models.RoleAdmin, models.RoleSuperAdmin), movementHandler.TakeOut)
	movements.PUT("/:id/return", movementHandler.Return)
	movements.PUT("/:id",
		middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), movementHandler.Update)
	movements.DELETE("/:id",
		middleware.RequireRoles(models.RoleSuperAdmin), movementHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
