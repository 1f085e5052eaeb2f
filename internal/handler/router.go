package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-admin-gateway/internal/middleware"
	"github.com/noah-isme/lms-admin-gateway/internal/service"
	"github.com/noah-isme/lms-admin-gateway/pkg/config"
	"github.com/noah-isme/lms-admin-gateway/pkg/logger"
	corsmiddleware "github.com/noah-isme/lms-admin-gateway/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lms-admin-gateway/pkg/middleware/requestid"
	securemiddleware "github.com/noah-isme/lms-admin-gateway/pkg/middleware/secure"
	"github.com/noah-isme/lms-admin-gateway/pkg/ratelimit"
)

// Services groups everything the router dispatches to.
type Services struct {
	Auth      *service.AuthService
	Registry  *service.ControllerRegistry
	Dashboard *service.DashboardService
	Reports   *service.ReportService
	Logs      *service.LogsService
	Settings  *service.SettingsService
	Contact   *service.ContactService
	Public    *service.PublicService
	Exports   *service.ExportService
	Metrics   *service.MetricsService
}

// Limits are the sliding windows applied to login, search and API calls.
// A nil limiter disables that window.
type Limits struct {
	Login  *ratelimit.Limiter
	Search *ratelimit.Limiter
	API    *ratelimit.Limiter
}

// NewLimits builds the limiters described by cfg.
func NewLimits(cfg config.RateLimitConfig) Limits {
	return Limits{
		Login:  ratelimit.New(cfg.LoginMax, cfg.LoginWindow),
		Search: ratelimit.New(cfg.SearchMax, cfg.SearchWindow),
		API:    ratelimit.New(cfg.APIMax, cfg.APIWindow),
	}
}

// NewRouter assembles the gateway engine.
func NewRouter(cfg *config.Config, svc Services, limits Limits, logr *zap.Logger) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(securemiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(svc.Metrics))

	metrics := NewMetricsHandler(svc.Metrics, svc.Auth)
	r.GET("/health", metrics.Health)
	r.GET("/ready", metrics.Ready)
	r.GET("/metrics", metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := NewAuthHandler(svc.Auth)
	tables := NewTableHandler(svc.Registry, svc.Exports)
	admin := NewAdminHandler(svc.Dashboard, svc.Reports, svc.Logs, svc.Settings)
	public := NewPublicHandler(svc.Public, svc.Contact)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.RateLimit("api", limits.API, middleware.ClientIP, svc.Metrics))

	api.POST("/auth/login", middleware.RateLimit("login", limits.Login, middleware.ClientIP, svc.Metrics), auth.Login)
	api.POST("/contact", public.Contact)
	publicGroup := api.Group("/public", middleware.WithResponseMeta())
	publicGroup.GET("/stats", public.Stats)
	publicGroup.GET("/recent-activity", public.RecentActivity)

	secured := api.Group("")
	secured.Use(middleware.Session(svc.Auth))
	secured.GET("/auth/me", auth.Me)
	secured.POST("/auth/logout", auth.Logout)

	searching := middleware.RateLimit("search", limits.Search, middleware.WhenSearching(middleware.SessionKey), svc.Metrics)
	adminGroup := secured.Group("/admin")
	adminGroup.GET("/dashboard", admin.Dashboard)
	adminGroup.GET("/students", searching, tables.Students)
	adminGroup.GET("/courses", searching, tables.Courses)
	adminGroup.GET("/reports", searching, tables.Reports)
	adminGroup.GET("/interactions", searching, tables.Interactions)
	adminGroup.GET("/students/export", tables.Export(service.ResourceStudents))
	adminGroup.GET("/courses/export", tables.Export(service.ResourceCourses))
	adminGroup.GET("/reports/export", tables.Export(service.ResourceReports))
	adminGroup.GET("/interactions/export", tables.Export(service.ResourceInteractions))
	adminGroup.PUT("/reports/:id", admin.UpdateReport)
	adminGroup.GET("/logs", admin.Logs)
	adminGroup.GET("/logs/:file", admin.LogFile)
	adminGroup.GET("/settings", admin.Settings)
	adminGroup.PUT("/settings", admin.SaveSettings)

	return r
}
