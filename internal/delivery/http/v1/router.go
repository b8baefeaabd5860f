package v1

import (
	"log/slog"
	"net/http"
	"time"

	"zaanjob-backend/config"
	"zaanjob-backend/internal/delivery/http/middleware"
	"zaanjob-backend/internal/delivery/http/response"
	"zaanjob-backend/internal/domain"
	"zaanjob-backend/internal/usecase"
	"zaanjob-backend/pkg/redis"
	"zaanjob-backend/pkg/security"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	ResumeUC      domain.ResumeUsecase
	SchemaUC      domain.SchemaUsecase
	StorageUC     domain.StorageUsecase
	AccountUC     domain.AccountUsecase
	HealthUC      usecase.HealthUsecase
	Authenticator *middleware.Authenticator
	Store         redis.Store
	SecLog        *security.SecurityLogger
	Log           *slog.Logger
	Config        *config.Config
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(cfg.FrontendURL, cfg.AllowedOrigins, cfg.IsProduction())) // CORS must be first!
	r.Use(gin.Recovery())
	if cfg.SentryDSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(middleware.SecurityHeadersMiddleware(cfg.SupabaseUrl, cfg.IsProduction()))
	r.Use(middleware.ErrorHandler(deps.Log))

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(deps.Store, deps.SecLog, middleware.GlobalRateLimitConfig(cfg.RateLimitGlobalThreshold, window)))

	// Health Check
	api.GET("/health", func(c *gin.Context) {
		status, checks := deps.HealthUC.Check(c.Request.Context())
		code := http.StatusOK
		if status != "ok" {
			code = http.StatusServiceUnavailable
		}
		response.Success(c, code, HealthResponse{Status: status, Checks: checks})
	})

	// Provisioning, optionally token-guarded
	setup := api.Group("")
	setup.Use(middleware.SetupGuard(cfg.SetupToken, deps.SecLog))
	NewSetupHandler(setup, deps.SchemaUC, deps.StorageUC)

	public := api.Group("")
	public.Use(deps.Authenticator.OptionalAuthMiddleware())

	protected := api.Group("")
	protected.Use(middleware.CSRFMiddleware(cfg.IsProduction(), deps.SecLog))
	protected.Use(deps.Authenticator.AuthMiddleware())
	protected.Use(middleware.RateLimitMiddleware(deps.Store, deps.SecLog, middleware.WriteRateLimitConfig(cfg.RateLimitWriteThreshold, window)))
	{
		NewResumeHandler(public, protected, deps.ResumeUC, deps.SecLog)
		NewUploadHandler(protected, deps.StorageUC)
		NewAccountHandler(protected, deps.AccountUC)
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(deps.SecLog, domain.RoleAdmin))
	NewResumeExportHandler(admin, deps.ResumeUC)

	return r
}
