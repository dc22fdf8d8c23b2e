package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/referral-api/internal/handler"
	"github.com/noah-isme/referral-api/internal/middleware"
	"github.com/noah-isme/referral-api/internal/models"
	"github.com/noah-isme/referral-api/pkg/config"
	"github.com/noah-isme/referral-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/referral-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/referral-api/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Admin   *handler.AdminHandler
	College *handler.CollegeHandler
	School  *handler.SchoolHandler
	Ops     *handler.MetricsHandler
}

// RouterOptions carries the non-handler dependencies of the router.
type RouterOptions struct {
	Tokens   middleware.TokenValidator
	Metrics  middleware.RequestObserver
	MediaDir string
}

// NewRouter builds the gin engine with global middleware and every route.
func NewRouter(cfg *config.Config, log *zap.Logger, h Handlers, opts RouterOptions) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics))

	r.GET("/health", h.Ops.Health)
	r.GET("/ready", h.Ops.Ready)
	r.GET("/metrics", h.Ops.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if opts.MediaDir != "" {
		r.Static("/media", opts.MediaDir)
	}

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	api := r.Group(prefix)
	auth := middleware.JWT(opts.Tokens)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	moderators := middleware.RequireRoles(models.RoleAdmin, models.RoleCollege)

	admins := api.Group("/admin")
	admins.POST("/signup", h.Admin.Signup)
	admins.POST("/login", h.Admin.Login)
	admins.GET("/referrals", auth, adminOnly, h.Admin.ListReferrals)
	admins.GET("/referrals/export", auth, adminOnly, h.Admin.ExportReferrals)

	colleges := api.Group("/college")
	colleges.POST("/signup", h.College.Signup)
	colleges.POST("/login", h.College.Login)
	colleges.GET("/:id", auth, moderators, h.College.Get)
	colleges.POST("/:id", auth, moderators, h.College.DisableSchool)
	colleges.POST("/:id/enable", auth, moderators, h.College.EnableSchool)
	colleges.POST("/:id/upload", auth, moderators, h.College.UploadVideo)

	schools := api.Group("/school")
	schools.POST("/signup", h.School.Signup)
	schools.POST("/login", h.School.Login)
	schools.GET("/:id", auth, middleware.RBAC(string(models.RoleAdmin), string(models.RoleCollege), middleware.Self), h.School.Get)

	return r
}
