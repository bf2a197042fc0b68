package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/tazhibayda/workspace-service/internal/metrics"
	"github.com/tazhibayda/workspace-service/internal/permission"
)

func NewRouter(h *Handler, service string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Tracing(service))
	r.Use(metrics.Instrument())

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", RateLimit(h.Limiter, "register"), h.Register)
		auth.POST("/login", RateLimit(h.Limiter, "login"), h.Login)
		auth.GET("/google", h.GoogleStart)
		auth.GET("/google/callback", h.GoogleCallback)
	}

	api := r.Group("/api")
	{
		api.GET("/roles", h.Roles)
		api.GET("/user/current", AuthJWT(h.JWTSecret), h.CurrentUser)
		api.GET("/workspace/:id/permissions",
			AuthJWT(h.JWTSecret), RequirePermission(h.Store, permission.ViewOnly), h.WorkspacePermissions)
	}
	return r
}
