package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qs3c/academy_server/config"
	"github.com/qs3c/academy_server/internal/api/handler"
	"github.com/qs3c/academy_server/internal/api/middleware"
)

// Handlers 路由所需的全部 handler
type Handlers struct {
	Session      *handler.SessionHandler
	Registration *handler.RegistrationHandler
	Athlete      *handler.AthleteHandler
	Admin        *handler.AdminHandler
	Package      *handler.PackageHandler
	Billing      *handler.BillingHandler
	WebSocket    *handler.WebSocketHandler
}

type Router struct {
	handlers Handlers
	cfg      *config.Config
	logger   *zap.Logger
}

func NewRouter(handlers Handlers, cfg *config.Config, logger *zap.Logger) *Router {
	return &Router{
		handlers: handlers,
		cfg:      cfg,
		logger:   logger,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	h := r.handlers

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.Logger(r.logger))
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// WebSocket（token 走 query，处理器内校验管理员）
		api.GET("/ws", h.WebSocket.Handle)

		// 公开接口
		api.GET("/packages", h.Package.List)
		api.POST("/billing/webhook", h.Billing.Webhook)

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			sessions := authenticated.Group("/sessions")
			{
				sessions.GET("", h.Session.List)
				sessions.GET("/:id", h.Session.Get)
				sessions.POST("/:id/registrations", h.Registration.Register)
				sessions.DELETE("/:id/registrations/:athlete_id", h.Registration.Unregister)
			}

			athletes := authenticated.Group("/athletes")
			{
				athletes.GET("", h.Athlete.List)
				athletes.POST("", h.Athlete.Create)
				athletes.GET("/:id", h.Athlete.Get)
				athletes.GET("/:id/eligibility", h.Registration.Eligibility)
				athletes.GET("/:id/registrations", h.Registration.ListForAthlete)
				athletes.POST("/:id/photo", h.Athlete.UploadPhoto)
			}
		}

		// 管理员（教练）
		admin := api.Group("/admin")
		admin.Use(middleware.Auth(r.cfg.JWT.Secret), middleware.RequireAdmin())
		{
			admin.POST("/sessions", h.Admin.CreateSession)
			admin.DELETE("/sessions/:id", h.Admin.DeleteSession)
			admin.GET("/sessions/:id/roster", h.Admin.Roster)
			admin.POST("/sessions/:id/roster", h.Admin.AddToRoster)
			admin.DELETE("/sessions/:id/roster/:athlete_id", h.Admin.RemoveFromRoster)
			admin.POST("/sessions/:id/check-in", h.Admin.CheckIn)
			admin.GET("/users", h.Admin.ListUsers)
			admin.GET("/athletes", h.Admin.ListAthletes)
			admin.POST("/billing/sync", h.Admin.SyncSubscription)
		}
	}

	return engine
}
