package router

import (
	"context"
	"time"

	"quill/internal/handlers"
	"quill/internal/middleware"
	"quill/internal/services"
	"quill/pkg/config"
	"quill/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TokenManager 签发并校验访问令牌
type TokenManager interface {
	handlers.TokenIssuer
	middleware.TokenVerifier
}

// TokenDenylist 令牌吊销列表
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Dependencies 路由依赖
type Dependencies struct {
	Users         services.UserStore
	Content       services.ContentStore
	Taxonomies    services.TaxonomyStore
	Media         services.MediaStore
	Menus         services.MenuStore
	Organizations services.OrganizationStore
	Options       services.OptionStore

	Tokens    TokenManager
	Denylist  TokenDenylist // 可为 nil
	Events    handlers.EventSource
	Scheduler handlers.SchedulerStatusProvider
	Health    map[string]handlers.Pinger
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := handlers.RegisterValidators(v); err != nil {
			logger.GetLogger().Fatalf("Failed to register validators: %v", err)
		}
	}

	router := gin.New()

	// 中间件：请求日志包裹错误边界，记录的是边界渲染后的最终状态码
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS(cfg.CORS))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	registerRoutes(router, cfg, deps)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine, cfg *config.Config, deps Dependencies) {
	var revocation middleware.RevocationChecker
	var revoker handlers.TokenRevoker
	if deps.Denylist != nil {
		revocation = deps.Denylist
		revoker = deps.Denylist
	}
	auth := middleware.NewAuthMiddleware(deps.Tokens, revocation)

	systemHandler := handlers.NewSystemHandler(deps.Health, deps.Scheduler)
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Tokens, revoker)
	userHandler := handlers.NewUserHandler(deps.Users)
	authorHandler := handlers.NewAuthorHandler(deps.Users)
	contentHandler := handlers.NewContentHandler(deps.Content)
	taxonomyHandler := handlers.NewTaxonomyHandler(deps.Taxonomies)
	mediaHandler := handlers.NewMediaHandler(deps.Media, cfg.Storage.MaxUploadSize)
	menuHandler := handlers.NewMenuHandler(deps.Menus)
	organizationHandler := handlers.NewOrganizationHandler(deps.Organizations)
	optionHandler := handlers.NewOptionHandler(deps.Options)
	wsHandler := handlers.NewWebSocketHandler(deps.Events, cfg.CORS.AllowOrigins)

	// API路由组，所有请求先解析身份与能力函数
	api := router.Group("/api/v1")
	api.Use(auth.Authenticate())
	{
		// 健康检查接口
		api.GET("/health", systemHandler.Health)
		api.GET("/ping", systemHandler.Ping)
		api.GET("/system/scheduler", auth.RequireLogin(), systemHandler.GetSchedulerStatus)

		// 认证
		api.POST("/login", authHandler.Login)
		api.POST("/register", authHandler.Register)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/logout", auth.RequireLogin(), authHandler.Logout)
			authGroup.POST("/refresh", auth.RequireLogin(), authHandler.Refresh)
			authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
		}
		api.GET("/acl", authHandler.ACL)

		users := api.Group("/users")
		{
			users.GET("", userHandler.List)
			users.GET("/:id", userHandler.GetByID)
			users.POST("", userHandler.Create)
			users.PUT("/:id", userHandler.Update)
			users.PATCH("/:id", userHandler.Update)
			users.DELETE("/:id", userHandler.Delete)
		}

		authors := api.Group("/authors")
		{
			authors.GET("", authorHandler.List)
			authors.GET("/:id", authorHandler.GetByID)
		}

		content := api.Group("/content")
		{
			content.GET("", contentHandler.List)
			content.GET("/:id", contentHandler.GetByID)
			content.POST("", contentHandler.Create)
			content.PUT("/:id", contentHandler.Update)
			content.PATCH("/:id", contentHandler.Update)
			content.DELETE("/:id", contentHandler.Delete)

			content.GET("/:id/revisions", contentHandler.ListRevisions)
			content.POST("/:id/revisions/:revisionId/restore", contentHandler.RestoreRevision)
			content.PUT("/:id/taxonomies", contentHandler.SetTaxonomies)
			content.GET("/:id/seo", contentHandler.GetSEO)
			content.PUT("/:id/seo", contentHandler.SaveSEO)
		}
		api.DELETE("/revisions/:id", contentHandler.DeleteRevision)

		taxonomies := api.Group("/taxonomies")
		{
			taxonomies.GET("", taxonomyHandler.List)
			taxonomies.GET("/:id", taxonomyHandler.GetByID)
			taxonomies.POST("", taxonomyHandler.Create)
			taxonomies.PUT("/:id", taxonomyHandler.Update)
			taxonomies.DELETE("/:id", taxonomyHandler.Delete)
		}

		media := api.Group("/media")
		{
			media.GET("", mediaHandler.List)
			media.GET("/:id", mediaHandler.GetByID)
			media.POST("", mediaHandler.Upload)
			media.DELETE("/:id", mediaHandler.Delete)
		}

		menus := api.Group("/menus")
		{
			menus.GET("", menuHandler.List)
			menus.GET("/:id", menuHandler.GetByID)
			menus.POST("", menuHandler.Create)
			menus.PUT("/:id", menuHandler.Update)
			menus.DELETE("/:id", menuHandler.Delete)

			menus.POST("/:id/items", menuHandler.CreateItem)
			menus.PUT("/:id/items/:itemId", menuHandler.UpdateItem)
			menus.DELETE("/:id/items/:itemId", menuHandler.DeleteItem)
		}

		organizations := api.Group("/organizations")
		{
			organizations.GET("", organizationHandler.List)
			organizations.GET("/:id", organizationHandler.GetByID)
			organizations.POST("", organizationHandler.Create)
			organizations.PUT("/:id", organizationHandler.Update)
			organizations.DELETE("/:id", organizationHandler.Delete)
		}

		api.GET("/options", optionHandler.Get)
		api.PUT("/options", optionHandler.Save)

		// WebSocket 握手无法携带 Authorization 头，令牌经 ?token= 传入
		api.GET("/events", auth.RequireLogin(), wsHandler.Events)
	}
}
