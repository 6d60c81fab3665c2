package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quill/internal/database"
	"quill/internal/handlers"
	"quill/internal/router"
	"quill/internal/services"
	"quill/pkg/config"
	"quill/pkg/jwt"
	"quill/pkg/logger"
	"quill/pkg/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger := logger.GetLogger()
	appLogger.Info("Starting quill...")

	// 初始化数据库
	if err := database.Initialize(cfg); err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			appLogger.Error("Failed to close database:", err)
		}
		if err := database.CloseTokenDenylist(); err != nil {
			appLogger.Error("Failed to close Redis:", err)
		}
	}()

	if err := database.Migrate(); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}

	db := database.GetDB()
	hub := services.NewEventHub()
	defer hub.Close()

	userService := services.NewUserService(db, hub)
	contentService := services.NewContentService(db, hub)

	// 执行种子数据初始化
	if err := seedData(context.Background(), cfg.Seed, userService); err != nil {
		appLogger.Fatalf("Failed to initialize seed data: %v", err)
	}

	objectStore, err := storage.NewS3Store(cfg.Storage)
	if err != nil {
		appLogger.Fatalf("Failed to initialize object storage: %v", err)
	}

	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)

	// 启动内容调度器（定时发布、软删除清理）
	scheduler := services.NewContentScheduler(contentService, cfg.Scheduler)
	if err := scheduler.Start(); err != nil {
		appLogger.Errorf("Failed to start content scheduler: %v", err)
		// 不影响主服务启动
	}
	defer scheduler.Stop()

	denylist := database.GetTokenDenylist()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := denylist.Ping(pingCtx); err != nil {
		appLogger.Warnf("Redis unavailable, authenticated requests will fail until it recovers: %v", err)
	}
	cancelPing()

	r := router.SetupRouter(cfg, router.Dependencies{
		Users:         userService,
		Content:       contentService,
		Taxonomies:    services.NewTaxonomyService(db, hub),
		Media:         services.NewMediaService(db, objectStore, hub),
		Menus:         services.NewMenuService(db, hub),
		Organizations: services.NewOrganizationService(db, hub),
		Options:       services.NewOptionService(db, hub),
		Tokens:        jwt.GetJWTManager(),
		Denylist:      denylist,
		Events:        hub,
		Scheduler:     scheduler,
		Health: map[string]handlers.Pinger{
			"database": handlers.PingFunc(database.Ping),
			"redis":    denylist,
		},
	})

	// 启动服务器
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	appLogger.Infof("Server started on port %s", cfg.Server.Port)

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	// WebSocket 连接随事件中心关闭而结束
	hub.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown:", err)
	}
	appLogger.Info("Server exited")
}
