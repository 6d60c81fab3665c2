package middleware

import (
	"time"

	"quill/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupCORS 配置CORS中间件，暴露 Content-Range 供列表分页使用
func SetupCORS(cfg config.CORSConfig) gin.HandlerFunc {
	exposeHeaders := cfg.ExposeHeaders
	if !containsHeader(exposeHeaders, "Content-Range") {
		exposeHeaders = append(append([]string{}, exposeHeaders...), "Content-Range")
	}

	corsConfig := cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    exposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           time.Duration(cfg.MaxAge) * time.Hour,
	}
	if len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}

	return cors.New(corsConfig)
}

func containsHeader(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}
