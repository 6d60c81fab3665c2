package handlers

import (
	"context"
	"net/http"
	"time"

	"quill/internal/acl"
	"quill/internal/services"
	"quill/pkg/response"

	"github.com/gin-gonic/gin"
)

// Pinger 依赖健康检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc 函数形式的 Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// SchedulerStatusProvider 调度器状态
type SchedulerStatusProvider interface {
	Status() services.SchedulerStatus
}

// SystemHandler 系统处理器
type SystemHandler struct {
	checks    map[string]Pinger
	scheduler SchedulerStatusProvider
}

// NewSystemHandler 创建系统处理器；checks 为各依赖的健康检查
func NewSystemHandler(checks map[string]Pinger, scheduler SchedulerStatusProvider) *SystemHandler {
	return &SystemHandler{checks: checks, scheduler: scheduler}
}

// Health 健康检查，任一依赖失败返回 503
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":       overall,
		"timestamp":    time.Now().UTC(),
		"service":      "quill",
		"dependencies": deps,
	})
}

// Ping 存活探针
func (h *SystemHandler) Ping(c *gin.Context) {
	response.Success(c, gin.H{"message": "pong"})
}

// GetSchedulerStatus 获取内容调度器状态
func (h *SystemHandler) GetSchedulerStatus(c *gin.Context) {
	if !allow(c, acl.ResourceOptions, acl.ActionManage) {
		return
	}
	response.Success(c, h.scheduler.Status())
}
