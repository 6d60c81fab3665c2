package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"quill/internal/acl"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/services"
	"quill/pkg/logger"
	"quill/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeTimeout = 10 * time.Second
	pongWait     = 300 * time.Second
	pingPeriod   = 60 * time.Second
)

// EventSource 事件订阅
type EventSource interface {
	Subscribe(buffer int) (<-chan services.Event, func())
}

// WebSocketHandler 变更事件推送
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	events   EventSource
	log      *logrus.Logger
}

// NewWebSocketHandler 创建WebSocket处理器，Origin 按 CORS 允许列表校验
func NewWebSocketHandler(events EventSource, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// 同源请求不带 Origin
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || matchOrigin(origin, allowed) {
						return true
					}
				}
				logger.GetLogger().Warnf("WebSocket连接被拒绝，非法Origin: %s", origin)
				return false
			},
			ReadBufferSize:  1024 * 4,
			WriteBufferSize: 1024 * 32,
		},
		events: events,
		log:    logger.GetLogger(),
	}
}

// Events 推送调用者可见的数据变更事件，令牌到期时断开
func (h *WebSocketHandler) Events(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	can := middleware.Capability(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	h.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("Event stream connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.readPump(conn, cancel)

	events, unsubscribe := h.events.Subscribe(64)
	defer unsubscribe()

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	var expired <-chan time.Time
	if !user.ExpiresAt.IsZero() {
		timer := time.NewTimer(time.Until(user.ExpiresAt))
		defer timer.Stop()
		expired = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-expired:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "token expired"))
			return

		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.log.WithError(err).Debug("Failed to send ping")
				return
			}

		case event, open := <-events:
			if !open {
				return
			}
			if !eventVisible(can, user.ID, event) {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(event); err != nil {
				h.log.WithError(err).Debug("Failed to send event to client")
				return
			}
		}
	}
}

// readPump 处理客户端消息（主要是 pong）
func (h *WebSocketHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).Warn("WebSocket unexpected close")
			}
			return
		}
	}
}

// eventVisible 订阅者能否查看事件对应的记录
func eventVisible(can acl.Can, callerID string, event services.Event) bool {
	switch event.Resource {
	case acl.ResourceContent:
		if !acl.AuthorizeScoped(can, acl.ResourceContent, acl.ActionShow, acl.ActionShowOthers, event.OwnerID, callerID).Allowed() {
			return false
		}
		if event.Status == models.ContentStatusPrivate && event.OwnerID != callerID {
			return can(acl.ResourceContent, acl.ActionReadPrivate)
		}
		return true
	case acl.ResourceMedia:
		if can(acl.ResourceMediaLibrary, acl.ActionManage) {
			return true
		}
		return can(acl.ResourceMedia, acl.ActionUpload) && callerID != "" && event.OwnerID == callerID
	case acl.ResourceUsers:
		return can(acl.ResourceUsers, acl.ActionShow)
	case acl.ResourceTaxonomies:
		return can(acl.ResourceTaxonomies, acl.ActionShow) || acl.Coarse(can, acl.ResourceCategories, categoryReaders...)
	case acl.ResourceRevisions:
		return acl.Coarse(can, acl.ResourceRevisions, acl.ActionEdit, acl.ActionDelete)
	case acl.ResourceMenus, acl.ResourceMenuItems:
		return true
	case acl.ResourceOrganizations:
		return acl.Coarse(can, acl.ResourceOrganizations, acl.ActionEdit, acl.ActionManage)
	case acl.ResourceOptions:
		return can(acl.ResourceOptions, acl.ActionManage)
	default:
		return false
	}
}

// matchOrigin 检查origin是否匹配allowed模式，支持 *.example.com 通配
func matchOrigin(origin, allowed string) bool {
	if origin == allowed {
		return true
	}
	if !strings.HasPrefix(allowed, "*.") {
		return false
	}
	domain := allowed[2:]

	host := origin
	if idx := strings.Index(host, "://"); idx != -1 {
		host = host[idx+3:]
	}
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}
