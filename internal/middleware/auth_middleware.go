package middleware

import (
	"context"
	"strings"
	"time"

	"quill/internal/acl"
	"quill/pkg/jwt"
	"quill/pkg/logger"
	"quill/pkg/metrics"
	"quill/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	payloadUserKey = "quill.payload_user"
	capabilityKey  = "quill.capability"
	roleKey        = "quill.role"
)

// TokenVerifier 校验访问令牌
type TokenVerifier interface {
	VerifyToken(tokenString string) (*jwt.JWTClaims, error)
}

// RevocationChecker 查询令牌是否已吊销
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// PayloadUser 当前请求的身份
type PayloadUser struct {
	ID        string    `json:"id"`
	Role      acl.Role  `json:"role"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// AuthMiddleware 认证中间件：解析身份并挂载能力函数
type AuthMiddleware struct {
	jwtManager TokenVerifier
	denylist   RevocationChecker
	catalog    *acl.Catalog
}

// NewAuthMiddleware 创建认证中间件；denylist 可为 nil
func NewAuthMiddleware(jwtManager TokenVerifier, denylist RevocationChecker) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		denylist:   denylist,
		catalog:    acl.Default,
	}
}

// Authenticate 解析 Bearer 令牌。
// 无令牌按访客处理；令牌无效、过期或已吊销返回 401；角色声明无效时降级为最低角色。
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			m.attach(c, nil, m.catalog.Lowest())
			c.Next()
			return
		}

		claims, err := m.jwtManager.VerifyToken(tokenString)
		if err != nil {
			metrics.RecordAuthFailure("invalid")
			logger.GetLogger().WithError(err).Debug("Bearer token rejected")
			response.Unauthorized(c, "Token无效或已过期")
			return
		}

		if m.denylist != nil {
			revoked, err := m.denylist.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				response.ServerError(c, err)
				return
			}
			if revoked {
				metrics.RecordAuthFailure("revoked")
				response.Unauthorized(c, "Token无效或已过期")
				return
			}
		}

		role, ok := m.catalog.ParseRole(claims.Role)
		if !ok {
			role = m.catalog.Lowest()
			metrics.RecordRoleDowngrade()
			logger.GetLogger().WithFields(logrus.Fields{
				"user_id":      claims.Subject,
				"claimed_role": claims.Role,
				"assigned":     role,
			}).Warn("Token role claim not recognized, downgraded to lowest role")
		}

		user := &PayloadUser{
			ID:        claims.Subject,
			Role:      role,
			FirstName: claims.FirstName,
			LastName:  claims.LastName,
			Email:     claims.Email,
			TokenID:   claims.ID,
		}
		if claims.ExpiresAt != nil {
			user.ExpiresAt = claims.ExpiresAt.Time
		}

		m.attach(c, user, role)
		c.Next()
	}
}

// RequireLogin 要求已认证身份
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			response.Unauthorized(c, "请先登录")
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) attach(c *gin.Context, user *PayloadUser, role acl.Role) {
	if user != nil {
		c.Set(payloadUserKey, user)
	}
	c.Set(roleKey, role)
	c.Set(capabilityKey, acl.NewCapability(m.catalog, role))
}

// bearerToken 从 Authorization 头读取令牌；WebSocket 握手无法设置请求头，允许使用 token 查询参数
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	if header == "" && strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return c.Query("token")
	}
	return ""
}

// CurrentUser 当前请求身份，访客返回 false
func CurrentUser(c *gin.Context) (*PayloadUser, bool) {
	value, exists := c.Get(payloadUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*PayloadUser)
	return user, ok && user != nil
}

// CallerID 当前用户ID，访客为空
func CallerID(c *gin.Context) string {
	if user, ok := CurrentUser(c); ok {
		return user.ID
	}
	return ""
}

// CurrentRole 当前角色，未经认证中间件时为访客
func CurrentRole(c *gin.Context) acl.Role {
	if value, exists := c.Get(roleKey); exists {
		if role, ok := value.(acl.Role); ok {
			return role
		}
	}
	return acl.Default.Lowest()
}

// Capability 当前请求的能力函数，缺失时拒绝一切
func Capability(c *gin.Context) acl.Can {
	if value, exists := c.Get(capabilityKey); exists {
		if can, ok := value.(acl.Can); ok {
			return can
		}
	}
	return acl.Deny
}
