package handlers

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"quill/internal/acl"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/services"
	"quill/pkg/jwt"
	"quill/pkg/logger"
	"quill/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TokenIssuer 签发访问令牌
type TokenIssuer interface {
	GenerateToken(subject jwt.Subject) (string, *jwt.JWTClaims, error)
}

// TokenRevoker 吊销访问令牌
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthHandler 登录、注册、注销与权限表
type AuthHandler struct {
	users    services.UserStore
	tokens   TokenIssuer
	denylist TokenRevoker
	catalog  *acl.Catalog
}

// NewAuthHandler 创建认证处理器；denylist 为 nil 时注销不吊销令牌
func NewAuthHandler(users services.UserStore, tokens TokenIssuer, denylist TokenRevoker) *AuthHandler {
	return &AuthHandler{
		users:    users,
		tokens:   tokens,
		denylist: denylist,
		catalog:  acl.Default,
	}
}

type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" binding:"required"`
	PlainPassword   string `json:"plainPassword" binding:"required"`
}

type RegisterRequest struct {
	Username      string `json:"username" binding:"required,min=3,max=50"`
	Email         string `json:"email" binding:"required,email,max=100"`
	PlainPassword string `json:"plainPassword" binding:"required,min=8,max=128"`
	FirstName     string `json:"firstName" binding:"max=100"`
	LastName      string `json:"lastName" binding:"max=100"`
}

type TokenResponse struct {
	Token     string            `json:"token"`
	ExpiresAt int64             `json:"expiresAt"`
	User      models.PublicUser `json:"user"`
}

// Login 用户登录，用户名或邮箱均可；身份校验不经过权限表
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.GetByLogin(c.Request.Context(), req.UsernameOrEmail)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			response.Unauthorized(c, "用户名或密码错误")
			return
		}
		response.ServerError(c, err)
		return
	}
	if !user.CheckPassword(req.PlainPassword) {
		logger.GetLogger().WithField("user_id", user.ID).Info("Login rejected: wrong password")
		response.Unauthorized(c, "用户名或密码错误")
		return
	}

	// 旧格式哈希在登录成功后升级为 bcrypt
	if user.IsLegacyHash() {
		if err := h.users.Update(c.Request.Context(), user, req.PlainPassword); err != nil {
			logger.GetLogger().WithError(err).WithField("user_id", user.ID).Warn("Failed to upgrade legacy password hash")
		}
	}

	h.issue(c, http.StatusOK, user)
}

// Register 注册新用户，角色固定为订阅者
func (h *AuthHandler) Register(c *gin.Context) {
	if !allow(c, acl.ResourceAuth, acl.ActionRegister) {
		return
	}
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      string(acl.RoleSubscriber),
	}
	if err := h.users.Create(c.Request.Context(), user, req.PlainPassword); err != nil {
		response.Fail(c, err)
		return
	}

	logger.GetLogger().WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User registered")
	h.issue(c, http.StatusCreated, user)
}

// Logout 注销：吊销当前令牌直至其过期
func (h *AuthHandler) Logout(c *gin.Context) {
	payload, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	if err := h.revoke(c.Request.Context(), payload); err != nil {
		response.ServerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Refresh 以数据库中的当前角色重新签发令牌，旧令牌随即吊销
func (h *AuthHandler) Refresh(c *gin.Context) {
	payload, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	user, err := h.users.Get(c.Request.Context(), payload.ID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			response.Unauthorized(c, "用户不存在")
			return
		}
		response.ServerError(c, err)
		return
	}
	resp, err := h.newToken(user)
	if err != nil {
		response.ServerError(c, err)
		return
	}
	if err := h.revoke(c.Request.Context(), payload); err != nil {
		response.ServerError(c, err)
		return
	}
	response.Success(c, resp)
}

// Me 当前用户信息
func (h *AuthHandler) Me(c *gin.Context) {
	payload, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	user, err := h.users.Get(c.Request.Context(), payload.ID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, user.Public())
}

// ACL 权限表，需登录且持有 (acls, list)
func (h *AuthHandler) ACL(c *gin.Context) {
	if _, ok := middleware.CurrentUser(c); !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	if !allow(c, acl.ResourceACLs, acl.ActionList) {
		return
	}
	response.Success(c, h.catalog.Table())
}

func (h *AuthHandler) issue(c *gin.Context, status int, user *models.User) {
	resp, err := h.newToken(user)
	if err != nil {
		response.ServerError(c, err)
		return
	}
	c.JSON(status, resp)
}

func (h *AuthHandler) newToken(user *models.User) (TokenResponse, error) {
	token, claims, err := h.tokens.GenerateToken(jwt.Subject{
		ID:        user.ID,
		Role:      user.Role,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	})
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Unix(),
		User:      user.Public(),
	}, nil
}

func (h *AuthHandler) revoke(ctx context.Context, payload *middleware.PayloadUser) error {
	if h.denylist == nil || payload.TokenID == "" {
		return nil
	}
	ttl := time.Until(payload.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return h.denylist.Revoke(ctx, payload.TokenID, ttl)
}
