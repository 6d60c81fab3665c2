package handlers

import (
	"net/http"

	"quill/internal/acl"
	"quill/internal/models"
	"quill/internal/services"
	"quill/pkg/errors"
	"quill/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type CreateUserRequest struct {
	Username      string         `json:"username" binding:"required,min=3,max=50"`
	Email         string         `json:"email" binding:"required,email,max=100"`
	PlainPassword string         `json:"plainPassword" binding:"required,min=8,max=128"`
	Role          string         `json:"role"`
	FirstName     string         `json:"firstName" binding:"max=100"`
	LastName      string         `json:"lastName" binding:"max=100"`
	JSONLd        datatypes.JSON `json:"jsonLd"`
}

type UpdateUserRequest struct {
	Username      *string        `json:"username" binding:"omitempty,min=3,max=50"`
	Email         *string        `json:"email" binding:"omitempty,email,max=100"`
	PlainPassword string         `json:"plainPassword" binding:"omitempty,min=8,max=128"`
	Role          *string        `json:"role"`
	FirstName     *string        `json:"firstName" binding:"omitempty,max=100"`
	LastName      *string        `json:"lastName" binding:"omitempty,max=100"`
	JSONLd        datatypes.JSON `json:"jsonLd"`
}

// UserHandler 用户管理
type UserHandler struct {
	users   services.UserStore
	catalog *acl.Catalog
}

func NewUserHandler(users services.UserStore) *UserHandler {
	return &UserHandler{users: users, catalog: acl.Default}
}

// ========== 基础CRUD方法 ==========

// List 用户列表
func (h *UserHandler) List(c *gin.Context) {
	if !allow(c, acl.ResourceUsers, acl.ActionList) {
		return
	}
	q, ok := parseListQuery(c)
	if !ok {
		return
	}
	users, total, err := h.users.List(c.Request.Context(), q)
	if err != nil {
		response.Fail(c, err)
		return
	}
	items := make([]models.PublicUser, 0, len(users))
	for i := range users {
		items = append(items, users[i].Public())
	}
	respondList(c, acl.ResourceUsers, q, items, total)
}

// GetByID 获取用户
func (h *UserHandler) GetByID(c *gin.Context) {
	if !allow(c, acl.ResourceUsers, acl.ActionShow) {
		return
	}
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, user.Public())
}

// Create 创建用户；指定非默认角色需要 promote 权限
func (h *UserHandler) Create(c *gin.Context) {
	if !allow(c, acl.ResourceUsers, acl.ActionCreate) {
		return
	}
	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	role := acl.RoleSubscriber
	if req.Role != "" {
		parsed, err := h.parseRole(req.Role)
		if err != nil {
			response.Fail(c, err)
			return
		}
		role = parsed
	}
	if role != acl.RoleSubscriber && !allow(c, acl.ResourceUsers, acl.ActionPromote) {
		return
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		Role:      string(role),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		JSONLd:    req.JSONLd,
	}
	if err := h.users.Create(c.Request.Context(), user, req.PlainPassword); err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user.Public())
}

// Update 更新用户；修改角色需要 promote 权限
func (h *UserHandler) Update(c *gin.Context) {
	if !allow(c, acl.ResourceUsers, acl.ActionEdit) {
		return
	}
	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}

	if req.Role != nil && *req.Role != user.Role {
		role, err := h.parseRole(*req.Role)
		if err != nil {
			response.Fail(c, err)
			return
		}
		if !allow(c, acl.ResourceUsers, acl.ActionPromote) {
			return
		}
		user.Role = string(role)
	}
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.JSONLd != nil {
		user.JSONLd = req.JSONLd
	}

	if err := h.users.Update(c.Request.Context(), user, req.PlainPassword); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, user.Public())
}

// Delete 删除用户
func (h *UserHandler) Delete(c *gin.Context) {
	if !allow(c, acl.ResourceUsers, acl.ActionDelete) {
		return
	}
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// 访客角色不可分配
func (h *UserHandler) parseRole(value string) (acl.Role, error) {
	role, ok := h.catalog.ParseRole(value)
	if !ok || role == h.catalog.Lowest() {
		return "", errors.BadRequest("请求参数错误", errors.Detail{Parameter: "role", Issue: "unknown role"})
	}
	return role, nil
}
