package handlers

import (
	"net/http"

	"quill/internal/acl"
	"quill/internal/models"
	"quill/internal/services"
	"quill/pkg/response"

	"github.com/gin-gonic/gin"
)

type MenuRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

type MenuItemRequest struct {
	Label    string  `json:"label" binding:"required,min=1,max=100"`
	URL      *string `json:"url" binding:"omitempty,max=500"`
	ParentID *string `json:"parentId" binding:"omitempty,max=36"`
	Position int     `json:"position" binding:"min=0"`
}

// MenuHandler 导航菜单；读取公开，写入需要 menus / menu_items 权限
type MenuHandler struct {
	menus services.MenuStore
}

func NewMenuHandler(menus services.MenuStore) *MenuHandler {
	return &MenuHandler{menus: menus}
}

// List 菜单列表
func (h *MenuHandler) List(c *gin.Context) {
	q, ok := parseListQuery(c)
	if !ok {
		return
	}
	items, total, err := h.menus.List(c.Request.Context(), q)
	if err != nil {
		response.Fail(c, err)
		return
	}
	respondList(c, acl.ResourceMenus, q, items, total)
}

// GetByID 菜单及菜单项
func (h *MenuHandler) GetByID(c *gin.Context) {
	menu, err := h.menus.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, menu)
}

// Create 创建菜单
func (h *MenuHandler) Create(c *gin.Context) {
	if !allow(c, acl.ResourceMenus, acl.ActionEdit) {
		return
	}
	var req MenuRequest
	if !bindJSON(c, &req) {
		return
	}
	menu := &models.Menu{Name: req.Name}
	if err := h.menus.Create(c.Request.Context(), menu); err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, menu)
}

// Update 重命名菜单
func (h *MenuHandler) Update(c *gin.Context) {
	if !allow(c, acl.ResourceMenus, acl.ActionEdit) {
		return
	}
	var req MenuRequest
	if !bindJSON(c, &req) {
		return
	}
	menu, err := h.menus.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	menu.Name = req.Name
	if err := h.menus.Update(c.Request.Context(), menu); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, menu)
}

// Delete 删除菜单
func (h *MenuHandler) Delete(c *gin.Context) {
	if !allow(c, acl.ResourceMenus, acl.ActionDelete) {
		return
	}
	if err := h.menus.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateItem 新增菜单项
func (h *MenuHandler) CreateItem(c *gin.Context) {
	if !allow(c, acl.ResourceMenuItems, acl.ActionEdit) {
		return
	}
	var req MenuItemRequest
	if !bindJSON(c, &req) {
		return
	}
	menu, err := h.menus.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	item := &models.MenuItem{
		MenuID:   menu.ID,
		Label:    req.Label,
		URL:      req.URL,
		ParentID: req.ParentID,
		Position: req.Position,
	}
	if err := h.menus.CreateItem(c.Request.Context(), item); err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateItem 更新菜单项
func (h *MenuHandler) UpdateItem(c *gin.Context) {
	if !allow(c, acl.ResourceMenuItems, acl.ActionEdit) {
		return
	}
	var req MenuItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.menus.GetItem(c.Request.Context(), c.Param("id"), c.Param("itemId"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	item.Label = req.Label
	item.URL = req.URL
	item.ParentID = req.ParentID
	item.Position = req.Position
	if err := h.menus.UpdateItem(c.Request.Context(), item); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, item)
}

// DeleteItem 删除菜单项
func (h *MenuHandler) DeleteItem(c *gin.Context) {
	if !allow(c, acl.ResourceMenuItems, acl.ActionDelete) {
		return
	}
	if err := h.menus.DeleteItem(c.Request.Context(), c.Param("id"), c.Param("itemId")); err != nil {
		response.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
