package handlers

import (
	"net/http"

	"quill/internal/acl"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/services"
	"quill/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxonomyRequest struct {
	Type     string  `json:"type" binding:"required,oneof=category tag"`
	Name     string  `json:"name" binding:"required,min=1,max=100"`
	Slug     string  `json:"slug" binding:"max=120,slug"`
	ParentID *string `json:"parentId" binding:"omitempty,max=36"`
}

// TaxonomyHandler 分类与标签；分类同时接受 categories 资源上的权限
type TaxonomyHandler struct {
	taxonomies services.TaxonomyStore
}

func NewTaxonomyHandler(taxonomies services.TaxonomyStore) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomies: taxonomies}
}

// categoryReaders 可读取分类的 categories 权限
var categoryReaders = []acl.Action{acl.ActionManage, acl.ActionEdit, acl.ActionAssign}

// List 分类列表；仅持有分类权限时只返回分类
func (h *TaxonomyHandler) List(c *gin.Context) {
	q, ok := parseListQuery(c)
	if !ok {
		return
	}
	can := middleware.Capability(c)
	switch {
	case can(acl.ResourceTaxonomies, acl.ActionList):
		record(c, acl.ResourceTaxonomies, acl.ActionList, acl.Allow)
	case acl.Coarse(can, acl.ResourceCategories, categoryReaders...):
		record(c, acl.ResourceCategories, acl.ActionList, acl.Allow)
		q = q.WithFilter("type", models.TaxonomyTypeCategory)
	default:
		record(c, acl.ResourceTaxonomies, acl.ActionList, acl.DenyPermission)
		response.Forbidden(c, forbiddenMessage)
		return
	}

	items, total, err := h.taxonomies.List(c.Request.Context(), q)
	if err != nil {
		response.Fail(c, err)
		return
	}
	respondList(c, acl.ResourceTaxonomies, q, items, total)
}

// GetByID 分类详情
func (h *TaxonomyHandler) GetByID(c *gin.Context) {
	if !precheckTaxonomy(c, acl.ActionShow, categoryReaders...) {
		return
	}
	taxonomy, err := h.taxonomies.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	if !allowTaxonomy(c, taxonomy.Type, acl.ActionShow, categoryReaders...) {
		return
	}
	response.Success(c, taxonomy)
}

// Create 创建分类或标签
func (h *TaxonomyHandler) Create(c *gin.Context) {
	var req TaxonomyRequest
	if !bindJSON(c, &req) {
		return
	}
	if !allowTaxonomy(c, req.Type, acl.ActionCreate, acl.ActionManage) {
		return
	}

	taxonomy := &models.Taxonomy{
		Type:     req.Type,
		Name:     req.Name,
		Slug:     req.Slug,
		ParentID: req.ParentID,
	}
	if err := h.taxonomies.Create(c.Request.Context(), taxonomy); err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, taxonomy)
}

// Update 更新分类或标签；类型变更需同时满足新旧类型的权限
func (h *TaxonomyHandler) Update(c *gin.Context) {
	if !precheckTaxonomy(c, acl.ActionEdit, acl.ActionEdit, acl.ActionManage) {
		return
	}
	taxonomy, err := h.taxonomies.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	if !allowTaxonomy(c, taxonomy.Type, acl.ActionEdit, acl.ActionEdit, acl.ActionManage) {
		return
	}
	var req TaxonomyRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Type != taxonomy.Type && !allowTaxonomy(c, req.Type, acl.ActionEdit, acl.ActionEdit, acl.ActionManage) {
		return
	}

	taxonomy.Type = req.Type
	taxonomy.Name = req.Name
	taxonomy.Slug = req.Slug
	taxonomy.ParentID = req.ParentID
	if err := h.taxonomies.Update(c.Request.Context(), taxonomy); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, taxonomy)
}

// Delete 删除分类或标签
func (h *TaxonomyHandler) Delete(c *gin.Context) {
	if !precheckTaxonomy(c, acl.ActionDelete, acl.ActionDelete, acl.ActionManage) {
		return
	}
	taxonomy, err := h.taxonomies.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	if !allowTaxonomy(c, taxonomy.Type, acl.ActionDelete, acl.ActionDelete, acl.ActionManage) {
		return
	}
	if err := h.taxonomies.Delete(c.Request.Context(), taxonomy.ID); err != nil {
		response.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// precheckTaxonomy 读取记录前检查 (taxonomies, action) 或任一 categories 权限
func precheckTaxonomy(c *gin.Context, action acl.Action, categoryActions ...acl.Action) bool {
	can := middleware.Capability(c)
	granted := can(acl.ResourceTaxonomies, action) || acl.Coarse(can, acl.ResourceCategories, categoryActions...)
	return precheck(c, granted, acl.ResourceTaxonomies, action)
}

// allowTaxonomy (taxonomies, action) 或分类上的任一 categories 权限
func allowTaxonomy(c *gin.Context, taxonomyType string, action acl.Action, categoryActions ...acl.Action) bool {
	can := middleware.Capability(c)
	if can(acl.ResourceTaxonomies, action) {
		record(c, acl.ResourceTaxonomies, action, acl.Allow)
		return true
	}
	if taxonomyType == models.TaxonomyTypeCategory {
		return allow(c, acl.ResourceCategories, categoryActions...)
	}
	record(c, acl.ResourceTaxonomies, action, acl.DenyPermission)
	response.Forbidden(c, forbiddenMessage)
	return false
}
