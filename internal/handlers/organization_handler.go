package handlers

import (
	"net/http"

	"quill/internal/acl"
	"quill/internal/models"
	"quill/internal/services"
	"quill/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type OrganizationRequest struct {
	Name         string         `json:"name" binding:"required,min=1,max=200"`
	Logo         *string        `json:"logo" binding:"omitempty,max=500"`
	URL          string         `json:"url" binding:"required,url,max=500"`
	ContactEmail *string        `json:"contactEmail" binding:"omitempty,email,max=100"`
	ContactPhone *string        `json:"contactPhone" binding:"omitempty,max=50"`
	Address      *string        `json:"address" binding:"omitempty,max=500"`
	SocialLinks  datatypes.JSON `json:"socialLinks"`
	JSONLd       datatypes.JSON `json:"jsonLd"`
}

// OrganizationHandler 组织信息
type OrganizationHandler struct {
	organizations services.OrganizationStore
}

func NewOrganizationHandler(organizations services.OrganizationStore) *OrganizationHandler {
	return &OrganizationHandler{organizations: organizations}
}

// List 组织列表
func (h *OrganizationHandler) List(c *gin.Context) {
	if !allow(c, acl.ResourceOrganizations, acl.ActionManage) {
		return
	}
	q, ok := parseListQuery(c)
	if !ok {
		return
	}
	items, total, err := h.organizations.List(c.Request.Context(), q)
	if err != nil {
		response.Fail(c, err)
		return
	}
	respondList(c, acl.ResourceOrganizations, q, items, total)
}

// GetByID 组织详情
func (h *OrganizationHandler) GetByID(c *gin.Context) {
	if !allow(c, acl.ResourceOrganizations, acl.ActionEdit, acl.ActionManage) {
		return
	}
	org, err := h.organizations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, org)
}

// Create 创建组织
func (h *OrganizationHandler) Create(c *gin.Context) {
	if !allow(c, acl.ResourceOrganizations, acl.ActionManage) {
		return
	}
	var req OrganizationRequest
	if !bindJSON(c, &req) {
		return
	}
	org := &models.Organization{}
	applyOrganization(org, &req)
	if err := h.organizations.Create(c.Request.Context(), org); err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, org)
}

// Update 更新组织
func (h *OrganizationHandler) Update(c *gin.Context) {
	if !allow(c, acl.ResourceOrganizations, acl.ActionEdit) {
		return
	}
	var req OrganizationRequest
	if !bindJSON(c, &req) {
		return
	}
	org, err := h.organizations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	applyOrganization(org, &req)
	if err := h.organizations.Update(c.Request.Context(), org); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, org)
}

// Delete 删除组织
func (h *OrganizationHandler) Delete(c *gin.Context) {
	if !allow(c, acl.ResourceOrganizations, acl.ActionManage) {
		return
	}
	if err := h.organizations.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func applyOrganization(org *models.Organization, req *OrganizationRequest) {
	org.Name = req.Name
	org.Logo = req.Logo
	org.URL = req.URL
	org.ContactEmail = req.ContactEmail
	org.ContactPhone = req.ContactPhone
	org.Address = req.Address
	org.SocialLinks = req.SocialLinks
	org.JSONLd = req.JSONLd
}
