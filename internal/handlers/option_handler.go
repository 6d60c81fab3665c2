package handlers

import (
	"quill/internal/acl"
	"quill/internal/models"
	"quill/internal/services"
	"quill/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type OptionRequest struct {
	SiteName       string         `json:"siteName" binding:"required,min=1,max=200"`
	SiteURL        string         `json:"siteUrl" binding:"required,url,max=500"`
	SiteLogo       *string        `json:"siteLogo" binding:"omitempty,max=500"`
	Type           string         `json:"type" binding:"omitempty,oneof=Organization Person"`
	OrganizationID *string        `json:"organizationId" binding:"omitempty,max=36"`
	JSONLd         datatypes.JSON `json:"jsonLd"`
}

// OptionHandler 站点设置
type OptionHandler struct {
	options services.OptionStore
}

func NewOptionHandler(options services.OptionStore) *OptionHandler {
	return &OptionHandler{options: options}
}

// Get 读取站点设置
func (h *OptionHandler) Get(c *gin.Context) {
	if !allow(c, acl.ResourceOptions, acl.ActionManage) {
		return
	}
	setting, err := h.options.Get(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, setting)
}

// Save 保存站点设置
func (h *OptionHandler) Save(c *gin.Context) {
	if !allow(c, acl.ResourceOptions, acl.ActionManage) {
		return
	}
	var req OptionRequest
	if !bindJSON(c, &req) {
		return
	}
	setting := &models.SiteSetting{
		SiteName:       req.SiteName,
		SiteURL:        req.SiteURL,
		SiteLogo:       req.SiteLogo,
		Type:           req.Type,
		OrganizationID: req.OrganizationID,
		JSONLd:         req.JSONLd,
	}
	if setting.Type == "" {
		setting.Type = models.SiteTypeOrganization
	}
	if err := h.options.Save(c.Request.Context(), setting); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, setting)
}
