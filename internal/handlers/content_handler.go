package handlers

import (
	"net/http"
	"time"

	"quill/internal/acl"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/services"
	"quill/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type ContentRequest struct {
	Type        *string    `json:"type" binding:"omitempty,oneof=post page"`
	Title       *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Slug        *string    `json:"slug" binding:"omitempty,max=255,slug"`
	Content     *string    `json:"content"`
	Status      *string    `json:"status" binding:"omitempty,oneof=draft published private"`
	AuthorID    *string    `json:"authorId" binding:"omitempty,max=36"`
	PublishedAt *time.Time `json:"publishedAt"`
}

type SetTaxonomiesRequest struct {
	TaxonomyIDs []string `json:"taxonomyIds" binding:"max=100,dive,max=36"`
}

type SEORequest struct {
	MetaTitle         *string        `json:"metaTitle" binding:"omitempty,max=255"`
	MetaDescription   *string        `json:"metaDescription" binding:"omitempty,max=500"`
	CanonicalURL      *string        `json:"canonicalUrl" binding:"omitempty,url,max=500"`
	MetaKeywords      *string        `json:"metaKeywords" binding:"omitempty,max=500"`
	OGTitle           *string        `json:"ogTitle" binding:"omitempty,max=255"`
	OGDescription     *string        `json:"ogDescription" binding:"omitempty,max=500"`
	OGImage           *string        `json:"ogImage" binding:"omitempty,max=500"`
	TwitterCard       *string        `json:"twitterCard" binding:"omitempty,oneof=summary summary_large_image"`
	SchemaType        *string        `json:"schemaType" binding:"omitempty,max=100"`
	SchemaHeadline    *string        `json:"schemaHeadline" binding:"omitempty,max=255"`
	SchemaDescription *string        `json:"schemaDescription" binding:"omitempty,max=500"`
	SchemaImage       *string        `json:"schemaImage" binding:"omitempty,max=500"`
	OverrideJSONLd    datatypes.JSON `json:"overrideJsonLd"`
}

// ContentHandler 文章与页面，以及其修订、分类关联和SEO
type ContentHandler struct {
	content services.ContentStore
}

func NewContentHandler(content services.ContentStore) *ContentHandler {
	return &ContentHandler{content: content}
}

// List 内容列表；仅持有 list 时限定为自己的内容
func (h *ContentHandler) List(c *gin.Context) {
	q, ok := parseListQuery(c)
	if !ok {
		return
	}
	q, ok = listScope(c, acl.ResourceContent, acl.ActionList, acl.ActionListOthers, "authorId", q)
	if !ok {
		return
	}
	items, total, err := h.content.List(c.Request.Context(), q)
	if err != nil {
		response.Fail(c, err)
		return
	}
	respondList(c, acl.ResourceContent, q, items, total)
}

// GetByID 内容详情；他人的私有内容需要 readPrivate
func (h *ContentHandler) GetByID(c *gin.Context) {
	content, ok := h.load(c, acl.ActionShow, acl.ActionShowOthers)
	if !ok {
		return
	}
	response.Success(c, content)
}

// Create 创建内容，作者默认为调用者
func (h *ContentHandler) Create(c *gin.Context) {
	if !allow(c, acl.ResourceContent, acl.ActionCreate) {
		return
	}
	var req ContentRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Title == nil || *req.Title == "" {
		response.BadRequest(c, "请求参数错误", validationDetail("title", "required"))
		return
	}

	callerID := middleware.CallerID(c)
	content := &models.Content{AuthorID: callerID}
	if req.AuthorID != nil && *req.AuthorID != "" && *req.AuthorID != callerID {
		if !allow(c, acl.ResourceContent, acl.ActionEditOthers) {
			return
		}
		content.AuthorID = *req.AuthorID
	}
	if wantsPublish(nil, &req) && !allow(c, acl.ResourceContent, acl.ActionPublish) {
		return
	}
	applyContent(content, &req)

	if err := h.content.Create(c.Request.Context(), content); err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, content)
}

// Update 更新内容；变更作者需要 editOthers，发布需要 publish
func (h *ContentHandler) Update(c *gin.Context) {
	content, ok := h.load(c, acl.ActionEdit, acl.ActionEditOthers)
	if !ok {
		return
	}
	var req ContentRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.AuthorID != nil && *req.AuthorID != content.AuthorID {
		if *req.AuthorID == "" {
			response.BadRequest(c, "请求参数错误", validationDetail("authorId", "required"))
			return
		}
		if !allow(c, acl.ResourceContent, acl.ActionEditOthers) {
			return
		}
		content.AuthorID = *req.AuthorID
	}
	if wantsPublish(content, &req) && !allow(c, acl.ResourceContent, acl.ActionPublish) {
		return
	}
	applyContent(content, &req)
	content.Taxonomies = nil

	if err := h.content.Update(c.Request.Context(), content, middleware.CallerID(c)); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, content)
}

// Delete 软删除内容
func (h *ContentHandler) Delete(c *gin.Context) {
	content, ok := h.load(c, acl.ActionDelete, acl.ActionDeleteOthers)
	if !ok {
		return
	}
	if err := h.content.Delete(c.Request.Context(), content.ID); err != nil {
		response.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListRevisions 内容的修订列表，可见性跟随内容本身
func (h *ContentHandler) ListRevisions(c *gin.Context) {
	content, ok := h.load(c, acl.ActionShow, acl.ActionShowOthers)
	if !ok {
		return
	}
	q, ok := parseListQuery(c)
	if !ok {
		return
	}
	items, total, err := h.content.ListRevisions(c.Request.Context(), content.ID, q)
	if err != nil {
		response.Fail(c, err)
		return
	}
	respondList(c, acl.ResourceRevisions, q, items, total)
}

// RestoreRevision 恢复修订
func (h *ContentHandler) RestoreRevision(c *gin.Context) {
	if !allow(c, acl.ResourceRevisions, acl.ActionEdit) {
		return
	}
	content, ok := h.load(c, acl.ActionEdit, acl.ActionEditOthers)
	if !ok {
		return
	}
	revision, err := h.content.GetRevision(c.Request.Context(), c.Param("revisionId"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	restored, err := h.content.RestoreRevision(c.Request.Context(), content, revision, middleware.CallerID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, restored)
}

// DeleteRevision 删除修订
func (h *ContentHandler) DeleteRevision(c *gin.Context) {
	if !allow(c, acl.ResourceRevisions, acl.ActionDelete) {
		return
	}
	revision, err := h.content.GetRevision(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := h.content.DeleteRevision(c.Request.Context(), revision.ID); err != nil {
		response.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetTaxonomies 替换内容的分类与标签
func (h *ContentHandler) SetTaxonomies(c *gin.Context) {
	if !allow(c, acl.ResourceCategories, acl.ActionAssign) {
		return
	}
	content, ok := h.load(c, acl.ActionEdit, acl.ActionEditOthers)
	if !ok {
		return
	}
	var req SetTaxonomiesRequest
	if !bindJSON(c, &req) {
		return
	}
	taxonomies, err := h.content.SetTaxonomies(c.Request.Context(), content.ID, req.TaxonomyIDs)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, taxonomies)
}

// GetSEO 内容的SEO元数据
func (h *ContentHandler) GetSEO(c *gin.Context) {
	content, ok := h.load(c, acl.ActionShow, acl.ActionShowOthers)
	if !ok {
		return
	}
	seo, err := h.content.GetSEO(c.Request.Context(), content.ID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, seo)
}

// SaveSEO 写入内容的SEO元数据
func (h *ContentHandler) SaveSEO(c *gin.Context) {
	if !allow(c, acl.ResourceSEO, acl.ActionEdit) {
		return
	}
	content, ok := h.load(c, acl.ActionEdit, acl.ActionEditOthers)
	if !ok {
		return
	}
	var req SEORequest
	if !bindJSON(c, &req) {
		return
	}
	seo := &models.SEO{
		ContentID:         content.ID,
		MetaTitle:         req.MetaTitle,
		MetaDescription:   req.MetaDescription,
		CanonicalURL:      req.CanonicalURL,
		MetaKeywords:      req.MetaKeywords,
		OGTitle:           req.OGTitle,
		OGDescription:     req.OGDescription,
		OGImage:           req.OGImage,
		TwitterCard:       req.TwitterCard,
		SchemaType:        req.SchemaType,
		SchemaHeadline:    req.SchemaHeadline,
		SchemaDescription: req.SchemaDescription,
		SchemaImage:       req.SchemaImage,
		OverrideJSONLd:    req.OverrideJSONLd,
	}
	if err := h.content.SaveSEO(c.Request.Context(), seo); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, seo)
}

// load 读取 :id 指向的内容并做所有权判断
func (h *ContentHandler) load(c *gin.Context, ownAction, othersAction acl.Action) (*models.Content, bool) {
	can := middleware.Capability(c)
	if !precheck(c, acl.Coarse(can, acl.ResourceContent, ownAction, othersAction), acl.ResourceContent, ownAction) {
		return nil, false
	}
	content, err := h.content.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return nil, false
	}
	if !allowScoped(c, acl.ResourceContent, ownAction, othersAction, content.OwnerID()) {
		return nil, false
	}
	if content.IsPrivate() && content.OwnerID() != middleware.CallerID(c) &&
		!allow(c, acl.ResourceContent, acl.ActionReadPrivate) {
		return nil, false
	}
	return content, true
}

// wantsPublish 请求是否会让内容进入已发布状态或改变发布时间
func wantsPublish(current *models.Content, req *ContentRequest) bool {
	if req.Status != nil && *req.Status == models.ContentStatusPublished {
		return current == nil || !current.IsPublished()
	}
	if req.PublishedAt == nil {
		return false
	}
	return current == nil || current.PublishedAt == nil || !current.PublishedAt.Equal(*req.PublishedAt)
}

func applyContent(content *models.Content, req *ContentRequest) {
	if req.Type != nil {
		content.Type = *req.Type
	}
	if req.Title != nil {
		content.Title = *req.Title
	}
	if req.Slug != nil {
		content.Slug = *req.Slug
	}
	if req.Content != nil {
		content.Body = *req.Content
	}
	if req.Status != nil {
		content.Status = *req.Status
	}
	if req.PublishedAt != nil {
		publishedAt := req.PublishedAt.UTC()
		content.PublishedAt = &publishedAt
	}
}
