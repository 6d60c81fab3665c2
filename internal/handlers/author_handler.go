package handlers

import (
	"quill/internal/acl"
	"quill/internal/models"
	"quill/internal/services"
	"quill/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthorHandler 作者公开资料
type AuthorHandler struct {
	users services.UserStore
}

func NewAuthorHandler(users services.UserStore) *AuthorHandler {
	return &AuthorHandler{users: users}
}

// List 作者列表
func (h *AuthorHandler) List(c *gin.Context) {
	if !allow(c, acl.ResourceAuthors, acl.ActionList) {
		return
	}
	q, ok := parseListQuery(c)
	if !ok {
		return
	}
	users, total, err := h.users.ListAuthors(c.Request.Context(), q)
	if err != nil {
		response.Fail(c, err)
		return
	}
	items := make([]models.Author, 0, len(users))
	for i := range users {
		items = append(items, users[i].AuthorProfile())
	}
	respondList(c, acl.ResourceAuthors, q, items, total)
}

// GetByID 作者详情
func (h *AuthorHandler) GetByID(c *gin.Context) {
	if !allow(c, acl.ResourceAuthors, acl.ActionShow) {
		return
	}
	user, err := h.users.GetAuthor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, user.AuthorProfile())
}
