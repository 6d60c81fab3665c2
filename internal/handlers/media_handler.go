package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"quill/internal/acl"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/services"
	"quill/pkg/errors"
	"quill/pkg/logger"
	"quill/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 表单字段
const (
	mediaFileField   = "file"
	mediaImagesField = "images[]"
)

// MediaHandler 媒体上传与管理
type MediaHandler struct {
	media         services.MediaStore
	maxUploadSize int64
}

func NewMediaHandler(media services.MediaStore, maxUploadSize int64) *MediaHandler {
	return &MediaHandler{media: media, maxUploadSize: maxUploadSize}
}

// List 媒体列表；仅持有 upload 时限定为自己上传的文件
func (h *MediaHandler) List(c *gin.Context) {
	q, ok := parseListQuery(c)
	if !ok {
		return
	}
	can := middleware.Capability(c)
	switch {
	case can(acl.ResourceMediaLibrary, acl.ActionManage):
		record(c, acl.ResourceMediaLibrary, acl.ActionManage, acl.Allow)
	case can(acl.ResourceMedia, acl.ActionUpload) && middleware.CallerID(c) != "":
		record(c, acl.ResourceMedia, acl.ActionUpload, acl.Allow)
		q = q.WithFilter("createdBy", middleware.CallerID(c))
	default:
		record(c, acl.ResourceMedia, acl.ActionList, acl.DenyPermission)
		response.Forbidden(c, forbiddenMessage)
		return
	}

	items, total, err := h.media.List(c.Request.Context(), q)
	if err != nil {
		response.Fail(c, err)
		return
	}
	respondList(c, acl.ResourceMedia, q, items, total)
}

// GetByID 媒体详情
func (h *MediaHandler) GetByID(c *gin.Context) {
	can := middleware.Capability(c)
	granted := can(acl.ResourceMediaLibrary, acl.ActionManage) ||
		acl.Coarse(can, acl.ResourceMedia, acl.ActionUpload, acl.ActionDeleteAny)
	if !precheck(c, granted, acl.ResourceMedia, acl.ActionUpload) {
		return
	}
	media, err := h.media.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	if can(acl.ResourceMediaLibrary, acl.ActionManage) {
		record(c, acl.ResourceMediaLibrary, acl.ActionManage, acl.Allow)
	} else if !allowScoped(c, acl.ResourceMedia, acl.ActionUpload, acl.ActionDeleteAny, media.OwnerID()) {
		return
	}
	response.Success(c, media)
}

// Upload 上传图片，支持 file 单文件或 images[] 多文件
func (h *MediaHandler) Upload(c *gin.Context) {
	if !allow(c, acl.ResourceMedia, acl.ActionUpload) {
		return
	}
	callerID := middleware.CallerID(c)
	if callerID == "" {
		response.Unauthorized(c, "请先登录")
		return
	}

	// 多文件时整体上限按文件数放宽，单文件上限在逐个校验时保证
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize*10+1<<20)
	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "请求参数错误", validationDetail(mediaFileField, "multipart form expected"))
		return
	}

	files := form.File[mediaFileField]
	single := len(files) == 1
	files = append(files, form.File[mediaImagesField]...)
	if len(files) == 0 {
		response.BadRequest(c, "请求参数错误", validationDetail(mediaFileField, "required"))
		return
	}
	single = single && len(files) == 1

	inputs := make([]services.UploadInput, 0, len(files))
	for _, fh := range files {
		input, err := h.readUpload(fh)
		if err != nil {
			response.Fail(c, err)
			return
		}
		input.AltText = optionalString(c.PostForm("altText"))
		input.Width = optionalInt(c.PostForm("width"))
		input.Height = optionalInt(c.PostForm("height"))
		inputs = append(inputs, input)
	}

	uploaded := make([]*models.Media, 0, len(inputs))
	for _, input := range inputs {
		media, err := h.media.Upload(c.Request.Context(), input, callerID)
		if err != nil {
			// 多文件上传要么全部成功要么全部撤销
			h.rollback(c.Request.Context(), uploaded)
			response.Fail(c, err)
			return
		}
		logger.GetLogger().WithFields(logrus.Fields{
			"media_id": media.ID,
			"user_id":  callerID,
			"size":     media.Size,
		}).Info("Media uploaded")
		uploaded = append(uploaded, media)
	}

	if single {
		c.JSON(http.StatusCreated, uploaded[0])
		return
	}
	c.JSON(http.StatusCreated, uploaded)
}

// Delete 删除媒体；deleteOwn 仅限自己上传的文件
func (h *MediaHandler) Delete(c *gin.Context) {
	granted := acl.Coarse(middleware.Capability(c), acl.ResourceMedia, acl.ActionDeleteOwn, acl.ActionDeleteAny)
	if !precheck(c, granted, acl.ResourceMedia, acl.ActionDeleteOwn) {
		return
	}
	media, err := h.media.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	if !allowScoped(c, acl.ResourceMedia, acl.ActionDeleteOwn, acl.ActionDeleteAny, media.OwnerID()) {
		return
	}
	if err := h.media.Delete(c.Request.Context(), media); err != nil {
		response.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MediaHandler) readUpload(fh *multipart.FileHeader) (services.UploadInput, error) {
	if fh.Size > h.maxUploadSize {
		return services.UploadInput{}, errors.New(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("文件 %s 超过大小限制 %d 字节", fh.Filename, h.maxUploadSize))
	}
	file, err := fh.Open()
	if err != nil {
		return services.UploadInput{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		return services.UploadInput{}, err
	}
	if int64(len(data)) > h.maxUploadSize {
		return services.UploadInput{}, errors.New(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("文件 %s 超过大小限制 %d 字节", fh.Filename, h.maxUploadSize))
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return services.UploadInput{}, errors.BadRequest("仅支持图片文件",
			validationDetail(mediaFileField, "unsupported content type "+contentType))
	}

	return services.UploadInput{
		Filename:    fh.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// rollback 删除本次请求中已上传的文件
func (h *MediaHandler) rollback(ctx context.Context, uploaded []*models.Media) {
	for _, media := range uploaded {
		if err := h.media.Delete(ctx, media); err != nil {
			logger.GetLogger().WithError(err).WithField("media_id", media.ID).Error("Failed to roll back uploaded media")
		}
	}
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func optionalInt(value string) *int {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}
