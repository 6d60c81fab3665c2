package response

import (
	"net/http"

	"quill/pkg/errors"
	"quill/pkg/pagination"

	"github.com/gin-gonic/gin"
)

// ErrorBody 统一错误返回格式
type ErrorBody struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Details []errors.Detail `json:"details,omitempty"`
	Stack   []string        `json:"stack,omitempty"`
}

// ========== 基础返回方法 ==========

// Success 成功返回，数据原样输出（react-admin 约定）
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// SuccessWithRange 列表返回，附带 Content-Range 头
func SuccessWithRange(c *gin.Context, resource string, data interface{}, rng pagination.Range, total int64) {
	c.Header("Content-Range", pagination.ContentRange(resource, rng, total))
	c.Header("Access-Control-Expose-Headers", "Content-Range")
	c.JSON(http.StatusOK, data)
}

// Render 直接输出错误体（供边界中间件使用）
func Render(c *gin.Context, body ErrorBody) {
	c.AbortWithStatusJSON(body.Status, body)
}

// Fail 记录错误并终止处理链，由 ErrorHandler 统一渲染
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ========== HTTP错误快捷方法 ==========

func BadRequest(c *gin.Context, message string, details ...errors.Detail) {
	Fail(c, errors.BadRequest(message, details...))
}

func Unauthorized(c *gin.Context, message string) {
	Fail(c, errors.Unauthorized(message))
}

func Forbidden(c *gin.Context, message string) {
	Fail(c, errors.Forbidden(message))
}

func NotFound(c *gin.Context, message string) {
	Fail(c, errors.NotFound(message))
}

func ServerError(c *gin.Context, err error) {
	Fail(c, errors.Internal(err))
}
