package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"quill/pkg/errors"
	"quill/pkg/logger"
	"quill/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrorHandler 统一错误边界：渲染 c.Errors 中最后一个错误，并恢复 panic
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := debug.Stack()
				logger.GetLogger().Errorf("Panic recovered: %v\n%s", rec, stack)
				render(c, errorBody(fmt.Errorf("panic: %v", rec), stack))
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		body := errorBody(err, nil)
		if body.Status >= http.StatusInternalServerError {
			logger.GetLogger().WithField("path", c.Request.URL.Path).Errorf("Request failed: %v", err)
		}
		render(c, body)
	}
}

func render(c *gin.Context, body response.ErrorBody) {
	if c.Writer.Written() {
		return
	}
	response.Render(c, body)
}

func errorBody(err error, stack []byte) response.ErrorBody {
	if appErr, ok := errors.As(err); ok && appErr.Status < http.StatusInternalServerError {
		return response.ErrorBody{
			Status:  appErr.Status,
			Message: appErr.Message,
			Details: appErr.Details,
		}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return response.ErrorBody{Status: http.StatusNotFound, Message: "资源不存在"}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return response.ErrorBody{Status: http.StatusConflict, Message: "资源已存在"}
	}

	body := response.ErrorBody{Status: http.StatusInternalServerError, Message: "服务器内部错误"}
	if gin.Mode() != gin.ReleaseMode {
		if stack == nil {
			stack = debug.Stack()
		}
		body.Stack = append([]string{err.Error()}, strings.Split(strings.TrimSpace(string(stack)), "\n")...)
	}
	return body
}
