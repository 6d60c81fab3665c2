package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"quill/pkg/errors"
	"quill/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func serveError(t *testing.T, mode string, handler gin.HandlerFunc) (int, response.ErrorBody) {
	t.Helper()
	gin.SetMode(mode)
	defer gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/", handler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestErrorHandlerMapsErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"app error", errors.Forbidden("权限不足"), http.StatusForbidden},
		{"validation", errors.BadRequest("请求参数错误", errors.Detail{Parameter: "title", Issue: "required"}), http.StatusBadRequest},
		{"record not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), http.StatusNotFound},
		{"duplicate key", gorm.ErrDuplicatedKey, http.StatusConflict},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := serveError(t, gin.TestMode, func(c *gin.Context) {
				response.Fail(c, tt.err)
			})
			assert.Equal(t, tt.status, code)
			assert.Equal(t, tt.status, body.Status)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestErrorHandlerDetails(t *testing.T) {
	_, body := serveError(t, gin.TestMode, func(c *gin.Context) {
		response.BadRequest(c, "请求参数错误", errors.Detail{Parameter: "range", Issue: "bad"})
	})
	require.Len(t, body.Details, 1)
	assert.Equal(t, "range", body.Details[0].Parameter)
}

func TestErrorHandlerStackOnlyOutsideRelease(t *testing.T) {
	_, body := serveError(t, gin.DebugMode, func(c *gin.Context) {
		response.ServerError(c, fmt.Errorf("db exploded"))
	})
	assert.NotEmpty(t, body.Stack)
	assert.Equal(t, "服务器内部错误", body.Message)

	_, body = serveError(t, gin.ReleaseMode, func(c *gin.Context) {
		response.ServerError(c, fmt.Errorf("db exploded"))
	})
	assert.Empty(t, body.Stack)
	assert.NotContains(t, body.Message, "db exploded")
}

func TestErrorHandlerRecoversPanic(t *testing.T) {
	code, body := serveError(t, gin.ReleaseMode, func(c *gin.Context) {
		panic("nil map")
	})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, http.StatusInternalServerError, body.Status)
	assert.Empty(t, body.Stack)
}
