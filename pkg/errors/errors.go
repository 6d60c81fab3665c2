package errors

import (
	"errors"
	"fmt"
)

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// HTTP层错误码 (400-599)
const (
	CodeInvalidParam = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeConflict     = 409
	CodeServerError  = 500
)

// Detail 字段级错误详情
type Detail struct {
	Parameter string `json:"parameter"`
	Issue     string `json:"issue"`
}

// AppError 结构化业务错误，由边界中间件统一渲染
type AppError struct {
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Details []Detail `json:"details,omitempty"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.cause)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// WithDetails 附加字段详情
func (e *AppError) WithDetails(details ...Detail) *AppError {
	e.Details = append(e.Details, details...)
	return e
}

// New 创建AppError
func New(status int, message string) *AppError {
	return &AppError{Status: status, Message: message}
}

// Wrap 包装底层错误
func Wrap(status int, message string, cause error) *AppError {
	return &AppError{Status: status, Message: message, cause: cause}
}

func BadRequest(message string, details ...Detail) *AppError {
	return &AppError{Status: CodeInvalidParam, Message: message, Details: details}
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message)
}

func Internal(cause error) *AppError {
	return Wrap(CodeServerError, "服务器内部错误", cause)
}

// As 提取AppError
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StatusOf 返回错误对应的HTTP状态码，非AppError为500
func StatusOf(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Status
	}
	return CodeServerError
}

// Is 同标准库 errors.Is
func Is(err, target error) bool {
	return errors.Is(err, target)
}
