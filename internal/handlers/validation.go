package handlers

import (
	stderrors "errors"
	"reflect"
	"strings"

	"quill/pkg/errors"
	"quill/pkg/response"
	"quill/pkg/slug"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators 注册自定义校验规则，错误字段使用 json 名称
func RegisterValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	if err := v.RegisterValidation("shortid", func(fl validator.FieldLevel) bool {
		return slug.ValidShortID(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == "" || slug.Valid(value)
	})
}

// bindJSON 绑定请求体，校验失败时写入 400 并附带字段明细
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Fail(c, validationError(err))
		return false
	}
	return true
}

func validationError(err error) error {
	var fieldErrors validator.ValidationErrors
	if stderrors.As(err, &fieldErrors) {
		details := make([]errors.Detail, 0, len(fieldErrors))
		for _, fe := range fieldErrors {
			issue := fe.Tag()
			if fe.Param() != "" {
				issue += "=" + fe.Param()
			}
			details = append(details, errors.Detail{Parameter: fe.Field(), Issue: issue})
		}
		return errors.BadRequest("请求参数错误", details...)
	}
	return errors.BadRequest("请求参数错误", errors.Detail{Parameter: "body", Issue: err.Error()})
}

func validationDetail(parameter, issue string) errors.Detail {
	return errors.Detail{Parameter: parameter, Issue: issue}
}
