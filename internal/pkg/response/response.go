package response

import (
	"Alumnet/internal/api/dto"
	"Alumnet/internal/service"
	"errors"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	Ok                  = http.StatusOK
	BadRequest          = http.StatusBadRequest
	Unauthorized        = http.StatusUnauthorized
	Forbidden           = http.StatusForbidden
	NotFound            = http.StatusNotFound
	Conflict            = http.StatusConflict
	InternalServerError = http.StatusInternalServerError
)

// Success 成功返回封装
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.Response{
		Code:    Ok,
		Success: true,
		Message: "success",
		Data:    data,
	})
}

// Fail 失败返回封装，HTTP 状态码与业务码一致
func Fail(c *gin.Context, code int, message string) {
	c.JSON(code, dto.Response{
		Code:    code,
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// Error 处理错误
func Error(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		Fail(c, BadRequest, service.ErrParamInvalid.Message)
		return
	}

	var unmarshalTypeError *json.UnmarshalTypeError
	if errors.As(err, &unmarshalTypeError) {
		Fail(c, BadRequest, "malformed json")
		return
	}

	var se *service.Error
	if errors.As(err, &se) {
		if se.Kind == service.KindInternal {
			log.ErrorContext(c.Request.Context(), "Error", "err", err)
		}
		Fail(c, int(se.Kind), se.Message)
		return
	}

	log.ErrorContext(c.Request.Context(), "Error", "err", err)
	Fail(c, InternalServerError, service.UnExpectedError.Message)
}
