package response

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/apperrors"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
// 按错误类别映射 HTTP 状态码；Internal 错误记录原因但不外泄
func Error(c *gin.Context, err error) {
	kind := apperrors.GetKind(err)
	status := httpStatus(kind)

	if kind == apperrors.KindInternal {
		slog.Error("Internal error",
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"error", err)
	}

	c.JSON(status, Response{
		Code:    status,
		Message: apperrors.GetMessage(err),
	})
}

// BadRequest 参数校验失败响应
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

// Unauthorized 未认证响应
func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Response{
		Code:    http.StatusUnauthorized,
		Message: message,
	})
}

// httpStatus 错误类别到 HTTP 状态码的映射
func httpStatus(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindBadRequest:
		return http.StatusBadRequest
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
