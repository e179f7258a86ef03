package apperrors

import (
	"errors"
	"fmt"
)

// Kind 错误类别
// 用于统一管理业务错误的分类，边界层据此映射 HTTP 状态码
type Kind int

const (
	KindInternal           Kind = iota // 未预期的内部错误
	KindBadRequest                     // 参数非法、自指操作、格式错误
	KindUnauthorized                   // 凭证缺失或无效
	KindForbidden                      // 身份明确但无权限
	KindNotFound                       // 实体不存在或无可见性
	KindConflict                       // 唯一性或状态不变量冲突
	KindServiceUnavailable             // 依赖的外部组件不可用
)

// String 类别名称
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindServiceUnavailable:
		return "service_unavailable"
	default:
		return "internal"
	}
}

// AppError 应用错误类型
// 包含错误类别和对调用方可见的错误消息，原始错误仅用于日志
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap 支持 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新错误
func New(kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
	}
}

// Wrap 包装原始错误
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Kind:    e.Kind,
		Message: e.Message,
		Err:     err,
	}
}

// BadRequest 创建 BadRequest 错误
func BadRequest(message string) *AppError {
	return New(KindBadRequest, message)
}

// Unauthorized 创建 Unauthorized 错误
func Unauthorized(message string) *AppError {
	return New(KindUnauthorized, message)
}

// Forbidden 创建 Forbidden 错误
func Forbidden(message string) *AppError {
	return New(KindForbidden, message)
}

// NotFound 创建 NotFound 错误
func NotFound(message string) *AppError {
	return New(KindNotFound, message)
}

// Conflict 创建 Conflict 错误
func Conflict(message string) *AppError {
	return New(KindConflict, message)
}

// ServiceUnavailable 创建 ServiceUnavailable 错误
func ServiceUnavailable(message string) *AppError {
	return New(KindServiceUnavailable, message)
}

// Internal 创建 Internal 错误并携带原因
// 原因仅用于日志，对调用方只暴露统一消息
func Internal(err error) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// GetKind 获取错误类别，非 AppError 一律视为 Internal
func GetKind(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// GetMessage 获取对调用方可见的错误消息
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
