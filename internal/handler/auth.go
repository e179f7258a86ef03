package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/service"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/response"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register 开始注册，发送验证码
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	key, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"key": key})
}

// CompleteRegistration 校验验证码并创建账号
// POST /api/v1/auth/register/complete
func (h *AuthHandler) CompleteRegistration(c *gin.Context) {
	var req service.CompleteRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.CompleteRegistration(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Login 登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RefreshToken 刷新 Token
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RequestPasswordReset 发起密码重置
// POST /api/v1/auth/password/forgot
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	key, err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"key": key})
}

// VerifyResetCode 校验重置验证码
// POST /api/v1/auth/password/verify
func (h *AuthHandler) VerifyResetCode(c *gin.Context) {
	var req struct {
		Key  string `json:"key" binding:"required"`
		Code string `json:"verificationCode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	token, err := h.authService.VerifyResetCode(c.Request.Context(), req.Key, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"resetToken": token})
}

// ResetPassword 重设密码
// POST /api/v1/auth/password/reset
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		ResetToken  string `json:"resetToken" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required,min=6,max=72"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.ResetToken, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}
