package handler

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/middleware"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/service"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/response"
)

// 头像上传大小上限
const maxAvatarSize = 5 << 20

// UserHandler 用户处理器
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler 创建用户处理器
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// parseID 解析路径里的十进制ID
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// GetMe 获取当前用户信息
// GET /api/v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// GetUser 获取用户公开信息
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// ListUsers 列出全部用户，仅管理员
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.GetAllUsers(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"list": users})
}

// UpdateProfile 更新资料
// PATCH /api/v1/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// UploadAvatar 上传头像
// POST /api/v1/users/me/avatar
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		response.BadRequest(c, "avatar file is required")
		return
	}
	defer file.Close()

	if header.Size > maxAvatarSize {
		response.BadRequest(c, "avatar file too large")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarSize+1))
	if err != nil {
		response.BadRequest(c, "failed to read avatar file")
		return
	}
	if len(data) > maxAvatarSize {
		response.BadRequest(c, "avatar file too large")
		return
	}

	user, err := h.userService.UploadAvatar(c.Request.Context(), middleware.GetUserID(c), header.Filename, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// DeleteAccount 注销当前账号
// DELETE /api/v1/users/me
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	if err := h.userService.DeleteAccount(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// UpdateOnlineStatus 更新在线状态
// PUT /api/v1/users/me/status
func (h *UserHandler) UpdateOnlineStatus(c *gin.Context) {
	var req struct {
		Online *bool `json:"online" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.UpdateOnlineStatus(c.Request.Context(), middleware.GetUserID(c), *req.Online)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}
