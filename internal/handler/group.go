package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/middleware"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/service"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/response"
)

// GroupHandler 群组处理器
type GroupHandler struct {
	groupService *service.GroupService
}

// NewGroupHandler 创建群组处理器
func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// CreateGroup 创建群组
// POST /api/v1/groups
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req service.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// UpdateGroup 更新群资料
// PATCH /api/v1/groups/:id
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	group, err := h.groupService.UpdateGroup(c.Request.Context(), middleware.GetUserID(c), groupID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, group)
}

// AddMember 添加群成员
// POST /api/v1/groups/:id/members
func (h *GroupHandler) AddMember(c *gin.Context) {
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email" binding:"required,email"`
		Role  string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	group, err := h.groupService.AddMember(c.Request.Context(), middleware.GetUserID(c), groupID, req.Email, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, group)
}

// RemoveMember 移除群成员
// DELETE /api/v1/groups/:id/members/:memberId
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}
	memberID, ok := parseID(c, "memberId")
	if !ok {
		return
	}

	if err := h.groupService.RemoveMember(c.Request.Context(), middleware.GetUserID(c), groupID, memberID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// DeleteGroup 解散群组
// DELETE /api/v1/groups/:id
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.groupService.DeleteGroup(c.Request.Context(), middleware.GetUserID(c), groupID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// GetUserGroups 获取当前用户的群组列表
// GET /api/v1/groups
func (h *GroupHandler) GetUserGroups(c *gin.Context) {
	groups, err := h.groupService.GetUserGroups(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"list": groups})
}

// GetGroupDetails 获取群详情
// GET /api/v1/groups/:id
func (h *GroupHandler) GetGroupDetails(c *gin.Context) {
	groupID, ok := parseID(c, "id")
	if !ok {
		return
	}

	group, err := h.groupService.GetGroupDetails(c.Request.Context(), middleware.GetUserID(c), groupID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, group)
}
