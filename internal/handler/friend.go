package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/middleware"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/service"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/response"
)

// FriendHandler 好友处理器
type FriendHandler struct {
	friendService *service.FriendService
}

// NewFriendHandler 创建好友处理器
func NewFriendHandler(friendService *service.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

// GetFriends 获取好友列表
// GET /api/v1/friends
func (h *FriendHandler) GetFriends(c *gin.Context) {
	friends, err := h.friendService.GetFriends(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"list": friends})
}

// GetRequests 获取挂起的好友请求
// GET /api/v1/friends/requests
func (h *FriendHandler) GetRequests(c *gin.Context) {
	requests, err := h.friendService.GetFriendRequests(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"list": requests})
}

// SendRequest 发送好友请求
// POST /api/v1/friends/requests
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	edge, err := h.friendService.SendRequest(c.Request.Context(), middleware.GetUserID(c), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, edge)
}

// AcceptRequest 接受好友请求
// PUT /api/v1/friends/requests/:id/accept
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	requestID, ok := parseID(c, "id")
	if !ok {
		return
	}

	edge, err := h.friendService.AcceptRequest(c.Request.Context(), middleware.GetUserID(c), requestID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, edge)
}

// RejectRequest 拒绝好友请求
// PUT /api/v1/friends/requests/:id/reject
func (h *FriendHandler) RejectRequest(c *gin.Context) {
	requestID, ok := parseID(c, "id")
	if !ok {
		return
	}

	edge, err := h.friendService.RejectRequest(c.Request.Context(), middleware.GetUserID(c), requestID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, edge)
}

// RemoveFriend 解除好友关系
// DELETE /api/v1/friends/:id
func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	friendID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.friendService.RemoveFriend(c.Request.Context(), middleware.GetUserID(c), friendID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
