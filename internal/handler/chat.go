package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/middleware"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/model"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/service"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/response"
)

// ChatHandler 会话处理器
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler 创建会话处理器
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// GetAllChats 获取当前用户的全部会话
// GET /api/v1/chats
func (h *ChatHandler) GetAllChats(c *gin.Context) {
	chats, err := h.chatService.GetAllChats(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"list": chats})
}

// GetPrivateChat 按对方用户查私聊会话
// GET /api/v1/chats/private/:userId
func (h *ChatHandler) GetPrivateChat(c *gin.Context) {
	otherID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	chat, err := h.chatService.GetChatByParticipant(c.Request.Context(), middleware.GetUserID(c), otherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, chat)
}

// GetGroupChat 按群查群会话
// GET /api/v1/chats/group/:groupId
func (h *ChatHandler) GetGroupChat(c *gin.Context) {
	groupID, ok := parseID(c, "groupId")
	if !ok {
		return
	}

	chat, err := h.chatService.GetGroupChat(c.Request.Context(), middleware.GetUserID(c), groupID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, chat)
}

// MarkAsRead 标记会话已读
// PUT /api/v1/chats/read
func (h *ChatHandler) MarkAsRead(c *gin.Context) {
	var req struct {
		ID   int64  `json:"id,string" binding:"required"`
		Type string `json:"type" binding:"required,oneof=private group"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.chatService.MarkAsRead(c.Request.Context(), middleware.GetUserID(c), req.ID, req.Type); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// GetUnreadCount 获取会话未读数
// GET /api/v1/chats/:id/unread
func (h *ChatHandler) GetUnreadCount(c *gin.Context) {
	chatID, ok := parseID(c, "id")
	if !ok {
		return
	}

	n, err := h.chatService.GetUnreadCount(c.Request.Context(), chatID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"unreadCount": n})
}

// SendMessage 发送消息
// POST /api/v1/chats/:id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	chatID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.chatService.SendMessage(c.Request.Context(), middleware.GetUserID(c), chatID, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// GetMessages 获取会话消息
// GET /api/v1/chats/:id/messages?limit=50
func (h *ChatHandler) GetMessages(c *gin.Context) {
	chatID, ok := parseID(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	msgs, err := h.chatService.GetMessages(c.Request.Context(), middleware.GetUserID(c), chatID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	if msgs == nil {
		msgs = []*model.Message{}
	}
	response.Success(c, gin.H{"list": msgs})
}
