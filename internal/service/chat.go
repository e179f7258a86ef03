package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/model"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/repository"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/apperrors"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/snowflake"
)

// ChatService 会话与未读服务
// 私聊会话经好友边解析，群会话经群成员资格解析，读标记按读者幂等落库
type ChatService struct {
	chats     ChatStore
	messages  MessageStore
	friends   FriendStore
	groups    GroupStore
	events    EventPublisher
	snowflake *snowflake.Node
	logger    *slog.Logger
}

// NewChatService 创建会话服务
func NewChatService(
	chats ChatStore,
	messages MessageStore,
	friends FriendStore,
	groups GroupStore,
	events EventPublisher,
	sf *snowflake.Node,
) *ChatService {
	return &ChatService{
		chats:     chats,
		messages:  messages,
		friends:   friends,
		groups:    groups,
		events:    events,
		snowflake: sf,
		logger:    slog.Default(),
	}
}

// resolveChat 解析 actor 可读写的会话
// private 时 targetID 是对方用户ID，group 时是群ID
func (s *ChatService) resolveChat(ctx context.Context, actorID, targetID int64, chatType string) (int64, error) {
	switch chatType {
	case model.ChatTypePrivate:
		edge, err := s.friends.GetEdgeBetween(ctx, actorID, targetID)
		if err != nil {
			if errors.Is(err, repository.ErrFriendEdgeNotFound) {
				return 0, apperrors.NotFound("chat not found")
			}
			return 0, apperrors.Internal(err)
		}
		if edge.ChatID == 0 {
			return 0, apperrors.NotFound("chat not found")
		}
		return edge.ChatID, nil

	case model.ChatTypeGroup:
		group, err := s.groups.GetByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, repository.ErrGroupNotFound) {
				return 0, apperrors.NotFound("group not found")
			}
			return 0, apperrors.Internal(err)
		}
		if model.FindMember(group.Members, actorID) == nil {
			return 0, apperrors.Forbidden("you are not a member of this group")
		}
		if group.ChatID == 0 {
			return 0, apperrors.NotFound("this group has no chat")
		}
		return group.ChatID, nil

	default:
		return 0, apperrors.BadRequest("invalid chat type")
	}
}

// GetUnreadCount 获取会话未读数
func (s *ChatService) GetUnreadCount(ctx context.Context, chatID, userID int64) (int, error) {
	n, err := s.messages.UnreadCount(ctx, chatID, userID)
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return n, nil
}

// MarkAsRead 将会话内所有消息标记为 actor 已读
// 幂等：重复调用命中零行，不是错误
func (s *ChatService) MarkAsRead(ctx context.Context, actorID, targetID int64, chatType string) error {
	chatID, err := s.resolveChat(ctx, actorID, targetID, chatType)
	if err != nil {
		return err
	}
	if _, err := s.messages.MarkAllRead(ctx, chatID, actorID); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// GetAllChats 获取 actor 参与的全部会话，附带未读数和更新时间
// 私聊来自 accepted 好友边，群聊来自群成员资格；空列表不是错误
func (s *ChatService) GetAllChats(ctx context.Context, actorID int64) ([]*model.ChatSummary, error) {
	summaries := make([]*model.ChatSummary, 0)

	accepted, err := s.friends.ListAccepted(ctx, actorID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	for _, f := range accepted {
		if f.ChatID == 0 {
			continue
		}
		summary := &model.ChatSummary{
			ID:   f.ChatID,
			Type: model.ChatTypePrivate,
			Name: f.FriendUser.Username,
		}
		s.annotate(ctx, summary, actorID)
		summaries = append(summaries, summary)
	}

	groups, err := s.groups.ListByMember(ctx, actorID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	for _, g := range groups {
		if g.ChatID == 0 {
			continue
		}
		summary := &model.ChatSummary{
			ID:      g.ChatID,
			Type:    model.ChatTypeGroup,
			GroupID: g.ID,
			Name:    g.Name,
		}
		s.annotate(ctx, summary, actorID)
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// annotate 填充未读数和更新时间，查询失败只打日志
func (s *ChatService) annotate(ctx context.Context, summary *model.ChatSummary, actorID int64) {
	if n, err := s.messages.UnreadCount(ctx, summary.ID, actorID); err != nil {
		s.logger.Warn("Failed to count unread messages", "chatId", summary.ID, "error", err)
	} else {
		summary.UnreadCount = n
	}
	if chat, err := s.chats.GetByID(ctx, summary.ID); err != nil {
		s.logger.Warn("Failed to load chat", "chatId", summary.ID, "error", err)
	} else {
		summary.UpdateAt = chat.UpdateAt
	}
}

// GetChatByParticipant 按对方用户查私聊会话
// 一律 NotFound，不确认对方用户或关系是否存在
func (s *ChatService) GetChatByParticipant(ctx context.Context, actorID, otherUserID int64) (*model.Chat, error) {
	chatID, err := s.resolveChat(ctx, actorID, otherUserID, model.ChatTypePrivate)
	if err != nil {
		return nil, err
	}
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return nil, apperrors.NotFound("chat not found")
		}
		return nil, apperrors.Internal(err)
	}
	return chat, nil
}

// GetGroupChat 按群查群会话
// 非成员返回 Forbidden 以区别于会话不存在
func (s *ChatService) GetGroupChat(ctx context.Context, actorID, groupID int64) (*model.Chat, error) {
	chatID, err := s.resolveChat(ctx, actorID, groupID, model.ChatTypeGroup)
	if err != nil {
		return nil, err
	}
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return nil, apperrors.NotFound("this group has no chat")
		}
		return nil, apperrors.Internal(err)
	}
	return chat, nil
}

// authorize 校验 actor 对指定会话的读写权限
func (s *ChatService) authorize(ctx context.Context, actorID int64, chat *model.Chat) error {
	if chat.Type == model.ChatTypeGroup && chat.GroupID != 0 {
		group, err := s.groups.GetByID(ctx, chat.GroupID)
		if err != nil {
			if errors.Is(err, repository.ErrGroupNotFound) {
				return apperrors.Forbidden("you are not a participant of this chat")
			}
			return apperrors.Internal(err)
		}
		if model.FindMember(group.Members, actorID) == nil {
			return apperrors.Forbidden("you are not a member of this group")
		}
		return nil
	}
	if !chat.HasParticipant(actorID) {
		return apperrors.Forbidden("you are not a participant of this chat")
	}
	return nil
}

// SendMessage 在会话中发送消息
func (s *ChatService) SendMessage(ctx context.Context, actorID, chatID int64, content string) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.BadRequest("message content cannot be empty")
	}

	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return nil, apperrors.NotFound("chat not found")
		}
		return nil, apperrors.Internal(err)
	}
	if err := s.authorize(ctx, actorID, chat); err != nil {
		return nil, err
	}

	msg := &model.Message{
		ID:       s.snowflake.Generate().Int64(),
		ChatID:   chatID,
		SenderID: actorID,
		Content:  content,
		ReadBy:   map[string]time.Time{},
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.chats.Touch(ctx, chatID); err != nil {
		s.logger.Warn("Failed to bump chat update time", "chatId", chatID, "error", err)
	}

	s.events.MessageCreated(msg.ID, chatID, actorID, msg.CreateAt)

	return msg, nil
}

// GetMessages 获取会话消息，按时间倒序
func (s *ChatService) GetMessages(ctx context.Context, actorID, chatID int64, limit int) ([]*model.Message, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return nil, apperrors.NotFound("chat not found")
		}
		return nil, apperrors.Internal(err)
	}
	if err := s.authorize(ctx, actorID, chat); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	msgs, err := s.messages.ListByChat(ctx, chatID, limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return msgs, nil
}
