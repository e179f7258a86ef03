package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/model"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/repository"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/apperrors"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/snowflake"
)

// FriendService 好友关系服务
// 维护有向边与私聊会话的一致性：pending 边在创建时即持有会话，
// 接受后补齐反向边并复用同一会话
type FriendService struct {
	friends   FriendStore
	users     UserStore
	chats     ChatStore
	messages  MessageStore
	events    EventPublisher
	snowflake *snowflake.Node
	logger    *slog.Logger
}

// NewFriendService 创建好友服务
func NewFriendService(
	friends FriendStore,
	users UserStore,
	chats ChatStore,
	messages MessageStore,
	events EventPublisher,
	sf *snowflake.Node,
) *FriendService {
	return &FriendService{
		friends:   friends,
		users:     users,
		chats:     chats,
		messages:  messages,
		events:    events,
		snowflake: sf,
		logger:    slog.Default(),
	}
}

// SendRequest 发送好友请求，目标按邮箱解析
// 先建私聊会话再建 pending 边；边创建失败时会话成为孤儿，仅打日志
func (s *FriendService) SendRequest(ctx context.Context, userID int64, targetEmail string) (*model.Friend, error) {
	target, err := s.users.GetByEmail(ctx, targetEmail)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal(err)
	}
	friendID := target.ID

	if userID == friendID {
		return nil, apperrors.BadRequest("cannot send a friend request to yourself")
	}

	existing, err := s.friends.GetEdgeBetween(ctx, userID, friendID)
	if err != nil && !errors.Is(err, repository.ErrFriendEdgeNotFound) {
		return nil, apperrors.Internal(err)
	}
	if existing != nil {
		switch existing.Status {
		case model.FriendStatusAccepted:
			return nil, apperrors.Conflict("you are already friends with this user")
		case model.FriendStatusPending:
			return nil, apperrors.Conflict("a friend request between you already exists")
		default:
			return nil, apperrors.Conflict("a previous request between you was rejected")
		}
	}

	chat := &model.Chat{
		ID:           s.snowflake.Generate().Int64(),
		Type:         model.ChatTypePrivate,
		Participants: []int64{userID, friendID},
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, apperrors.Internal(err)
	}

	edge := &model.Friend{
		ID:       s.snowflake.Generate().Int64(),
		UserID:   userID,
		FriendID: friendID,
		Status:   model.FriendStatusPending,
		ChatID:   chat.ID,
	}
	if err := s.friends.Create(ctx, edge); err != nil {
		s.logger.Warn("Orphan chat left after friend edge creation failed", "chatId", chat.ID, "error", err)
		return nil, apperrors.Internal(err)
	}

	return edge, nil
}

// AcceptRequest 接受好友请求
// 只有接收方可接受；已拒绝的边是终态
func (s *FriendService) AcceptRequest(ctx context.Context, actorID, requestID int64) (*model.Friend, error) {
	edge, err := s.friends.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrFriendEdgeNotFound) {
			return nil, apperrors.NotFound("friend request not found")
		}
		return nil, apperrors.Internal(err)
	}

	if edge.FriendID != actorID {
		return nil, apperrors.Forbidden("only the recipient can accept this request")
	}
	if edge.Status == model.FriendStatusRejected {
		return nil, apperrors.Conflict("this request has already been rejected")
	}

	if err := s.friends.UpdateStatus(ctx, edge.ID, model.FriendStatusAccepted); err != nil {
		return nil, apperrors.Internal(err)
	}

	// 反向边幂等补齐，并发接受收敛到同一 chat
	reciprocalID := s.snowflake.Generate().Int64()
	if err := s.friends.UpsertReciprocal(ctx, reciprocalID, edge.FriendID, edge.UserID, edge.ChatID); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.events.FriendAccepted(edge.UserID, edge.FriendID, edge.ChatID)

	edge.Status = model.FriendStatusAccepted
	return edge, nil
}

// RejectRequest 拒绝好友请求
// 只有接收方可拒绝，且只能拒绝 pending 的请求
func (s *FriendService) RejectRequest(ctx context.Context, actorID, requestID int64) (*model.Friend, error) {
	edge, err := s.friends.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrFriendEdgeNotFound) {
			return nil, apperrors.NotFound("friend request not found")
		}
		return nil, apperrors.Internal(err)
	}

	if edge.FriendID != actorID {
		return nil, apperrors.Forbidden("only the recipient can reject this request")
	}
	if edge.Status != model.FriendStatusPending {
		return nil, apperrors.Conflict("this request is no longer pending")
	}

	if err := s.friends.UpdateStatus(ctx, edge.ID, model.FriendStatusRejected); err != nil {
		return nil, apperrors.Internal(err)
	}

	edge.Status = model.FriendStatusRejected
	return edge, nil
}

// RemoveFriend 解除好友关系
// 删除双向边并删除共享会话及其消息
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	edge, err := s.friends.GetEdgeBetween(ctx, userID, friendID)
	if err != nil {
		if errors.Is(err, repository.ErrFriendEdgeNotFound) {
			return apperrors.NotFound("friend relationship not found")
		}
		return apperrors.Internal(err)
	}

	if _, err := s.friends.DeleteBetween(ctx, userID, friendID); err != nil {
		return apperrors.Internal(err)
	}

	if edge.ChatID != 0 {
		if err := s.chats.Delete(ctx, edge.ChatID); err != nil {
			s.logger.Warn("Failed to delete chat after unfriending", "chatId", edge.ChatID, "error", err)
		}
	}

	return nil
}

// GetFriends 获取好友列表，附带私聊未读数
func (s *FriendService) GetFriends(ctx context.Context, userID int64) ([]*model.FriendInfo, error) {
	accepted, err := s.friends.ListAccepted(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	infos := make([]*model.FriendInfo, 0, len(accepted))
	for _, f := range accepted {
		unread, err := s.messages.UnreadCount(ctx, f.ChatID, userID)
		if err != nil {
			s.logger.Warn("Failed to count unread messages", "chatId", f.ChatID, "error", err)
			unread = 0
		}
		infos = append(infos, &model.FriendInfo{
			UserID:      f.FriendUser.ID,
			Email:       f.FriendUser.Email,
			Username:    f.FriendUser.Username,
			Avatar:      f.FriendUser.Avatar,
			LastSeen:    f.FriendUser.LastSeen,
			ChatID:      f.ChatID,
			UnreadCount: unread,
		})
	}
	return infos, nil
}

// GetFriendRequests 获取挂起的请求，按 actor 视角标注方向
func (s *FriendService) GetFriendRequests(ctx context.Context, userID int64) ([]*model.FriendRequestInfo, error) {
	pending, err := s.friends.ListPending(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	infos := make([]*model.FriendRequestInfo, 0, len(pending))
	for _, r := range pending {
		direction := model.RequestIncoming
		if r.UserID == userID {
			direction = model.RequestOutgoing
		}
		sender := r.Sender
		receiver := r.Receiver
		infos = append(infos, &model.FriendRequestInfo{
			ID:       r.ID,
			Type:     direction,
			Sender:   &sender,
			Receiver: &receiver,
			Status:   r.Status,
			CreateAt: r.CreateAt,
		})
	}
	return infos, nil
}
