package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS Subject 常量定义
// 推送层订阅这些主题做尽力而为的实时通知，核心状态以存储为准
const (
	SubjectFriendAccepted  = "chat.friend.accepted"
	SubjectGroupMembership = "chat.group.membership"
	SubjectMessageCreated  = "chat.message.created"
)

// FriendAcceptedEvent 好友接受事件
type FriendAcceptedEvent struct {
	UserID   int64 `json:"userId,string"`
	FriendID int64 `json:"friendId,string"`
	ChatID   int64 `json:"chatId,string"`
}

// GroupMembershipEvent 群成员变更事件
type GroupMembershipEvent struct {
	GroupID int64  `json:"groupId,string"`
	UserID  int64  `json:"userId,string"`
	Action  string `json:"action"` // added | removed
}

// MessageCreatedEvent 新消息事件
type MessageCreatedEvent struct {
	MessageID int64     `json:"messageId,string"`
	ChatID    int64     `json:"chatId,string"`
	SenderID  int64     `json:"senderId,string"`
	CreateAt  time.Time `json:"createAt"`
}

// Publisher 推送事件发布器
// 所有发布都是尽力而为：失败打日志，绝不影响已提交的存储状态
type Publisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewPublisher 创建发布器，nc 为 nil 时发布是空操作
func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{
		nc:     nc,
		logger: slog.Default(),
	}
}

// publish 序列化并发布到指定主题
func (p *Publisher) publish(subject string, event interface{}) {
	if p.nc == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", "subject", subject, "error", err)
		return
	}

	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Warn("Failed to publish event", "subject", subject, "error", err)
	}
}

// FriendAccepted 发布好友接受事件
func (p *Publisher) FriendAccepted(userID, friendID, chatID int64) {
	p.publish(SubjectFriendAccepted, &FriendAcceptedEvent{
		UserID:   userID,
		FriendID: friendID,
		ChatID:   chatID,
	})
}

// GroupMembershipChanged 发布群成员变更事件
func (p *Publisher) GroupMembershipChanged(groupID, userID int64, action string) {
	p.publish(SubjectGroupMembership, &GroupMembershipEvent{
		GroupID: groupID,
		UserID:  userID,
		Action:  action,
	})
}

// MessageCreated 发布新消息事件
func (p *Publisher) MessageCreated(messageID, chatID, senderID int64, createAt time.Time) {
	p.publish(SubjectMessageCreated, &MessageCreatedEvent{
		MessageID: messageID,
		ChatID:    chatID,
		SenderID:  senderID,
		CreateAt:  createAt,
	})
}
