package service

import (
	"context"
	"time"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/model"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/workerpool"
)

// 存储句柄全部以接口注入，便于在测试中替换为内存实现

// UserStore 用户存储
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	List(ctx context.Context) ([]*model.User, error)
	UpdateProfile(ctx context.Context, id int64, username, bio, avatar *string) (*model.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateLastSeen(ctx context.Context, id int64, online bool) (*model.User, error)
	Delete(ctx context.Context, id int64) (*model.User, error)
}

// FriendStore 好友关系存储
type FriendStore interface {
	Create(ctx context.Context, edge *model.Friend) error
	GetByID(ctx context.Context, id int64) (*model.Friend, error)
	GetEdgeBetween(ctx context.Context, a, b int64) (*model.Friend, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	UpsertReciprocal(ctx context.Context, id, userID, friendID, chatID int64) error
	DeleteBetween(ctx context.Context, a, b int64) (int64, error)
	ListAccepted(ctx context.Context, userID int64) ([]*model.AcceptedFriend, error)
	ListPending(ctx context.Context, userID int64) ([]*model.PendingRequest, error)
}

// GroupStore 群组存储
type GroupStore interface {
	Create(ctx context.Context, group *model.Group) error
	GetByID(ctx context.Context, id int64) (*model.Group, error)
	ExistsByNameFold(ctx context.Context, name string, excludeID int64) (bool, error)
	Update(ctx context.Context, id int64, name, description, avatar *string, isPublic *bool) (*model.Group, error)
	SetChatID(ctx context.Context, id, chatID int64) error
	AppendMember(ctx context.Context, id int64, member model.GroupMember) (bool, error)
	RemoveMember(ctx context.Context, id, userID int64) error
	Delete(ctx context.Context, id int64) error
	ListByMember(ctx context.Context, userID int64) ([]*model.Group, error)
}

// ChatStore 会话存储
type ChatStore interface {
	Create(ctx context.Context, chat *model.Chat) error
	GetByID(ctx context.Context, id int64) (*model.Chat, error)
	GetByGroupID(ctx context.Context, groupID int64) (*model.Chat, error)
	AddParticipant(ctx context.Context, id, userID int64) error
	PullParticipant(ctx context.Context, id, userID int64) error
	Touch(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// MessageStore 消息存储
type MessageStore interface {
	Create(ctx context.Context, msg *model.Message) error
	ListByChat(ctx context.Context, chatID int64, limit int) ([]*model.Message, error)
	UnreadCount(ctx context.Context, chatID, userID int64) (int, error)
	MarkAllRead(ctx context.Context, chatID, userID int64) (int64, error)
}

// VerificationStore 验证码缓存
type VerificationStore interface {
	Set(ctx context.Context, key string, entry *model.VerificationEntry) error
	Get(ctx context.Context, key string) (*model.VerificationEntry, error)
	Delete(ctx context.Context, key string) error
}

// CodeSender 验证码邮件发送（火忘式，失败不阻断流程）
type CodeSender interface {
	SendCode(to, code string) error
}

// AvatarStore 头像文件存储，核心只持有返回的 URL
type AvatarStore interface {
	Save(userID int64, filename string, data []byte) (string, error)
	Remove(userID int64) error
}

// EventPublisher 推送事件发布（尽力而为）
type EventPublisher interface {
	FriendAccepted(userID, friendID, chatID int64)
	GroupMembershipChanged(groupID, userID int64, action string)
	MessageCreated(messageID, chatID, senderID int64, createAt time.Time)
}

// TaskRunner 异步任务提交
type TaskRunner interface {
	Submit(task workerpool.Task) bool
}
