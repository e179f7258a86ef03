package model

import "time"

// FriendStatus 好友关系状态
const (
	FriendStatusPending  = "pending"
	FriendStatusAccepted = "accepted"
	FriendStatusRejected = "rejected"
)

// Friend 有向好友关系边
// 一条 pending 边代表 user 向 friend 发出的请求；
// 接受后补齐反向边，两条 accepted 边共享同一个 ChatID
type Friend struct {
	ID       int64     `json:"id,string" db:"id"`
	UserID   int64     `json:"userId,string" db:"user_id"`
	FriendID int64     `json:"friendId,string" db:"friend_id"`
	Status   string    `json:"status" db:"status"`
	ChatID   int64     `json:"chatId,string" db:"chat_id"`
	CreateAt time.Time `json:"createAt" db:"create_at"`
	UpdateAt time.Time `json:"updateAt" db:"update_at"`
}

// FriendRequestDirection 请求方向
const (
	RequestIncoming = "incoming"
	RequestOutgoing = "outgoing"
)

// AcceptedFriend 已接受的边及对方用户信息
type AcceptedFriend struct {
	Friend
	FriendUser PublicUser `json:"friendUser"`
}

// PendingRequest 挂起的请求边及双方用户信息
type PendingRequest struct {
	Friend
	Sender   PublicUser `json:"sender"`
	Receiver PublicUser `json:"receiver"`
}

// FriendInfo 好友列表项：对方用户信息加会话未读数
type FriendInfo struct {
	UserID      int64      `json:"id,string"`
	Email       string     `json:"email"`
	Username    string     `json:"name"`
	Avatar      *string    `json:"profileImage"`
	LastSeen    *time.Time `json:"lastSeen"`
	ChatID      int64      `json:"chatId,string"`
	UnreadCount int        `json:"unreadCount"`
}

// FriendRequestInfo 好友请求列表项，按 actor 视角标注方向
type FriendRequestInfo struct {
	ID       int64       `json:"id,string"`
	Type     string      `json:"type"`
	Sender   *PublicUser `json:"sender"`
	Receiver *PublicUser `json:"receiver"`
	Status   string      `json:"status"`
	CreateAt time.Time   `json:"createdAt"`
}
