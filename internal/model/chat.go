package model

import "time"

// ChatType 会话类型
const (
	ChatTypePrivate = "private"
	ChatTypeGroup   = "group"
)

// Chat 会话
// 私聊会话的 Participants 恰好为两个不同用户；
// 群会话的 GroupID 指向所属群组，Participants 是成员列表的尽力而为镜像
type Chat struct {
	ID           int64     `json:"id,string" db:"id"`
	Type         string    `json:"type" db:"type"`
	GroupID      int64     `json:"groupId,string,omitempty" db:"group_id"`
	Participants []int64   `json:"participants" db:"participants"`
	CreateAt     time.Time `json:"createAt" db:"create_at"`
	UpdateAt     time.Time `json:"updateAt" db:"update_at"`
}

// HasParticipant 判断用户是否在会话中
func (c *Chat) HasParticipant(userID int64) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// ChatSummary 会话列表项，附带未读数
type ChatSummary struct {
	ID          int64     `json:"id,string"`
	Type        string    `json:"type"`
	GroupID     int64     `json:"groupId,string,omitempty"`
	Name        string    `json:"name,omitempty"`
	UnreadCount int       `json:"unreadCount"`
	UpdateAt    time.Time `json:"updatedAt"`
}
