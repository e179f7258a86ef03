package model

import "time"

// Message 消息
// ReadBy 以读者用户ID为键记录已读时间，结构上保证每个读者至多一条；
// 消息不单独删除，生命周期跟随所属会话
type Message struct {
	ID       int64                `json:"id,string" db:"id"`
	ChatID   int64                `json:"chatId,string" db:"chat_id"`
	SenderID int64                `json:"sender,string" db:"sender_id"`
	Content  string               `json:"content" db:"content"`
	ReadBy   map[string]time.Time `json:"readedBy" db:"read_by"`
	CreateAt time.Time            `json:"createAt" db:"create_at"`
}
