package model

import "time"

// UserRole 用户角色
const (
	UserRoleMember = "member"
	UserRoleAdmin  = "admin"
)

// User 用户模型
// LastSeen 为 nil 表示当前在线
type User struct {
	ID           int64      `json:"id,string" db:"id"`
	Email        string     `json:"email" db:"email"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Bio          string     `json:"bio" db:"bio"`
	Avatar       *string    `json:"avatar" db:"avatar"`
	Role         string     `json:"role" db:"role"`
	LastSeen     *time.Time `json:"lastSeen" db:"last_seen"`
	CreateAt     time.Time  `json:"createAt" db:"create_at"`
	UpdateAt     time.Time  `json:"updateAt" db:"update_at"`
}

// PublicUser 对其他用户可见的字段
type PublicUser struct {
	ID       int64      `json:"id,string"`
	Email    string     `json:"email"`
	Username string     `json:"username"`
	Avatar   *string    `json:"avatar"`
	LastSeen *time.Time `json:"lastSeen"`
}

// Public 裁剪出公开视图
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Avatar:   u.Avatar,
		LastSeen: u.LastSeen,
	}
}
