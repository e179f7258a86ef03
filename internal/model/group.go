package model

import (
	"errors"
	"time"
)

// GroupRole 群成员角色，权限上 member < admin < creator
const (
	GroupRoleCreator = "creator"
	GroupRoleAdmin   = "admin"
	GroupRoleMember  = "member"
)

var (
	ErrNoCreator        = errors.New("group must have exactly one creator")
	ErrDuplicateMember  = errors.New("duplicate member in group")
	ErrInvalidGroupRole = errors.New("invalid group role")
)

// GroupMember 群成员条目，随群文档内嵌存储
type GroupMember struct {
	UserID   int64     `json:"userId,string"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Group 群组
// Members 作为内嵌有序列表持久化，成员变更是单文档原子更新；
// ChatID 为 0 表示关联会话创建失败（尽力而为，不阻塞建群）
type Group struct {
	ID          int64         `json:"id,string" db:"id"`
	Name        string        `json:"name" db:"name"`
	Description string        `json:"description" db:"description"`
	Avatar      *string       `json:"avatar" db:"avatar"`
	IsPublic    bool          `json:"isPublic" db:"is_public"`
	CreatorID   int64         `json:"creator,string" db:"creator_id"`
	ChatID      int64         `json:"chatId,string" db:"chat_id"`
	Members     []GroupMember `json:"members" db:"members"`
	CreateAt    time.Time     `json:"createAt" db:"create_at"`
	UpdateAt    time.Time     `json:"updateAt" db:"update_at"`
}

// GroupWithUnread 群列表项，附带群会话未读数
type GroupWithUnread struct {
	Group
	UnreadCount int `json:"unreadCount"`
}

// ValidRole 校验角色取值
func ValidRole(role string) bool {
	switch role {
	case GroupRoleCreator, GroupRoleAdmin, GroupRoleMember:
		return true
	}
	return false
}

// ValidateMembers 校验成员列表不变量：恰好一个 creator，无重复用户，角色合法
// 在任何成员变更落库前调用
func ValidateMembers(members []GroupMember) error {
	creators := 0
	seen := make(map[int64]bool, len(members))

	for _, m := range members {
		if !ValidRole(m.Role) {
			return ErrInvalidGroupRole
		}
		if m.Role == GroupRoleCreator {
			creators++
		}
		if seen[m.UserID] {
			return ErrDuplicateMember
		}
		seen[m.UserID] = true
	}

	if creators != 1 {
		return ErrNoCreator
	}
	return nil
}

// FindMember 按用户查找成员条目，未找到返回 nil
func FindMember(members []GroupMember, userID int64) *GroupMember {
	for i := range members {
		if members[i].UserID == userID {
			return &members[i]
		}
	}
	return nil
}

// WithoutMember 返回移除指定用户后的成员列表
func WithoutMember(members []GroupMember, userID int64) []GroupMember {
	result := make([]GroupMember, 0, len(members))
	for _, m := range members {
		if m.UserID != userID {
			result = append(result, m)
		}
	}
	return result
}

// CanManage 角色是否具备管理权限（加人、改群资料）
func CanManage(role string) bool {
	return role == GroupRoleCreator || role == GroupRoleAdmin
}

// MemberIDs 提取成员用户ID列表
func MemberIDs(members []GroupMember) []int64 {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids
}
