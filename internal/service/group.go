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

// CreateGroupRequest 建群请求
type CreateGroupRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description" binding:"max=500"`
	Avatar      *string `json:"avatar"`
	IsPublic    bool    `json:"isPublic"`
}

// UpdateGroupRequest 群资料更新请求，仅白名单字段
type UpdateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Avatar      *string `json:"avatar"`
	IsPublic    *bool   `json:"isPublic"`
}

// GroupService 群组生命周期服务
// 成员变更是群文档上的原子更新，会话参与者列表是尽力而为的镜像
type GroupService struct {
	groups    GroupStore
	users     UserStore
	chats     ChatStore
	messages  MessageStore
	events    EventPublisher
	snowflake *snowflake.Node
	logger    *slog.Logger
}

// NewGroupService 创建群组服务
func NewGroupService(
	groups GroupStore,
	users UserStore,
	chats ChatStore,
	messages MessageStore,
	events EventPublisher,
	sf *snowflake.Node,
) *GroupService {
	return &GroupService{
		groups:    groups,
		users:     users,
		chats:     chats,
		messages:  messages,
		events:    events,
		snowflake: sf,
		logger:    slog.Default(),
	}
}

// CreateGroup 创建群组
// 群会话创建是尽力而为：失败不阻塞建群，ChatID 保持 0
func (s *GroupService) CreateGroup(ctx context.Context, actorID int64, req *CreateGroupRequest) (*model.Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.BadRequest("group name cannot be empty")
	}

	taken, err := s.groups.ExistsByNameFold(ctx, name, 0)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if taken {
		return nil, apperrors.Conflict("a group with this name already exists")
	}

	group := &model.Group{
		ID:          s.snowflake.Generate().Int64(),
		Name:        name,
		Description: req.Description,
		Avatar:      req.Avatar,
		IsPublic:    req.IsPublic,
		CreatorID:   actorID,
		Members: []model.GroupMember{
			{UserID: actorID, Role: model.GroupRoleCreator, JoinedAt: time.Now()},
		},
	}
	if err := model.ValidateMembers(group.Members); err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}

	if err := s.groups.Create(ctx, group); err != nil {
		if errors.Is(err, repository.ErrGroupNameTaken) {
			return nil, apperrors.Conflict("a group with this name already exists")
		}
		return nil, apperrors.Internal(err)
	}

	chat := &model.Chat{
		ID:           s.snowflake.Generate().Int64(),
		Type:         model.ChatTypeGroup,
		GroupID:      group.ID,
		Participants: []int64{actorID},
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		s.logger.Warn("Failed to create group chat", "groupId", group.ID, "error", err)
		return group, nil
	}
	if err := s.groups.SetChatID(ctx, group.ID, chat.ID); err != nil {
		s.logger.Warn("Failed to link group chat", "groupId", group.ID, "chatId", chat.ID, "error", err)
		return group, nil
	}
	group.ChatID = chat.ID

	return group, nil
}

// UpdateGroup 更新群资料，仅 creator/admin 可操作
func (s *GroupService) UpdateGroup(ctx context.Context, actorID, groupID int64, req *UpdateGroupRequest) (*model.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return nil, apperrors.NotFound("group not found")
		}
		return nil, apperrors.Internal(err)
	}

	actor := model.FindMember(group.Members, actorID)
	if actor == nil {
		return nil, apperrors.Forbidden("you are not a member of this group")
	}
	if !model.CanManage(actor.Role) {
		return nil, apperrors.Forbidden("only the creator or an admin can update the group")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len(name) < 2 {
			return nil, apperrors.BadRequest("group name must be at least 2 characters")
		}
		taken, err := s.groups.ExistsByNameFold(ctx, name, groupID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if taken {
			return nil, apperrors.Conflict("a group with this name already exists")
		}
		req.Name = &name
	}

	updated, err := s.groups.Update(ctx, groupID, req.Name, req.Description, req.Avatar, req.IsPublic)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNameTaken) {
			return nil, apperrors.Conflict("a group with this name already exists")
		}
		if errors.Is(err, repository.ErrGroupNotFound) {
			return nil, apperrors.NotFound("group not found")
		}
		return nil, apperrors.Internal(err)
	}
	return updated, nil
}

// AddMember 添加成员，目标按邮箱解析
func (s *GroupService) AddMember(ctx context.Context, actorID, groupID int64, email, role string) (*model.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return nil, apperrors.NotFound("group not found")
		}
		return nil, apperrors.Internal(err)
	}

	actor := model.FindMember(group.Members, actorID)
	if actor == nil || !model.CanManage(actor.Role) {
		return nil, apperrors.Forbidden("only the creator or an admin can add members")
	}

	if role == "" {
		role = model.GroupRoleMember
	}
	if role == model.GroupRoleCreator || !model.ValidRole(role) {
		return nil, apperrors.BadRequest("invalid member role")
	}

	target, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal(err)
	}

	member := model.GroupMember{UserID: target.ID, Role: role, JoinedAt: time.Now()}
	candidate := append(append([]model.GroupMember{}, group.Members...), member)
	if err := model.ValidateMembers(candidate); err != nil {
		if errors.Is(err, model.ErrDuplicateMember) {
			return nil, apperrors.Conflict("user is already a member of this group")
		}
		return nil, apperrors.BadRequest(err.Error())
	}

	appended, err := s.groups.AppendMember(ctx, groupID, member)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !appended {
		return nil, apperrors.Conflict("user is already a member of this group")
	}
	group.Members = append(group.Members, member)

	if group.ChatID != 0 {
		if err := s.chats.AddParticipant(ctx, group.ChatID, target.ID); err != nil {
			s.logger.Warn("Failed to add chat participant", "chatId", group.ChatID, "userId", target.ID, "error", err)
		}
	}

	s.events.GroupMembershipChanged(groupID, target.ID, "added")

	return group, nil
}

// RemoveMember 移除成员
// creator 永远不可被移除；admin 不能移除 admin；自移除除 creator 外均允许
func (s *GroupService) RemoveMember(ctx context.Context, actorID, groupID, memberID int64) error {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return apperrors.NotFound("group not found")
		}
		return apperrors.Internal(err)
	}

	actor := model.FindMember(group.Members, actorID)
	if actor == nil {
		return apperrors.NotFound("you are not a member of this group")
	}
	target := model.FindMember(group.Members, memberID)
	if target == nil {
		return apperrors.NotFound("member not found in this group")
	}

	if target.Role == model.GroupRoleCreator {
		return apperrors.BadRequest("the group creator cannot be removed, delete the group instead")
	}
	if actorID != memberID {
		if !model.CanManage(actor.Role) {
			return apperrors.Forbidden("only the creator or an admin can remove members")
		}
		if actor.Role == model.GroupRoleAdmin && target.Role == model.GroupRoleAdmin {
			return apperrors.Forbidden("an admin cannot remove another admin")
		}
	}

	if err := s.groups.RemoveMember(ctx, groupID, memberID); err != nil {
		if errors.Is(err, repository.ErrMemberMissing) {
			return apperrors.NotFound("member not found in this group")
		}
		return apperrors.Internal(err)
	}

	if group.ChatID != 0 {
		if err := s.chats.PullParticipant(ctx, group.ChatID, memberID); err != nil {
			s.logger.Warn("Failed to pull chat participant", "chatId", group.ChatID, "userId", memberID, "error", err)
		}
	}

	s.events.GroupMembershipChanged(groupID, memberID, "removed")

	return nil
}

// DeleteGroup 解散群组，仅 creator 可操作
// 先尝试删会话再删群组，两步都会被尝试
func (s *GroupService) DeleteGroup(ctx context.Context, actorID, groupID int64) error {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return apperrors.NotFound("group not found")
		}
		return apperrors.Internal(err)
	}

	actor := model.FindMember(group.Members, actorID)
	if actor == nil || actor.Role != model.GroupRoleCreator {
		return apperrors.Forbidden("only the creator can delete the group")
	}

	if group.ChatID != 0 {
		if err := s.chats.Delete(ctx, group.ChatID); err != nil {
			s.logger.Warn("Failed to delete group chat", "chatId", group.ChatID, "error", err)
		}
	}

	if err := s.groups.Delete(ctx, groupID); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// GetUserGroups 获取用户所在群组，附带群会话未读数
func (s *GroupService) GetUserGroups(ctx context.Context, userID int64) ([]*model.GroupWithUnread, error) {
	groups, err := s.groups.ListByMember(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	result := make([]*model.GroupWithUnread, 0, len(groups))
	for _, g := range groups {
		unread := 0
		if g.ChatID != 0 {
			n, err := s.messages.UnreadCount(ctx, g.ChatID, userID)
			if err != nil {
				s.logger.Warn("Failed to count unread messages", "chatId", g.ChatID, "error", err)
			} else {
				unread = n
			}
		}
		result = append(result, &model.GroupWithUnread{Group: *g, UnreadCount: unread})
	}
	return result, nil
}

// GetGroupDetails 获取群详情
// 非成员一律 NotFound，不暴露群是否存在
func (s *GroupService) GetGroupDetails(ctx context.Context, actorID, groupID int64) (*model.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return nil, apperrors.NotFound("group not found")
		}
		return nil, apperrors.Internal(err)
	}
	if model.FindMember(group.Members, actorID) == nil {
		return nil, apperrors.NotFound("group not found")
	}
	return group, nil
}
