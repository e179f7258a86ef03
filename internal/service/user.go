package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/model"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/repository"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/apperrors"
)

// UpdateProfileRequest 资料更新请求，仅白名单字段
type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
}

// UserService 用户档案服务
type UserService struct {
	users   UserStore
	avatars AvatarStore
	logger  *slog.Logger
}

// NewUserService 创建用户服务
func NewUserService(users UserStore, avatars AvatarStore) *UserService {
	return &UserService{
		users:   users,
		avatars: avatars,
		logger:  slog.Default(),
	}
}

// GetUser 获取用户公开信息
func (s *UserService) GetUser(ctx context.Context, id int64) (*model.PublicUser, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal(err)
	}
	return user.Public(), nil
}

// GetAllUsers 列出全部用户，仅管理员可用
func (s *UserService) GetAllUsers(ctx context.Context, actorID int64) ([]*model.PublicUser, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, apperrors.Internal(err)
	}
	if actor.Role != model.UserRoleAdmin {
		return nil, apperrors.Forbidden("admin access required")
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	public := make([]*model.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	return public, nil
}

// UpdateProfile 更新资料白名单字段
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*model.User, error) {
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if len(username) < 3 {
			return nil, apperrors.BadRequest("username must be at least 3 characters")
		}
		req.Username = &username
	}

	user, err := s.users.UpdateProfile(ctx, userID, req.Username, req.Bio, nil)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		if errors.Is(err, repository.ErrUserDuplicate) {
			return nil, apperrors.Conflict("username already in use")
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

// UploadAvatar 保存头像文件并更新档案里的 URL
func (s *UserService) UploadAvatar(ctx context.Context, userID int64, filename string, data []byte) (*model.User, error) {
	if len(data) == 0 {
		return nil, apperrors.BadRequest("avatar file is empty")
	}

	url, err := s.avatars.Save(userID, filename, data)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user, err := s.users.UpdateProfile(ctx, userID, nil, nil, &url)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

// DeleteAccount 注销账号，头像清理尽力而为
func (s *UserService) DeleteAccount(ctx context.Context, userID int64) error {
	if _, err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperrors.NotFound("user not found")
		}
		return apperrors.Internal(err)
	}

	if err := s.avatars.Remove(userID); err != nil {
		s.logger.Warn("Failed to remove stored avatar", "userId", userID, "error", err)
	}
	return nil
}

// UpdateOnlineStatus 更新在线状态
// 在线时 last_seen 置空，离线时记录当前时间
func (s *UserService) UpdateOnlineStatus(ctx context.Context, userID int64, online bool) (*model.User, error) {
	user, err := s.users.UpdateLastSeen(ctx, userID, online)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}
