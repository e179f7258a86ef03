package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/cache"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/model"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/repository"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/apperrors"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/jwtauth"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/snowflake"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Username string `json:"username" binding:"required,min=3,max=50"`
	Bio      string `json:"bio" binding:"max=500"`
}

// CompleteRegistrationRequest 完成注册请求
type CompleteRegistrationRequest struct {
	Key  string `json:"key" binding:"required"`
	Code string `json:"verificationCode" binding:"required"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResult 认证结果
type AuthResult struct {
	User  *model.User       `json:"user"`
	Token *jwtauth.TokenPair `json:"token"`
}

// AuthService 认证与账号生命周期服务
type AuthService struct {
	users     UserStore
	codes     VerificationStore
	sender    CodeSender
	jwt       *jwtauth.Service
	tasks     TaskRunner
	snowflake *snowflake.Node
	codeTTL   time.Duration
	logger    *slog.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(
	users UserStore,
	codes VerificationStore,
	sender CodeSender,
	jwtService *jwtauth.Service,
	tasks TaskRunner,
	sf *snowflake.Node,
	codeTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:     users,
		codes:     codes,
		sender:    sender,
		jwt:       jwtService,
		tasks:     tasks,
		snowflake: sf,
		codeTTL:   codeTTL,
		logger:    slog.Default(),
	}
}

// generateCode 生成六位数字验证码
func generateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand 不可用时退化为时间派生，仍满足一次性用途
		return fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}

// dispatchCode 异步发送验证码邮件
// 发送失败只打日志：验证码条目已落缓存，流程不依赖投递成功
func (s *AuthService) dispatchCode(email, code string) {
	ok := s.tasks.Submit(func() {
		if err := s.sender.SendCode(email, code); err != nil {
			s.logger.Warn("Failed to send verification email", "email", email, "error", err)
		}
	})
	if !ok {
		s.logger.Warn("Email task rejected, code delivery skipped", "email", email)
	}
}

// Register 开始注册：暂存待建账号并发送验证码
// 返回后续完成注册所需的缓存键
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (string, error) {
	exists, err := s.users.ExistsByEmailOrUsername(ctx, req.Email, req.Username)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	if exists {
		return "", apperrors.Conflict("email or username already in use")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.Internal(err)
	}

	code := generateCode()
	key := cache.DeriveKey(model.PurposeRegister, req.Email)
	entry := &model.VerificationEntry{
		Email:     req.Email,
		Password:  string(passwordHash),
		Username:  req.Username,
		Bio:       req.Bio,
		Code:      code,
		ExpiresAt: time.Now().Add(s.codeTTL).UnixMilli(),
	}

	if err := s.codes.Set(ctx, key, entry); err != nil {
		return "", apperrors.ServiceUnavailable("registration service temporarily unavailable").Wrap(err)
	}

	s.dispatchCode(req.Email, code)

	return key, nil
}

// consumeEntry 读取并校验验证码条目
// 过期的条目删除后按"不存在"处理；条目一律在成功路径上由调用方删除
func (s *AuthService) consumeEntry(ctx context.Context, key, code string) (*model.VerificationEntry, error) {
	entry, err := s.codes.Get(ctx, key)
	if err != nil {
		return nil, apperrors.ServiceUnavailable("verification service temporarily unavailable").Wrap(err)
	}
	if entry == nil {
		return nil, apperrors.BadRequest("no verification data found or code expired")
	}

	if entry.Code != code {
		return nil, apperrors.BadRequest("invalid verification code")
	}

	// 存储 TTL 只是兜底，这里必须重新校验
	if time.Now().UnixMilli() > entry.ExpiresAt {
		if err := s.codes.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to delete expired verification entry", "error", err)
		}
		return nil, apperrors.BadRequest("the verification code has expired")
	}

	return entry, nil
}

// CompleteRegistration 校验验证码并创建账号
func (s *AuthService) CompleteRegistration(ctx context.Context, req *CompleteRegistrationRequest) (*AuthResult, error) {
	entry, err := s.consumeEntry(ctx, req.Key, req.Code)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           s.snowflake.Generate().Int64(),
		Email:        entry.Email,
		Username:     entry.Username,
		PasswordHash: entry.Password,
		Bio:          entry.Bio,
		Role:         model.UserRoleMember,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserDuplicate) {
			return nil, apperrors.Conflict("email or username already in use")
		}
		return nil, apperrors.Internal(err)
	}

	// 条目至多使用一次；删除失败由 TTL 兜底
	if err := s.codes.Delete(ctx, req.Key); err != nil {
		s.logger.Warn("Failed to delete verification entry", "error", err)
	}

	tokens, err := s.jwt.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &AuthResult{User: user, Token: tokens}, nil
}

// Login 登录
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, apperrors.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	tokens, err := s.jwt.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &AuthResult{User: user, Token: tokens}, nil
}

// RefreshToken 刷新 Token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	tokens, err := s.jwt.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &AuthResult{User: user, Token: tokens}, nil
}

// RequestPasswordReset 发起密码重置：发送验证码
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", apperrors.NotFound("user not found")
		}
		return "", apperrors.Internal(err)
	}

	code := generateCode()
	key := cache.DeriveKey(model.PurposePasswordReset, email)
	entry := &model.VerificationEntry{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(s.codeTTL).UnixMilli(),
	}

	if err := s.codes.Set(ctx, key, entry); err != nil {
		return "", apperrors.ServiceUnavailable("password reset service temporarily unavailable").Wrap(err)
	}

	s.dispatchCode(email, code)

	return key, nil
}

// VerifyResetCode 校验重置验证码，签发携带 email 声明的重置 Token
func (s *AuthService) VerifyResetCode(ctx context.Context, key, code string) (string, error) {
	entry, err := s.consumeEntry(ctx, key, code)
	if err != nil {
		return "", err
	}

	// 成功消费即删除
	if err := s.codes.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete verification entry", "error", err)
	}

	token, err := s.jwt.GenerateResetToken(entry.Email)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	return token, nil
}

// ResetPassword 用重置 Token 更新密码
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.jwt.ValidateResetToken(resetToken)
	if err != nil {
		return apperrors.Unauthorized("invalid or expired reset token")
	}

	user, err := s.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperrors.NotFound("user not found")
		}
		return apperrors.Internal(err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal(err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, string(passwordHash)); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}
