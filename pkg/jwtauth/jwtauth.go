package jwtauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")
)

// TokenType Token 类型
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
	ResetToken   TokenType = "reset" // 密码重置专用，仅携带 email 声明
)

// Claims JWT 声明
// 登录/注册签发的 Token 携带 UserID；密码重置 Token 携带 Email
type Claims struct {
	UserID    int64     `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair Token 对
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Service JWT 服务
type Service struct {
	secretKey     []byte
	accessExpire  time.Duration
	refreshExpire time.Duration
	resetExpire   time.Duration
}

// NewService 创建 JWT 服务
func NewService(secretKey string, accessExpire, refreshExpire, resetExpire time.Duration) *Service {
	return &Service{
		secretKey:     []byte(secretKey),
		accessExpire:  accessExpire,
		refreshExpire: refreshExpire,
		resetExpire:   resetExpire,
	}
}

// GenerateTokenPair 生成 Token 对
func (s *Service) GenerateTokenPair(userID int64) (*TokenPair, error) {
	now := time.Now()
	accessExpiresAt := now.Add(s.accessExpire)
	refreshExpiresAt := now.Add(s.refreshExpire)

	accessToken, err := s.sign(&Claims{UserID: userID, TokenType: AccessToken}, accessExpiresAt)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.sign(&Claims{UserID: userID, TokenType: RefreshToken}, refreshExpiresAt)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExpiresAt.Unix(),
	}, nil
}

// GenerateResetToken 生成密码重置 Token
func (s *Service) GenerateResetToken(email string) (string, error) {
	return s.sign(&Claims{Email: email, TokenType: ResetToken}, time.Now().Add(s.resetExpire))
}

// sign 签发单个 Token
func (s *Service) sign(claims *Claims, expiresAt time.Time) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    "chat-server",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateAccessToken 验证 Access Token
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, AccessToken)
}

// ValidateRefreshToken 验证 Refresh Token
func (s *Service) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, RefreshToken)
}

// ValidateResetToken 验证密码重置 Token
func (s *Service) ValidateResetToken(tokenString string) (*Claims, error) {
	claims, err := s.validate(tokenString, ResetToken)
	if err != nil {
		return nil, err
	}
	if claims.Email == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// GetAccessExpire 获取 AccessToken 过期时长
func (s *Service) GetAccessExpire() time.Duration {
	return s.accessExpire
}

// validate 验证 Token
func (s *Service) validate(tokenString string, expectedType TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.TokenType != expectedType {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
