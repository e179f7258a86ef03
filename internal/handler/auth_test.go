package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/model"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/repository"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/service"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/jwtauth"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/snowflake"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/workerpool"
)

// 内存实现，覆盖认证流程依赖的最小存储面

type stubUserStore struct {
	mu    sync.Mutex
	users map[int64]*model.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: make(map[int64]*model.User)}
}

func (s *stubUserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return repository.ErrUserDuplicate
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *stubUserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *stubUserStore) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubUserStore) List(context.Context) ([]*model.User, error) { return nil, nil }

func (s *stubUserStore) UpdateProfile(_ context.Context, id int64, _, _, _ *string) (*model.User, error) {
	return s.GetByID(context.Background(), id)
}

func (s *stubUserStore) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (s *stubUserStore) UpdateLastSeen(_ context.Context, id int64, _ bool) (*model.User, error) {
	return s.GetByID(context.Background(), id)
}

func (s *stubUserStore) Delete(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	delete(s.users, id)
	return u, nil
}

type stubVerificationStore struct {
	mu      sync.Mutex
	entries map[string]*model.VerificationEntry
}

func newStubVerificationStore() *stubVerificationStore {
	return &stubVerificationStore{entries: make(map[string]*model.VerificationEntry)}
}

func (s *stubVerificationStore) Set(_ context.Context, key string, entry *model.VerificationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries[key] = &cp
	return nil
}

func (s *stubVerificationStore) Get(_ context.Context, key string) (*model.VerificationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *stubVerificationStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

type stubSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func (s *stubSender) SendCode(to, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[to] = code
	return nil
}

type inlineRunner struct{}

func (inlineRunner) Submit(task workerpool.Task) bool {
	task()
	return true
}

// APIResponse 用于解析响应体
type APIResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type authTestEnv struct {
	router *gin.Engine
	sender *stubSender
}

func newAuthTestEnv() *authTestEnv {
	gin.SetMode(gin.TestMode)

	users := newStubUserStore()
	codes := newStubVerificationStore()
	sender := &stubSender{codes: make(map[string]string)}
	jwtService := jwtauth.NewService("test-secret", time.Hour, 24*time.Hour, 15*time.Minute)
	authService := service.NewAuthService(
		users, codes, sender, jwtService, inlineRunner{}, snowflake.NewNode(9), 15*time.Minute,
	)
	h := NewAuthHandler(authService)

	r := gin.New()
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/register/complete", h.CompleteRegistration)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
	}
	return &authTestEnv{router: r, sender: sender}
}

func (env *authTestEnv) post(t *testing.T, path string, body any) (*httptest.ResponseRecorder, *APIResponse) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, &resp
}

// register 走完注册两步，返回登录凭证
func (env *authTestEnv) register(t *testing.T, email, username string) {
	t.Helper()

	w, resp := env.post(t, "/api/v1/auth/register", gin.H{
		"email":    email,
		"password": "password123",
		"username": username,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.Key)

	w, _ = env.post(t, "/api/v1/auth/register/complete", gin.H{
		"key":              data.Key,
		"verificationCode": env.sender.codes[email],
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestAuthHandler_RegisterFlow(t *testing.T) {
	env := newAuthTestEnv()
	env.register(t, "alice@x.com", "alice")

	// 重复注册冲突
	w, _ := env.post(t, "/api/v1/auth/register", gin.H{
		"email":    "alice@x.com",
		"password": "password123",
		"username": "alice2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	env := newAuthTestEnv()

	// 缺少邮箱
	w, _ := env.post(t, "/api/v1/auth/register", gin.H{
		"password": "password123",
		"username": "alice",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 密码太短
	w, _ = env.post(t, "/api/v1/auth/register", gin.H{
		"email":    "alice@x.com",
		"password": "short",
		"username": "alice",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_CompleteRegistration_WrongCode(t *testing.T) {
	env := newAuthTestEnv()

	_, resp := env.post(t, "/api/v1/auth/register", gin.H{
		"email":    "alice@x.com",
		"password": "password123",
		"username": "alice",
	})
	var data struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))

	w, _ := env.post(t, "/api/v1/auth/register/complete", gin.H{
		"key":              data.Key,
		"verificationCode": "000000",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	env := newAuthTestEnv()
	env.register(t, "alice@x.com", "alice")

	w, resp := env.post(t, "/api/v1/auth/login", gin.H{
		"email":    "alice@x.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Token struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.NotEmpty(t, result.Token.AccessToken)

	// 错误密码
	w, _ = env.post(t, "/api/v1/auth/login", gin.H{
		"email":    "alice@x.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Refresh(t *testing.T) {
	env := newAuthTestEnv()
	env.register(t, "alice@x.com", "alice")

	_, resp := env.post(t, "/api/v1/auth/login", gin.H{
		"email":    "alice@x.com",
		"password": "password123",
	})
	var result struct {
		Token struct {
			RefreshToken string `json:"refresh_token"`
		} `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &result))

	w, _ := env.post(t, "/api/v1/auth/refresh", gin.H{"refreshToken": result.Token.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = env.post(t, "/api/v1/auth/refresh", gin.H{"refreshToken": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
