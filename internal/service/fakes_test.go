package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/model"
	"github.com/21Ravan12/Real-Time-Chat-Application/internal/repository"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/workerpool"
)

// 内存版存储实现，复刻各仓储的错误语义

type memUserStore struct {
	mu    sync.Mutex
	users map[int64]*model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[int64]*model.User)}
}

func (s *memUserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return repository.ErrUserDuplicate
		}
	}
	cp := *user
	cp.CreateAt = time.Now()
	cp.UpdateAt = cp.CreateAt
	s.users[user.ID] = &cp
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
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

func (s *memUserStore) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *memUserStore) List(_ context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memUserStore) UpdateProfile(_ context.Context, id int64, username, bio, avatar *string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if username != nil {
		u.Username = *username
	}
	if bio != nil {
		u.Bio = *bio
	}
	if avatar != nil {
		u.Avatar = avatar
	}
	u.UpdateAt = time.Now()
	cp := *u
	return &cp, nil
}

func (s *memUserStore) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (s *memUserStore) UpdateLastSeen(_ context.Context, id int64, online bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if online {
		u.LastSeen = nil
	} else {
		now := time.Now()
		u.LastSeen = &now
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) Delete(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	delete(s.users, id)
	return u, nil
}

type memFriendStore struct {
	mu    sync.Mutex
	edges map[int64]*model.Friend
	users *memUserStore
}

func newMemFriendStore(users *memUserStore) *memFriendStore {
	return &memFriendStore{edges: make(map[int64]*model.Friend), users: users}
}

func (s *memFriendStore) Create(_ context.Context, edge *model.Friend) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.edges {
		if e.UserID == edge.UserID && e.FriendID == edge.FriendID {
			return errors.New("duplicate edge")
		}
	}
	cp := *edge
	cp.CreateAt = time.Now()
	cp.UpdateAt = cp.CreateAt
	s.edges[edge.ID] = &cp
	return nil
}

func (s *memFriendStore) GetByID(_ context.Context, id int64) (*model.Friend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.edges[id]
	if !ok {
		return nil, repository.ErrFriendEdgeNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *memFriendStore) GetEdgeBetween(_ context.Context, a, b int64) (*model.Friend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.edges {
		if (e.UserID == a && e.FriendID == b) || (e.UserID == b && e.FriendID == a) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, repository.ErrFriendEdgeNotFound
}

func (s *memFriendStore) UpdateStatus(_ context.Context, id int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.edges[id]
	if !ok {
		return repository.ErrFriendEdgeNotFound
	}
	e.Status = status
	e.UpdateAt = time.Now()
	return nil
}

func (s *memFriendStore) UpsertReciprocal(_ context.Context, id, userID, friendID, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.edges {
		if e.UserID == userID && e.FriendID == friendID {
			e.Status = model.FriendStatusAccepted
			e.ChatID = chatID
			e.UpdateAt = time.Now()
			return nil
		}
	}
	s.edges[id] = &model.Friend{
		ID:       id,
		UserID:   userID,
		FriendID: friendID,
		Status:   model.FriendStatusAccepted,
		ChatID:   chatID,
		CreateAt: time.Now(),
		UpdateAt: time.Now(),
	}
	return nil
}

func (s *memFriendStore) DeleteBetween(_ context.Context, a, b int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, e := range s.edges {
		if (e.UserID == a && e.FriendID == b) || (e.UserID == b && e.FriendID == a) {
			delete(s.edges, id)
			n++
		}
	}
	return n, nil
}

func (s *memFriendStore) ListAccepted(_ context.Context, userID int64) ([]*model.AcceptedFriend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.AcceptedFriend
	for _, e := range s.edges {
		if e.UserID != userID || e.Status != model.FriendStatusAccepted {
			continue
		}
		u, ok := s.users.users[e.FriendID]
		if !ok {
			continue
		}
		out = append(out, &model.AcceptedFriend{Friend: *e, FriendUser: *u.Public()})
	}
	return out, nil
}

func (s *memFriendStore) ListPending(_ context.Context, userID int64) ([]*model.PendingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.PendingRequest
	for _, e := range s.edges {
		if e.Status != model.FriendStatusPending || (e.UserID != userID && e.FriendID != userID) {
			continue
		}
		sender, ok1 := s.users.users[e.UserID]
		receiver, ok2 := s.users.users[e.FriendID]
		if !ok1 || !ok2 {
			continue
		}
		out = append(out, &model.PendingRequest{
			Friend:   *e,
			Sender:   *sender.Public(),
			Receiver: *receiver.Public(),
		})
	}
	return out, nil
}

type memGroupStore struct {
	mu     sync.Mutex
	groups map[int64]*model.Group
}

func newMemGroupStore() *memGroupStore {
	return &memGroupStore{groups: make(map[int64]*model.Group)}
}

func (s *memGroupStore) Create(_ context.Context, group *model.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if strings.EqualFold(g.Name, group.Name) {
			return repository.ErrGroupNameTaken
		}
	}
	cp := *group
	cp.Members = append([]model.GroupMember{}, group.Members...)
	cp.CreateAt = time.Now()
	cp.UpdateAt = cp.CreateAt
	s.groups[group.ID] = &cp
	return nil
}

func (s *memGroupStore) GetByID(_ context.Context, id int64) (*model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, repository.ErrGroupNotFound
	}
	cp := *g
	cp.Members = append([]model.GroupMember{}, g.Members...)
	return &cp, nil
}

func (s *memGroupStore) ExistsByNameFold(_ context.Context, name string, excludeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.ID != excludeID && strings.EqualFold(g.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memGroupStore) Update(_ context.Context, id int64, name, description, avatar *string, isPublic *bool) (*model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, repository.ErrGroupNotFound
	}
	if name != nil {
		g.Name = *name
	}
	if description != nil {
		g.Description = *description
	}
	if avatar != nil {
		g.Avatar = avatar
	}
	if isPublic != nil {
		g.IsPublic = *isPublic
	}
	g.UpdateAt = time.Now()
	cp := *g
	cp.Members = append([]model.GroupMember{}, g.Members...)
	return &cp, nil
}

func (s *memGroupStore) SetChatID(_ context.Context, id, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return repository.ErrGroupNotFound
	}
	g.ChatID = chatID
	return nil
}

func (s *memGroupStore) AppendMember(_ context.Context, id int64, member model.GroupMember) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return false, repository.ErrGroupNotFound
	}
	if model.FindMember(g.Members, member.UserID) != nil {
		return false, nil
	}
	g.Members = append(g.Members, member)
	g.UpdateAt = time.Now()
	return true, nil
}

func (s *memGroupStore) RemoveMember(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return repository.ErrGroupNotFound
	}
	if model.FindMember(g.Members, userID) == nil {
		return repository.ErrMemberMissing
	}
	g.Members = model.WithoutMember(g.Members, userID)
	g.UpdateAt = time.Now()
	return nil
}

func (s *memGroupStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		return repository.ErrGroupNotFound
	}
	delete(s.groups, id)
	return nil
}

func (s *memGroupStore) ListByMember(_ context.Context, userID int64) ([]*model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Group
	for _, g := range s.groups {
		if model.FindMember(g.Members, userID) != nil {
			cp := *g
			cp.Members = append([]model.GroupMember{}, g.Members...)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memChatStore struct {
	mu    sync.Mutex
	chats map[int64]*model.Chat
}

func newMemChatStore() *memChatStore {
	return &memChatStore{chats: make(map[int64]*model.Chat)}
}

func (s *memChatStore) Create(_ context.Context, chat *model.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *chat
	cp.Participants = append([]int64{}, chat.Participants...)
	cp.CreateAt = time.Now()
	cp.UpdateAt = cp.CreateAt
	s.chats[chat.ID] = &cp
	return nil
}

func (s *memChatStore) GetByID(_ context.Context, id int64) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, repository.ErrChatNotFound
	}
	cp := *c
	cp.Participants = append([]int64{}, c.Participants...)
	return &cp, nil
}

func (s *memChatStore) GetByGroupID(_ context.Context, groupID int64) (*model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.GroupID == groupID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrChatNotFound
}

func (s *memChatStore) AddParticipant(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return repository.ErrChatNotFound
	}
	if !c.HasParticipant(userID) {
		c.Participants = append(c.Participants, userID)
	}
	return nil
}

func (s *memChatStore) PullParticipant(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return repository.ErrChatNotFound
	}
	out := c.Participants[:0]
	for _, p := range c.Participants {
		if p != userID {
			out = append(out, p)
		}
	}
	c.Participants = out
	return nil
}

func (s *memChatStore) Touch(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return repository.ErrChatNotFound
	}
	c.UpdateAt = time.Now()
	return nil
}

func (s *memChatStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[id]; !ok {
		return repository.ErrChatNotFound
	}
	delete(s.chats, id)
	return nil
}

type memMessageStore struct {
	mu       sync.Mutex
	messages []*model.Message
}

func newMemMessageStore() *memMessageStore {
	return &memMessageStore{}
}

func (s *memMessageStore) Create(_ context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *msg
	cp.CreateAt = time.Now()
	if cp.ReadBy == nil {
		cp.ReadBy = map[string]time.Time{}
	}
	s.messages = append(s.messages, &cp)
	msg.CreateAt = cp.CreateAt
	return nil
}

func (s *memMessageStore) ListByChat(_ context.Context, chatID int64, limit int) ([]*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Message
	for i := len(s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if s.messages[i].ChatID == chatID {
			cp := *s.messages[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memMessageStore) UnreadCount(_ context.Context, chatID, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strconv.FormatInt(userID, 10)
	n := 0
	for _, m := range s.messages {
		if m.ChatID == chatID && m.SenderID != userID {
			if _, ok := m.ReadBy[key]; !ok {
				n++
			}
		}
	}
	return n, nil
}

func (s *memMessageStore) MarkAllRead(_ context.Context, chatID, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strconv.FormatInt(userID, 10)
	var n int64
	for _, m := range s.messages {
		if m.ChatID == chatID && m.SenderID != userID {
			if _, ok := m.ReadBy[key]; !ok {
				m.ReadBy[key] = time.Now()
				n++
			}
		}
	}
	return n, nil
}

type memVerificationStore struct {
	mu      sync.Mutex
	entries map[string]*model.VerificationEntry
	failing bool
}

func newMemVerificationStore() *memVerificationStore {
	return &memVerificationStore{entries: make(map[string]*model.VerificationEntry)}
}

func (s *memVerificationStore) Set(_ context.Context, key string, entry *model.VerificationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("cache unavailable")
	}
	cp := *entry
	s.entries[key] = &cp
	return nil
}

func (s *memVerificationStore) Get(_ context.Context, key string) (*model.VerificationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, errors.New("cache unavailable")
	}
	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *memVerificationStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// recordingSender 记录发出的验证码
type recordingSender struct {
	mu    sync.Mutex
	sent  []string
	codes map[string]string
}

func newRecordingSender() *recordingSender {
	return &recordingSender{codes: make(map[string]string)}
}

func (s *recordingSender) SendCode(to, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	s.codes[to] = code
	return nil
}

func (s *recordingSender) codeFor(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[email]
}

type fakeAvatarStore struct {
	mu      sync.Mutex
	removed []int64
}

func (s *fakeAvatarStore) Save(userID int64, filename string, _ []byte) (string, error) {
	return "http://localhost/avatars/" + strconv.FormatInt(userID, 10) + "/" + filename, nil
}

func (s *fakeAvatarStore) Remove(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, userID)
	return nil
}

// recordingEvents 记录发布的事件
type recordingEvents struct {
	mu         sync.Mutex
	accepted   []int64
	membership []string
	messages   []int64
}

func (e *recordingEvents) FriendAccepted(userID, friendID, chatID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.accepted = append(e.accepted, chatID)
}

func (e *recordingEvents) GroupMembershipChanged(groupID, userID int64, action string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.membership = append(e.membership, action)
}

func (e *recordingEvents) MessageCreated(messageID, chatID, senderID int64, _ time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.messages = append(e.messages, messageID)
}

// syncRunner 同步执行任务，让测试无需等待
type syncRunner struct{}

func (syncRunner) Submit(task workerpool.Task) bool {
	task()
	return true
}
