package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/model"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/apperrors"
	"github.com/21Ravan12/Real-Time-Chat-Application/pkg/snowflake"
)

type friendFixture struct {
	svc      *FriendService
	users    *memUserStore
	friends  *memFriendStore
	chats    *memChatStore
	messages *memMessageStore
	events   *recordingEvents
	alice    *model.User
	bob      *model.User
}

func newFriendFixture(t *testing.T) *friendFixture {
	t.Helper()
	users := newMemUserStore()
	friends := newMemFriendStore(users)
	chats := newMemChatStore()
	messages := newMemMessageStore()
	events := &recordingEvents{}
	svc := NewFriendService(friends, users, chats, messages, events, snowflake.NewNode(1))

	alice := &model.User{ID: 1, Email: "alice@x.com", Username: "alice"}
	bob := &model.User{ID: 2, Email: "bob@x.com", Username: "bob"}
	require.NoError(t, users.Create(context.Background(), alice))
	require.NoError(t, users.Create(context.Background(), bob))

	return &friendFixture{
		svc: svc, users: users, friends: friends, chats: chats,
		messages: messages, events: events, alice: alice, bob: bob,
	}
}

func TestSendRequest_UnknownTarget(t *testing.T) {
	f := newFriendFixture(t)

	_, err := f.svc.SendRequest(context.Background(), f.alice.ID, "ghost@x.com")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestSendRequest_Self(t *testing.T) {
	f := newFriendFixture(t)

	_, err := f.svc.SendRequest(context.Background(), f.alice.ID, "alice@x.com")
	assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest))
}

func TestSendRequest_CreatesEdgeAndChat(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	edge, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, edge.UserID)
	assert.Equal(t, f.bob.ID, edge.FriendID)
	assert.Equal(t, model.FriendStatusPending, edge.Status)

	chat, err := f.chats.GetByID(ctx, edge.ChatID)
	require.NoError(t, err)
	assert.Equal(t, model.ChatTypePrivate, chat.Type)
	assert.ElementsMatch(t, []int64{f.alice.ID, f.bob.ID}, chat.Participants)
}

func TestSendRequest_ExistingEdgeConflict(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@x.com")
	require.NoError(t, err)

	// 同方向重发
	_, err = f.svc.SendRequest(ctx, f.alice.ID, "bob@x.com")
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	// 反方向也冲突
	_, err = f.svc.SendRequest(ctx, f.bob.ID, "alice@x.com")
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestAcceptRequest_ReciprocalEdgesShareChat(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	edge, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@x.com")
	require.NoError(t, err)

	accepted, err := f.svc.AcceptRequest(ctx, f.bob.ID, edge.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendStatusAccepted, accepted.Status)

	forward, err := f.friends.GetByID(ctx, edge.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendStatusAccepted, forward.Status)

	reverse, err := f.friends.GetEdgeBetween(ctx, f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendStatusAccepted, reverse.Status)
	assert.Equal(t, forward.ChatID, reverse.ChatID)

	// 双方好友列表各一条
	aliceFriends, err := f.svc.GetFriends(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Len(t, aliceFriends, 1)
	bobFriends, err := f.svc.GetFriends(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Len(t, bobFriends, 1)

	assert.Equal(t, []int64{edge.ChatID}, f.events.accepted)
}

func TestAcceptRequest_OnlyRecipient(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	edge, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@x.com")
	require.NoError(t, err)

	// 发起方不能接受自己的请求
	_, err = f.svc.AcceptRequest(ctx, f.alice.ID, edge.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	_, err = f.svc.AcceptRequest(ctx, f.bob.ID, 99999)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestAcceptRequest_Idempotent(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	edge, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@x.com")
	require.NoError(t, err)

	_, err = f.svc.AcceptRequest(ctx, f.bob.ID, edge.ID)
	require.NoError(t, err)
	// 并发接受收敛到同一结果
	_, err = f.svc.AcceptRequest(ctx, f.bob.ID, edge.ID)
	require.NoError(t, err)

	reverse, err := f.friends.GetEdgeBetween(ctx, f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, edge.ChatID, reverse.ChatID)
}

func TestRejectRequest(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	edge, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@x.com")
	require.NoError(t, err)

	rejected, err := f.svc.RejectRequest(ctx, f.bob.ID, edge.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FriendStatusRejected, rejected.Status)

	// 拒绝是终态
	_, err = f.svc.AcceptRequest(ctx, f.bob.ID, edge.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	_, err = f.svc.RejectRequest(ctx, f.bob.ID, edge.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	// 被拒后同一对用户不能再发请求
	_, err = f.svc.SendRequest(ctx, f.alice.ID, "bob@x.com")
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestRemoveFriend_DeletesEdgesAndChat(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	edge, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@x.com")
	require.NoError(t, err)
	_, err = f.svc.AcceptRequest(ctx, f.bob.ID, edge.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveFriend(ctx, f.alice.ID, f.bob.ID))

	_, err = f.friends.GetEdgeBetween(ctx, f.alice.ID, f.bob.ID)
	assert.Error(t, err)
	_, err = f.chats.GetByID(ctx, edge.ChatID)
	assert.Error(t, err)

	err = f.svc.RemoveFriend(ctx, f.alice.ID, f.bob.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestGetFriends_UnreadCount(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	edge, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@x.com")
	require.NoError(t, err)
	_, err = f.svc.AcceptRequest(ctx, f.bob.ID, edge.ID)
	require.NoError(t, err)

	// bob 发两条消息，alice 未读
	for i := 0; i < 2; i++ {
		require.NoError(t, f.messages.Create(ctx, &model.Message{
			ID: int64(100 + i), ChatID: edge.ChatID, SenderID: f.bob.ID,
			Content: "hi", ReadBy: map[string]time.Time{},
		}))
	}

	friends, err := f.svc.GetFriends(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, 2, friends[0].UnreadCount)
	assert.Equal(t, f.bob.ID, friends[0].UserID)

	// 发送者自己的未读数为 0
	bobFriends, err := f.svc.GetFriends(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, bobFriends, 1)
	assert.Equal(t, 0, bobFriends[0].UnreadCount)
}

func TestGetFriendRequests_DirectionTags(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendRequest(ctx, f.alice.ID, "bob@x.com")
	require.NoError(t, err)

	aliceReqs, err := f.svc.GetFriendRequests(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceReqs, 1)
	assert.Equal(t, model.RequestOutgoing, aliceReqs[0].Type)

	bobReqs, err := f.svc.GetFriendRequests(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, bobReqs, 1)
	assert.Equal(t, model.RequestIncoming, bobReqs[0].Type)
	assert.Equal(t, "alice", bobReqs[0].Sender.Username)
}
