package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/model"
)

var (
	ErrFriendEdgeNotFound = errors.New("friend relationship not found")
)

const friendColumns = `id, user_id, friend_id, status, chat_id, create_at, update_at`

// FriendRepository 好友关系数据访问
type FriendRepository struct {
	db *pgxpool.Pool
}

// NewFriendRepository 创建好友仓库
func NewFriendRepository(db *pgxpool.Pool) *FriendRepository {
	return &FriendRepository{db: db}
}

// scanFriend 扫描单行好友边
func scanFriend(row pgx.Row) (*model.Friend, error) {
	var f model.Friend
	err := row.Scan(
		&f.ID,
		&f.UserID,
		&f.FriendID,
		&f.Status,
		&f.ChatID,
		&f.CreateAt,
		&f.UpdateAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFriendEdgeNotFound
		}
		return nil, err
	}
	return &f, nil
}

// Create 创建有向好友边
func (r *FriendRepository) Create(ctx context.Context, edge *model.Friend) error {
	query := `
		INSERT INTO friends (id, user_id, friend_id, status, chat_id, create_at, update_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING create_at, update_at
	`
	return r.db.QueryRow(ctx, query,
		edge.ID,
		edge.UserID,
		edge.FriendID,
		edge.Status,
		edge.ChatID,
	).Scan(&edge.CreateAt, &edge.UpdateAt)
}

// GetByID 根据 ID 获取边
func (r *FriendRepository) GetByID(ctx context.Context, id int64) (*model.Friend, error) {
	query := `SELECT ` + friendColumns + ` FROM friends WHERE id = $1`
	return scanFriend(r.db.QueryRow(ctx, query, id))
}

// GetEdgeBetween 获取两用户间任意方向的边
// 无序对之间至多存在一条边（接受前），用于发请求时的冲突检查
func (r *FriendRepository) GetEdgeBetween(ctx context.Context, a, b int64) (*model.Friend, error) {
	query := `
		SELECT ` + friendColumns + `
		FROM friends
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
		ORDER BY create_at
		LIMIT 1
	`
	return scanFriend(r.db.QueryRow(ctx, query, a, b))
}

// UpdateStatus 更新边状态
func (r *FriendRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE friends SET status = $2, update_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrFriendEdgeNotFound
	}
	return nil
}

// UpsertReciprocal 原子补齐反向 accepted 边
// 使用 ON CONFLICT 的 find-and-update-or-insert，并发 accept 下幂等
func (r *FriendRepository) UpsertReciprocal(ctx context.Context, id, userID, friendID, chatID int64) error {
	query := `
		INSERT INTO friends (id, user_id, friend_id, status, chat_id, create_at, update_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id, friend_id)
		DO UPDATE SET status = EXCLUDED.status, chat_id = EXCLUDED.chat_id, update_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, id, userID, friendID, model.FriendStatusAccepted, chatID)
	return err
}

// DeleteBetween 删除两用户间双向的边，返回删除的边数
func (r *FriendRepository) DeleteBetween(ctx context.Context, a, b int64) (int64, error) {
	query := `
		DELETE FROM friends
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
	`
	result, err := r.db.Exec(ctx, query, a, b)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// ListAccepted 获取用户的全部 accepted 边及对方用户信息
func (r *FriendRepository) ListAccepted(ctx context.Context, userID int64) ([]*model.AcceptedFriend, error) {
	query := `
		SELECT f.id, f.user_id, f.friend_id, f.status, f.chat_id, f.create_at, f.update_at,
		       u.id, u.email, u.username, u.avatar, u.last_seen
		FROM friends f
		JOIN users u ON f.friend_id = u.id
		WHERE f.user_id = $1 AND f.status = $2
		ORDER BY u.username
	`
	rows, err := r.db.Query(ctx, query, userID, model.FriendStatusAccepted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []*model.AcceptedFriend
	for rows.Next() {
		af := &model.AcceptedFriend{}
		err := rows.Scan(
			&af.ID,
			&af.UserID,
			&af.FriendID,
			&af.Status,
			&af.ChatID,
			&af.CreateAt,
			&af.UpdateAt,
			&af.FriendUser.ID,
			&af.FriendUser.Email,
			&af.FriendUser.Username,
			&af.FriendUser.Avatar,
			&af.FriendUser.LastSeen,
		)
		if err != nil {
			return nil, err
		}
		friends = append(friends, af)
	}
	return friends, rows.Err()
}

// ListPending 获取用户收发的全部 pending 边及双方用户信息
func (r *FriendRepository) ListPending(ctx context.Context, userID int64) ([]*model.PendingRequest, error) {
	query := `
		SELECT f.id, f.user_id, f.friend_id, f.status, f.chat_id, f.create_at, f.update_at,
		       su.id, su.email, su.username, su.avatar, su.last_seen,
		       ru.id, ru.email, ru.username, ru.avatar, ru.last_seen
		FROM friends f
		JOIN users su ON f.user_id = su.id
		JOIN users ru ON f.friend_id = ru.id
		WHERE (f.user_id = $1 OR f.friend_id = $1) AND f.status = $2
		ORDER BY f.create_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID, model.FriendStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*model.PendingRequest
	for rows.Next() {
		pr := &model.PendingRequest{}
		err := rows.Scan(
			&pr.ID,
			&pr.UserID,
			&pr.FriendID,
			&pr.Status,
			&pr.ChatID,
			&pr.CreateAt,
			&pr.UpdateAt,
			&pr.Sender.ID,
			&pr.Sender.Email,
			&pr.Sender.Username,
			&pr.Sender.Avatar,
			&pr.Sender.LastSeen,
			&pr.Receiver.ID,
			&pr.Receiver.Email,
			&pr.Receiver.Username,
			&pr.Receiver.Avatar,
			&pr.Receiver.LastSeen,
		)
		if err != nil {
			return nil, err
		}
		requests = append(requests, pr)
	}
	return requests, rows.Err()
}
