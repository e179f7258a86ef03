package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/model"
)

var (
	ErrChatNotFound = errors.New("chat not found")
)

const chatColumns = `id, type, COALESCE(group_id, 0), participants, create_at, update_at`

// ChatRepository 会话数据访问
type ChatRepository struct {
	db *pgxpool.Pool
}

// NewChatRepository 创建会话仓库
func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

// scanChat 扫描单行会话
func scanChat(row pgx.Row) (*model.Chat, error) {
	var c model.Chat
	err := row.Scan(
		&c.ID,
		&c.Type,
		&c.GroupID,
		&c.Participants,
		&c.CreateAt,
		&c.UpdateAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create 创建会话
func (r *ChatRepository) Create(ctx context.Context, chat *model.Chat) error {
	query := `
		INSERT INTO chats (id, type, group_id, participants, create_at, update_at)
		VALUES ($1, $2, NULLIF($3, 0), $4, NOW(), NOW())
		RETURNING create_at, update_at
	`
	return r.db.QueryRow(ctx, query,
		chat.ID,
		chat.Type,
		chat.GroupID,
		chat.Participants,
	).Scan(&chat.CreateAt, &chat.UpdateAt)
}

// GetByID 根据 ID 获取会话
func (r *ChatRepository) GetByID(ctx context.Context, id int64) (*model.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1`
	return scanChat(r.db.QueryRow(ctx, query, id))
}

// GetByGroupID 获取群组的关联会话
func (r *ChatRepository) GetByGroupID(ctx context.Context, groupID int64) (*model.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE group_id = $1`
	return scanChat(r.db.QueryRow(ctx, query, groupID))
}

// AddParticipant 幂等地加入参与者
func (r *ChatRepository) AddParticipant(ctx context.Context, id, userID int64) error {
	query := `
		UPDATE chats
		SET participants = array_append(participants, $2), update_at = NOW()
		WHERE id = $1 AND NOT participants @> ARRAY[$2]::bigint[]
	`
	_, err := r.db.Exec(ctx, query, id, userID)
	return err
}

// PullParticipant 从参与者列表移除用户（成员移除的尽力而为步骤）
func (r *ChatRepository) PullParticipant(ctx context.Context, id, userID int64) error {
	query := `
		UPDATE chats
		SET participants = array_remove(participants, $2), update_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrChatNotFound
	}
	return nil
}

// Touch 刷新会话活跃时间
func (r *ChatRepository) Touch(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE chats SET update_at = NOW() WHERE id = $1`, id)
	return err
}

// Delete 删除会话，消息随外键级联删除
func (r *ChatRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM chats WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrChatNotFound
	}
	return nil
}
