package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/model"
)

var (
	ErrMessageNotFound = errors.New("message not found")
)

const messageColumns = `id, chat_id, sender_id, content, read_by, create_at`

// MessageRepository 消息数据访问
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository 创建消息仓库
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// scanMessage 扫描单行消息
func scanMessage(row pgx.Row) (*model.Message, error) {
	var m model.Message
	err := row.Scan(
		&m.ID,
		&m.ChatID,
		&m.SenderID,
		&m.Content,
		&m.ReadBy,
		&m.CreateAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Create 创建消息
func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	query := `
		INSERT INTO messages (id, chat_id, sender_id, content, read_by, create_at)
		VALUES ($1, $2, $3, $4, '{}'::jsonb, NOW())
		RETURNING create_at
	`
	return r.db.QueryRow(ctx, query,
		msg.ID,
		msg.ChatID,
		msg.SenderID,
		msg.Content,
	).Scan(&msg.CreateAt)
}

// ListByChat 按时间顺序获取会话消息
func (r *MessageRepository) ListByChat(ctx context.Context, chatID int64, limit int) ([]*model.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE chat_id = $1
		ORDER BY create_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// UnreadCount 统计用户在会话中的未读消息数
// 单条过滤计数查询：未在 read_by 中记录且非本人发送
func (r *MessageRepository) UnreadCount(ctx context.Context, chatID, userID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages
		WHERE chat_id = $1 AND sender_id <> $2 AND NOT (read_by ? $3)
	`
	var count int
	err := r.db.QueryRow(ctx, query, chatID, userID, strconv.FormatInt(userID, 10)).Scan(&count)
	return count, err
}

// MarkAllRead 为用户补齐会话内全部未读标记
// 以读者ID为键追加，条件排除已标记行：重复调用零行命中，
// 不同读者互不冲突，同一读者并发调用幂等
func (r *MessageRepository) MarkAllRead(ctx context.Context, chatID, userID int64) (int64, error) {
	query := `
		UPDATE messages
		SET read_by = read_by || jsonb_build_object($3::text, to_jsonb(NOW()))
		WHERE chat_id = $1 AND sender_id <> $2 AND NOT (read_by ? $3)
	`
	result, err := r.db.Exec(ctx, query, chatID, userID, strconv.FormatInt(userID, 10))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
