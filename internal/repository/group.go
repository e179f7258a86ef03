package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/model"
)

var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrGroupNameTaken = errors.New("group name already exists")
	ErrMemberMissing  = errors.New("member not in group")
)

const groupColumns = `id, name, description, avatar, is_public, creator_id, COALESCE(chat_id, 0), members, create_at, update_at`

// GroupRepository 群组数据访问
// 成员列表内嵌在群文档中，成员变更走单行原子更新
type GroupRepository struct {
	db *pgxpool.Pool
}

// NewGroupRepository 创建群组仓库
func NewGroupRepository(db *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{db: db}
}

// scanGroup 扫描单行群组
func scanGroup(row pgx.Row) (*model.Group, error) {
	var g model.Group
	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Description,
		&g.Avatar,
		&g.IsPublic,
		&g.CreatorID,
		&g.ChatID,
		&g.Members,
		&g.CreateAt,
		&g.UpdateAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &g, nil
}

// memberProbe 构造成员存在性探针（jsonb 包含检查）
func memberProbe(userID int64) string {
	return fmt.Sprintf(`[{"userId":"%d"}]`, userID)
}

// Create 创建群组
// 名称大小写不敏感唯一，冲突返回 ErrGroupNameTaken
func (r *GroupRepository) Create(ctx context.Context, group *model.Group) error {
	query := `
		INSERT INTO groups (id, name, description, avatar, is_public, creator_id, members, create_at, update_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING create_at, update_at
	`
	err := r.db.QueryRow(ctx, query,
		group.ID,
		group.Name,
		group.Description,
		group.Avatar,
		group.IsPublic,
		group.CreatorID,
		group.Members,
	).Scan(&group.CreateAt, &group.UpdateAt)

	if isUniqueViolation(err) {
		return ErrGroupNameTaken
	}
	return err
}

// GetByID 根据 ID 获取群组
func (r *GroupRepository) GetByID(ctx context.Context, id int64) (*model.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1`
	return scanGroup(r.db.QueryRow(ctx, query, id))
}

// ExistsByNameFold 大小写不敏感的名称占用检查，excludeID 用于改名时排除自身
func (r *GroupRepository) ExistsByNameFold(ctx context.Context, name string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM groups WHERE LOWER(name) = LOWER($1) AND id <> $2)`
	var exists bool
	err := r.db.QueryRow(ctx, query, name, excludeID).Scan(&exists)
	return exists, err
}

// Update 更新群资料字段，nil 字段保持原值
func (r *GroupRepository) Update(ctx context.Context, id int64, name, description, avatar *string, isPublic *bool) (*model.Group, error) {
	query := `
		UPDATE groups
		SET name        = COALESCE($2, name),
		    description = COALESCE($3, description),
		    avatar      = COALESCE($4, avatar),
		    is_public   = COALESCE($5, is_public),
		    update_at   = NOW()
		WHERE id = $1
		RETURNING ` + groupColumns

	g, err := scanGroup(r.db.QueryRow(ctx, query, id, name, description, avatar, isPublic))
	if isUniqueViolation(err) {
		return nil, ErrGroupNameTaken
	}
	return g, err
}

// SetChatID 回填关联会话（建群后的尽力而为步骤）
func (r *GroupRepository) SetChatID(ctx context.Context, id, chatID int64) error {
	query := `UPDATE groups SET chat_id = $2, update_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id, chatID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// AppendMember 原子追加成员，目标已是成员时不做任何修改
// 返回值表示是否真正追加
func (r *GroupRepository) AppendMember(ctx context.Context, id int64, member model.GroupMember) (bool, error) {
	query := `
		UPDATE groups
		SET members = members || $2, update_at = NOW()
		WHERE id = $1 AND NOT members @> $3::jsonb
	`
	result, err := r.db.Exec(ctx, query, id, []model.GroupMember{member}, memberProbe(member.UserID))
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// RemoveMember 原子移除成员，目标已不在成员列表时返回 ErrMemberMissing
func (r *GroupRepository) RemoveMember(ctx context.Context, id, userID int64) error {
	query := `
		UPDATE groups
		SET members = COALESCE(
		        (SELECT jsonb_agg(m) FROM jsonb_array_elements(members) m WHERE m->>'userId' <> $2::text),
		        '[]'::jsonb),
		    update_at = NOW()
		WHERE id = $1 AND members @> $3::jsonb
	`
	result, err := r.db.Exec(ctx, query, id, fmt.Sprintf("%d", userID), memberProbe(userID))
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMemberMissing
	}
	return nil
}

// Delete 删除群组
func (r *GroupRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// ListByMember 获取用户加入的全部群组
func (r *GroupRepository) ListByMember(ctx context.Context, userID int64) ([]*model.Group, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM groups
		WHERE members @> $1::jsonb
		ORDER BY update_at DESC
	`
	rows, err := r.db.Query(ctx, query, memberProbe(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*model.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
