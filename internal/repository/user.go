package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/model"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserDuplicate = errors.New("email or username already in use")
)

const userColumns = `id, email, username, password_hash, bio, avatar, role, last_seen, create_at, update_at`

// UserRepository 用户数据访问
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// scanUser 扫描单行用户
func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.Bio,
		&u.Avatar,
		&u.Role,
		&u.LastSeen,
		&u.CreateAt,
		&u.UpdateAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create 创建用户
// 唯一约束冲突（邮箱或用户名）返回 ErrUserDuplicate
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, bio, avatar, role, create_at, update_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING create_at, update_at
	`
	err := r.db.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Bio,
		user.Avatar,
		user.Role,
	).Scan(&user.CreateAt, &user.UpdateAt)

	if isUniqueViolation(err) {
		return ErrUserDuplicate
	}
	return err
}

// GetByID 根据 ID 查找用户
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetByEmail 根据邮箱查找用户
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// ExistsByEmailOrUsername 检查邮箱或用户名是否已占用
func (r *UserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR username = $2)`
	var exists bool
	err := r.db.QueryRow(ctx, query, email, username).Scan(&exists)
	return exists, err
}

// List 获取全部用户（管理端）
func (r *UserRepository) List(ctx context.Context) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY create_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateProfile 更新资料字段，nil 字段保持原值
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, username, bio, avatar *string) (*model.User, error) {
	query := `
		UPDATE users
		SET username = COALESCE($2, username),
		    bio      = COALESCE($3, bio),
		    avatar   = COALESCE($4, avatar),
		    update_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRow(ctx, query, id, username, bio, avatar))
	if isUniqueViolation(err) {
		return nil, ErrUserDuplicate
	}
	return u, err
}

// UpdatePassword 更新密码哈希
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, update_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateLastSeen 更新在线状态：online 时置空 last_seen
func (r *UserRepository) UpdateLastSeen(ctx context.Context, id int64, online bool) (*model.User, error) {
	query := `
		UPDATE users
		SET last_seen = CASE WHEN $2 THEN NULL ELSE NOW() END,
		    update_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, id, online))
}

// Delete 删除用户
func (r *UserRepository) Delete(ctx context.Context, id int64) (*model.User, error) {
	query := `DELETE FROM users WHERE id = $1 RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// isUniqueViolation 判断是否为唯一约束冲突
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
