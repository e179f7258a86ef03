package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// LocalAvatarStore 本地磁盘头像存储
// 核心只持有返回的 URL 字符串，不解释其结构
type LocalAvatarStore struct {
	baseDir string
	baseURL string
}

// NewLocalAvatarStore 创建本地头像存储
func NewLocalAvatarStore(baseDir, baseURL string) *LocalAvatarStore {
	return &LocalAvatarStore{
		baseDir: baseDir,
		baseURL: baseURL,
	}
}

// Save 保存头像文件，返回可公开访问的 URL
func (s *LocalAvatarStore) Save(userID int64, filename string, data []byte) (string, error) {
	dir := filepath.Join(s.baseDir, strconv.FormatInt(userID, 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create avatar dir: %w", err)
	}

	name := filepath.Base(filename)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write avatar: %w", err)
	}

	return fmt.Sprintf("%s/%d/%s", s.baseURL, userID, name), nil
}

// Remove 删除用户的全部头像文件（账号删除的尽力而为步骤）
func (s *LocalAvatarStore) Remove(userID int64) error {
	dir := filepath.Join(s.baseDir, strconv.FormatInt(userID, 10))
	return os.RemoveAll(dir)
}
