package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStorage 本地文件系统存储
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage 创建本地存储，baseDir 为空时使用 ./uploads/receipts
func NewLocalStorage(baseDir string) *LocalStorage {
	dir := strings.TrimSpace(baseDir)
	if dir == "" {
		dir = filepath.Join("uploads", "receipts")
	}
	return &LocalStorage{baseDir: dir}
}

// Save 按年月目录保存文件，文件名使用 UUID 避免冲突
func (s *LocalStorage) Save(r io.Reader, ext string) (string, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	now := time.Now()
	relDir := filepath.Join(now.Format("2006"), now.Format("01"))
	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	fullDir := filepath.Join(s.baseDir, relDir)

	if err := os.MkdirAll(fullDir, 0755); err != nil {
		return "", err
	}

	fullPath := filepath.Join(fullDir, filename)
	dst, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(fullPath)
		return "", err
	}
	return filepath.ToSlash(filepath.Join(relDir, filename)), nil
}

// Delete 删除已保存的文件，文件不存在视为成功
func (s *LocalStorage) Delete(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(path))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
