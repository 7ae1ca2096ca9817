package storage

import "io"

// ObjectStorage 小票图片存储接口。
// Save 返回可持久化的存储路径；Delete 用于写库失败后的补偿清理。
type ObjectStorage interface {
	Save(r io.Reader, ext string) (string, error)
	Delete(path string) error
}
