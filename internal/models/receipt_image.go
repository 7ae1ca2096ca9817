package models

import "time"

// ReceiptImage 小票图片表
// sha256_hash 全局唯一，是重复提交的最终兜底约束。
type ReceiptImage struct {
	ID         uint      `gorm:"primarykey" json:"id"`                       // 主键
	ReceiptID  uint      `gorm:"index;not null" json:"receipt_id"`           // 所属申领ID
	SHA256Hash string    `gorm:"uniqueIndex;not null;type:varchar(64)" json:"sha256_hash"` // 图片内容摘要
	FileSize   int64     `gorm:"not null;default:0" json:"file_size"`        // 文件大小（字节）
	MimeType   string    `gorm:"type:varchar(64)" json:"mime_type"`          // MIME 类型
	StoragePath string   `gorm:"type:varchar(255)" json:"storage_path"`      // 对象存储路径
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                    // 创建时间
}

// TableName 指定表名
func (ReceiptImage) TableName() string {
	return "receipt_images"
}
