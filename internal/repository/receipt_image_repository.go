package repository

import (
	"errors"
	"strings"

	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// ReceiptImageRepository 小票图片数据访问接口
type ReceiptImageRepository interface {
	Create(image *models.ReceiptImage) error
	GetByReceiptID(receiptID uint) (*models.ReceiptImage, error)
	GetBySHA256(hash string) (*models.ReceiptImage, error)
	Delete(id uint) error
}

// GormReceiptImageRepository GORM 实现
type GormReceiptImageRepository struct {
	db *gorm.DB
}

// NewReceiptImageRepository 创建小票图片仓库
func NewReceiptImageRepository(db *gorm.DB) *GormReceiptImageRepository {
	return &GormReceiptImageRepository{db: db}
}

// Create 创建图片记录，哈希列的唯一索引兜底全局内容查重
func (r *GormReceiptImageRepository) Create(image *models.ReceiptImage) error {
	return r.db.Create(image).Error
}

// GetByReceiptID 按审核单 ID 获取图片
func (r *GormReceiptImageRepository) GetByReceiptID(receiptID uint) (*models.ReceiptImage, error) {
	if receiptID == 0 {
		return nil, nil
	}
	var image models.ReceiptImage
	if err := r.db.Where("receipt_id = ?", receiptID).First(&image).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &image, nil
}

// GetBySHA256 按内容哈希获取图片
func (r *GormReceiptImageRepository) GetBySHA256(hash string) (*models.ReceiptImage, error) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if hash == "" {
		return nil, nil
	}
	var image models.ReceiptImage
	if err := r.db.Where("sha256_hash = ?", hash).First(&image).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &image, nil
}

// Delete 删除图片记录，用于提交失败后的补偿回滚
func (r *GormReceiptImageRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.ReceiptImage{}, id).Error
}
