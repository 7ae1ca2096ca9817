package repository

import (
	"errors"
	"time"

	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// SettingRepository 汇率设置数据访问接口
type SettingRepository interface {
	GetActive(key string) (*models.ExchangeRateSetting, error)
	History(key string, limit int) ([]models.ExchangeRateSetting, error)
	Upsert(key string, value models.Money, updatedBy *uint) (*models.ExchangeRateSetting, error)
}

// GormSettingRepository GORM 实现
type GormSettingRepository struct {
	db *gorm.DB
}

// NewSettingRepository 创建汇率设置仓库
func NewSettingRepository(db *gorm.DB) *GormSettingRepository {
	return &GormSettingRepository{db: db}
}

// GetActive 获取当前生效的设置
func (r *GormSettingRepository) GetActive(key string) (*models.ExchangeRateSetting, error) {
	var setting models.ExchangeRateSetting
	if err := r.db.Where("setting_key = ? AND is_active = ?", key, true).
		Order("id DESC").
		First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

// History 按时间倒序返回设置的历史版本
func (r *GormSettingRepository) History(key string, limit int) ([]models.ExchangeRateSetting, error) {
	if limit <= 0 {
		limit = 20
	}
	settings := make([]models.ExchangeRateSetting, 0)
	err := r.db.Where("setting_key = ?", key).
		Order("id DESC").
		Limit(limit).
		Find(&settings).Error
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// Upsert 写入新版本并使旧版本失效。
// 历史记录保留，审批按当时的生效值计算，不受后续修改影响。
func (r *GormSettingRepository) Upsert(key string, value models.Money, updatedBy *uint) (*models.ExchangeRateSetting, error) {
	if err := r.db.Model(&models.ExchangeRateSetting{}).
		Where("setting_key = ? AND is_active = ?", key, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		}).Error; err != nil {
		return nil, err
	}

	setting := &models.ExchangeRateSetting{
		SettingKey:   key,
		SettingValue: value,
		IsActive:     true,
		UpdatedBy:    updatedBy,
	}
	if err := r.db.Create(setting).Error; err != nil {
		return nil, err
	}
	return setting, nil
}
