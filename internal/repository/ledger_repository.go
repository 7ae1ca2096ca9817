package repository

import (
	"errors"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// LedgerRepository 积分流水数据访问接口
type LedgerRepository interface {
	Create(entry *models.PointLedgerEntry) error
	GetByReference(userID uint, refType string, refID uint, entryType string) (*models.PointLedgerEntry, error)
	List(filter LedgerListFilter) ([]models.PointLedgerEntry, int64, error)
	SumPointsByUser(userID uint) (int64, error)
	SumEarnedBefore(userID uint, before time.Time) (int64, error)
	SumSpentAfter(userID uint, from time.Time) (int64, error)
	ListUserIDsWithEntriesBefore(before time.Time) ([]uint, error)
}

// GormLedgerRepository GORM 实现
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建积分流水仓库
func NewLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Create 追加流水，流水只增不改
func (r *GormLedgerRepository) Create(entry *models.PointLedgerEntry) error {
	return r.db.Create(entry).Error
}

// GetByReference 按业务引用查找流水，用于幂等判断
func (r *GormLedgerRepository) GetByReference(userID uint, refType string, refID uint, entryType string) (*models.PointLedgerEntry, error) {
	if userID == 0 || refID == 0 {
		return nil, nil
	}
	query := r.db.Where(
		"user_id = ? AND reference_type = ? AND reference_id = ?",
		userID, refType, refID,
	)
	if entryType != "" {
		query = query.Where("type = ?", entryType)
	}
	var entry models.PointLedgerEntry
	if err := query.Order("id ASC").First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// List 分页查询流水
func (r *GormLedgerRepository) List(filter LedgerListFilter) ([]models.PointLedgerEntry, int64, error) {
	query := r.db.Model(&models.PointLedgerEntry{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Reference != "" {
		query = query.Where("reference_type = ?", filter.Reference)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var entries []models.PointLedgerEntry
	if err := query.Order("id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// SumPointsByUser 汇总用户全部流水，检验余额与流水的一致性
func (r *GormLedgerRepository) SumPointsByUser(userID uint) (int64, error) {
	var sum int64
	err := r.db.Model(&models.PointLedgerEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	return sum, nil
}

// SumEarnedBefore 汇总截止时间前全部流水的净额，供过期清理计算
func (r *GormLedgerRepository) SumEarnedBefore(userID uint, before time.Time) (int64, error) {
	var sum int64
	err := r.db.Model(&models.PointLedgerEntry{}).
		Where("user_id = ? AND created_at < ?", userID, before).
		Select("COALESCE(SUM(points), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	return sum, nil
}

// SumSpentAfter 汇总起始时间后的净支出，spent 扣减与 refund 退回相抵，返回正数
func (r *GormLedgerRepository) SumSpentAfter(userID uint, from time.Time) (int64, error) {
	var sum int64
	err := r.db.Model(&models.PointLedgerEntry{}).
		Where("user_id = ? AND created_at >= ? AND type IN ?", userID, from, []string{
			constants.LedgerTypeSpent,
			constants.LedgerTypeRefund,
		}).
		Select("COALESCE(SUM(points), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	return -sum, nil
}

// ListUserIDsWithEntriesBefore 列出在截止时间前有入账流水的用户
func (r *GormLedgerRepository) ListUserIDsWithEntriesBefore(before time.Time) ([]uint, error) {
	ids := make([]uint, 0)
	err := r.db.Model(&models.PointLedgerEntry{}).
		Where("created_at < ? AND type IN ?", before, []string{
			constants.LedgerTypeEarned,
			constants.LedgerTypeBonus,
		}).
		Distinct("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
