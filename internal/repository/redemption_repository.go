package repository

import (
	"errors"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// RedemptionRepository 兑换单数据访问接口
type RedemptionRepository interface {
	Create(redemption *models.Redemption) error
	GetByID(id uint) (*models.Redemption, error)
	GetByIDAndUser(id uint, userID uint) (*models.Redemption, error)
	List(filter RedemptionListFilter) ([]models.Redemption, int64, error)
	SumActiveQuantityByReward(rewardID uint) (int64, error)
	MarkProcessing(id uint) (bool, error)
	MarkShipped(id uint, notes string) (bool, error)
	MarkCancelled(id uint, notes string, requireStatuses []string) (bool, error)
	Delete(id uint) error
}

// GormRedemptionRepository GORM 实现
type GormRedemptionRepository struct {
	db *gorm.DB
}

// NewRedemptionRepository 创建兑换单仓库
func NewRedemptionRepository(db *gorm.DB) *GormRedemptionRepository {
	return &GormRedemptionRepository{db: db}
}

// Create 创建兑换单
func (r *GormRedemptionRepository) Create(redemption *models.Redemption) error {
	return r.db.Create(redemption).Error
}

// GetByID 根据 ID 获取兑换单
func (r *GormRedemptionRepository) GetByID(id uint) (*models.Redemption, error) {
	var redemption models.Redemption
	if err := r.db.Preload("Reward").First(&redemption, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &redemption, nil
}

// GetByIDAndUser 按 ID 和用户获取兑换单
func (r *GormRedemptionRepository) GetByIDAndUser(id uint, userID uint) (*models.Redemption, error) {
	if id == 0 || userID == 0 {
		return nil, nil
	}
	var redemption models.Redemption
	if err := r.db.Preload("Reward").Where("id = ? AND user_id = ?", id, userID).First(&redemption).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &redemption, nil
}

// List 分页查询兑换单
func (r *GormRedemptionRepository) List(filter RedemptionListFilter) ([]models.Redemption, int64, error) {
	query := r.db.Model(&models.Redemption{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.RewardID != 0 {
		query = query.Where("reward_id = ?", filter.RewardID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
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

	var redemptions []models.Redemption
	if err := query.Preload("Reward").Order("id DESC").Find(&redemptions).Error; err != nil {
		return nil, 0, err
	}
	return redemptions, total, nil
}

// SumActiveQuantityByReward 汇总未取消兑换单占用的数量。
// 剩余库存始终由 stock_quantity 减去该值推导，不落独立计数列。
func (r *GormRedemptionRepository) SumActiveQuantityByReward(rewardID uint) (int64, error) {
	if rewardID == 0 {
		return 0, nil
	}
	var sum int64
	err := r.db.Model(&models.Redemption{}).
		Where("reward_id = ? AND status <> ?", rewardID, constants.RedemptionStatusCancelled).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	return sum, nil
}

// MarkProcessing 条件更新为处理中
func (r *GormRedemptionRepository) MarkProcessing(id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	result := r.db.Model(&models.Redemption{}).
		Where("id = ? AND status = ?", id, constants.RedemptionStatusRequested).
		Updates(map[string]interface{}{
			"status":     constants.RedemptionStatusProcessing,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkShipped 条件更新为已发货
func (r *GormRedemptionRepository) MarkShipped(id uint, notes string) (bool, error) {
	if id == 0 {
		return false, nil
	}
	now := time.Now()
	updates := map[string]interface{}{
		"status":     constants.RedemptionStatusShipped,
		"shipped_at": now,
		"updated_at": now,
	}
	if notes != "" {
		updates["admin_notes"] = notes
	}
	result := r.db.Model(&models.Redemption{}).
		Where("id = ? AND status IN ?", id, []string{
			constants.RedemptionStatusRequested,
			constants.RedemptionStatusProcessing,
		}).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkCancelled 条件更新为已取消，requireStatuses 限定允许取消的来源状态
func (r *GormRedemptionRepository) MarkCancelled(id uint, notes string, requireStatuses []string) (bool, error) {
	if id == 0 || len(requireStatuses) == 0 {
		return false, nil
	}
	now := time.Now()
	updates := map[string]interface{}{
		"status":       constants.RedemptionStatusCancelled,
		"cancelled_at": now,
		"updated_at":   now,
	}
	if notes != "" {
		updates["admin_notes"] = notes
	}
	result := r.db.Model(&models.Redemption{}).
		Where("id = ? AND status IN ?", id, requireStatuses).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete 删除兑换单（软删除），用于扣分失败后的补偿回滚
func (r *GormRedemptionRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.Redemption{}, id).Error
}
