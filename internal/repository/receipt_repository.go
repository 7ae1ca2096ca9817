package repository

import (
	"errors"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"

	"gorm.io/gorm"
)

// ReceiptRepository 小票审核单数据访问接口
type ReceiptRepository interface {
	Create(claim *models.ReceiptClaim) error
	GetByID(id uint) (*models.ReceiptClaim, error)
	GetByIDWithImage(id uint) (*models.ReceiptClaim, error)
	GetByIDAndUser(id uint, userID uint) (*models.ReceiptClaim, error)
	List(filter ReceiptListFilter) ([]models.ReceiptClaim, int64, error)
	CountPendingByUser(userID uint) (int64, error)
	FindSemanticDuplicate(userID uint, recognizedDate string, total models.Money, storeMatch bool, excludeID uint) (*models.ReceiptClaim, error)
	MarkApproved(id uint, adminID uint, points int64, notes string) (bool, error)
	MarkRejected(id uint, adminID uint, notes string) (bool, error)
	RevertApproval(id uint) (bool, error)
	Delete(id uint) error
}

// GormReceiptRepository GORM 实现
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository 创建小票审核单仓库
func NewReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// Create 创建审核单
func (r *GormReceiptRepository) Create(claim *models.ReceiptClaim) error {
	return r.db.Create(claim).Error
}

// GetByID 根据 ID 获取审核单
func (r *GormReceiptRepository) GetByID(id uint) (*models.ReceiptClaim, error) {
	var claim models.ReceiptClaim
	if err := r.db.First(&claim, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &claim, nil
}

// GetByIDWithImage 获取审核单并预加载小票图片
func (r *GormReceiptRepository) GetByIDWithImage(id uint) (*models.ReceiptClaim, error) {
	var claim models.ReceiptClaim
	if err := r.db.Preload("Image").First(&claim, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &claim, nil
}

// GetByIDAndUser 按 ID 和用户获取审核单
func (r *GormReceiptRepository) GetByIDAndUser(id uint, userID uint) (*models.ReceiptClaim, error) {
	if id == 0 || userID == 0 {
		return nil, nil
	}
	var claim models.ReceiptClaim
	if err := r.db.Preload("Image").Where("id = ? AND user_id = ?", id, userID).First(&claim).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &claim, nil
}

// List 分页查询审核单
func (r *GormReceiptRepository) List(filter ReceiptListFilter) ([]models.ReceiptClaim, int64, error) {
	query := r.db.Model(&models.ReceiptClaim{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.StoreMatch != nil {
		query = query.Where("store_match = ?", *filter.StoreMatch)
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

	var claims []models.ReceiptClaim
	if err := query.Preload("Image").Order("id DESC").Find(&claims).Error; err != nil {
		return nil, 0, err
	}
	return claims, total, nil
}

// CountPendingByUser 统计用户待审核的审核单数量
func (r *GormReceiptRepository) CountPendingByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ReceiptClaim{}).
		Where("user_id = ? AND status IN ?", userID, []string{
			constants.ReceiptStatusPending,
			constants.ReceiptStatusProcessing,
		}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// FindSemanticDuplicate 查找同用户、同识别日期、同金额的疑似重复小票。
// storeMatch 也必须一致，避免把不同门店的同额小票误判为重复。
func (r *GormReceiptRepository) FindSemanticDuplicate(userID uint, recognizedDate string, total models.Money, storeMatch bool, excludeID uint) (*models.ReceiptClaim, error) {
	if userID == 0 || recognizedDate == "" {
		return nil, nil
	}
	query := r.db.Where(
		"user_id = ? AND recognized_date = ? AND recognized_total = ? AND store_match = ? AND status <> ?",
		userID, recognizedDate, total, storeMatch, constants.ReceiptStatusRejected,
	)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var claim models.ReceiptClaim
	if err := query.Order("id ASC").First(&claim).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &claim, nil
}

// MarkApproved 条件更新为已通过。
// 仅当当前状态仍可审批时生效，返回是否真正发生了状态迁移。
func (r *GormReceiptRepository) MarkApproved(id uint, adminID uint, points int64, notes string) (bool, error) {
	if id == 0 {
		return false, nil
	}
	now := time.Now()
	updates := map[string]interface{}{
		"status":         constants.ReceiptStatusApproved,
		"points_awarded": points,
		"approved_by":    adminID,
		"approved_at":    now,
		"updated_at":     now,
	}
	if notes != "" {
		updates["admin_notes"] = notes
	}
	result := r.db.Model(&models.ReceiptClaim{}).
		Where("id = ? AND status IN ?", id, []string{
			constants.ReceiptStatusPending,
			constants.ReceiptStatusProcessing,
		}).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkRejected 条件更新为已驳回，驳回必须携带备注。
func (r *GormReceiptRepository) MarkRejected(id uint, adminID uint, notes string) (bool, error) {
	if id == 0 {
		return false, nil
	}
	now := time.Now()
	result := r.db.Model(&models.ReceiptClaim{}).
		Where("id = ? AND status IN ?", id, []string{
			constants.ReceiptStatusPending,
			constants.ReceiptStatusProcessing,
		}).
		Updates(map[string]interface{}{
			"status":      constants.ReceiptStatusRejected,
			"admin_notes": notes,
			"approved_by": adminID,
			"rejected_at": now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RevertApproval 将已通过的审核单退回待审核，用于发分失败后的补偿回滚
func (r *GormReceiptRepository) RevertApproval(id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	result := r.db.Model(&models.ReceiptClaim{}).
		Where("id = ? AND status = ?", id, constants.ReceiptStatusApproved).
		Updates(map[string]interface{}{
			"status":         constants.ReceiptStatusPending,
			"points_awarded": 0,
			"approved_by":    nil,
			"approved_at":    nil,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete 删除审核单（软删除），用于上传失败后的补偿回滚
func (r *GormReceiptRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.ReceiptClaim{}, id).Error
}
