package models

import (
	"time"

	"gorm.io/gorm"
)

// ReceiptClaim 小票申领表
// 终态（approved/rejected）后不再变更，审核相关字段仅由审核流程写入。
type ReceiptClaim struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                         // 主键
	UserID          uint           `gorm:"index;not null" json:"user_id"`                                // 用户ID
	Status          string         `gorm:"index;not null;default:'pending'" json:"status"`               // 审核状态
	StoreMatch      bool           `gorm:"not null;default:false" json:"store_match"`                    // 识别出的门店匹配标记
	RecognizedTotal Money          `gorm:"type:decimal(20,2);not null;default:0" json:"recognized_total"` // 识别出的消费金额（泰铢）
	RecognizedDate  string         `gorm:"type:varchar(32)" json:"recognized_date"`                      // 识别出的消费日期
	Confidence      float64        `gorm:"not null;default:0" json:"confidence"`                         // 识别置信度 0..1
	PointsAwarded   int64          `gorm:"not null;default:0" json:"points_awarded"`                     // 审核通过时发放的积分
	AdminNotes      string         `gorm:"type:text" json:"admin_notes"`                                 // 审核备注
	ApprovedBy      *uint          `gorm:"index" json:"approved_by,omitempty"`                           // 审核管理员ID
	ApprovedAt      *time.Time     `gorm:"index" json:"approved_at"`                                     // 审核通过时间
	RejectedAt      *time.Time     `gorm:"index" json:"rejected_at"`                                     // 驳回时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	Image *ReceiptImage `gorm:"foreignKey:ReceiptID" json:"image,omitempty"` // 小票图片
}

// TableName 指定表名
func (ReceiptClaim) TableName() string {
	return "receipt_claims"
}

// IsTerminal 判断申领是否已处于终态
func (r *ReceiptClaim) IsTerminal() bool {
	if r == nil {
		return false
	}
	return r.Status == "approved" || r.Status == "rejected"
}
