package models

import (
	"time"

	"gorm.io/gorm"
)

// Redemption 兑换请求表
// 创建时积分已扣除；取消时通过 refund 流水退回。
type Redemption struct {
	ID          uint           `gorm:"primarykey" json:"id"`                             // 主键
	UserID      uint           `gorm:"index;not null" json:"user_id"`                    // 用户ID
	RewardID    uint           `gorm:"index;not null" json:"reward_id"`                  // 奖品ID
	Quantity    int            `gorm:"not null;default:1" json:"quantity"`               // 兑换数量
	PointsUsed  int64          `gorm:"not null" json:"points_used"`                      // 消耗积分
	Status      string         `gorm:"index;not null;default:'requested'" json:"status"` // 兑换状态
	AdminNotes  string         `gorm:"type:text" json:"admin_notes"`                     // 处理备注
	ShippedAt   *time.Time     `gorm:"index" json:"shipped_at"`                          // 发货时间
	CancelledAt *time.Time     `gorm:"index" json:"cancelled_at"`                        // 取消时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                          // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                          // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                   // 软删除时间

	Reward *Reward `gorm:"foreignKey:RewardID" json:"reward,omitempty"` // 奖品
}

// TableName 指定表名
func (Redemption) TableName() string {
	return "redemptions"
}
