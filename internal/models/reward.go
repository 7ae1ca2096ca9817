package models

import (
	"time"

	"gorm.io/gorm"
)

// Reward 奖品目录表
// stock_quantity 为空表示不限量；剩余库存由未取消兑换量聚合推导，从不直接扣减。
type Reward struct {
	ID            uint           `gorm:"primarykey" json:"id"`                        // 主键
	Name          string         `gorm:"not null" json:"name"`                        // 奖品名称
	Description   string         `gorm:"type:text" json:"description"`                // 奖品描述
	PointsCost    int64          `gorm:"not null" json:"points_cost"`                 // 兑换所需积分
	StockQuantity *int           `json:"stock_quantity"`                              // 配置库存（NULL 表示不限量）
	ImageURL      string         `gorm:"type:varchar(255)" json:"image_url"`          // 奖品图片
	IsActive      bool           `gorm:"not null;default:true;index" json:"is_active"` // 是否上架
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                     // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间
}

// TableName 指定表名
func (Reward) TableName() string {
	return "rewards"
}
