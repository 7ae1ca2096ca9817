package models

import "time"

// ExchangeRateSetting 汇率设置表
// 同一 setting_key 至多一行 is_active=true；更新时旧行置为失效并保留历史。
type ExchangeRateSetting struct {
	ID           uint      `gorm:"primarykey" json:"id"`                              // 主键
	SettingKey   string    `gorm:"index;not null;type:varchar(64)" json:"setting_key"` // 配置键
	SettingValue Money     `gorm:"type:decimal(20,2);not null" json:"setting_value"`  // 配置值（每积分泰铢数）
	IsActive     bool      `gorm:"not null;default:true;index" json:"is_active"`      // 是否生效
	UpdatedBy    *uint     `gorm:"index" json:"updated_by,omitempty"`                 // 操作管理员ID
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt    time.Time `gorm:"index" json:"updated_at"`                           // 更新时间
}

// TableName 指定表名
func (ExchangeRateSetting) TableName() string {
	return "exchange_rate_settings"
}
