package models

import "time"

// PointLedgerEntry 积分流水表
// 只追加，不更新、不删除；balance_after 为该笔流水生效后的余额快照。
type PointLedgerEntry struct {
	ID            uint      `gorm:"primarykey" json:"id"`                          // 主键
	UserID        uint      `gorm:"index;not null" json:"user_id"`                 // 用户ID
	Type          string    `gorm:"index;not null" json:"type"`                    // 流水类型 earned/spent/expired/bonus/refund
	Points        int64     `gorm:"not null" json:"points"`                        // 积分变动（带符号）
	BalanceAfter  int64     `gorm:"not null" json:"balance_after"`                 // 变动后余额
	ReferenceID   uint      `gorm:"index;not null;default:0" json:"reference_id"`  // 关联业务ID
	ReferenceType string    `gorm:"index;type:varchar(32)" json:"reference_type"`  // 关联业务类型
	Remark        string    `gorm:"type:varchar(255)" json:"remark"`               // 备注
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                       // 创建时间
}

// TableName 指定表名
func (PointLedgerEntry) TableName() string {
	return "point_ledger_entries"
}
