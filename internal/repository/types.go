package repository

import "time"

// ReceiptListFilter 查询小票审核单列表的过滤条件
type ReceiptListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	StoreMatch  *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// LedgerListFilter 查询积分流水列表的过滤条件
type LedgerListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Type        string
	Reference   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// RewardListFilter 查询奖品列表的过滤条件
type RewardListFilter struct {
	Page       int
	PageSize   int
	Search     string
	OnlyActive bool
}

// RedemptionListFilter 查询兑换单列表的过滤条件
type RedemptionListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	RewardID    uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page          int
	PageSize      int
	Keyword       string
	Status        string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	LastLoginFrom *time.Time
	LastLoginTo   *time.Time
}
