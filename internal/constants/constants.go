package constants

// 小票审核状态常量
const (
	ReceiptStatusPending    = "pending"
	ReceiptStatusProcessing = "processing"
	ReceiptStatusApproved   = "approved"
	ReceiptStatusRejected   = "rejected"
)

// 兑换请求状态常量
const (
	RedemptionStatusRequested  = "requested"
	RedemptionStatusProcessing = "processing"
	RedemptionStatusShipped    = "shipped"
	RedemptionStatusCancelled  = "cancelled"
)

// 积分流水类型常量
const (
	LedgerTypeEarned  = "earned"
	LedgerTypeSpent   = "spent"
	LedgerTypeExpired = "expired"
	LedgerTypeBonus   = "bonus"
	LedgerTypeRefund  = "refund"
)

// 积分流水引用类型常量
const (
	LedgerReferenceReceipt    = "receipt"
	LedgerReferenceRedemption = "redemption"
	LedgerReferenceAdmin      = "admin"
	LedgerReferenceExpiry     = "expiry"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 汇率设置键常量
const (
	ExchangeRateKeyBahtPerPoint = "baht_per_point"
)

// 异步任务类型常量
const (
	TaskPointsExpire   = "points:expire"
	TaskApprovalNotice = "points:approval_notice"
)

// 队列名称常量
const (
	QueueDefault = "default"
)
