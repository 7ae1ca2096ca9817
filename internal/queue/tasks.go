package queue

import (
	"encoding/json"
	"time"

	"github.com/loyalty-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPointsExpire 积分过期清理任务
	TaskPointsExpire = constants.TaskPointsExpire
	// TaskApprovalNotice 审批结果通知任务
	TaskApprovalNotice = constants.TaskApprovalNotice
)

// PointsExpirePayload 积分过期清理任务载荷
type PointsExpirePayload struct {
	Before time.Time `json:"before"`
}

// ApprovalNoticePayload 审批通知任务载荷
type ApprovalNoticePayload struct {
	ClaimID uint  `json:"claim_id"`
	UserID  uint  `json:"user_id"`
	Points  int64 `json:"points"`
}

// NewPointsExpireTask 构建积分过期清理任务
func NewPointsExpireTask(payload PointsExpirePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPointsExpire, data), nil
}

// NewApprovalNoticeTask 构建审批通知任务
func NewApprovalNoticeTask(payload ApprovalNoticePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskApprovalNotice, data), nil
}
