package worker

import (
	"context"
	"encoding/json"

	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/provider"
	"github.com/loyalty-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPointsExpire, c.handlePointsExpire)
	mux.HandleFunc(queue.TaskApprovalNotice, c.handleApprovalNotice)
}

func (c *Consumer) handlePointsExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_points_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PointsExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_points_expire_unmarshal_failed", "error", err)
		return err
	}
	if payload.Before.IsZero() {
		logger.Debugw("worker_points_expire_skip_invalid_payload")
		return nil
	}
	if c.PointsService == nil {
		logger.Warnw("worker_points_expire_skip_points_service_nil")
		return nil
	}
	expired, err := c.PointsService.ExpireDuePoints(payload.Before)
	if err != nil {
		logger.Warnw("worker_points_expire_failed", "before", payload.Before, "error", err)
		return err
	}
	if expired > 0 {
		logger.Infow("worker_points_expired", "before", payload.Before, "users", expired)
	}
	return nil
}

func (c *Consumer) handleApprovalNotice(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_approval_notice_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ApprovalNoticePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_approval_notice_unmarshal_failed", "error", err)
		return err
	}
	if payload.ClaimID == 0 || payload.UserID == 0 {
		logger.Debugw("worker_approval_notice_skip_invalid_payload", "claim_id", payload.ClaimID, "user_id", payload.UserID)
		return nil
	}
	claim, err := c.ReceiptRepo.GetByID(payload.ClaimID)
	if err != nil {
		logger.Warnw("worker_approval_notice_fetch_claim_failed", "claim_id", payload.ClaimID, "error", err)
		return err
	}
	if claim == nil {
		logger.Debugw("worker_approval_notice_skip_claim_not_found", "claim_id", payload.ClaimID)
		return nil
	}
	user, err := c.UserRepo.GetByID(payload.UserID)
	if err != nil {
		logger.Warnw("worker_approval_notice_fetch_user_failed", "user_id", payload.UserID, "error", err)
		return err
	}
	if user == nil {
		logger.Debugw("worker_approval_notice_skip_user_not_found", "user_id", payload.UserID)
		return nil
	}
	// 通知渠道尚未接入，先结构化落日志留痕。
	logger.Infow("worker_approval_notice_delivered",
		"claim_id", claim.ID,
		"user_id", user.ID,
		"email", user.Email,
		"points", payload.Points,
		"status", claim.Status,
	)
	return nil
}
