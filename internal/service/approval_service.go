package service

import (
	"fmt"
	"strings"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/queue"
	"github.com/loyalty-next/internal/repository"
)

// ApprovalService 小票审批服务。
// 状态迁移使用条件更新，同一审核单并发审批只有一个写入者胜出，
// 积分只在胜出的那次迁移上发放一次。
type ApprovalService struct {
	receiptRepo repository.ReceiptRepository
	pointsSvc   *PointsService
	rateSvc     *RateService
	queueClient *queue.Client
}

// NewApprovalService 创建审批服务
func NewApprovalService(
	receiptRepo repository.ReceiptRepository,
	pointsSvc *PointsService,
	rateSvc *RateService,
	queueClient *queue.Client,
) *ApprovalService {
	return &ApprovalService{
		receiptRepo: receiptRepo,
		pointsSvc:   pointsSvc,
		rateSvc:     rateSvc,
		queueClient: queueClient,
	}
}

// Approve 审批通过并按当前汇率发放积分。
// 对已通过的审核单重复调用是幂等操作，直接返回现状。
func (s *ApprovalService) Approve(claimID uint, adminID uint, notes string) (*models.ReceiptClaim, error) {
	claim, err := s.receiptRepo.GetByID(claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, ErrClaimNotFound
	}
	if claim.Status == constants.ReceiptStatusApproved {
		return claim, nil
	}
	if claim.Status == constants.ReceiptStatusRejected {
		return nil, fmt.Errorf("%w: status %s", ErrClaimAlreadyReviewed, claim.Status)
	}

	// 发放额按审批时刻的生效汇率计算，后续改汇率不追溯
	points, err := s.rateSvc.PointsFor(claim.RecognizedTotal)
	if err != nil {
		return nil, err
	}

	moved, err := s.receiptRepo.MarkApproved(claimID, adminID, points, strings.TrimSpace(notes))
	if err != nil {
		return nil, err
	}
	if !moved {
		// 迁移失败说明另一个写入者已抢先，按当前落库状态裁决
		current, err := s.receiptRepo.GetByID(claimID)
		if err != nil {
			return nil, err
		}
		if current != nil && current.Status == constants.ReceiptStatusApproved {
			return current, nil
		}
		return nil, ErrClaimAlreadyReviewed
	}

	mint := PointsChangeInput{
		UserID:        claim.UserID,
		Delta:         points,
		Type:          constants.LedgerTypeEarned,
		ReferenceType: constants.LedgerReferenceReceipt,
		ReferenceID:   claimID,
		Remark:        fmt.Sprintf("小票审批通过，消费 %s 铢", claim.RecognizedTotal.String()),
	}
	if _, err := s.pointsSvc.Apply(mint); err != nil {
		// 发分失败则把状态退回待审核，退不回去只能人工对账
		reverted, rerr := s.receiptRepo.RevertApproval(claimID)
		if rerr != nil || !reverted {
			logger.Errorw("receipt_approval_compensation_failed",
				"claim_id", claimID,
				"admin_id", adminID,
				"points", points,
				"revert_error", rerr,
				"reverted", reverted,
				"action_required", "manual_reconciliation",
			)
		}
		return nil, err
	}

	logger.Infow("receipt_approved",
		"claim_id", claimID,
		"admin_id", adminID,
		"user_id", claim.UserID,
		"points", points,
	)

	if err := s.queueClient.EnqueueApprovalNotice(queue.ApprovalNoticePayload{
		ClaimID: claimID,
		UserID:  claim.UserID,
		Points:  points,
	}); err != nil {
		logger.Warnw("approval_notice_enqueue_failed", "claim_id", claimID, "error", err)
	}

	return s.receiptRepo.GetByID(claimID)
}

// Reject 驳回审核单，必须填写原因。
// 终态（已通过或已驳回）的审核单一律拒绝再驳回。
func (s *ApprovalService) Reject(claimID uint, adminID uint, notes string) (*models.ReceiptClaim, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, ErrRejectNotesRequired
	}

	claim, err := s.receiptRepo.GetByID(claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, ErrClaimNotFound
	}
	if claim.Status == constants.ReceiptStatusRejected || claim.Status == constants.ReceiptStatusApproved {
		return nil, fmt.Errorf("%w: status %s", ErrClaimAlreadyReviewed, claim.Status)
	}

	moved, err := s.receiptRepo.MarkRejected(claimID, adminID, notes)
	if err != nil {
		return nil, err
	}
	if !moved {
		// 另一个审核者抢先写入了终态
		current, err := s.receiptRepo.GetByID(claimID)
		if err != nil {
			return nil, err
		}
		status := ""
		if current != nil {
			status = current.Status
		}
		return nil, fmt.Errorf("%w: status %s", ErrClaimAlreadyReviewed, status)
	}

	logger.Infow("receipt_rejected",
		"claim_id", claimID,
		"admin_id", adminID,
		"user_id", claim.UserID,
	)
	return s.receiptRepo.GetByID(claimID)
}
