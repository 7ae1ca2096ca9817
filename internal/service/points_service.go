package service

import (
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"
)

// 余额乐观写入的最大重试次数
const balanceCASMaxRetries = 5

// PointsService 积分余额与流水服务。
// 所有积分增减都经由 Apply 走同一条路径：
// 先乐观更新余额，再追加流水快照，流水写入失败只记日志不回滚余额。
type PointsService struct {
	userRepo   repository.UserRepository
	ledgerRepo repository.LedgerRepository
}

// PointsChangeInput 积分变动输入
type PointsChangeInput struct {
	UserID        uint
	Delta         int64 // 正数入账，负数扣减
	Type          string
	ReferenceType string
	ReferenceID   uint
	Remark        string
}

// NewPointsService 创建积分服务
func NewPointsService(userRepo repository.UserRepository, ledgerRepo repository.LedgerRepository) *PointsService {
	return &PointsService{
		userRepo:   userRepo,
		ledgerRepo: ledgerRepo,
	}
}

// GetBalance 查询用户当前积分余额
func (s *PointsService) GetBalance(userID uint) (int64, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrUserNotFound
	}
	return user.PointBalance, nil
}

// ListLedger 分页查询积分流水
func (s *PointsService) ListLedger(filter repository.LedgerListFilter) ([]models.PointLedgerEntry, int64, error) {
	return s.ledgerRepo.List(filter)
}

// FindEntry 按业务引用查找流水，幂等判断用
func (s *PointsService) FindEntry(userID uint, refType string, refID uint, entryType string) (*models.PointLedgerEntry, error) {
	return s.ledgerRepo.GetByReference(userID, refType, refID, entryType)
}

// Apply 执行一次积分变动。
// 余额用 WHERE point_balance = 旧值 的条件更新写入，
// 并发冲突时重读重试，重试耗尽返回 ErrBalanceConflict。
func (s *PointsService) Apply(input PointsChangeInput) (*models.PointLedgerEntry, error) {
	if input.UserID == 0 {
		return nil, ErrUserNotFound
	}
	if input.Delta == 0 {
		return nil, ErrRedemptionQuantity
	}

	var newBalance int64
	written := false
	for attempt := 0; attempt < balanceCASMaxRetries; attempt++ {
		user, err := s.userRepo.GetByID(input.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}

		candidate := user.PointBalance + input.Delta
		if candidate < 0 {
			return nil, ErrInsufficientPoints
		}

		earnedDelta := int64(0)
		if input.Delta > 0 && (input.Type == constants.LedgerTypeEarned || input.Type == constants.LedgerTypeBonus) {
			earnedDelta = input.Delta
		}

		ok, err := s.userRepo.CompareAndSetBalance(input.UserID, user.PointBalance, candidate, earnedDelta)
		if err != nil {
			return nil, err
		}
		if ok {
			newBalance = candidate
			written = true
			break
		}
	}
	if !written {
		logger.Warnw("point_balance_cas_exhausted",
			"user_id", input.UserID,
			"delta", input.Delta,
			"type", input.Type,
		)
		return nil, ErrBalanceConflict
	}

	entry := &models.PointLedgerEntry{
		UserID:        input.UserID,
		Type:          input.Type,
		Points:        input.Delta,
		BalanceAfter:  newBalance,
		ReferenceID:   input.ReferenceID,
		ReferenceType: input.ReferenceType,
		Remark:        input.Remark,
	}
	if err := s.ledgerRepo.Create(entry); err != nil {
		// 余额已生效，流水缺失只能靠对账补录，不回滚余额
		logger.Errorw("point_ledger_append_failed",
			"user_id", input.UserID,
			"delta", input.Delta,
			"type", input.Type,
			"reference_type", input.ReferenceType,
			"reference_id", input.ReferenceID,
			"balance_after", newBalance,
			"error", err,
		)
	}
	return entry, nil
}

// Compensate 反向补偿一次积分变动。
// 补偿失败说明余额与业务状态已经不一致，记 fatal 级日志等待人工对账。
func (s *PointsService) Compensate(original PointsChangeInput, reason string) {
	reverse := PointsChangeInput{
		UserID:        original.UserID,
		Delta:         -original.Delta,
		Type:          constants.LedgerTypeRefund,
		ReferenceType: original.ReferenceType,
		ReferenceID:   original.ReferenceID,
		Remark:        reason,
	}
	if original.Delta > 0 {
		// 入账的补偿是扣回，不能再记 refund
		reverse.Type = constants.LedgerTypeSpent
	}
	if _, err := s.Apply(reverse); err != nil {
		logger.Errorw("point_compensation_failed",
			"user_id", original.UserID,
			"delta", original.Delta,
			"reference_type", original.ReferenceType,
			"reference_id", original.ReferenceID,
			"reason", reason,
			"error", err,
			"action_required", "manual_reconciliation",
		)
	}
}

// GrantBonus 管理员手工发放奖励积分
func (s *PointsService) GrantBonus(userID uint, points int64, adminID uint, remark string) (*models.PointLedgerEntry, error) {
	if points <= 0 {
		return nil, ErrBonusInvalid
	}
	if remark == "" {
		remark = "管理员发放奖励积分"
	}
	return s.Apply(PointsChangeInput{
		UserID:        userID,
		Delta:         points,
		Type:          constants.LedgerTypeBonus,
		ReferenceType: constants.LedgerReferenceAdmin,
		ReferenceID:   adminID,
		Remark:        remark,
	})
}

// VerifyLedgerConsistency 校验用户余额与流水合计是否一致
func (s *PointsService) VerifyLedgerConsistency(userID uint) (bool, int64, int64, error) {
	balance, err := s.GetBalance(userID)
	if err != nil {
		return false, 0, 0, err
	}
	sum, err := s.ledgerRepo.SumPointsByUser(userID)
	if err != nil {
		return false, 0, 0, err
	}
	return balance == sum, balance, sum, nil
}

// ExpireDuePoints 清理过期积分。
// 先进先出口径：截止时间前的净额先被之后的净支出抵扣，剩余部分才算过期，再与当前余额取小。
func (s *PointsService) ExpireDuePoints(before time.Time) (int, error) {
	userIDs, err := s.ledgerRepo.ListUserIDsWithEntriesBefore(before)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, userID := range userIDs {
		dueSum, err := s.ledgerRepo.SumEarnedBefore(userID, before)
		if err != nil {
			logger.Warnw("point_expire_sum_failed", "user_id", userID, "error", err)
			continue
		}
		spentAfter, err := s.ledgerRepo.SumSpentAfter(userID, before)
		if err != nil {
			logger.Warnw("point_expire_spent_failed", "user_id", userID, "error", err)
			continue
		}
		balance, err := s.GetBalance(userID)
		if err != nil {
			logger.Warnw("point_expire_balance_failed", "user_id", userID, "error", err)
			continue
		}

		expirable := dueSum - spentAfter
		if balance < expirable {
			expirable = balance
		}
		if expirable <= 0 {
			continue
		}

		if _, err := s.Apply(PointsChangeInput{
			UserID:        userID,
			Delta:         -expirable,
			Type:          constants.LedgerTypeExpired,
			ReferenceType: constants.LedgerReferenceExpiry,
			ReferenceID:   userID,
			Remark:        "积分过期清理",
		}); err != nil {
			logger.Warnw("point_expire_apply_failed", "user_id", userID, "points", expirable, "error", err)
			continue
		}
		expired++
	}
	return expired, nil
}
