package service

import (
	"fmt"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"
)

// 单次兑换的数量上限
const redemptionMaxQuantity = 10

// RedemptionService 奖品兑换服务。
// 库存永远从兑换单推导，不维护冗余计数；
// 扣分失败时删除刚创建的兑换单完成补偿。
type RedemptionService struct {
	redemptionRepo repository.RedemptionRepository
	rewardRepo     repository.RewardRepository
	pointsSvc      *PointsService
}

// NewRedemptionService 创建兑换服务
func NewRedemptionService(
	redemptionRepo repository.RedemptionRepository,
	rewardRepo repository.RewardRepository,
	pointsSvc *PointsService,
) *RedemptionService {
	return &RedemptionService{
		redemptionRepo: redemptionRepo,
		rewardRepo:     rewardRepo,
		pointsSvc:      pointsSvc,
	}
}

// Redeem 用积分兑换奖品。
// 兑换单先落库再扣分，落库后重新推导库存，
// 超卖或扣分失败都删除兑换单回滚。
func (s *RedemptionService) Redeem(userID uint, rewardID uint, quantity int) (*models.Redemption, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}
	if quantity <= 0 || quantity > redemptionMaxQuantity {
		return nil, ErrRedemptionQuantity
	}

	reward, err := s.rewardRepo.GetByID(rewardID)
	if err != nil {
		return nil, err
	}
	if reward == nil {
		return nil, ErrRewardNotFound
	}
	if !reward.IsActive {
		return nil, ErrRewardInactive
	}

	if err := s.checkStock(reward, int64(quantity)); err != nil {
		return nil, err
	}

	// 余额前置校验，分不够就不落兑换单，避免白占推导库存
	cost := reward.PointsCost * int64(quantity)
	balance, err := s.pointsSvc.GetBalance(userID)
	if err != nil {
		return nil, err
	}
	if balance < cost {
		return nil, ErrInsufficientPoints
	}

	redemption := &models.Redemption{
		UserID:     userID,
		RewardID:   rewardID,
		Quantity:   quantity,
		PointsUsed: cost,
		Status:     constants.RedemptionStatusRequested,
	}
	if err := s.redemptionRepo.Create(redemption); err != nil {
		return nil, err
	}

	// 落库后重新推导库存，并发兑换把库存打穿时删单让路
	if err := s.checkStock(reward, 0); err != nil {
		s.compensateRedemption(redemption.ID, "stock_overdraw")
		return nil, err
	}

	debit := PointsChangeInput{
		UserID:        userID,
		Delta:         -cost,
		Type:          constants.LedgerTypeSpent,
		ReferenceType: constants.LedgerReferenceRedemption,
		ReferenceID:   redemption.ID,
		Remark:        fmt.Sprintf("兑换奖品 %s x%d", reward.Name, quantity),
	}
	if _, err := s.pointsSvc.Apply(debit); err != nil {
		s.compensateRedemption(redemption.ID, "debit_failed")
		return nil, err
	}

	logger.Infow("reward_redeemed",
		"redemption_id", redemption.ID,
		"user_id", userID,
		"reward_id", rewardID,
		"quantity", quantity,
		"points_used", cost,
	)
	redemption.Reward = reward
	return redemption, nil
}

// checkStock 推导剩余库存并判断是否足够。
// extra 为额外需要的数量，0 表示只校验当前占用未超出总量。
func (s *RedemptionService) checkStock(reward *models.Reward, extra int64) error {
	if reward.StockQuantity == nil {
		return nil
	}
	used, err := s.redemptionRepo.SumActiveQuantityByReward(reward.ID)
	if err != nil {
		return err
	}
	if used+extra > int64(*reward.StockQuantity) {
		return ErrRewardOutOfStock
	}
	return nil
}

func (s *RedemptionService) compensateRedemption(id uint, reason string) {
	if err := s.redemptionRepo.Delete(id); err != nil {
		logger.Errorw("redemption_compensation_failed",
			"redemption_id", id,
			"reason", reason,
			"error", err,
			"action_required", "manual_reconciliation",
		)
	}
}

// CancelByUser 用户取消自己的兑换单，发货前都允许取消
func (s *RedemptionService) CancelByUser(id uint, userID uint) (*models.Redemption, error) {
	redemption, err := s.redemptionRepo.GetByIDAndUser(id, userID)
	if err != nil {
		return nil, err
	}
	if redemption == nil {
		return nil, ErrRedemptionNotFound
	}
	return s.cancel(redemption, "", []string{
		constants.RedemptionStatusRequested,
		constants.RedemptionStatusProcessing,
	})
}

// CancelByAdmin 管理员取消兑换单，发货前都允许取消
func (s *RedemptionService) CancelByAdmin(id uint, notes string) (*models.Redemption, error) {
	redemption, err := s.redemptionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if redemption == nil {
		return nil, ErrRedemptionNotFound
	}
	return s.cancel(redemption, notes, []string{
		constants.RedemptionStatusRequested,
		constants.RedemptionStatusProcessing,
	})
}

// cancel 条件更新为已取消，胜出后退还积分。
// 已取消或已发货的单拒绝再取消，退分只跟随胜出的那次迁移。
func (s *RedemptionService) cancel(redemption *models.Redemption, notes string, fromStatuses []string) (*models.Redemption, error) {
	if redemption.Status == constants.RedemptionStatusCancelled ||
		redemption.Status == constants.RedemptionStatusShipped {
		return nil, fmt.Errorf("%w: status %s", ErrRedemptionNotCancel, redemption.Status)
	}

	moved, err := s.redemptionRepo.MarkCancelled(redemption.ID, notes, fromStatuses)
	if err != nil {
		return nil, err
	}
	if !moved {
		// 另一个写入者抢先离开了可取消状态
		current, err := s.redemptionRepo.GetByID(redemption.ID)
		if err != nil {
			return nil, err
		}
		status := ""
		if current != nil {
			status = current.Status
		}
		return nil, fmt.Errorf("%w: status %s", ErrRedemptionNotCancel, status)
	}

	refund := PointsChangeInput{
		UserID:        redemption.UserID,
		Delta:         redemption.PointsUsed,
		Type:          constants.LedgerTypeRefund,
		ReferenceType: constants.LedgerReferenceRedemption,
		ReferenceID:   redemption.ID,
		Remark:        fmt.Sprintf("兑换单 %d 取消退分", redemption.ID),
	}
	if _, err := s.pointsSvc.Apply(refund); err != nil {
		// 单已取消但积分没退回来，记 fatal 等人工对账
		logger.Errorw("redemption_refund_failed",
			"redemption_id", redemption.ID,
			"user_id", redemption.UserID,
			"points", redemption.PointsUsed,
			"error", err,
			"action_required", "manual_reconciliation",
		)
		return nil, err
	}

	logger.Infow("redemption_cancelled",
		"redemption_id", redemption.ID,
		"user_id", redemption.UserID,
		"points_refunded", redemption.PointsUsed,
	)
	return s.redemptionRepo.GetByID(redemption.ID)
}

// MarkProcessing 管理员将兑换单标记为处理中
func (s *RedemptionService) MarkProcessing(id uint) (*models.Redemption, error) {
	redemption, err := s.redemptionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if redemption == nil {
		return nil, ErrRedemptionNotFound
	}
	if redemption.Status == constants.RedemptionStatusProcessing {
		return redemption, nil
	}
	moved, err := s.redemptionRepo.MarkProcessing(id)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, ErrRedemptionStateInvalid
	}
	return s.redemptionRepo.GetByID(id)
}

// Ship 管理员发货，仅允许 requested/processing 的单发货
func (s *RedemptionService) Ship(id uint, notes string) (*models.Redemption, error) {
	redemption, err := s.redemptionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if redemption == nil {
		return nil, ErrRedemptionNotFound
	}
	if redemption.Status == constants.RedemptionStatusShipped ||
		redemption.Status == constants.RedemptionStatusCancelled {
		return nil, fmt.Errorf("%w: status %s", ErrRedemptionStateInvalid, redemption.Status)
	}
	moved, err := s.redemptionRepo.MarkShipped(id, notes)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, ErrRedemptionStateInvalid
	}
	logger.Infow("redemption_shipped", "redemption_id", id)
	return s.redemptionRepo.GetByID(id)
}

// GetForUser 查询用户自己的兑换单
func (s *RedemptionService) GetForUser(id uint, userID uint) (*models.Redemption, error) {
	redemption, err := s.redemptionRepo.GetByIDAndUser(id, userID)
	if err != nil {
		return nil, err
	}
	if redemption == nil {
		return nil, ErrRedemptionNotFound
	}
	return redemption, nil
}

// List 分页查询兑换单
func (s *RedemptionService) List(filter repository.RedemptionListFilter) ([]models.Redemption, int64, error) {
	return s.redemptionRepo.List(filter)
}
