package service

import (
	"strings"

	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"
)

// RewardService 奖品目录服务
type RewardService struct {
	rewardRepo     repository.RewardRepository
	redemptionRepo repository.RedemptionRepository
}

// RewardInput 奖品创建/更新输入
type RewardInput struct {
	Name          string
	Description   string
	PointsCost    int64
	StockQuantity *int
	ImageURL      string
	IsActive      *bool
}

// NewRewardService 创建奖品服务
func NewRewardService(rewardRepo repository.RewardRepository, redemptionRepo repository.RedemptionRepository) *RewardService {
	return &RewardService{
		rewardRepo:     rewardRepo,
		redemptionRepo: redemptionRepo,
	}
}

// Create 创建奖品
func (s *RewardService) Create(input RewardInput) (*models.Reward, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || input.PointsCost <= 0 {
		return nil, ErrRewardInvalid
	}
	reward := &models.Reward{
		Name:          name,
		Description:   input.Description,
		PointsCost:    input.PointsCost,
		StockQuantity: input.StockQuantity,
		ImageURL:      strings.TrimSpace(input.ImageURL),
		IsActive:      true,
	}
	if input.IsActive != nil {
		reward.IsActive = *input.IsActive
	}
	if err := s.rewardRepo.Create(reward); err != nil {
		return nil, err
	}
	return reward, nil
}

// Update 更新奖品
func (s *RewardService) Update(id uint, input RewardInput) (*models.Reward, error) {
	reward, err := s.rewardRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if reward == nil {
		return nil, ErrRewardNotFound
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		reward.Name = name
	}
	if input.Description != "" {
		reward.Description = input.Description
	}
	if input.PointsCost > 0 {
		reward.PointsCost = input.PointsCost
	}
	reward.StockQuantity = input.StockQuantity
	if url := strings.TrimSpace(input.ImageURL); url != "" {
		reward.ImageURL = url
	}
	if input.IsActive != nil {
		reward.IsActive = *input.IsActive
	}
	if err := s.rewardRepo.Update(reward); err != nil {
		return nil, err
	}
	return reward, nil
}

// Delete 删除奖品
func (s *RewardService) Delete(id uint) error {
	reward, err := s.rewardRepo.GetByID(id)
	if err != nil {
		return err
	}
	if reward == nil {
		return ErrRewardNotFound
	}
	return s.rewardRepo.Delete(id)
}

// Get 获取奖品详情
func (s *RewardService) Get(id uint) (*models.Reward, error) {
	reward, err := s.rewardRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if reward == nil {
		return nil, ErrRewardNotFound
	}
	return reward, nil
}

// List 分页查询奖品
func (s *RewardService) List(filter repository.RewardListFilter) ([]models.Reward, int64, error) {
	return s.rewardRepo.List(filter)
}

// RemainingStock 推导奖品剩余库存。
// 剩余量 = 总库存 - 未取消兑换单占用量，无限库存返回 nil。
func (s *RewardService) RemainingStock(reward *models.Reward) (*int64, error) {
	if reward == nil || reward.StockQuantity == nil {
		return nil, nil
	}
	used, err := s.redemptionRepo.SumActiveQuantityByReward(reward.ID)
	if err != nil {
		return nil, err
	}
	remaining := int64(*reward.StockQuantity) - used
	if remaining < 0 {
		remaining = 0
	}
	return &remaining, nil
}
