package service

import (
	"sync"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"github.com/shopspring/decimal"
)

// RateService 兑换汇率服务。
// 读取路径带进程内 TTL 缓存，写入时立即失效，
// 审批始终以调用时刻的生效汇率计算积分。
type RateService struct {
	settingRepo repository.SettingRepository

	defaultRate models.Money
	cacheTTL    time.Duration
	nowFn       func() time.Time

	mu        sync.Mutex
	cached    models.Money
	cachedAt  time.Time
	cacheMiss bool
}

// NewRateService 创建汇率服务
func NewRateService(settingRepo repository.SettingRepository, defaultRate models.Money, cacheTTL time.Duration) *RateService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &RateService{
		settingRepo: settingRepo,
		defaultRate: defaultRate,
		cacheTTL:    cacheTTL,
		nowFn:       time.Now,
		cacheMiss:   true,
	}
}

// WithClock 注入时钟，仅测试使用
func (s *RateService) WithClock(nowFn func() time.Time) *RateService {
	if nowFn != nil {
		s.nowFn = nowFn
	}
	return s
}

// ActiveRate 获取当前生效的"多少铢兑 1 分"汇率。
// 数据库无配置时回退到默认值。
func (s *RateService) ActiveRate() (models.Money, error) {
	s.mu.Lock()
	if !s.cacheMiss && s.nowFn().Sub(s.cachedAt) < s.cacheTTL {
		rate := s.cached
		s.mu.Unlock()
		return rate, nil
	}
	s.mu.Unlock()

	setting, err := s.settingRepo.GetActive(constants.ExchangeRateKeyBahtPerPoint)
	if err != nil {
		return models.Money{}, err
	}

	rate := s.defaultRate
	if setting != nil && setting.SettingValue.Decimal.IsPositive() {
		rate = setting.SettingValue
	}
	if !rate.Decimal.IsPositive() {
		return models.Money{}, ErrRateNotConfigured
	}

	s.mu.Lock()
	s.cached = rate
	s.cachedAt = s.nowFn()
	s.cacheMiss = false
	s.mu.Unlock()
	return rate, nil
}

// PointsFor 按当前汇率折算消费金额对应的积分，向下取整
func (s *RateService) PointsFor(amount models.Money) (int64, error) {
	rate, err := s.ActiveRate()
	if err != nil {
		return 0, err
	}
	if amount.Decimal.LessThanOrEqual(decimal.Zero) {
		return 0, nil
	}
	return amount.Decimal.Div(rate.Decimal).IntPart(), nil
}

// UpdateRate 管理员更新汇率，保留历史版本并立即失效缓存
func (s *RateService) UpdateRate(value models.Money, adminID uint) (*models.ExchangeRateSetting, error) {
	if !value.Decimal.IsPositive() {
		return nil, ErrRateInvalid
	}
	var updatedBy *uint
	if adminID != 0 {
		updatedBy = &adminID
	}
	setting, err := s.settingRepo.Upsert(constants.ExchangeRateKeyBahtPerPoint, value, updatedBy)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cacheMiss = true
	s.mu.Unlock()

	logger.Infow("exchange_rate_updated",
		"baht_per_point", value.String(),
		"admin_id", adminID,
	)
	return setting, nil
}

// RateHistory 查询汇率历史版本
func (s *RateService) RateHistory(limit int) ([]models.ExchangeRateSetting, error) {
	return s.settingRepo.History(constants.ExchangeRateKeyBahtPerPoint, limit)
}
