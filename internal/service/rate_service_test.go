package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRateServiceTest(t *testing.T, defaultRate models.Money) (*RateService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:rate_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.ExchangeRateSetting{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewRateService(repository.NewSettingRepository(db), defaultRate, time.Minute), db
}

func TestRateServiceDefaultFallback(t *testing.T) {
	svc, _ := setupRateServiceTest(t, models.NewMoneyFromFloat(10))

	rate, err := svc.ActiveRate()
	if err != nil {
		t.Fatalf("active rate failed: %v", err)
	}
	if rate.String() != "10" {
		t.Fatalf("rate want 10 got %s", rate.String())
	}
}

func TestRateServiceNotConfigured(t *testing.T) {
	svc, _ := setupRateServiceTest(t, models.Money{})

	if _, err := svc.ActiveRate(); !errors.Is(err, ErrRateNotConfigured) {
		t.Fatalf("expected rate not configured, got: %v", err)
	}
}

func TestRateServicePointsForFloor(t *testing.T) {
	svc, _ := setupRateServiceTest(t, models.NewMoneyFromFloat(10))

	// 259 铢 / 每积分 10 铢 = 25.9，取整 25
	points, err := svc.PointsFor(models.NewMoneyFromFloat(259))
	if err != nil {
		t.Fatalf("points for failed: %v", err)
	}
	if points != 25 {
		t.Fatalf("points want 25 got %d", points)
	}

	zero, err := svc.PointsFor(models.NewMoneyFromFloat(-3))
	if err != nil {
		t.Fatalf("points for negative failed: %v", err)
	}
	if zero != 0 {
		t.Fatalf("negative amount should convert to 0, got %d", zero)
	}
}

func TestRateServiceUpdateInvalidatesCache(t *testing.T) {
	svc, _ := setupRateServiceTest(t, models.NewMoneyFromFloat(10))

	before, err := svc.ActiveRate()
	if err != nil {
		t.Fatalf("active rate failed: %v", err)
	}
	if before.String() != "10" {
		t.Fatalf("rate want 10 got %s", before.String())
	}

	setting, err := svc.UpdateRate(models.NewMoneyFromFloat(8), 1)
	if err != nil {
		t.Fatalf("update rate failed: %v", err)
	}
	if setting.UpdatedBy == nil || *setting.UpdatedBy != 1 {
		t.Fatalf("updated_by should record the admin: %+v", setting)
	}

	// 缓存立即失效，TTL 内也能读到新值
	after, err := svc.ActiveRate()
	if err != nil {
		t.Fatalf("active rate failed: %v", err)
	}
	if after.String() != "8" {
		t.Fatalf("rate want 8 got %s", after.String())
	}
}

func TestRateServiceUpdateInvalid(t *testing.T) {
	svc, _ := setupRateServiceTest(t, models.NewMoneyFromFloat(10))

	if _, err := svc.UpdateRate(models.NewMoneyFromFloat(0), 1); !errors.Is(err, ErrRateInvalid) {
		t.Fatalf("expected rate invalid, got: %v", err)
	}
	if _, err := svc.UpdateRate(models.NewMoneyFromFloat(-2), 1); !errors.Is(err, ErrRateInvalid) {
		t.Fatalf("expected rate invalid, got: %v", err)
	}
}

func TestRateServiceCacheTTL(t *testing.T) {
	svc, db := setupRateServiceTest(t, models.NewMoneyFromFloat(10))

	now := time.Now()
	svc.WithClock(func() time.Time { return now })

	if _, err := svc.ActiveRate(); err != nil {
		t.Fatalf("active rate failed: %v", err)
	}

	// 绕过服务直接改库，验证 TTL 内读的是缓存
	settingRepo := repository.NewSettingRepository(db)
	if _, err := settingRepo.Upsert("baht_per_point", models.NewMoneyFromFloat(5), nil); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	cached, err := svc.ActiveRate()
	if err != nil {
		t.Fatalf("active rate failed: %v", err)
	}
	if cached.String() != "10" {
		t.Fatalf("within ttl should serve cached 10, got %s", cached.String())
	}

	// 时钟越过 TTL 后读到新值
	now = now.Add(2 * time.Minute)
	fresh, err := svc.ActiveRate()
	if err != nil {
		t.Fatalf("active rate failed: %v", err)
	}
	if fresh.String() != "5" {
		t.Fatalf("after ttl should serve 5, got %s", fresh.String())
	}
}

func TestRateServiceHistory(t *testing.T) {
	svc, _ := setupRateServiceTest(t, models.NewMoneyFromFloat(10))

	if _, err := svc.UpdateRate(models.NewMoneyFromFloat(12), 1); err != nil {
		t.Fatalf("update rate failed: %v", err)
	}
	if _, err := svc.UpdateRate(models.NewMoneyFromFloat(9), 2); err != nil {
		t.Fatalf("update rate failed: %v", err)
	}

	history, err := svc.RateHistory(10)
	if err != nil {
		t.Fatalf("rate history failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length want 2 got %d", len(history))
	}
	if !history[0].IsActive || history[0].SettingValue.String() != "9" {
		t.Fatalf("latest history row should be the active 9: %+v", history[0])
	}
	if history[1].IsActive {
		t.Fatalf("older history row should be inactive: %+v", history[1])
	}
}
