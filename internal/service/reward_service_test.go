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

func setupRewardServiceTest(t *testing.T) (*RewardService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:reward_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Reward{}, &models.Redemption{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewRewardService(repository.NewRewardRepository(db), repository.NewRedemptionRepository(db)), db
}

func TestRewardServiceCreateValidation(t *testing.T) {
	svc, _ := setupRewardServiceTest(t)

	if _, err := svc.Create(RewardInput{Name: "  ", PointsCost: 100}); !errors.Is(err, ErrRewardInvalid) {
		t.Fatalf("expected invalid for blank name, got: %v", err)
	}
	if _, err := svc.Create(RewardInput{Name: "马克杯", PointsCost: 0}); !errors.Is(err, ErrRewardInvalid) {
		t.Fatalf("expected invalid for zero cost, got: %v", err)
	}
	if _, err := svc.Create(RewardInput{Name: "马克杯", PointsCost: -10}); !errors.Is(err, ErrRewardInvalid) {
		t.Fatalf("expected invalid for negative cost, got: %v", err)
	}

	reward, err := svc.Create(RewardInput{Name: " 马克杯 ", PointsCost: 100})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if reward.Name != "马克杯" {
		t.Fatalf("name should be trimmed, got %q", reward.Name)
	}
	if !reward.IsActive {
		t.Fatalf("reward should default to active")
	}
}

func TestRewardServiceUpdateNotFound(t *testing.T) {
	svc, _ := setupRewardServiceTest(t)

	if _, err := svc.Update(99999, RewardInput{Name: "改名"}); !errors.Is(err, ErrRewardNotFound) {
		t.Fatalf("expected reward not found, got: %v", err)
	}
	if err := svc.Delete(99999); !errors.Is(err, ErrRewardNotFound) {
		t.Fatalf("expected reward not found on delete, got: %v", err)
	}
}
