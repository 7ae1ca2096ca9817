package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPointsServiceTest(t *testing.T) (*PointsService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:points_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.PointLedgerEntry{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	return NewPointsService(userRepo, ledgerRepo), db
}

func createPointsTestUser(t *testing.T, db *gorm.DB, id uint) {
	t.Helper()
	user := models.User{
		ID:           id,
		Email:        fmt.Sprintf("points_user_%d@example.com", id),
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
}

func TestPointsServiceApplyCreditAndDebit(t *testing.T) {
	svc, db := setupPointsServiceTest(t)
	createPointsTestUser(t, db, 201)

	credit, err := svc.Apply(PointsChangeInput{
		UserID:        201,
		Delta:         100,
		Type:          constants.LedgerTypeEarned,
		ReferenceType: constants.LedgerReferenceReceipt,
		ReferenceID:   7,
	})
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if credit.BalanceAfter != 100 {
		t.Fatalf("balance_after want 100 got %d", credit.BalanceAfter)
	}

	debit, err := svc.Apply(PointsChangeInput{
		UserID:        201,
		Delta:         -30,
		Type:          constants.LedgerTypeSpent,
		ReferenceType: constants.LedgerReferenceRedemption,
		ReferenceID:   3,
	})
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if debit.BalanceAfter != 70 {
		t.Fatalf("balance_after want 70 got %d", debit.BalanceAfter)
	}

	balance, err := svc.GetBalance(201)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance != 70 {
		t.Fatalf("balance want 70 got %d", balance)
	}

	ok, bal, sum, err := svc.VerifyLedgerConsistency(201)
	if err != nil {
		t.Fatalf("verify consistency failed: %v", err)
	}
	if !ok || bal != sum {
		t.Fatalf("balance %d and ledger sum %d should match", bal, sum)
	}

	var user models.User
	if err := db.First(&user, 201).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if user.TotalPointsEarned != 100 {
		t.Fatalf("total_points_earned want 100 got %d", user.TotalPointsEarned)
	}
}

func TestPointsServiceApplyInsufficient(t *testing.T) {
	svc, db := setupPointsServiceTest(t)
	createPointsTestUser(t, db, 202)

	if _, err := svc.Apply(PointsChangeInput{
		UserID: 202,
		Delta:  50,
		Type:   constants.LedgerTypeEarned,
	}); err != nil {
		t.Fatalf("credit failed: %v", err)
	}

	_, err := svc.Apply(PointsChangeInput{
		UserID: 202,
		Delta:  -80,
		Type:   constants.LedgerTypeSpent,
	})
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected insufficient points, got: %v", err)
	}

	// 失败的扣减不产生流水
	var count int64
	if err := db.Model(&models.PointLedgerEntry{}).Where("user_id = ?", 202).Count(&count).Error; err != nil {
		t.Fatalf("count ledger failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("ledger count want 1 got %d", count)
	}
}

func TestPointsServiceApplyUnknownUser(t *testing.T) {
	svc, _ := setupPointsServiceTest(t)

	if _, err := svc.Apply(PointsChangeInput{UserID: 999, Delta: 10, Type: constants.LedgerTypeEarned}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user not found, got: %v", err)
	}
}

func TestPointsServiceGrantBonus(t *testing.T) {
	svc, db := setupPointsServiceTest(t)
	createPointsTestUser(t, db, 203)

	entry, err := svc.GrantBonus(203, 40, 1, "回馈活动")
	if err != nil {
		t.Fatalf("grant bonus failed: %v", err)
	}
	if entry.Type != constants.LedgerTypeBonus || entry.BalanceAfter != 40 {
		t.Fatalf("unexpected bonus entry: %+v", entry)
	}
	if entry.ReferenceType != constants.LedgerReferenceAdmin || entry.ReferenceID != 1 {
		t.Fatalf("bonus entry should reference the granting admin: %+v", entry)
	}

	if _, err := svc.GrantBonus(203, 0, 1, ""); !errors.Is(err, ErrBonusInvalid) {
		t.Fatalf("expected bonus invalid for zero points, got: %v", err)
	}
	if _, err := svc.GrantBonus(203, -5, 1, ""); !errors.Is(err, ErrBonusInvalid) {
		t.Fatalf("expected bonus invalid for negative points, got: %v", err)
	}
}

func TestPointsServiceFindEntryIdempotenceKey(t *testing.T) {
	svc, db := setupPointsServiceTest(t)
	createPointsTestUser(t, db, 204)

	if _, err := svc.Apply(PointsChangeInput{
		UserID:        204,
		Delta:         25,
		Type:          constants.LedgerTypeEarned,
		ReferenceType: constants.LedgerReferenceReceipt,
		ReferenceID:   12,
	}); err != nil {
		t.Fatalf("credit failed: %v", err)
	}

	entry, err := svc.FindEntry(204, constants.LedgerReferenceReceipt, 12, constants.LedgerTypeEarned)
	if err != nil {
		t.Fatalf("find entry failed: %v", err)
	}
	if entry == nil || entry.Points != 25 {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	missing, err := svc.FindEntry(204, constants.LedgerReferenceReceipt, 99, constants.LedgerTypeEarned)
	if err != nil {
		t.Fatalf("find missing entry failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown reference, got: %+v", missing)
	}
}

func TestPointsServiceExpireDuePoints(t *testing.T) {
	svc, db := setupPointsServiceTest(t)
	createPointsTestUser(t, db, 205)

	if _, err := svc.GrantBonus(205, 100, 1, "历史积分"); err != nil {
		t.Fatalf("grant bonus failed: %v", err)
	}
	// 把入账流水改到过期窗口之前
	old := time.Now().Add(-72 * time.Hour)
	if err := db.Model(&models.PointLedgerEntry{}).
		Where("user_id = ?", 205).
		Update("created_at", old).Error; err != nil {
		t.Fatalf("backdate ledger failed: %v", err)
	}

	expired, err := svc.ExpireDuePoints(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expired users want 1 got %d", expired)
	}

	balance, err := svc.GetBalance(205)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance != 0 {
		t.Fatalf("balance after expiry want 0 got %d", balance)
	}

	var entry models.PointLedgerEntry
	if err := db.Where("user_id = ? AND type = ?", 205, constants.LedgerTypeExpired).First(&entry).Error; err != nil {
		t.Fatalf("load expired entry failed: %v", err)
	}
	if entry.Points != -100 || entry.BalanceAfter != 0 {
		t.Fatalf("unexpected expired entry: %+v", entry)
	}
}

func TestPointsServiceExpireLeavesFreshPoints(t *testing.T) {
	svc, db := setupPointsServiceTest(t)
	createPointsTestUser(t, db, 207)

	if _, err := svc.GrantBonus(207, 100, 1, "历史积分"); err != nil {
		t.Fatalf("grant bonus failed: %v", err)
	}
	old := time.Now().Add(-72 * time.Hour)
	if err := db.Model(&models.PointLedgerEntry{}).
		Where("user_id = ?", 207).
		Update("created_at", old).Error; err != nil {
		t.Fatalf("backdate ledger failed: %v", err)
	}
	// 截止后又入账 50 且花掉 80，按先进先出旧积分已被抵扣 80，只剩 20 应过期
	if _, err := svc.GrantBonus(207, 50, 1, "新入账"); err != nil {
		t.Fatalf("grant fresh bonus failed: %v", err)
	}
	if _, err := svc.Apply(PointsChangeInput{
		UserID: 207,
		Delta:  -80,
		Type:   constants.LedgerTypeSpent,
	}); err != nil {
		t.Fatalf("debit failed: %v", err)
	}

	if _, err := svc.ExpireDuePoints(time.Now().Add(-24 * time.Hour)); err != nil {
		t.Fatalf("expire failed: %v", err)
	}

	balance, err := svc.GetBalance(207)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance != 50 {
		t.Fatalf("balance after expiry want 50 got %d", balance)
	}

	var entry models.PointLedgerEntry
	if err := db.Where("user_id = ? AND type = ?", 207, constants.LedgerTypeExpired).First(&entry).Error; err != nil {
		t.Fatalf("load expired entry failed: %v", err)
	}
	if entry.Points != -20 || entry.BalanceAfter != 50 {
		t.Fatalf("unexpected expired entry: %+v", entry)
	}
}

func TestPointsServiceExpireCappedByBalance(t *testing.T) {
	svc, db := setupPointsServiceTest(t)
	createPointsTestUser(t, db, 206)

	if _, err := svc.GrantBonus(206, 100, 1, "历史积分"); err != nil {
		t.Fatalf("grant bonus failed: %v", err)
	}
	old := time.Now().Add(-72 * time.Hour)
	if err := db.Model(&models.PointLedgerEntry{}).
		Where("user_id = ?", 206).
		Update("created_at", old).Error; err != nil {
		t.Fatalf("backdate ledger failed: %v", err)
	}
	// 其中 60 分已经被花掉，过期额度只剩余额的 40
	if _, err := svc.Apply(PointsChangeInput{
		UserID: 206,
		Delta:  -60,
		Type:   constants.LedgerTypeSpent,
	}); err != nil {
		t.Fatalf("debit failed: %v", err)
	}

	if _, err := svc.ExpireDuePoints(time.Now().Add(-24 * time.Hour)); err != nil {
		t.Fatalf("expire failed: %v", err)
	}

	balance, err := svc.GetBalance(206)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance != 0 {
		t.Fatalf("balance after capped expiry want 0 got %d", balance)
	}

	var entry models.PointLedgerEntry
	if err := db.Where("user_id = ? AND type = ?", 206, constants.LedgerTypeExpired).First(&entry).Error; err != nil {
		t.Fatalf("load expired entry failed: %v", err)
	}
	if entry.Points != -40 {
		t.Fatalf("expired points want -40 got %d", entry.Points)
	}
}
