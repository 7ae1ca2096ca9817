package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/queue"
	"github.com/loyalty-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupApprovalServiceTest(t *testing.T) (*ApprovalService, *PointsService, *RateService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:approval_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.ReceiptClaim{},
		&models.PointLedgerEntry{},
		&models.ExchangeRateSetting{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	pointsSvc := NewPointsService(repository.NewUserRepository(db), repository.NewLedgerRepository(db))
	rateSvc := NewRateService(repository.NewSettingRepository(db), models.NewMoneyFromFloat(10), time.Minute)
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("queue client failed: %v", err)
	}
	approvalSvc := NewApprovalService(repository.NewReceiptRepository(db), pointsSvc, rateSvc, queueClient)
	return approvalSvc, pointsSvc, rateSvc, db
}

func createApprovalTestUser(t *testing.T, db *gorm.DB, id uint) {
	t.Helper()
	user := models.User{
		ID:           id,
		Email:        fmt.Sprintf("approval_user_%d@example.com", id),
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
}

func createPendingClaim(t *testing.T, db *gorm.DB, userID uint, totalBaht float64) *models.ReceiptClaim {
	t.Helper()
	claim := models.ReceiptClaim{
		UserID:          userID,
		Status:          constants.ReceiptStatusPending,
		StoreMatch:      true,
		RecognizedTotal: models.NewMoneyFromFloat(totalBaht),
		RecognizedDate:  "2026-08-20",
		Confidence:      0.95,
	}
	if err := db.Create(&claim).Error; err != nil {
		t.Fatalf("create claim failed: %v", err)
	}
	return &claim
}

func TestApprovalServiceApproveMintsOnce(t *testing.T) {
	svc, pointsSvc, _, db := setupApprovalServiceTest(t)
	createApprovalTestUser(t, db, 401)
	claim := createPendingClaim(t, db, 401, 259)

	approved, err := svc.Approve(claim.ID, 1, "小票清晰")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != constants.ReceiptStatusApproved {
		t.Fatalf("status want approved got %s", approved.Status)
	}
	// 259 铢，每积分 10 铢，向下取整 25 分
	if approved.PointsAwarded != 25 {
		t.Fatalf("points_awarded want 25 got %d", approved.PointsAwarded)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != 1 {
		t.Fatalf("approved_by should record the admin: %+v", approved)
	}

	balance, err := pointsSvc.GetBalance(401)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance != 25 {
		t.Fatalf("balance want 25 got %d", balance)
	}

	// 重复审批是幂等操作，不再发分
	again, err := svc.Approve(claim.ID, 2, "重复点击")
	if err != nil {
		t.Fatalf("idempotent approve failed: %v", err)
	}
	if again.PointsAwarded != 25 {
		t.Fatalf("points_awarded should stay 25, got %d", again.PointsAwarded)
	}
	balance, err = pointsSvc.GetBalance(401)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance != 25 {
		t.Fatalf("balance should stay 25, got %d", balance)
	}

	var count int64
	if err := db.Model(&models.PointLedgerEntry{}).Where("user_id = ?", 401).Count(&count).Error; err != nil {
		t.Fatalf("count ledger failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("ledger entries want 1 got %d", count)
	}
}

func TestApprovalServiceApproveUsesRateAtApprovalTime(t *testing.T) {
	svc, pointsSvc, rateSvc, db := setupApprovalServiceTest(t)
	createApprovalTestUser(t, db, 402)
	first := createPendingClaim(t, db, 402, 200)
	second := createPendingClaim(t, db, 402, 200)

	if _, err := svc.Approve(first.ID, 1, ""); err != nil {
		t.Fatalf("approve first failed: %v", err)
	}

	// 改汇率后审批的单子按新汇率计算，已发放的不追溯
	if _, err := rateSvc.UpdateRate(models.NewMoneyFromFloat(5), 1); err != nil {
		t.Fatalf("update rate failed: %v", err)
	}
	approved, err := svc.Approve(second.ID, 1, "")
	if err != nil {
		t.Fatalf("approve second failed: %v", err)
	}
	if approved.PointsAwarded != 40 {
		t.Fatalf("points at new rate want 40 got %d", approved.PointsAwarded)
	}

	balance, err := pointsSvc.GetBalance(402)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance != 60 {
		t.Fatalf("balance want 60 got %d", balance)
	}
}

func TestApprovalServiceRejectRequiresNotes(t *testing.T) {
	svc, _, _, db := setupApprovalServiceTest(t)
	createApprovalTestUser(t, db, 403)
	claim := createPendingClaim(t, db, 403, 50)

	if _, err := svc.Reject(claim.ID, 1, "   "); !errors.Is(err, ErrRejectNotesRequired) {
		t.Fatalf("expected reject notes required, got: %v", err)
	}

	rejected, err := svc.Reject(claim.ID, 1, "图片模糊无法识别")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != constants.ReceiptStatusRejected {
		t.Fatalf("status want rejected got %s", rejected.Status)
	}
	if rejected.AdminNotes != "图片模糊无法识别" {
		t.Fatalf("admin notes not persisted: %+v", rejected)
	}

	// 已驳回的单不允许再驳回
	if _, err := svc.Reject(claim.ID, 2, "再次驳回"); !errors.Is(err, ErrClaimAlreadyReviewed) {
		t.Fatalf("expected reject conflict on rejected claim, got: %v", err)
	}
}

func TestApprovalServiceTerminalStateConflicts(t *testing.T) {
	svc, _, _, db := setupApprovalServiceTest(t)
	createApprovalTestUser(t, db, 404)

	approvedClaim := createPendingClaim(t, db, 404, 100)
	if _, err := svc.Approve(approvedClaim.ID, 1, ""); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if _, err := svc.Reject(approvedClaim.ID, 1, "想反悔"); !errors.Is(err, ErrClaimAlreadyReviewed) {
		t.Fatalf("expected already reviewed on reject-after-approve, got: %v", err)
	}

	rejectedClaim := createPendingClaim(t, db, 404, 100)
	if _, err := svc.Reject(rejectedClaim.ID, 1, "单据无效"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if _, err := svc.Approve(rejectedClaim.ID, 1, ""); !errors.Is(err, ErrClaimAlreadyReviewed) {
		t.Fatalf("expected already reviewed on approve-after-reject, got: %v", err)
	}

	if _, err := svc.Approve(99999, 1, ""); !errors.Is(err, ErrClaimNotFound) {
		t.Fatalf("expected claim not found, got: %v", err)
	}
}

func TestApprovalServiceApproveMintFailureReverts(t *testing.T) {
	svc, _, _, db := setupApprovalServiceTest(t)
	// 用户不存在时发分失败，审核单要退回待审核
	claim := createPendingClaim(t, db, 405, 100)

	if _, err := svc.Approve(claim.ID, 1, ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user not found from mint, got: %v", err)
	}

	var reloaded models.ReceiptClaim
	if err := db.First(&reloaded, claim.ID).Error; err != nil {
		t.Fatalf("reload claim failed: %v", err)
	}
	if reloaded.Status != constants.ReceiptStatusPending {
		t.Fatalf("claim should be reverted to pending, got %s", reloaded.Status)
	}
	if reloaded.PointsAwarded != 0 || reloaded.ApprovedBy != nil {
		t.Fatalf("approval fields should be cleared: %+v", reloaded)
	}
}
