package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/provider"
	"github.com/loyalty-next/internal/queue"
	"github.com/loyalty-next/internal/repository"
	"github.com/loyalty-next/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupConsumerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:consumer_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.ReceiptClaim{}, &models.PointLedgerEntry{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	container := &provider.Container{
		UserRepo:      userRepo,
		ReceiptRepo:   repository.NewReceiptRepository(db),
		LedgerRepo:    ledgerRepo,
		PointsService: service.NewPointsService(userRepo, ledgerRepo),
	}
	return NewConsumer(container), db
}

func makeTask(t *testing.T, taskType string, payload interface{}) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(taskType, data)
}

func TestHandlePointsExpire(t *testing.T) {
	consumer, db := setupConsumerTest(t)
	user := models.User{
		ID:           901,
		Email:        "expire_901@example.com",
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if _, err := consumer.PointsService.GrantBonus(901, 60, 1, "历史积分"); err != nil {
		t.Fatalf("grant bonus failed: %v", err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := db.Model(&models.PointLedgerEntry{}).
		Where("user_id = ?", 901).
		Update("created_at", old).Error; err != nil {
		t.Fatalf("backdate ledger failed: %v", err)
	}

	task := makeTask(t, queue.TaskPointsExpire, queue.PointsExpirePayload{
		Before: time.Now().Add(-24 * time.Hour),
	})
	if err := consumer.handlePointsExpire(context.Background(), task); err != nil {
		t.Fatalf("handle points expire failed: %v", err)
	}

	balance, err := consumer.PointsService.GetBalance(901)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance != 0 {
		t.Fatalf("balance after expiry want 0 got %d", balance)
	}
}

func TestHandlePointsExpireInvalidPayload(t *testing.T) {
	consumer, _ := setupConsumerTest(t)

	// 零值截止时间不执行清理
	task := makeTask(t, queue.TaskPointsExpire, queue.PointsExpirePayload{})
	if err := consumer.handlePointsExpire(context.Background(), task); err != nil {
		t.Fatalf("zero before should be skipped, got: %v", err)
	}

	// 坏载荷返回错误交给队列重试
	broken := asynq.NewTask(queue.TaskPointsExpire, []byte("{not-json"))
	if err := consumer.handlePointsExpire(context.Background(), broken); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

func TestHandleApprovalNotice(t *testing.T) {
	consumer, db := setupConsumerTest(t)
	user := models.User{
		ID:           902,
		Email:        "notice_902@example.com",
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	claim := models.ReceiptClaim{
		UserID:          902,
		Status:          constants.ReceiptStatusApproved,
		RecognizedTotal: models.NewMoneyFromFloat(100),
		RecognizedDate:  "2026-08-20",
	}
	if err := db.Create(&claim).Error; err != nil {
		t.Fatalf("create claim failed: %v", err)
	}

	task := makeTask(t, queue.TaskApprovalNotice, queue.ApprovalNoticePayload{
		ClaimID: claim.ID,
		UserID:  902,
		Points:  10,
	})
	if err := consumer.handleApprovalNotice(context.Background(), task); err != nil {
		t.Fatalf("handle approval notice failed: %v", err)
	}

	// 审核单或用户不存在时任务静默完成，不进重试
	missing := makeTask(t, queue.TaskApprovalNotice, queue.ApprovalNoticePayload{
		ClaimID: 99999,
		UserID:  902,
		Points:  10,
	})
	if err := consumer.handleApprovalNotice(context.Background(), missing); err != nil {
		t.Fatalf("missing claim should be skipped, got: %v", err)
	}

	invalid := makeTask(t, queue.TaskApprovalNotice, queue.ApprovalNoticePayload{})
	if err := consumer.handleApprovalNotice(context.Background(), invalid); err != nil {
		t.Fatalf("empty payload should be skipped, got: %v", err)
	}
}

func TestConsumerRegister(t *testing.T) {
	consumer, _ := setupConsumerTest(t)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	var nilConsumer *Consumer
	nilConsumer.Register(mux)
	consumer.Register(nil)
}
