package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupReceiptRepoTest(t *testing.T) (*GormReceiptRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:receipt_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.ReceiptClaim{}, &models.ReceiptImage{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewReceiptRepository(db), db
}

func seedClaim(t *testing.T, db *gorm.DB, userID uint, date string, total float64) *models.ReceiptClaim {
	t.Helper()
	claim := models.ReceiptClaim{
		UserID:          userID,
		Status:          constants.ReceiptStatusPending,
		StoreMatch:      true,
		RecognizedTotal: models.NewMoneyFromFloat(total),
		RecognizedDate:  date,
		Confidence:      0.9,
	}
	if err := db.Create(&claim).Error; err != nil {
		t.Fatalf("create claim failed: %v", err)
	}
	return &claim
}

func TestMarkApprovedSingleWinner(t *testing.T) {
	repo, db := setupReceiptRepoTest(t)
	claim := seedClaim(t, db, 701, "2026-08-20", 100)

	moved, err := repo.MarkApproved(claim.ID, 1, 10, "ok")
	if err != nil {
		t.Fatalf("mark approved failed: %v", err)
	}
	if !moved {
		t.Fatalf("first approval should win")
	}

	// 第二个写入者迁移失败
	moved, err = repo.MarkApproved(claim.ID, 2, 10, "")
	if err != nil {
		t.Fatalf("mark approved failed: %v", err)
	}
	if moved {
		t.Fatalf("second approval should lose")
	}

	// 终态也挡住驳回
	moved, err = repo.MarkRejected(claim.ID, 2, "想驳回")
	if err != nil {
		t.Fatalf("mark rejected failed: %v", err)
	}
	if moved {
		t.Fatalf("reject on approved claim should lose")
	}

	reloaded, err := repo.GetByID(claim.ID)
	if err != nil {
		t.Fatalf("get claim failed: %v", err)
	}
	if reloaded.Status != constants.ReceiptStatusApproved || reloaded.PointsAwarded != 10 {
		t.Fatalf("unexpected claim: %+v", reloaded)
	}
	if reloaded.ApprovedBy == nil || *reloaded.ApprovedBy != 1 {
		t.Fatalf("approved_by should be the winner: %+v", reloaded.ApprovedBy)
	}
}

func TestRevertApprovalOnlyFromApproved(t *testing.T) {
	repo, db := setupReceiptRepoTest(t)
	claim := seedClaim(t, db, 702, "2026-08-20", 100)

	// 待审核的单退不回去
	reverted, err := repo.RevertApproval(claim.ID)
	if err != nil {
		t.Fatalf("revert failed: %v", err)
	}
	if reverted {
		t.Fatalf("pending claim should not revert")
	}

	if _, err := repo.MarkApproved(claim.ID, 1, 10, ""); err != nil {
		t.Fatalf("mark approved failed: %v", err)
	}
	reverted, err = repo.RevertApproval(claim.ID)
	if err != nil {
		t.Fatalf("revert failed: %v", err)
	}
	if !reverted {
		t.Fatalf("approved claim should revert")
	}

	reloaded, err := repo.GetByID(claim.ID)
	if err != nil {
		t.Fatalf("get claim failed: %v", err)
	}
	if reloaded.Status != constants.ReceiptStatusPending {
		t.Fatalf("status want pending got %s", reloaded.Status)
	}
	if reloaded.PointsAwarded != 0 || reloaded.ApprovedBy != nil || reloaded.ApprovedAt != nil {
		t.Fatalf("approval fields should be cleared: %+v", reloaded)
	}
}

func TestFindSemanticDuplicateMatching(t *testing.T) {
	repo, db := setupReceiptRepoTest(t)
	claim := seedClaim(t, db, 703, "2026-08-21", 88.5)

	found, err := repo.FindSemanticDuplicate(703, "2026-08-21", models.NewMoneyFromFloat(88.5), true, 0)
	if err != nil {
		t.Fatalf("find duplicate failed: %v", err)
	}
	if found == nil || found.ID != claim.ID {
		t.Fatalf("same user/date/total should match: %+v", found)
	}

	// 不同用户、不同日期、不同金额都不算重复
	if found, _ := repo.FindSemanticDuplicate(704, "2026-08-21", models.NewMoneyFromFloat(88.5), true, 0); found != nil {
		t.Fatalf("other user should not match: %+v", found)
	}
	if found, _ := repo.FindSemanticDuplicate(703, "2026-08-22", models.NewMoneyFromFloat(88.5), true, 0); found != nil {
		t.Fatalf("other date should not match: %+v", found)
	}
	if found, _ := repo.FindSemanticDuplicate(703, "2026-08-21", models.NewMoneyFromFloat(99), true, 0); found != nil {
		t.Fatalf("other total should not match: %+v", found)
	}

	// 排除自身，重新识别时不和自己撞车
	if found, _ := repo.FindSemanticDuplicate(703, "2026-08-21", models.NewMoneyFromFloat(88.5), true, claim.ID); found != nil {
		t.Fatalf("excluded id should not match: %+v", found)
	}
}

func TestFindSemanticDuplicateIgnoresRejected(t *testing.T) {
	repo, db := setupReceiptRepoTest(t)
	claim := seedClaim(t, db, 705, "2026-08-23", 50)

	if _, err := repo.MarkRejected(claim.ID, 1, "模糊"); err != nil {
		t.Fatalf("mark rejected failed: %v", err)
	}

	// 被驳回的单不挡重新提交
	found, err := repo.FindSemanticDuplicate(705, "2026-08-23", models.NewMoneyFromFloat(50), true, 0)
	if err != nil {
		t.Fatalf("find duplicate failed: %v", err)
	}
	if found != nil {
		t.Fatalf("rejected claim should not count as duplicate: %+v", found)
	}
}

func TestReceiptListFilterByStatus(t *testing.T) {
	repo, db := setupReceiptRepoTest(t)
	seedClaim(t, db, 706, "2026-08-24", 10)
	approved := seedClaim(t, db, 706, "2026-08-24", 20)
	if _, err := repo.MarkApproved(approved.ID, 1, 2, ""); err != nil {
		t.Fatalf("mark approved failed: %v", err)
	}

	claims, total, err := repo.List(ReceiptListFilter{UserID: 706, Status: constants.ReceiptStatusApproved})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(claims) != 1 || claims[0].ID != approved.ID {
		t.Fatalf("unexpected approved list: total=%d claims=%+v", total, claims)
	}

	pending, err := repo.CountPendingByUser(706)
	if err != nil {
		t.Fatalf("count pending failed: %v", err)
	}
	if pending != 1 {
		t.Fatalf("pending count want 1 got %d", pending)
	}
}
