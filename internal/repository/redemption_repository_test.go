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

func setupRedemptionRepoTest(t *testing.T) (*GormRedemptionRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:redemption_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Reward{}, &models.Redemption{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewRedemptionRepository(db), db
}

func seedRedemption(t *testing.T, db *gorm.DB, userID, rewardID uint, quantity int, status string) *models.Redemption {
	t.Helper()
	redemption := models.Redemption{
		UserID:     userID,
		RewardID:   rewardID,
		Quantity:   quantity,
		PointsUsed: int64(quantity) * 100,
		Status:     status,
	}
	if err := db.Create(&redemption).Error; err != nil {
		t.Fatalf("create redemption failed: %v", err)
	}
	return &redemption
}

func TestSumActiveQuantityByReward(t *testing.T) {
	repo, db := setupRedemptionRepoTest(t)
	seedRedemption(t, db, 801, 1, 2, constants.RedemptionStatusRequested)
	seedRedemption(t, db, 802, 1, 3, constants.RedemptionStatusShipped)
	seedRedemption(t, db, 803, 1, 5, constants.RedemptionStatusCancelled)
	seedRedemption(t, db, 801, 2, 7, constants.RedemptionStatusRequested)

	sum, err := repo.SumActiveQuantityByReward(1)
	if err != nil {
		t.Fatalf("sum failed: %v", err)
	}
	// 已取消的 5 件不占库存，奖品 2 的单不计入
	if sum != 5 {
		t.Fatalf("active quantity want 5 got %d", sum)
	}

	empty, err := repo.SumActiveQuantityByReward(99)
	if err != nil {
		t.Fatalf("sum failed: %v", err)
	}
	if empty != 0 {
		t.Fatalf("no redemptions should sum to 0, got %d", empty)
	}
}

func TestMarkCancelledRequireStatuses(t *testing.T) {
	repo, db := setupRedemptionRepoTest(t)
	requested := seedRedemption(t, db, 804, 1, 1, constants.RedemptionStatusRequested)
	processing := seedRedemption(t, db, 804, 1, 1, constants.RedemptionStatusProcessing)

	// 来源状态不含 processing 时取消失败
	moved, err := repo.MarkCancelled(processing.ID, "", []string{constants.RedemptionStatusRequested})
	if err != nil {
		t.Fatalf("mark cancelled failed: %v", err)
	}
	if moved {
		t.Fatalf("processing should not cancel with requested-only statuses")
	}

	moved, err = repo.MarkCancelled(processing.ID, "管理员取消", []string{
		constants.RedemptionStatusRequested,
		constants.RedemptionStatusProcessing,
	})
	if err != nil {
		t.Fatalf("mark cancelled failed: %v", err)
	}
	if !moved {
		t.Fatalf("processing should cancel when allowed")
	}

	reloaded, err := repo.GetByID(processing.ID)
	if err != nil {
		t.Fatalf("get redemption failed: %v", err)
	}
	if reloaded.Status != constants.RedemptionStatusCancelled || reloaded.CancelledAt == nil {
		t.Fatalf("unexpected cancelled redemption: %+v", reloaded)
	}
	if reloaded.AdminNotes != "管理员取消" {
		t.Fatalf("admin notes not persisted: %+v", reloaded)
	}

	// 空来源列表直接判负
	moved, err = repo.MarkCancelled(requested.ID, "", nil)
	if err != nil {
		t.Fatalf("mark cancelled failed: %v", err)
	}
	if moved {
		t.Fatalf("empty require statuses should not cancel")
	}
}

func TestFulfillmentStatusGuards(t *testing.T) {
	repo, db := setupRedemptionRepoTest(t)
	redemption := seedRedemption(t, db, 805, 1, 1, constants.RedemptionStatusRequested)

	moved, err := repo.MarkProcessing(redemption.ID)
	if err != nil {
		t.Fatalf("mark processing failed: %v", err)
	}
	if !moved {
		t.Fatalf("requested should move to processing")
	}

	// 已处理中的单重复迁移失败
	moved, err = repo.MarkProcessing(redemption.ID)
	if err != nil {
		t.Fatalf("mark processing failed: %v", err)
	}
	if moved {
		t.Fatalf("processing should not move to processing again")
	}

	moved, err = repo.MarkShipped(redemption.ID, "顺丰 SF123")
	if err != nil {
		t.Fatalf("mark shipped failed: %v", err)
	}
	if !moved {
		t.Fatalf("processing should move to shipped")
	}

	// 发货后既不能再发货也不能取消
	moved, err = repo.MarkShipped(redemption.ID, "")
	if err != nil {
		t.Fatalf("mark shipped failed: %v", err)
	}
	if moved {
		t.Fatalf("shipped should not ship again")
	}
	moved, err = repo.MarkCancelled(redemption.ID, "", []string{
		constants.RedemptionStatusRequested,
		constants.RedemptionStatusProcessing,
	})
	if err != nil {
		t.Fatalf("mark cancelled failed: %v", err)
	}
	if moved {
		t.Fatalf("shipped should not cancel")
	}

	reloaded, err := repo.GetByID(redemption.ID)
	if err != nil {
		t.Fatalf("get redemption failed: %v", err)
	}
	if reloaded.Status != constants.RedemptionStatusShipped || reloaded.ShippedAt == nil {
		t.Fatalf("unexpected shipped redemption: %+v", reloaded)
	}
}

func TestRedemptionSoftDelete(t *testing.T) {
	repo, db := setupRedemptionRepoTest(t)
	redemption := seedRedemption(t, db, 806, 1, 2, constants.RedemptionStatusRequested)

	if err := repo.Delete(redemption.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	got, err := repo.GetByID(redemption.ID)
	if err != nil {
		t.Fatalf("get redemption failed: %v", err)
	}
	if got != nil {
		t.Fatalf("deleted redemption should not load: %+v", got)
	}

	// 软删除的单也不再占库存
	sum, err := repo.SumActiveQuantityByReward(1)
	if err != nil {
		t.Fatalf("sum failed: %v", err)
	}
	if sum != 0 {
		t.Fatalf("deleted redemption should free stock, sum = %d", sum)
	}

	// 记录仍在表里可供对账
	var raw models.Redemption
	if err := db.Unscoped().First(&raw, redemption.ID).Error; err != nil {
		t.Fatalf("unscoped load failed: %v", err)
	}
	if !raw.DeletedAt.Valid {
		t.Fatalf("deleted_at should be set: %+v", raw.DeletedAt)
	}
}
