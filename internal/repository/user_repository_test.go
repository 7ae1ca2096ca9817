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

func setupUserRepoTest(t *testing.T) (*GormUserRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:user_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewUserRepository(db), db
}

func seedUser(t *testing.T, db *gorm.DB, id uint, balance int64) {
	t.Helper()
	user := models.User{
		ID:           id,
		Email:        fmt.Sprintf("repo_user_%d@example.com", id),
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
		PointBalance: balance,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
}

func TestCompareAndSetBalance(t *testing.T) {
	repo, db := setupUserRepoTest(t)
	seedUser(t, db, 601, 100)

	ok, err := repo.CompareAndSetBalance(601, 100, 150, 50)
	if err != nil {
		t.Fatalf("cas failed: %v", err)
	}
	if !ok {
		t.Fatalf("cas with matching old balance should win")
	}

	var user models.User
	if err := db.First(&user, 601).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if user.PointBalance != 150 {
		t.Fatalf("balance want 150 got %d", user.PointBalance)
	}
	if user.TotalPointsEarned != 50 {
		t.Fatalf("total_points_earned want 50 got %d", user.TotalPointsEarned)
	}

	// 旧值不匹配时写入失败
	ok, err = repo.CompareAndSetBalance(601, 100, 200, 0)
	if err != nil {
		t.Fatalf("cas failed: %v", err)
	}
	if ok {
		t.Fatalf("cas with stale old balance should lose")
	}

	// 扣减不累加累计获得
	ok, err = repo.CompareAndSetBalance(601, 150, 120, 0)
	if err != nil {
		t.Fatalf("cas failed: %v", err)
	}
	if !ok {
		t.Fatalf("second cas should win")
	}
	if err := db.First(&user, 601).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if user.PointBalance != 120 || user.TotalPointsEarned != 50 {
		t.Fatalf("unexpected user after debit: balance=%d earned=%d", user.PointBalance, user.TotalPointsEarned)
	}
}

func TestBatchUpdateStatusInvalidatesTokens(t *testing.T) {
	repo, db := setupUserRepoTest(t)
	seedUser(t, db, 602, 0)
	seedUser(t, db, 603, 0)

	before := time.Now()
	if err := repo.BatchUpdateStatus([]uint{602, 603}, constants.UserStatusDisabled); err != nil {
		t.Fatalf("batch disable failed: %v", err)
	}

	var users []models.User
	if err := db.Where("id IN ?", []uint{602, 603}).Find(&users).Error; err != nil {
		t.Fatalf("reload users failed: %v", err)
	}
	for _, user := range users {
		if user.Status != constants.UserStatusDisabled {
			t.Fatalf("user %d status want disabled got %s", user.ID, user.Status)
		}
		if user.TokenVersion != 1 {
			t.Fatalf("user %d token_version want 1 got %d", user.ID, user.TokenVersion)
		}
		if user.TokenInvalidBefore == nil || user.TokenInvalidBefore.Before(before.Add(-time.Second)) {
			t.Fatalf("user %d token_invalid_before not set: %v", user.ID, user.TokenInvalidBefore)
		}
	}

	// 重新启用不触发 Token 失效
	if err := repo.BatchUpdateStatus([]uint{602}, constants.UserStatusActive); err != nil {
		t.Fatalf("batch enable failed: %v", err)
	}
	var user models.User
	if err := db.First(&user, 602).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if user.Status != constants.UserStatusActive {
		t.Fatalf("status want active got %s", user.Status)
	}
	if user.TokenVersion != 1 {
		t.Fatalf("enable should not bump token_version, got %d", user.TokenVersion)
	}
}

func TestIncrementReceiptCount(t *testing.T) {
	repo, db := setupUserRepoTest(t)
	seedUser(t, db, 604, 0)

	if err := repo.IncrementReceiptCount(604); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := repo.IncrementReceiptCount(604); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	var user models.User
	if err := db.First(&user, 604).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if user.TotalReceipts != 2 {
		t.Fatalf("total_receipts want 2 got %d", user.TotalReceipts)
	}
}

func TestUserListFilter(t *testing.T) {
	repo, db := setupUserRepoTest(t)
	seedUser(t, db, 605, 0)
	seedUser(t, db, 606, 0)
	if err := repo.BatchUpdateStatus([]uint{606}, constants.UserStatusDisabled); err != nil {
		t.Fatalf("batch disable failed: %v", err)
	}

	users, total, err := repo.List(UserListFilter{Status: constants.UserStatusDisabled})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].ID != 606 {
		t.Fatalf("unexpected disabled list: total=%d users=%+v", total, users)
	}

	users, total, err = repo.List(UserListFilter{Keyword: "repo_user_605"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].ID != 605 {
		t.Fatalf("unexpected keyword list: total=%d users=%+v", total, users)
	}
}
