package main

import (
	"github.com/loyalty-next/internal/authz"
	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"
	"github.com/loyalty-next/internal/service"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认管理员
	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	// 预置角色与策略
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		stdLog.Fatalf("Failed to init authz service: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		stdLog.Printf("Failed to bootstrap builtin roles: %v", err)
	}

	// 初始汇率（每积分泰铢数）
	settingRepo := repository.NewSettingRepository(models.DB)
	if rate, err := settingRepo.GetActive(constants.ExchangeRateKeyBahtPerPoint); err != nil {
		stdLog.Printf("Failed to load exchange rate: %v", err)
	} else if rate == nil {
		value, err := models.NewMoneyFromString(cfg.Points.DefaultBahtPerPoint)
		if err != nil {
			value = models.NewMoneyFromFloat(10)
		}
		if _, err := settingRepo.Upsert(constants.ExchangeRateKeyBahtPerPoint, value, nil); err != nil {
			stdLog.Printf("Failed to seed exchange rate: %v", err)
		} else {
			stdLog.Printf("Seeded exchange rate: %s baht per point", value.String())
		}
	} else {
		stdLog.Printf("Exchange rate already configured: %s", rate.SettingValue.String())
	}

	// 示例奖品
	limitedStock := 50
	smallStock := 5
	rewards := []models.Reward{
		{
			Name:        "环保购物袋",
			Description: "可重复使用的帆布购物袋，积分兑换经典款。",
			PointsCost:  50,
			IsActive:    true,
		},
		{
			Name:        "咖啡兑换券",
			Description: "合作门店中杯美式或拿铁任选其一。",
			PointsCost:  120,
			StockQuantity: &limitedStock,
			IsActive:      true,
		},
		{
			Name:        "保温随行杯",
			Description: "500ml 不锈钢保温杯，限量兑换。",
			PointsCost:  300,
			StockQuantity: &smallStock,
			IsActive:      true,
		},
		{
			Name:        "下架测试奖品",
			Description: "仅用于后台展示，前台不可见。",
			PointsCost:  10,
			IsActive:    false,
		},
	}
	for _, reward := range rewards {
		var existing models.Reward
		if err := models.DB.Where("name = ?", reward.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&reward).Error; err != nil {
				stdLog.Printf("Failed to create reward %s: %v", reward.Name, err)
			} else {
				stdLog.Printf("Created reward: %s", reward.Name)
			}
		} else {
			stdLog.Printf("Reward already exists: %s", reward.Name)
		}
	}

	// 示例用户
	demoUsers := []struct {
		Email       string
		Password    string
		DisplayName string
		Status      string
		Bonus       int64
	}{
		{Email: "alice@example.com", Password: "Demo123456", DisplayName: "Alice", Status: constants.UserStatusActive, Bonus: 500},
		{Email: "bob@example.com", Password: "Demo123456", DisplayName: "Bob", Status: constants.UserStatusActive, Bonus: 80},
		{Email: "carol@example.com", Password: "Demo123456", DisplayName: "Carol", Status: constants.UserStatusDisabled},
	}

	userRepo := repository.NewUserRepository(models.DB)
	ledgerRepo := repository.NewLedgerRepository(models.DB)
	pointsService := service.NewPointsService(userRepo, ledgerRepo)

	for _, demo := range demoUsers {
		var existing models.User
		if err := models.DB.Where("email = ?", demo.Email).First(&existing).Error; err == nil {
			stdLog.Printf("User already exists: %s", demo.Email)
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(demo.Password), bcrypt.DefaultCost)
		if err != nil {
			stdLog.Printf("Failed to hash password for %s: %v", demo.Email, err)
			continue
		}
		user := models.User{
			Email:        demo.Email,
			PasswordHash: string(hash),
			DisplayName:  demo.DisplayName,
			Status:       demo.Status,
		}
		if err := models.DB.Create(&user).Error; err != nil {
			stdLog.Printf("Failed to create user %s: %v", demo.Email, err)
			continue
		}
		stdLog.Printf("Created user: %s", demo.Email)

		// 初始积分走奖励流水，保证余额与流水合计一致
		if demo.Bonus > 0 {
			if _, err := pointsService.GrantBonus(user.ID, demo.Bonus, 0, "seed bonus"); err != nil {
				stdLog.Printf("Failed to grant seed bonus to %s: %v", demo.Email, err)
			}
		}
	}

	stdLog.Printf("Seed completed")
}
