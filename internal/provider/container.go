package provider

import (
	"time"

	"github.com/loyalty-next/internal/authz"
	"github.com/loyalty-next/internal/cache"
	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/queue"
	"github.com/loyalty-next/internal/recognition"
	"github.com/loyalty-next/internal/repository"
	"github.com/loyalty-next/internal/service"
	"github.com/loyalty-next/internal/storage"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo        repository.AdminRepository
	UserRepo         repository.UserRepository
	ReceiptRepo      repository.ReceiptRepository
	ReceiptImageRepo repository.ReceiptImageRepository
	LedgerRepo       repository.LedgerRepository
	RewardRepo       repository.RewardRepository
	RedemptionRepo   repository.RedemptionRepository
	SettingRepo      repository.SettingRepository

	// Services
	AuthzService      *authz.Service
	AuthService       *service.AuthService
	UserAuthService   *service.UserAuthService
	CaptchaService    *service.CaptchaService
	RateService       *service.RateService
	PointsService     *service.PointsService
	ReceiptService    *service.ReceiptService
	ApprovalService   *service.ApprovalService
	RewardService     *service.RewardService
	RedemptionService *service.RedemptionService

	// 外部依赖
	Recognizer recognition.Client
	Storage    storage.ObjectStorage
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端（未启用时返回空实现）
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化外部依赖与 Services
	c.initExternal()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.ReceiptRepo = repository.NewReceiptRepository(db)
	c.ReceiptImageRepo = repository.NewReceiptImageRepository(db)
	c.LedgerRepo = repository.NewLedgerRepository(db)
	c.RewardRepo = repository.NewRewardRepository(db)
	c.RedemptionRepo = repository.NewRedemptionRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
}

func (c *Container) initExternal() {
	c.Storage = storage.NewLocalStorage(c.Config.Upload.Dir)

	if c.Config.Recognition.Provider == "http" {
		client, err := recognition.NewHTTPClient(&c.Config.Recognition)
		if err != nil {
			logger.Errorw("provider_init_recognition_failed", "error", err)
			panic(err)
		}
		c.Recognizer = client
		return
	}
	logger.Warnw("provider_recognition_stub_enabled", "provider", c.Config.Recognition.Provider)
	c.Recognizer = recognition.NewStubClient()
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	defaultRate, err := models.NewMoneyFromString(c.Config.Points.DefaultBahtPerPoint)
	if err != nil {
		logger.Warnw("provider_default_rate_invalid", "value", c.Config.Points.DefaultBahtPerPoint, "error", err)
		defaultRate = models.NewMoneyFromFloat(10)
	}

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.RateService = service.NewRateService(
		c.SettingRepo,
		defaultRate,
		time.Duration(c.Config.Points.RateCacheTTLSeconds)*time.Second,
	)
	c.PointsService = service.NewPointsService(c.UserRepo, c.LedgerRepo)
	c.ReceiptService = service.NewReceiptService(
		c.ReceiptRepo,
		c.ReceiptImageRepo,
		c.UserRepo,
		c.Recognizer,
		c.Storage,
		c.Config.Upload,
	)
	c.ApprovalService = service.NewApprovalService(c.ReceiptRepo, c.PointsService, c.RateService, c.QueueClient)
	c.RewardService = service.NewRewardService(c.RewardRepo, c.RedemptionRepo)
	c.RedemptionService = service.NewRedemptionService(c.RedemptionRepo, c.RewardRepo, c.PointsService)
}
