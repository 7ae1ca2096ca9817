package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/loyalty-next/internal/authz"
	"github.com/loyalty-next/internal/cache"
	"github.com/loyalty-next/internal/config"
	adminhandlers "github.com/loyalty-next/internal/http/handlers/admin"
	publichandlers "github.com/loyalty-next/internal/http/handlers/public"
	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "loyalty"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_rate_limited",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_rate_limited",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 静态文件服务（小票图片）
	uploadDir := strings.TrimSpace(cfg.Upload.Dir)
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	r.Static("/uploads", uploadDir)

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/rewards", publicHandler.ListRewards)
			public.GET("/rewards/:id", publicHandler.GetReward)
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
			public.GET("/captcha/scenes", publicHandler.GetCaptchaScenes)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.PUT("/me/profile", publicHandler.UpdateUserProfile)
			user.PUT("/me/password", publicHandler.ChangeUserPassword)
			user.POST("/receipts", publicHandler.SubmitReceipt)
			user.GET("/receipts", publicHandler.ListMyReceipts)
			user.GET("/receipts/:id", publicHandler.GetMyReceipt)
			user.GET("/points/balance", publicHandler.GetMyBalance)
			user.GET("/points/ledger", publicHandler.ListMyLedger)
			user.POST("/redemptions", publicHandler.CreateRedemption)
			user.GET("/redemptions", publicHandler.ListMyRedemptions)
			user.GET("/redemptions/:id", publicHandler.GetMyRedemption)
			user.POST("/redemptions/:id/cancel", publicHandler.CancelMyRedemption)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/me", adminHandler.GetCurrentAdmin)
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// 小票审核
				authorized.GET("/receipts", adminHandler.AdminListReceipts)
				authorized.GET("/receipts/:id", adminHandler.AdminGetReceipt)
				authorized.POST("/receipts/:id/approve", adminHandler.AdminApproveReceipt)
				authorized.POST("/receipts/:id/reject", adminHandler.AdminRejectReceipt)

				// 兑换处理
				authorized.GET("/redemptions", adminHandler.AdminListRedemptions)
				authorized.GET("/redemptions/:id", adminHandler.AdminGetRedemption)
				authorized.POST("/redemptions/:id/processing", adminHandler.AdminMarkRedemptionProcessing)
				authorized.POST("/redemptions/:id/ship", adminHandler.AdminShipRedemption)
				authorized.POST("/redemptions/:id/cancel", adminHandler.AdminCancelRedemption)

				// 奖品管理
				authorized.GET("/rewards", adminHandler.AdminListRewards)
				authorized.GET("/rewards/:id", adminHandler.AdminGetReward)
				authorized.POST("/rewards", adminHandler.AdminCreateReward)
				authorized.PUT("/rewards/:id", adminHandler.AdminUpdateReward)
				authorized.DELETE("/rewards/:id", adminHandler.AdminDeleteReward)

				// 汇率设置
				authorized.GET("/settings/exchange-rate", adminHandler.AdminGetExchangeRate)
				authorized.PUT("/settings/exchange-rate", adminHandler.AdminUpdateExchangeRate)
				authorized.GET("/settings/exchange-rate/history", adminHandler.AdminGetExchangeRateHistory)

				// 用户管理
				authorized.GET("/users", adminHandler.AdminListUsers)
				authorized.PUT("/users/batch-status", adminHandler.AdminUpdateUserStatus)
				authorized.GET("/users/:id", adminHandler.AdminGetUser)
				authorized.POST("/users/:id/bonus", adminHandler.AdminGrantBonus)
				authorized.GET("/users/:id/ledger", adminHandler.AdminListUserLedger)

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.POST("/authz/admins", adminHandler.CreateAuthzAdmin)
				authorized.DELETE("/authz/admins/:id", adminHandler.DeleteAuthzAdmin)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
