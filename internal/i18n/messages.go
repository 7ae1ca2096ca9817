package i18n

// catalog 文案表，按语言分组
var catalog = map[string]map[string]string{
	LocaleEN: {
		"success": "success",

		"error.invalid_params":      "invalid request parameters",
		"error.unauthorized":        "unauthorized",
		"error.forbidden":           "permission denied",
		"error.not_found":           "resource not found",
		"error.internal":            "internal server error",
		"error.rate_limited":        "too many requests, please retry later",
		"error.login_rate_limited":  "too many login attempts, please retry in %d seconds",
		"error.rate_limit_unavailable": "rate limiter is unavailable, please retry",
		"error.jwt_secret_missing":  "jwt secret not configured",
		"error.token_invalid":       "invalid or expired token",
		"error.token_revoked":       "token has been revoked",
		"error.auth_header_missing": "authorization header missing",
		"error.auth_header_invalid": "authorization header malformed",

		"error.login_failed":          "incorrect account or password",
		"error.account_disabled":      "account is disabled",
		"error.email_exists":          "email is already registered",
		"error.captcha_required":      "captcha is required",
		"error.captcha_invalid":       "captcha verification failed",
		"error.password_min_length":     "password must be at least %d characters",
		"error.password_require_upper":  "password must contain an uppercase letter",
		"error.password_require_lower":  "password must contain a lowercase letter",
		"error.password_require_number": "password must contain a digit",
		"error.user_not_found":        "user not found",
		"error.balance_out_of_sync":   "point balance is being updated, please retry",

		"error.receipt_not_found":          "receipt claim not found",
		"error.receipt_duplicate_content":  "this receipt image has already been submitted",
		"error.receipt_duplicate_semantic": "a receipt with the same date and amount already exists",
		"error.receipt_already_reviewed":   "receipt claim has already been reviewed",
		"error.receipt_notes_required":     "rejection notes are required",
		"error.receipt_recognition_failed": "receipt recognition failed, please retry",
		"error.receipt_upload_failed":      "receipt image upload failed",
		"error.upload_too_large":           "file exceeds the allowed size",
		"error.upload_type_invalid":        "file type is not allowed",

		"error.rate_not_configured": "exchange rate is not configured",
		"error.rate_invalid":        "exchange rate must be a positive amount",

		"error.insufficient_points":       "insufficient point balance",
		"error.reward_not_found":          "reward not found",
		"error.reward_inactive":           "reward is not available",
		"error.reward_out_of_stock":       "reward is out of stock",
		"error.redemption_not_found":      "redemption not found",
		"error.redemption_state_invalid":  "redemption is not in a cancellable state",
		"error.redemption_quantity_limit": "redemption quantity is invalid",

		"error.password_weak":        "password does not meet the security requirements",
		"error.password_old_invalid": "current password is incorrect",
		"error.save_failed":          "failed to save, please retry",
		"error.fetch_failed":         "failed to load data, please retry",
		"error.captcha_unavailable":  "captcha service is unavailable",
		"error.bonus_invalid":        "bonus points must be positive",
		"error.admin_not_found":      "administrator not found",
		"error.role_invalid":         "role name or policy is invalid",
	},
	LocaleZH: {
		"success": "成功",

		"error.invalid_params":      "请求参数不合法",
		"error.unauthorized":        "未登录或登录已过期",
		"error.forbidden":           "没有操作权限",
		"error.not_found":           "资源不存在",
		"error.internal":            "服务器内部错误",
		"error.rate_limited":        "请求过于频繁，请稍后重试",
		"error.login_rate_limited":  "登录尝试过于频繁，请 %d 秒后重试",
		"error.rate_limit_unavailable": "限流服务不可用，请重试",
		"error.jwt_secret_missing":  "JWT 密钥未配置",
		"error.token_invalid":       "令牌无效或已过期",
		"error.token_revoked":       "令牌已失效",
		"error.auth_header_missing": "缺少认证头",
		"error.auth_header_invalid": "认证头格式错误",

		"error.login_failed":          "账号或密码错误",
		"error.account_disabled":      "账号已被禁用",
		"error.email_exists":          "邮箱已被注册",
		"error.captcha_required":      "请输入验证码",
		"error.captcha_invalid":       "验证码校验失败",
		"error.password_min_length":     "密码长度不能少于 %d 位",
		"error.password_require_upper":  "密码需要包含大写字母",
		"error.password_require_lower":  "密码需要包含小写字母",
		"error.password_require_number": "密码需要包含数字",
		"error.user_not_found":        "用户不存在",
		"error.balance_out_of_sync":   "积分余额更新中，请重试",

		"error.receipt_not_found":          "小票记录不存在",
		"error.receipt_duplicate_content":  "该小票图片已提交过",
		"error.receipt_duplicate_semantic": "已存在相同日期和金额的小票",
		"error.receipt_already_reviewed":   "该小票已完成审核",
		"error.receipt_notes_required":     "驳回时必须填写原因",
		"error.receipt_recognition_failed": "小票识别失败，请重试",
		"error.receipt_upload_failed":      "小票图片上传失败",
		"error.upload_too_large":           "文件超过大小限制",
		"error.upload_type_invalid":        "文件类型不支持",

		"error.rate_not_configured": "兑换汇率未配置",
		"error.rate_invalid":        "兑换汇率必须为正数",

		"error.insufficient_points":       "积分余额不足",
		"error.reward_not_found":          "奖品不存在",
		"error.reward_inactive":           "奖品已下架",
		"error.reward_out_of_stock":       "奖品库存不足",
		"error.redemption_not_found":      "兑换记录不存在",
		"error.redemption_state_invalid":  "兑换单当前状态不可取消",
		"error.redemption_quantity_limit": "兑换数量不合法",

		"error.password_weak":        "密码强度不满足要求",
		"error.password_old_invalid": "当前密码不正确",
		"error.save_failed":          "保存失败，请重试",
		"error.fetch_failed":         "数据加载失败，请重试",
		"error.captcha_unavailable":  "验证码服务不可用",
		"error.bonus_invalid":        "奖励积分必须为正数",
		"error.admin_not_found":      "管理员不存在",
		"error.role_invalid":         "角色名或策略不合法",
	},
}
