package service

import "errors"

// 业务错误定义，处理器层负责映射为响应码与文案
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserDisabled       = errors.New("user disabled")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect account or password")
	ErrInvalidPassword    = errors.New("incorrect password")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrCaptchaRequired    = errors.New("captcha required")
	ErrCaptchaInvalid     = errors.New("captcha invalid")
	ErrJWTSecretMissing   = errors.New("jwt secret missing")

	ErrClaimNotFound          = errors.New("receipt claim not found")
	ErrClaimAlreadyReviewed   = errors.New("receipt claim already reviewed")
	ErrRejectNotesRequired    = errors.New("rejection notes required")
	ErrDuplicateContent       = errors.New("receipt image already submitted")
	ErrDuplicateSemantic      = errors.New("semantic duplicate receipt")
	ErrRecognitionUnavailable = errors.New("receipt recognition unavailable")
	ErrUploadInvalid          = errors.New("upload invalid")

	ErrRateNotConfigured = errors.New("exchange rate not configured")
	ErrRateInvalid       = errors.New("exchange rate invalid")

	ErrInsufficientPoints = errors.New("insufficient point balance")
	ErrBalanceConflict    = errors.New("point balance write conflict")

	ErrRewardNotFound         = errors.New("reward not found")
	ErrRewardInvalid          = errors.New("reward input invalid")
	ErrRewardInactive         = errors.New("reward inactive")
	ErrRewardOutOfStock       = errors.New("reward out of stock")
	ErrRedemptionNotFound     = errors.New("redemption not found")
	ErrRedemptionNotCancel    = errors.New("redemption not cancellable")
	ErrRedemptionQuantity     = errors.New("redemption quantity invalid")
	ErrBonusInvalid           = errors.New("bonus points must be positive")
	ErrRedemptionStateInvalid = errors.New("redemption state invalid")
)
