package public

import (
	"errors"

	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var receiptSubmitErrorRules = []mappedHandlerError{
	{target: service.ErrUploadInvalid, code: response.CodeBadRequest, key: "error.upload_type_invalid"},
	{target: service.ErrDuplicateContent, code: response.CodeConflict, key: "error.receipt_duplicate_content"},
	{target: service.ErrDuplicateSemantic, code: response.CodeConflict, key: "error.receipt_duplicate_semantic"},
	{target: service.ErrRecognitionUnavailable, code: response.CodeInternal, key: "error.receipt_recognition_failed"},
}

var redemptionCreateErrorRules = []mappedHandlerError{
	{target: service.ErrRewardNotFound, code: response.CodeNotFound, key: "error.reward_not_found"},
	{target: service.ErrRewardInactive, code: response.CodeBadRequest, key: "error.reward_inactive"},
	{target: service.ErrRewardOutOfStock, code: response.CodeBadRequest, key: "error.reward_out_of_stock"},
	{target: service.ErrRedemptionQuantity, code: response.CodeBadRequest, key: "error.redemption_quantity_limit"},
	{target: service.ErrInsufficientPoints, code: response.CodeBadRequest, key: "error.insufficient_points"},
	{target: service.ErrBalanceConflict, code: response.CodeConflict, key: "error.balance_out_of_sync"},
}

var redemptionCancelErrorRules = []mappedHandlerError{
	{target: service.ErrRedemptionNotFound, code: response.CodeNotFound, key: "error.redemption_not_found"},
	{target: service.ErrRedemptionNotCancel, code: response.CodeBadRequest, key: "error.redemption_state_invalid"},
	{target: service.ErrRedemptionStateInvalid, code: response.CodeBadRequest, key: "error.redemption_state_invalid"},
	{target: service.ErrBalanceConflict, code: response.CodeConflict, key: "error.balance_out_of_sync"},
}

func respondReceiptSubmitError(c *gin.Context, err error) {
	respondWithMappedError(c, err, receiptSubmitErrorRules, response.CodeInternal, "error.receipt_upload_failed")
}

func respondRedemptionCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, redemptionCreateErrorRules, response.CodeInternal, "error.save_failed")
}

func respondRedemptionCancelError(c *gin.Context, err error) {
	respondWithMappedError(c, err, redemptionCancelErrorRules, response.CodeInternal, "error.save_failed")
}
