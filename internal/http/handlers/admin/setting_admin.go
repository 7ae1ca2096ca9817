package admin

import (
	"errors"
	"strconv"

	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateExchangeRateRequest 汇率更新请求
type UpdateExchangeRateRequest struct {
	BahtPerPoint models.Money `json:"baht_per_point" binding:"required"`
}

// AdminGetExchangeRate 获取当前生效汇率
func (h *Handler) AdminGetExchangeRate(c *gin.Context) {
	rate, err := h.RateService.ActiveRate()
	if err != nil {
		if errors.Is(err, service.ErrRateNotConfigured) {
			respondError(c, response.CodeNotFound, "error.rate_not_configured", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}

	response.Success(c, gin.H{"baht_per_point": rate})
}

// AdminUpdateExchangeRate 更新汇率（旧配置保留为历史）
func (h *Handler) AdminUpdateExchangeRate(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	var req UpdateExchangeRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}

	setting, err := h.RateService.UpdateRate(req.BahtPerPoint, adminID)
	if err != nil {
		if errors.Is(err, service.ErrRateInvalid) {
			respondError(c, response.CodeBadRequest, "error.rate_invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}

	requestLog(c).Infow("admin_exchange_rate_updated",
		"admin_id", adminID,
		"baht_per_point", setting.SettingValue.String(),
	)
	response.Success(c, setting)
}

// AdminGetExchangeRateHistory 汇率历史版本
func (h *Handler) AdminGetExchangeRateHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	history, err := h.RateService.RateHistory(limit)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}

	response.Success(c, history)
}
